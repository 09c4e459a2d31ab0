// Package report renders validation results for humans and machines.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hoombar/linkpulse/internal/checker"
)

// Text renders the grouped human-readable report. Broken links are always
// listed; working links only under verbose.
func Text(r *checker.Report, verbose bool) string {
	if len(r.Results) == 0 {
		return "No affiliate links found in the provided sources."
	}

	var working, broken []checker.LinkResult
	for _, result := range r.Results {
		if result.Verdict.Working {
			working = append(working, result)
		} else {
			broken = append(broken, result)
		}
	}

	var sb strings.Builder
	if len(broken) > 0 {
		fmt.Fprintf(&sb, "BROKEN LINKS FOUND (%d issues)\n\n", len(broken))
		writeGroups(&sb, broken, func(sb *strings.Builder, result checker.LinkResult) {
			fmt.Fprintf(sb, "  |- %s - %s\n", linkTitle(result), result.Task.URL)
			fmt.Fprintf(sb, "     `- ERROR [%s]: %s\n", result.Verdict.Reason, result.Verdict.Detail)
		})
	}

	if verbose && len(working) > 0 {
		sb.WriteString("WORKING LINKS:\n")
		writeGroups(&sb, working, func(sb *strings.Builder, result checker.LinkResult) {
			line := "  `- OK " + linkTitle(result)
			if result.Verdict.PriceDisplay != "" {
				line += " - " + result.Verdict.PriceDisplay
			}
			if result.Verdict.StockState == checker.StockOut {
				line += " (out of stock)"
			}
			sb.WriteString(line + "\n")
		})
	}

	if r.Interrupted {
		sb.WriteString("Run was interrupted; results are partial.\n")
	}
	if len(broken) == 0 {
		fmt.Fprintf(&sb, "All links are working properly (%d links checked)\n", len(working))
	} else {
		fmt.Fprintf(&sb, "SUMMARY: %d working, %d broken\n", len(working), len(broken))
	}
	return sb.String()
}

// writeGroups clusters results under their originating source title,
// preserving first-seen source order.
func writeGroups(sb *strings.Builder, results []checker.LinkResult, write func(*strings.Builder, checker.LinkResult)) {
	type key struct {
		kind  checker.SourceKind
		title string
	}
	var order []key
	groups := make(map[key][]checker.LinkResult)
	for _, result := range results {
		k := key{kind: result.Task.SourceKind, title: result.Task.SourceTitle}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], result)
	}

	for _, k := range order {
		marker := "[post]"
		if k.kind == checker.SourceVideo {
			marker = "[video]"
		}
		fmt.Fprintf(sb, "%s %q\n", marker, k.title)
		for _, result := range groups[k] {
			write(sb, result)
		}
		sb.WriteString("\n")
	}
}

func linkTitle(result checker.LinkResult) string {
	if result.Task.Title != "" && result.Task.Title != "Link" {
		return result.Task.Title
	}
	return result.Task.URL
}

type jsonSummary struct {
	TotalLinks  int    `json:"total_links"`
	Working     int    `json:"working"`
	Broken      int    `json:"broken"`
	Interrupted bool   `json:"interrupted,omitempty"`
	CheckTime   string `json:"check_time"`
	RunID       string `json:"run_id"`
}

type jsonIssue struct {
	SourceKind  string `json:"source_type"`
	SourceTitle string `json:"source_title"`
	SourceURL   string `json:"source_url"`
	LinkURL     string `json:"link_url"`
	LinkTitle   string `json:"link_title"`
	Reason      string `json:"reason"`
	Error       string `json:"error"`
	Attempts    int    `json:"attempts,omitempty"`
}

type jsonReport struct {
	Summary jsonSummary `json:"summary"`
	Issues  []jsonIssue `json:"issues"`
}

// JSON renders the machine-readable report: a summary plus one record per
// broken link.
func JSON(r *checker.Report) ([]byte, error) {
	out := jsonReport{
		Summary: jsonSummary{
			TotalLinks:  r.Stats.Total,
			Working:     r.Stats.Working,
			Broken:      r.Stats.Broken,
			Interrupted: r.Interrupted,
			CheckTime:   r.FinishedAt.Format(time.RFC3339),
			RunID:       r.RunID,
		},
		Issues: []jsonIssue{},
	}
	for _, result := range r.Results {
		if result.Verdict.Working {
			continue
		}
		out.Issues = append(out.Issues, jsonIssue{
			SourceKind:  string(result.Task.SourceKind),
			SourceTitle: result.Task.SourceTitle,
			SourceURL:   result.Task.SourceURL,
			LinkURL:     result.Task.URL,
			LinkTitle:   result.Task.Title,
			Reason:      string(result.Verdict.Reason),
			Error:       result.Verdict.Detail,
			Attempts:    result.Attempts,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}
