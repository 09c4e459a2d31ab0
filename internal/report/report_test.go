package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hoombar/linkpulse/internal/checker"
)

func sampleReport() *checker.Report {
	results := []checker.LinkResult{
		{
			Task: checker.LinkTask{
				SourceTitle: "Gadget review", SourceURL: "https://youtube.com/watch?v=abc",
				SourceKind: checker.SourceVideo, Title: "Keyboard",
				URL: "https://www.amazon.co.uk/dp/B000KEY",
			},
			Verdict: checker.Verdict{Working: true, PriceDisplay: "£89.99", StockState: checker.StockIn},
		},
		{
			Task: checker.LinkTask{
				SourceTitle: "Gadget review", SourceURL: "https://youtube.com/watch?v=abc",
				SourceKind: checker.SourceVideo, Title: "Old mouse",
				URL: "https://www.amazon.co.uk/dp/B000OLD",
			},
			Verdict:  checker.Verdict{Reason: checker.ReasonNotFound, Detail: "status 404"},
			Attempts: 1,
		},
		{
			Task: checker.LinkTask{
				SourceTitle: "Desk tour", SourceURL: "https://example.com/desk-tour",
				SourceKind: checker.SourcePost, Title: "Desk mat",
				URL: "https://s.click.aliexpress.com/e/_Dm1",
			},
			Verdict:  checker.Verdict{Reason: checker.ReasonSellerInactive, Detail: "store is closed"},
			Attempts: 2,
		},
	}
	return &checker.Report{
		RunID:      "run-1234",
		Results:    results,
		Stats:      checker.Stats{Total: 3, Working: 1, Broken: 2},
		FinishedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestTextGroupsBySource(t *testing.T) {
	t.Parallel()

	out := Text(sampleReport(), false)

	if !strings.Contains(out, "BROKEN LINKS FOUND (2 issues)") {
		t.Fatalf("missing header:\n%s", out)
	}
	video := strings.Index(out, `[video] "Gadget review"`)
	post := strings.Index(out, `[post] "Desk tour"`)
	if video == -1 || post == -1 || video > post {
		t.Fatalf("expected video group before post group:\n%s", out)
	}
	if !strings.Contains(out, "|- Old mouse - https://www.amazon.co.uk/dp/B000OLD") {
		t.Fatalf("missing broken link line:\n%s", out)
	}
	if !strings.Contains(out, "`- ERROR [not_found]: status 404") {
		t.Fatalf("missing error line:\n%s", out)
	}
	if !strings.Contains(out, "SUMMARY: 1 working, 2 broken") {
		t.Fatalf("missing summary:\n%s", out)
	}
	// Working links only show under verbose.
	if strings.Contains(out, "Keyboard") {
		t.Fatalf("working link leaked into non-verbose output:\n%s", out)
	}
}

func TestTextVerboseListsWorking(t *testing.T) {
	t.Parallel()

	out := Text(sampleReport(), true)
	if !strings.Contains(out, "WORKING LINKS:") {
		t.Fatalf("missing working section:\n%s", out)
	}
	if !strings.Contains(out, "`- OK Keyboard - £89.99") {
		t.Fatalf("missing working line with price:\n%s", out)
	}
}

func TestTextAllWorking(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.Results = r.Results[:1]
	r.Stats = checker.Stats{Total: 1, Working: 1}

	out := Text(r, false)
	if !strings.Contains(out, "All links are working properly (1 links checked)") {
		t.Fatalf("missing all-clear line:\n%s", out)
	}
}

func TestTextEmptyReport(t *testing.T) {
	t.Parallel()

	out := Text(&checker.Report{}, false)
	if !strings.Contains(out, "No affiliate links found") {
		t.Fatalf("unexpected empty-report output: %q", out)
	}
}

func TestTextInterruptedNotice(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.Interrupted = true
	if !strings.Contains(Text(r, false), "Run was interrupted") {
		t.Fatal("missing interrupted notice")
	}
}

func TestJSONStructure(t *testing.T) {
	t.Parallel()

	raw, err := JSON(sampleReport())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Summary struct {
			TotalLinks int    `json:"total_links"`
			Working    int    `json:"working"`
			Broken     int    `json:"broken"`
			CheckTime  string `json:"check_time"`
			RunID      string `json:"run_id"`
		} `json:"summary"`
		Issues []struct {
			SourceKind string `json:"source_type"`
			LinkURL    string `json:"link_url"`
			Reason     string `json:"reason"`
			Error      string `json:"error"`
			Attempts   int    `json:"attempts"`
		} `json:"issues"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("round trip: %v", err)
	}

	if decoded.Summary.TotalLinks != 3 || decoded.Summary.Working != 1 || decoded.Summary.Broken != 2 {
		t.Fatalf("unexpected summary: %+v", decoded.Summary)
	}
	if decoded.Summary.RunID != "run-1234" {
		t.Fatalf("expected run ID, got %q", decoded.Summary.RunID)
	}
	if decoded.Summary.CheckTime != "2026-03-01T12:00:00Z" {
		t.Fatalf("unexpected check time %q", decoded.Summary.CheckTime)
	}

	if len(decoded.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %+v", decoded.Issues)
	}
	first := decoded.Issues[0]
	if first.SourceKind != "video" || first.LinkURL != "https://www.amazon.co.uk/dp/B000OLD" {
		t.Fatalf("unexpected first issue: %+v", first)
	}
	if first.Reason != "not_found" || first.Error != "status 404" || first.Attempts != 1 {
		t.Fatalf("issue fields lost: %+v", first)
	}
}

func TestJSONEmptyIssuesIsArray(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.Results = r.Results[:1]
	r.Stats = checker.Stats{Total: 1, Working: 1}

	raw, err := JSON(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"issues": []`) {
		t.Fatalf("expected empty issues array, got:\n%s", raw)
	}
}
