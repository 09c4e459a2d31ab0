package sources

import (
	"regexp"
	"strings"
)

// ExtractedLink is one affiliate URL found in free text, with a best-effort
// title taken from the surrounding line.
type ExtractedLink struct {
	URL   string
	Title string
}

var affiliatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://(?:www\.)?amazon\.co\.uk/[^\s<>"']+`),
	regexp.MustCompile(`(?i)https?://(?:www\.)?amazon\.com/[^\s<>"']+`),
	regexp.MustCompile(`(?i)https?://amzn\.to/[a-zA-Z0-9]+`),
	regexp.MustCompile(`(?i)https?://(?:www\.)?aliexpress\.com/[^\s<>"']+`),
	regexp.MustCompile(`(?i)https?://s\.click\.aliexpress\.com/e/_[a-zA-Z0-9]+`),
}

// ExtractAffiliateLinks scans text for Amazon and AliExpress product URLs,
// including the amzn.to and s.click.aliexpress shortener forms.
func ExtractAffiliateLinks(text string) []ExtractedLink {
	if text == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var links []ExtractedLink
	for _, pattern := range affiliatePatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			rawURL := strings.TrimRight(strings.TrimSpace(match), `).,;:'"`)
			if rawURL == "" {
				continue
			}
			if _, ok := seen[rawURL]; ok {
				continue
			}
			seen[rawURL] = struct{}{}
			links = append(links, ExtractedLink{
				URL:   rawURL,
				Title: titleFromContext(text, rawURL),
			})
		}
	}
	return links
}

var urlInLine = regexp.MustCompile(`https?://\S+`)

// titleFromContext takes the text left on the line once URLs are stripped.
// Video descriptions commonly label links as "Thing I reviewed: <url>".
func titleFromContext(text, rawURL string) string {
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, rawURL) {
			continue
		}
		cleaned := strings.TrimSpace(urlInLine.ReplaceAllString(line, ""))
		cleaned = strings.Trim(cleaned, "-–:|• \t")
		if len(cleaned) > 5 {
			if len(cleaned) > 50 {
				cleaned = cleaned[:50]
			}
			return cleaned
		}
	}
	return "Link"
}
