package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func (c *Collector) fetchPost(ctx context.Context, post Entry) sourceContent {
	resp, err := c.get(ctx, post.URL)
	if err != nil {
		return sourceContent{
			title: orDefault(post.Title, "Blog Post"),
			err:   fmt.Sprintf("failed to fetch blog post: %v", err),
		}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return sourceContent{
			title: orDefault(post.Title, "Blog Post"),
			err:   fmt.Sprintf("failed to fetch blog post: status %d", resp.StatusCode),
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return sourceContent{
			title: orDefault(post.Title, "Blog Post"),
			err:   fmt.Sprintf("failed to parse blog post: %v", err),
		}
	}

	title := post.Title
	if title == "" {
		title = blogTitle(doc)
	}

	doc.Find("script, style").Remove()
	text := doc.Text()

	// Anchor text and href lines let the extractor catch links whose URL
	// only appears in an attribute, not in visible text.
	var anchors []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		label := strings.TrimSpace(s.Text())
		if label != "" && href != "" {
			anchors = append(anchors, label+": "+href)
		}
	})

	return sourceContent{
		title: orDefault(title, "Blog Post"),
		text:  text + "\n" + strings.Join(anchors, "\n"),
	}
}

func blogTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if usableTitle(title) {
		return title
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		og = strings.TrimSpace(og)
		if usableTitle(og) {
			return og
		}
	}
	h1 := strings.TrimSpace(doc.Find("h1").First().Text())
	if usableTitle(h1) {
		return h1
	}
	return ""
}

func usableTitle(title string) bool {
	return len(title) >= 3 && !strings.Contains(title, "Blog Post")
}
