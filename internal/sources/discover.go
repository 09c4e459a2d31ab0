package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

var articlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/blog/`),
	regexp.MustCompile(`(?i)/article/`),
	regexp.MustCompile(`(?i)/post/`),
	regexp.MustCompile(`(?i)/news/`),
	regexp.MustCompile(`/\d{4}/\d{2}/`),
}

var excludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/tag/`),
	regexp.MustCompile(`(?i)/category/`),
	regexp.MustCompile(`(?i)/author/`),
	regexp.MustCompile(`(?i)/search`),
	regexp.MustCompile(`(?i)/wp-admin/`),
	regexp.MustCompile(`(?i)/wp-content/`),
	regexp.MustCompile(`(?i)\.(jpg|png|gif|pdf|zip)$`),
}

// Discover expands channels into video entries and domains into post entries.
// Sources are discovered concurrently; a failing source logs and contributes
// nothing rather than failing the run.
func (c *Collector) Discover(ctx context.Context, channels, domains []Entry) (videos, posts []Entry) {
	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(4)

	for _, channel := range channels {
		channel := channel
		group.Go(func() error {
			found := c.discoverChannel(groupCtx, channel)
			mu.Lock()
			videos = append(videos, found...)
			mu.Unlock()
			return nil
		})
	}
	for _, domain := range domains {
		domain := domain
		group.Go(func() error {
			found := c.discoverDomain(groupCtx, domain)
			mu.Lock()
			posts = append(posts, found...)
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	c.logger.Info("discovery finished",
		"channels", len(channels), "videos", len(videos),
		"domains", len(domains), "posts", len(posts),
	)
	return videos, posts
}

var channelVideoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"videoId":"([a-zA-Z0-9_-]{11})"`),
	regexp.MustCompile(`/watch\?v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`"watchEndpoint":\{"videoId":"([a-zA-Z0-9_-]{11})"`),
}

// discoverChannel scrapes the channel's videos tab for video IDs.
func (c *Collector) discoverChannel(ctx context.Context, channel Entry) []Entry {
	base := strings.TrimRight(channel.URL, "/")
	seen := make(map[string]struct{})

	for _, candidate := range []string{base + "/videos", base + "/streams", base} {
		if len(seen) >= c.maxVideos || ctx.Err() != nil {
			break
		}
		body, err := c.getBody(ctx, candidate)
		if err != nil {
			c.logger.Debug("channel page fetch failed", "url", candidate, "error", err)
			continue
		}
		for _, pattern := range channelVideoIDPatterns {
			for _, m := range pattern.FindAllStringSubmatch(body, -1) {
				seen[m[1]] = struct{}{}
				if len(seen) >= c.maxVideos {
					break
				}
			}
		}
		if len(seen) > 0 {
			break
		}
	}

	videos := make([]Entry, 0, len(seen))
	for id := range seen {
		videos = append(videos, Entry{URL: "https://youtube.com/watch?v=" + id})
	}
	return videos
}

// discoverDomain finds article URLs via sitemap, then RSS, then a shallow
// crawl, stopping at the first method that yields results.
func (c *Collector) discoverDomain(ctx context.Context, domain Entry) []Entry {
	root := domain.URL
	if !strings.HasPrefix(root, "http://") && !strings.HasPrefix(root, "https://") {
		root = "https://" + root
	}
	root = strings.TrimRight(root, "/")

	urls := c.sitemapURLs(ctx, root)
	if len(urls) < c.maxPosts/2 {
		urls = appendUnique(urls, c.feedURLs(ctx, root))
	}
	if len(urls) < c.maxPosts/2 {
		visited := make(map[string]struct{})
		urls = appendUnique(urls, c.crawlDomain(ctx, root, root, 0, visited))
	}
	if len(urls) > c.maxPosts {
		urls = urls[:c.maxPosts]
	}

	posts := make([]Entry, 0, len(urls))
	for _, u := range urls {
		posts = append(posts, Entry{URL: u})
	}
	return posts
}

func (c *Collector) sitemapURLs(ctx context.Context, root string) []string {
	candidates := []string{
		root + "/sitemap.xml",
		root + "/sitemap_index.xml",
		root + "/post-sitemap.xml",
		root + "/blog-sitemap.xml",
	}
	for _, sitemapURL := range candidates {
		body, err := c.getBody(ctx, sitemapURL)
		if err != nil {
			continue
		}
		var urls []string
		for _, loc := range xmlElementText(body, "loc") {
			if isArticleURL(loc) {
				urls = append(urls, loc)
				if len(urls) >= c.maxPosts {
					break
				}
			}
		}
		if len(urls) > 0 {
			return urls
		}
	}
	return nil
}

func (c *Collector) feedURLs(ctx context.Context, root string) []string {
	candidates := []string{
		root + "/feed",
		root + "/rss.xml",
		root + "/feed.xml",
		root + "/blog/feed",
	}
	for _, feedURL := range candidates {
		body, err := c.getBody(ctx, feedURL)
		if err != nil {
			continue
		}
		urls := feedItemLinks(body)
		filtered := urls[:0]
		for _, u := range urls {
			if isArticleURL(u) {
				filtered = append(filtered, u)
				if len(filtered) >= c.maxPosts {
					break
				}
			}
		}
		if len(filtered) > 0 {
			return filtered
		}
	}
	return nil
}

func (c *Collector) crawlDomain(ctx context.Context, root, pageURL string, depth int, visited map[string]struct{}) []string {
	if depth >= c.crawlDepth || ctx.Err() != nil {
		return nil
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	if !c.robots.allowed(ctx, parsed) {
		c.logger.Debug("discovery blocked by robots", "url", pageURL)
		return nil
	}

	resp, err := c.get(ctx, pageURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	resp.Body.Close()
	if err != nil || resp.StatusCode != http.StatusOK {
		return nil
	}

	var urls []string
	var promising []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		resolved, err := parsed.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		resolved.Fragment = ""
		full := resolved.String()
		if !strings.HasPrefix(full, root) {
			return
		}
		if _, ok := visited[full]; ok {
			return
		}
		visited[full] = struct{}{}
		if isArticleURL(full) {
			urls = append(urls, full)
		} else if strings.Contains(full, "/blog") || strings.Contains(full, "/news") {
			promising = append(promising, full)
		}
	})

	if len(urls) < c.maxPosts/2 && depth+1 < c.crawlDepth {
		if len(promising) > 3 {
			promising = promising[:3]
		}
		for _, link := range promising {
			urls = append(urls, c.crawlDomain(ctx, root, link, depth+1, visited)...)
			if len(urls) >= c.maxPosts {
				break
			}
		}
	}
	if len(urls) > c.maxPosts {
		urls = urls[:c.maxPosts]
	}
	return urls
}

func isArticleURL(raw string) bool {
	for _, pattern := range excludePatterns {
		if pattern.MatchString(raw) {
			return false
		}
	}
	for _, pattern := range articlePatterns {
		if pattern.MatchString(raw) {
			return true
		}
	}
	// Deep paths are usually articles even without a recognised prefix.
	return strings.Count(raw, "/") > 4
}

func (c *Collector) getBody(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// xmlElementText returns the character data of every element with the given
// local name, tolerating both sitemap and sitemap-index documents.
func xmlElementText(document, name string) []string {
	decoder := xml.NewDecoder(strings.NewReader(document))
	decoder.Strict = false
	var values []string
	var inside bool
	var buf strings.Builder
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == name {
				inside = true
				buf.Reset()
			}
		case xml.CharData:
			if inside {
				buf.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == name && inside {
				inside = false
				if v := strings.TrimSpace(buf.String()); v != "" {
					values = append(values, v)
				}
			}
		}
	}
	return values
}

// feedItemLinks pulls entry links out of an RSS or Atom document.
func feedItemLinks(document string) []string {
	var links []string

	// RSS: <item><link>https://...</link></item>
	for _, link := range xmlElementText(document, "link") {
		if strings.HasPrefix(link, "http") {
			links = append(links, link)
		}
	}

	// Atom: <entry><link href="https://..."/></entry>
	decoder := xml.NewDecoder(strings.NewReader(document))
	decoder.Strict = false
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if start, ok := token.(xml.StartElement); ok && start.Name.Local == "link" {
			for _, attr := range start.Attr {
				if attr.Name.Local == "href" && strings.HasPrefix(attr.Value, "http") {
					links = append(links, attr.Value)
				}
			}
		}
	}
	return dedupe(links)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func appendUnique(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, v := range existing {
		seen[v] = struct{}{}
	}
	for _, v := range extra {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		existing = append(existing, v)
	}
	return existing
}
