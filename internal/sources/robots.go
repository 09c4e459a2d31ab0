package sources

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
)

const robotsUserAgent = "linkpulse-bot/1.0"

// robotsAgent evaluates robots.txt for discovery crawling, caching per host.
// Only discovery respects robots: validating a single configured affiliate
// link is not crawling.
type robotsAgent struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]*robotstxt.RobotsData
}

func newRobotsAgent(client *http.Client) *robotsAgent {
	return &robotsAgent{
		client: client,
		cache:  make(map[string]*robotstxt.RobotsData),
	}
}

// allowed reports whether the discovery crawler may visit the target URL.
// Unreachable or malformed robots.txt permits the visit.
func (a *robotsAgent) allowed(ctx context.Context, target *url.URL) bool {
	if target == nil || target.Host == "" {
		return false
	}
	host := strings.ToLower(target.Host)

	a.mu.Lock()
	rules, cached := a.cache[host]
	a.mu.Unlock()

	if !cached {
		rules = a.fetch(ctx, target)
		a.mu.Lock()
		a.cache[host] = rules
		a.mu.Unlock()
	}

	if rules == nil {
		return true
	}
	return rules.TestAgent(target.Path, robotsUserAgent)
}

func (a *robotsAgent) fetch(ctx context.Context, target *url.URL) *robotstxt.RobotsData {
	robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", robotsUserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil
	}
	rules, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return rules
}
