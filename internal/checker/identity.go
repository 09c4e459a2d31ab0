package checker

import (
	"math/rand"
	"sync"
)

// Identity is the header set presented by one outgoing request.
type Identity struct {
	UserAgent string
	Headers   map[string]string
}

// Rotator hands out a pseudo-random identity per request so consecutive
// requests do not share an obvious fingerprint.
type Rotator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	agents []string
	extras []map[string]string
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
}

var defaultHeaderSets = []map[string]string{
	{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language":           "en-GB,en;q=0.5",
		"DNT":                       "1",
		"Upgrade-Insecure-Requests": "1",
	},
	{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
		"Sec-Fetch-Dest":  "document",
		"Sec-Fetch-Mode":  "navigate",
		"Sec-Fetch-Site":  "none",
	},
	{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-GB,en-US;q=0.9,en;q=0.8",
		"Referer":         "https://www.google.com/",
	},
}

// NewRotator builds a rotator over the given user agent pool. An empty pool
// falls back to the built-in desktop/mobile agents.
func NewRotator(agents []string, seed int64) *Rotator {
	if len(agents) == 0 {
		agents = defaultUserAgents
	}
	return &Rotator{
		rng:    rand.New(rand.NewSource(seed)),
		agents: agents,
		extras: defaultHeaderSets,
	}
}

// Next returns the identity for the next request. Safe for concurrent use.
func (r *Rotator) Next() Identity {
	r.mu.Lock()
	agent := r.agents[r.rng.Intn(len(r.agents))]
	extra := r.extras[r.rng.Intn(len(r.extras))]
	r.mu.Unlock()

	headers := make(map[string]string, len(extra))
	for k, v := range extra {
		headers[k] = v
	}
	return Identity{UserAgent: agent, Headers: headers}
}
