package checker

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

const maxBodyBytes = 5 * 1024 * 1024

var errRedirectLimit = errors.New("redirect limit reached")

// Fetcher issues a single HTTP request with timeout, retry, exponential
// backoff, and redirect-chain capture. It has no notion of platforms or
// verdicts: a 404 is a successful fetch carrying that status.
type Fetcher struct {
	client      *http.Client
	rotator     *Rotator
	timeout     time.Duration
	maxRetries  int
	maxRedirect int
	backoffBase time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewFetcher builds a fetcher. A nil client gets a pooled transport; the
// rotator supplies a fresh identity per attempt.
func NewFetcher(cfg Config, rotator *Rotator) *Fetcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRedirect := cfg.MaxRedirects
	if maxRedirect <= 0 {
		maxRedirect = 10
	}
	backoff := cfg.BackoffBase
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	retries := cfg.RetryAttempts
	if retries < 0 {
		retries = 0
	}
	return &Fetcher{
		client:      client,
		rotator:     rotator,
		timeout:     timeout,
		maxRetries:  retries,
		maxRedirect: maxRedirect,
		backoffBase: backoff,
		sleep:       sleepContext,
	}
}

// Fetch retrieves rawURL, retrying transport failures and 429/503 responses
// up to the retry budget. It always returns an outcome, never an error: the
// scheduler must receive a value for every task.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) FetchOutcome {
	started := time.Now()
	var last FetchOutcome

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			if err := f.sleep(ctx, f.backoffDelay(attempt-1)); err != nil {
				// Interrupted mid-backoff; report what we had.
				if last.Failed == "" {
					return failedOutcome(FailRateLimited,
						fmt.Sprintf("status %d, interrupted during backoff: %v", last.HTTPStatus, err),
						attempt, time.Since(started))
				}
				return last
			}
		}

		outcome := f.fetchOnce(ctx, rawURL)
		outcome.Attempts = attempt + 1
		outcome.Elapsed = time.Since(started)
		last = outcome

		if !f.retryable(outcome) {
			return outcome
		}
		if ctx.Err() != nil {
			return outcome
		}
	}

	// Retries exhausted on a 429/503 response: surface as a rate-limit
	// failure rather than handing the classifier a transient status.
	if last.Failed == "" && retryableStatus(last.HTTPStatus) {
		return failedOutcome(FailRateLimited,
			fmt.Sprintf("status %d after %d attempts", last.HTTPStatus, last.Attempts),
			last.Attempts, last.Elapsed)
	}
	return last
}

func (f *Fetcher) retryable(o FetchOutcome) bool {
	switch o.Failed {
	case FailTimeout, FailConnection:
		return true
	case "":
		return retryableStatus(o.HTTPStatus)
	default:
		return false
	}
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) FetchOutcome {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return FetchOutcome{Failed: FailConnection, FailDetail: err.Error()}
	}

	identity := f.rotator.Next()
	req.Header.Set("User-Agent", identity.UserAgent)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	for k, v := range identity.Headers {
		req.Header.Set(k, v)
	}

	var chain []string
	client := &http.Client{
		Transport: f.client.Transport,
		Jar:       f.client.Jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.maxRedirect {
				return errRedirectLimit
			}
			chain = append(chain, req.URL.String())
			return nil
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return classifyFetchError(err, chain)
	}

	body, err := readBody(resp)
	if err != nil {
		resp.Body.Close()
		return FetchOutcome{Failed: FailConnection, FailDetail: fmt.Sprintf("read body: %v", err), RedirectChain: chain}
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return FetchOutcome{
		FinalURL:      finalURL,
		HTTPStatus:    resp.StatusCode,
		Body:          body,
		RedirectChain: chain,
	}
}

func (f *Fetcher) backoffDelay(attempt int) time.Duration {
	delay := f.backoffBase << uint(attempt)
	// Full jitter keeps concurrent workers from retrying in lockstep.
	jitter := time.Duration(rand.Int63n(int64(f.backoffBase) + 1))
	return delay + jitter
}

func classifyFetchError(err error, chain []string) FetchOutcome {
	detail := err.Error()
	switch {
	case errors.Is(err, errRedirectLimit):
		return FetchOutcome{Failed: FailTooManyRedirects, FailDetail: detail, RedirectChain: chain}
	case errors.Is(err, context.DeadlineExceeded):
		return FetchOutcome{Failed: FailTimeout, FailDetail: detail, RedirectChain: chain}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FetchOutcome{Failed: FailTimeout, FailDetail: detail, RedirectChain: chain}
	}
	return FetchOutcome{Failed: FailConnection, FailDetail: detail, RedirectChain: chain}
}

func failedOutcome(kind FailKind, detail string, attempts int, elapsed time.Duration) FetchOutcome {
	return FetchOutcome{Failed: kind, FailDetail: detail, Attempts: attempts, Elapsed: elapsed}
}

func readBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil {
		return nil, nil
	}
	defer resp.Body.Close()

	reader := io.Reader(resp.Body)
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		decoded, err := charset.NewReader(reader, ct)
		if err == nil {
			reader = decoded
		}
	}

	return io.ReadAll(io.LimitReader(reader, maxBodyBytes))
}
