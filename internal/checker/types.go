package checker

import (
	"net/http"
	"time"
)

// Config defines inputs for a validation run.
type Config struct {
	ConcurrentRequests int
	RequestTimeout     time.Duration
	RetryAttempts      int
	DelayBetween       time.Duration
	MaxRedirects       int
	BackoffBase        time.Duration
	// RatePerWindow optionally caps the aggregate request count inside
	// RateWindow on top of the minimum inter-request delay.
	RatePerWindow int
	RateWindow    time.Duration
	Client        *http.Client
	Signatures    Signatures
	Progress      func(LinkResult)
}

// SourceKind identifies the kind of content a link was extracted from.
type SourceKind string

const (
	// SourceVideo marks a link found in a YouTube video description.
	SourceVideo SourceKind = "video"
	// SourcePost marks a link found in a blog article body.
	SourcePost SourceKind = "post"
)

// LinkTask is one candidate affiliate link paired with its originating source.
type LinkTask struct {
	SourceTitle string
	SourceURL   string
	SourceKind  SourceKind
	Title       string
	URL         string
}

// FailKind labels a transport-level terminal failure.
type FailKind string

const (
	FailTimeout          FailKind = "timeout"
	FailConnection       FailKind = "connection"
	FailTooManyRedirects FailKind = "too_many_redirects"
	FailRateLimited      FailKind = "rate_limited"
)

// FetchOutcome is the result of one fetch including internal retries.
// Either FinalURL/HTTPStatus/Body are populated, or Failed carries the
// terminal failure kind. Never both.
type FetchOutcome struct {
	FinalURL      string
	HTTPStatus    int
	Body          []byte
	RedirectChain []string
	Failed        FailKind
	FailDetail    string
	Attempts      int
	Elapsed       time.Duration
}

// StockState reports product availability as displayed on the page.
type StockState string

const (
	StockIn      StockState = "in_stock"
	StockOut     StockState = "out_of_stock"
	StockUnknown StockState = "unknown"
)

// BrokenReason is the typed cause attached to a broken verdict.
type BrokenReason string

const (
	ReasonNotFound       BrokenReason = "not_found"
	ReasonRedirected     BrokenReason = "redirected"
	ReasonRemovedListing BrokenReason = "removed_listing"
	ReasonSellerInactive BrokenReason = "seller_inactive"
	ReasonRateLimited    BrokenReason = "rate_limited"
	ReasonNetworkFailure BrokenReason = "network_failure"
	ReasonUnclassified   BrokenReason = "unclassified"
)

// Verdict is the final classification of a link.
type Verdict struct {
	Working      bool
	PriceDisplay string
	StockState   StockState
	Reason       BrokenReason
	Detail       string
}

// LinkResult pairs a task with its verdict; the unit handed to reporting.
type LinkResult struct {
	Task     LinkTask
	Verdict  Verdict
	Attempts int
	Elapsed  time.Duration
}

// Stats aggregates run level counters.
type Stats struct {
	Total       int
	Working     int
	Broken      int
	Rejected    int
	Interrupted int
	Duration    time.Duration
}

// Report captures the outcome of a validation run.
type Report struct {
	RunID       string
	Results     []LinkResult
	Stats       Stats
	Interrupted bool
	StartedAt   time.Time
	FinishedAt  time.Time
}

func workingVerdict(price string, stock StockState) Verdict {
	if stock == "" {
		stock = StockUnknown
	}
	return Verdict{Working: true, PriceDisplay: price, StockState: stock}
}

func brokenVerdict(reason BrokenReason, detail string) Verdict {
	return Verdict{Working: false, Reason: reason, Detail: detail}
}
