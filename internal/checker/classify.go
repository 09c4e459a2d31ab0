package checker

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Signatures holds the platform detection heuristics. Target sites change
// markup over time, so the phrase and selector lists are configuration with
// built-in defaults rather than hard-coded constants.
type Signatures struct {
	AmazonTitleSelectors []string
	AmazonPriceSelectors []string
	AmazonNoProduct      []string
	AmazonOutOfStock     []string
	AliNotFound          []string
	AliSellerInactive    []string
	AliPriceSelectors    []string
}

// DefaultSignatures returns the built-in detection heuristics.
func DefaultSignatures() Signatures {
	return Signatures{
		AmazonTitleSelectors: []string{"#productTitle", "h1.a-size-large", "h1 span"},
		AmazonPriceSelectors: []string{".a-price .a-offscreen", ".a-offscreen", ".a-price-whole", "#price_inside_buybox"},
		AmazonNoProduct:      []string{"looking for something?", "we couldn't find that page", "the web address you entered is not a functioning page"},
		AmazonOutOfStock:     []string{"currently unavailable", "temporarily out of stock", "out of stock"},
		AliNotFound:          []string{"product not found", "item not available", "this item is no longer available", "sorry, the page you requested can not be found"},
		AliSellerInactive:    []string{"seller not found", "store is closed", "this store is unavailable"},
		AliPriceSelectors:    []string{".product-price-current", ".price-current", ".pdp-price", ".price-value", "span[class*=price]"},
	}
}

func (s *Signatures) applyDefaults() {
	def := DefaultSignatures()
	if len(s.AmazonTitleSelectors) == 0 {
		s.AmazonTitleSelectors = def.AmazonTitleSelectors
	}
	if len(s.AmazonPriceSelectors) == 0 {
		s.AmazonPriceSelectors = def.AmazonPriceSelectors
	}
	if len(s.AmazonNoProduct) == 0 {
		s.AmazonNoProduct = def.AmazonNoProduct
	}
	if len(s.AmazonOutOfStock) == 0 {
		s.AmazonOutOfStock = def.AmazonOutOfStock
	}
	if len(s.AliNotFound) == 0 {
		s.AliNotFound = def.AliNotFound
	}
	if len(s.AliSellerInactive) == 0 {
		s.AliSellerInactive = def.AliSellerInactive
	}
	if len(s.AliPriceSelectors) == 0 {
		s.AliPriceSelectors = def.AliPriceSelectors
	}
}

type platformRule struct {
	name     string
	match    func(host string) bool
	classify func(o FetchOutcome, sig Signatures) Verdict
}

// The registry is closed: adding a platform is a new entry here plus its
// classify function, dispatched on the final resolved host only. A redirect
// off a supported platform downgrades to the generic rule.
var platformRules = []platformRule{
	{
		name:     "amazon",
		match:    func(host string) bool { return strings.Contains(host, "amazon.") },
		classify: classifyAmazon,
	},
	{
		name:     "aliexpress",
		match:    func(host string) bool { return strings.Contains(host, "aliexpress.") },
		classify: classifyAliExpress,
	},
}

// Classify maps a fetch outcome to a verdict. Pure function: given the same
// outcome and signatures it always returns the same verdict.
func Classify(o FetchOutcome, sig Signatures) Verdict {
	sig.applyDefaults()

	if o.Failed != "" {
		if o.Failed == FailRateLimited {
			return brokenVerdict(ReasonRateLimited, o.FailDetail)
		}
		return brokenVerdict(ReasonNetworkFailure, fmt.Sprintf("%s: %s", o.Failed, o.FailDetail))
	}

	parsed, err := url.Parse(o.FinalURL)
	if err != nil {
		return brokenVerdict(ReasonUnclassified, fmt.Sprintf("unparseable final URL %q", o.FinalURL))
	}
	host := strings.ToLower(parsed.Hostname())

	for _, rule := range platformRules {
		if rule.match(host) {
			return rule.classify(o, sig)
		}
	}
	// A 404 is a broken link on any host; beyond that the engine declines
	// to guess on unsupported platforms rather than emit a false positive.
	if o.HTTPStatus == http.StatusNotFound || o.HTTPStatus == http.StatusGone {
		return brokenVerdict(ReasonNotFound, fmt.Sprintf("status %d from %q", o.HTTPStatus, host))
	}
	return brokenVerdict(ReasonUnclassified, fmt.Sprintf("unsupported platform host %q", host))
}

func containsAny(haystack string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if p == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}
