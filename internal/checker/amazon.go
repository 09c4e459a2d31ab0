package checker

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func classifyAmazon(o FetchOutcome, sig Signatures) Verdict {
	final, _ := url.Parse(o.FinalURL)

	switch {
	case o.HTTPStatus == http.StatusNotFound || o.HTTPStatus == http.StatusGone:
		return brokenVerdict(ReasonNotFound, fmt.Sprintf("status %d", o.HTTPStatus))
	case o.HTTPStatus == http.StatusInternalServerError && final != nil && strings.Contains(final.Path, "/dp/"):
		// Amazon intermittently serves 500s on valid product pages; a /dp/
		// final URL means the listing itself still resolves.
		return workingVerdict("", StockUnknown)
	}

	if redirectedToSearch(o.FinalURL, final) {
		return brokenVerdict(ReasonRemovedListing,
			fmt.Sprintf("product page redirected to search (%s)", o.FinalURL))
	}

	if o.HTTPStatus != http.StatusOK {
		return brokenVerdict(ReasonUnclassified, fmt.Sprintf("status %d", o.HTTPStatus))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(o.Body))
	if err != nil {
		return brokenVerdict(ReasonUnclassified, fmt.Sprintf("parse page: %v", err))
	}

	pageText := strings.ToLower(doc.Text())
	if phrase, ok := containsAny(pageText, sig.AmazonNoProduct); ok {
		return brokenVerdict(ReasonRemovedListing, fmt.Sprintf("no-product page (%q)", phrase))
	}

	if !hasAnySelector(doc, sig.AmazonTitleSelectors) {
		return brokenVerdict(ReasonUnclassified, "no product title found in page")
	}

	price := amazonPrice(doc, sig.AmazonPriceSelectors)

	if phrase, ok := containsAny(pageText, sig.AmazonOutOfStock); ok {
		// "Currently unavailable" means the listing has no offer at all;
		// the out-of-stock phrases describe a live listing.
		if strings.Contains(strings.ToLower(phrase), "unavailable") {
			return brokenVerdict(ReasonRemovedListing, fmt.Sprintf("product %s", strings.ToLower(phrase)))
		}
		return workingVerdict(price, StockOut)
	}
	if strings.Contains(pageText, "in stock") {
		return workingVerdict(price, StockIn)
	}
	return workingVerdict(price, StockUnknown)
}

// redirectedToSearch matches search markers anywhere in the final URL, not
// just the path: Amazon tags some search redirects only in the query string.
func redirectedToSearch(finalURL string, final *url.URL) bool {
	lower := strings.ToLower(finalURL)
	if strings.Contains(lower, "/s?") || strings.Contains(lower, "search") {
		return true
	}
	return final != nil && (final.Path == "/s" || strings.HasPrefix(final.Path, "/s/"))
}

func hasAnySelector(doc *goquery.Document, selectors []string) bool {
	for _, sel := range selectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}

func amazonPrice(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		if strings.ContainsAny(text, "£$€") {
			return text
		}
	}
	return ""
}
