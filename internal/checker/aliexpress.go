package checker

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// AliExpress does not reliably expose availability, so stock state is always
// Unknown on a working verdict.
func classifyAliExpress(o FetchOutcome, sig Signatures) Verdict {
	if o.HTTPStatus == http.StatusNotFound {
		return brokenVerdict(ReasonNotFound, "status 404")
	}
	if o.HTTPStatus != http.StatusOK {
		return brokenVerdict(ReasonUnclassified, fmt.Sprintf("status %d", o.HTTPStatus))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(o.Body))
	if err != nil {
		return brokenVerdict(ReasonUnclassified, fmt.Sprintf("parse page: %v", err))
	}

	pageText := strings.ToLower(doc.Text())
	if phrase, ok := containsAny(pageText, sig.AliNotFound); ok {
		return brokenVerdict(ReasonNotFound, fmt.Sprintf("item not found marker (%q)", phrase))
	}
	if phrase, ok := containsAny(pageText, sig.AliSellerInactive); ok {
		return brokenVerdict(ReasonSellerInactive, fmt.Sprintf("seller inactive marker (%q)", phrase))
	}

	return workingVerdict(aliexpressPrice(doc, sig.AliPriceSelectors), StockUnknown)
}

var aliexpressPriceMeta = []string{
	`meta[property="product:price:amount"]`,
	`meta[property="og:price:amount"]`,
	`meta[itemprop="price"]`,
	`meta[name="price"]`,
}

func aliexpressPrice(doc *goquery.Document, selectors []string) string {
	for _, sel := range aliexpressPriceMeta {
		content, ok := doc.Find(sel).First().Attr("content")
		if !ok {
			continue
		}
		content = strings.TrimSpace(content)
		if content == "" || content == "0" {
			continue
		}
		if currency, ok := doc.Find(`meta[property="product:price:currency"]`).First().Attr("content"); ok {
			return strings.TrimSpace(currency + " " + content)
		}
		return content
	}

	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		if strings.ContainsAny(text, "£$€¥") || strings.Contains(text, "US") || strings.Contains(text, "EUR") {
			return text
		}
	}
	return ""
}
