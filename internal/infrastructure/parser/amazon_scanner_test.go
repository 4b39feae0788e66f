package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"EcoAware/internal/scanner"
)

const listingHTML = `
<html><body>
<div id="ppd">
  <span id="productTitle">
    Bamboo   Toothbrush, Pack of 4
  </span>
  <a id="bylineInfo">Visit the GreenCo Store</a>
  <span id="acrPopover"><span class="a-icon-alt">4.5 out of 5 stars</span></span>
  <span id="acrCustomerReviewText">1,234 ratings</span>
  <div id="corePrice_feature_div"><span class="a-price"><span class="a-offscreen">$12.99</span></span></div>
  <span class="a-price a-text-price"><span class="a-offscreen">$1,299.00</span></span>
  <span class="a-badge-text">Amazon's Choice</span>
  <span class="a-badge-text">Amazon's Choice</span>
  <div id="climatePledgeFriendly"></div>
  <img id="landingImage" data-old-hires="https://images.example.com/brush.jpg">
  <div id="feature-bullets"><ul>
    <li><span class="a-list-item">100% biodegradable bamboo handle</span></li>
    <li><span class="a-list-item">Tiny</span></li>
  </ul></div>
</div>
<div id="wayfinding-breadcrumbs_feature_div"><ul><li><a>Beauty</a></li><li><a>Oral Care</a></li></ul></div>
<div id="productDescription"><p>Made from Moso bamboo.</p></div>
<table id="productDetails_techSpec_section_1">
  <tr><th> Material </th><td>Bamboo</td></tr>
  <tr><th>Manufacturer Warranty</th><td>&lrm;1 year</td></tr>
</table>
<div data-hook="review-body"><span>Nice</span></div>
<div data-hook="review-body"><span>Great brush, the bamboo handle feels sturdy.</span></div>
<div id="similar"><span class="a-badge-text">Best Seller</span></div>
{{reviews}}
</body></html>`

func reviewBlocks(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<div class="review-text-content"><span>Review number %d is long enough to keep.</span></div>`, i)
	}
	return b.String()
}

func TestAmazonScannerParse(t *testing.T) {
	t.Parallel()

	sc := NewAmazonScanner(nil, "", nil)
	page := strings.Replace(listingHTML, "{{reviews}}", reviewBlocks(6), 1)

	record, err := sc.Parse(strings.NewReader(page), "https://www.amazon.com/dp/B000TEST")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if record.Title != "Bamboo Toothbrush, Pack of 4" {
		t.Fatalf("unexpected title: %q", record.Title)
	}
	if record.Price == nil || *record.Price != 12.99 {
		t.Fatalf("unexpected price: %v", record.Price)
	}
	if record.ListPrice == nil || *record.ListPrice != 1299 {
		t.Fatalf("unexpected list price: %v", record.ListPrice)
	}
	if record.Rating != 4.5 || record.ReviewsCount != 1234 {
		t.Fatalf("unexpected rating: %v (%d)", record.Rating, record.ReviewsCount)
	}
	if len(record.Bullets) != 1 || record.Bullets[0] != "100% biodegradable bamboo handle" {
		t.Fatalf("unexpected bullets: %v", record.Bullets)
	}
	if len(record.AboutItems) != 2 {
		t.Fatalf("unexpected about items: %v", record.AboutItems)
	}
	if record.Description != "Made from Moso bamboo." {
		t.Fatalf("unexpected description: %q", record.Description)
	}
	if record.Details["material"] != "Bamboo" {
		t.Fatalf("unexpected details: %v", record.Details)
	}
	if record.Warranty != "1 year" {
		t.Fatalf("unexpected warranty: %q", record.Warranty)
	}
	if got := strings.Join(record.Badges, "|"); got != "Amazon's Choice|Climate Pledge Friendly" {
		t.Fatalf("unexpected badges: %s", got)
	}
	if record.Brand != "Visit the GreenCo Store" || record.Category != "Oral Care" {
		t.Fatalf("unexpected brand/category: %q %q", record.Brand, record.Category)
	}
	if record.Image != "https://images.example.com/brush.jpg" {
		t.Fatalf("unexpected image: %q", record.Image)
	}
	if len(record.ReviewSnippets) != 5 || record.ReviewSnippets[0] != "Great brush, the bamboo handle feels sturdy." {
		t.Fatalf("unexpected reviews: %v", record.ReviewSnippets)
	}
	if record.Site != "amazon" || record.URL != "https://www.amazon.com/dp/B000TEST" {
		t.Fatalf("unexpected site/url: %s %s", record.Site, record.URL)
	}
}

func TestAmazonScannerParseEmptyPage(t *testing.T) {
	t.Parallel()

	record, err := NewAmazonScanner(nil, "", nil).Parse(strings.NewReader("<html></html>"), "")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if record.Title != "" || record.Price != nil || record.Details != nil || len(record.Badges) != 0 {
		t.Fatalf("expected an empty record, got %+v", record)
	}
}

func TestAmazonScannerScan(t *testing.T) {
	t.Parallel()

	agents := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(strings.Replace(listingHTML, "{{reviews}}", "", 1)))
	}))
	defer server.Close()

	sc := NewAmazonScanner(server.Client(), "EcoAwareTest/1.0", nil)
	record, err := sc.Scan(context.Background(), scanner.Request{URL: server.URL + "/dp/B000TEST", SiteName: "amazon-us"})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if gotAgent := <-agents; gotAgent != "EcoAwareTest/1.0" {
		t.Fatalf("unexpected user agent: %q", gotAgent)
	}
	if record.Site != "amazon-us" || record.ScrapedAt.IsZero() {
		t.Fatalf("unexpected metadata: %s %v", record.Site, record.ScrapedAt)
	}
	if len(record.ReviewSnippets) != 1 {
		t.Fatalf("unexpected reviews: %v", record.ReviewSnippets)
	}
}

func TestAmazonScannerScanStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewAmazonScanner(server.Client(), "", nil).Scan(context.Background(), scanner.Request{URL: server.URL})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	if p := parsePrice("EUR 1.299,00"); p == nil {
		t.Fatal("expected a price")
	}
	if p := parsePrice("Currently unavailable"); p != nil {
		t.Fatalf("expected nil price, got %v", *p)
	}
	if p := parsePrice("$24.50"); p == nil || *p != 24.5 {
		t.Fatalf("unexpected price: %v", p)
	}
}
