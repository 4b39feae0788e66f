package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"EcoAware/internal/domain"
	"EcoAware/internal/scanner"
)

const (
	amazonScannerName   = "amazon"
	climatePledgeBadge  = "Climate Pledge Friendly"
	productScopeTextCap = 8000
	minBulletLen        = 5
	minReviewLen        = 20
	maxReviewLen        = 300
)

var (
	titleSelectors = []string{"#productTitle", "#title span", "h1.product-title-word-break"}
	priceSelectors = []string{
		".a-price .a-offscreen",
		"#priceblock_ourprice",
		"#priceblock_dealprice",
		".a-price-whole",
		"#corePrice_feature_div .a-offscreen",
		"#tp_price_block_total_price_ww .a-offscreen",
	}
	listPriceSelectors   = []string{".a-text-price .a-offscreen", "#listPrice", ".basisPrice .a-offscreen"}
	ratingSelectors      = []string{"#acrPopover span.a-icon-alt", "i.a-icon-star span.a-icon-alt"}
	reviewCountSelectors = []string{"#acrCustomerReviewText", "#reviewsMedley .a-size-base"}
	descriptionSelectors = []string{"#productDescription p", "#productDescription", "#productDescription_feature_div"}
	brandSelectors       = []string{"#bylineInfo", ".po-brand .a-span9 span", "a#brand"}
	categorySelectors    = []string{"#wayfinding-breadcrumbs_feature_div ul li:last-child a", ".a-breadcrumb li:last-child a"}
	climatePledgeMarkers = []string{
		"#climatePledgeFriendlyBadge",
		`[data-csa-c-content-id="climate-pledge-friendly"]`,
		"#climatePledgeFriendly",
		".climate-pledge-friendly",
	}
	warrantyKeys = []string{"warranty", "warranty description", "manufacturer warranty", "warranty type"}
)

var (
	priceExpr  = regexp.MustCompile(`[\d,.]+`)
	ratingExpr = regexp.MustCompile(`^\d+(?:\.\d+)?`)
	digitsExpr = regexp.MustCompile(`\D`)
)

// AmazonScanner extracts a product record from a single Amazon listing page.
type AmazonScanner struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

var _ scanner.Scanner = (*AmazonScanner)(nil)

// NewAmazonScanner wires an HTTP client; a nil client gets a 20s timeout.
func NewAmazonScanner(client *http.Client, userAgent string, logger *slog.Logger) *AmazonScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if userAgent == "" {
		userAgent = "EcoAware/1.0"
	}
	return &AmazonScanner{client: client, userAgent: userAgent, logger: logger}
}

// Name identifies the strategy inside the registry.
func (a *AmazonScanner) Name() string {
	return amazonScannerName
}

// Scan downloads the listing at req.URL and parses it. Links are not followed.
func (a *AmazonScanner) Scan(ctx context.Context, req scanner.Request) (domain.ProductRecord, error) {
	doc, err := a.fetchDocument(ctx, req.URL)
	if err != nil {
		return domain.ProductRecord{}, err
	}

	record := extractProduct(doc)
	record.Site = req.SiteName
	if record.Site == "" {
		record.Site = amazonScannerName
	}
	record.URL = req.URL
	record.ScrapedAt = time.Now().UTC()

	a.debug("listing parsed", "url", req.URL, "bullets", len(record.Bullets), "reviews", len(record.ReviewSnippets))
	return record, nil
}

// Parse extracts a record from an already downloaded page.
func (a *AmazonScanner) Parse(r io.Reader, pageURL string) (domain.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return domain.ProductRecord{}, fmt.Errorf("parse document: %w", err)
	}

	record := extractProduct(doc)
	record.Site = amazonScannerName
	record.URL = pageURL
	return record, nil
}

func (a *AmazonScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("amazon returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractProduct(doc *goquery.Document) domain.ProductRecord {
	details := extractDetails(doc)

	record := domain.ProductRecord{
		Title:          firstText(doc.Selection, titleSelectors),
		Price:          parsePrice(firstText(doc.Selection, priceSelectors)),
		ListPrice:      parsePrice(firstText(doc.Selection, listPriceSelectors)),
		Rating:         parseRating(firstText(doc.Selection, ratingSelectors)),
		ReviewsCount:   parseCount(firstText(doc.Selection, reviewCountSelectors)),
		Bullets:        extractBullets(doc),
		Description:    firstText(doc.Selection, descriptionSelectors),
		AboutItems:     extractAbout(doc),
		Details:        details,
		Badges:         extractBadges(doc),
		Brand:          firstText(doc.Selection, brandSelectors),
		Category:       firstText(doc.Selection, categorySelectors),
		Image:          extractImage(doc),
		ReviewSnippets: extractReviews(doc),
	}

	for _, key := range warrantyKeys {
		if v := details[key]; v != "" {
			record.Warranty = v
			break
		}
	}

	return record
}

// firstText returns the text of the first selector that matches anything,
// even when that text is empty.
func firstText(scope *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if found := scope.Find(sel).First(); found.Length() > 0 {
			return cleanText(found.Text())
		}
	}
	return ""
}

func cleanText(s string) string {
	s = strings.NewReplacer("\u200e", "", "\u200f", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func extractBullets(doc *goquery.Document) []string {
	var bullets []string
	doc.Find("#feature-bullets li span.a-list-item").Each(func(_ int, s *goquery.Selection) {
		if t := cleanText(s.Text()); utf8.RuneCountInString(t) > minBulletLen {
			bullets = append(bullets, t)
		}
	})
	return bullets
}

func extractAbout(doc *goquery.Document) []string {
	var items []string
	doc.Find("#feature-bullets ul li").Each(func(_ int, s *goquery.Selection) {
		items = append(items, cleanText(s.Text()))
	})
	return items
}

func extractDetails(doc *goquery.Document) map[string]string {
	details := map[string]string{}
	doc.Find("#productDetails_techSpec_section_1 tr, #prodDetails tr, .product-facts-detail").Each(func(_ int, row *goquery.Selection) {
		key := row.Find("th, td:first-child").First()
		val := row.Find("td:last-child, td:nth-child(2)").First()
		if key.Length() == 0 || val.Length() == 0 {
			return
		}
		details[strings.ToLower(cleanText(key.Text()))] = cleanText(val.Text())
	})
	if len(details) == 0 {
		return nil
	}
	return details
}

// extractBadges only looks inside the product area so badges of suggested
// products are not attributed to this listing.
func extractBadges(doc *goquery.Document) []string {
	scope := doc.Find("#ppd, #dp, #dp-container, #centerCol").First()
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	var badges []string
	seen := map[string]struct{}{}
	scope.Find(".a-badge-text, .ac-badge-text-primary").Each(func(_ int, s *goquery.Selection) {
		t := cleanText(s.Text())
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		badges = append(badges, t)
	})

	hasMarker := false
	for _, sel := range climatePledgeMarkers {
		if scope.Find(sel).Length() > 0 {
			hasMarker = true
			break
		}
	}
	if _, listed := seen[climatePledgeBadge]; !listed {
		if hasMarker || strings.Contains(truncateRunes(scope.Text(), productScopeTextCap), climatePledgeBadge) {
			badges = append(badges, climatePledgeBadge)
		}
	}

	return badges
}

func extractImage(doc *goquery.Document) string {
	img := doc.Find("#landingImage, #imgBlkFront").First()
	if img.Length() == 0 {
		return ""
	}
	if src, ok := img.Attr("src"); ok && src != "" {
		return src
	}
	src, _ := img.Attr("data-old-hires")
	return src
}

func extractReviews(doc *goquery.Document) []string {
	var snippets []string
	doc.Find(`[data-hook="review-body"] span, .review-text-content span`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := cleanText(s.Text())
		if n := utf8.RuneCountInString(t); n > minReviewLen && n < maxReviewLen {
			snippets = append(snippets, t)
		}
		return len(snippets) < domain.MaxReviewSnippets
	})
	return snippets
}

func parsePrice(text string) *float64 {
	match := priceExpr.FindString(text)
	if match == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseRating(text string) float64 {
	v, err := strconv.ParseFloat(ratingExpr.FindString(text), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseCount(text string) int {
	v, err := strconv.Atoi(digitsExpr.ReplaceAllString(text, ""))
	if err != nil {
		return 0
	}
	return v
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func (a *AmazonScanner) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
