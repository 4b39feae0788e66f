package domain

import "time"

// ProductRecord is a single listing as supplied by a scraper or an API caller.
// The engine treats it as read-only.
type ProductRecord struct {
	Title          string            `json:"title" yaml:"title"`
	Bullets        []string          `json:"bullets,omitempty" yaml:"bullets"`
	Description    string            `json:"description,omitempty" yaml:"description"`
	Details        map[string]string `json:"details,omitempty" yaml:"details"`
	SpecsText      string            `json:"specs_text,omitempty" yaml:"specs_text"`
	Badges         []string          `json:"badges,omitempty" yaml:"badges"`
	BadgesText     string            `json:"badges_text,omitempty" yaml:"badges_text"`
	AboutItems     []string          `json:"about_items,omitempty" yaml:"about_items"`
	ReviewSnippets []string          `json:"review_snippets,omitempty" yaml:"review_snippets"`
	Warranty       string            `json:"warranty,omitempty" yaml:"warranty"`
	Rating         float64           `json:"rating,omitempty" yaml:"rating"`
	ReviewsCount   int               `json:"reviews_count,omitempty" yaml:"reviews_count"`
	Category       string            `json:"category,omitempty" yaml:"category"`

	// Listing metadata filled by scrapers; not used for scoring.
	Brand     string    `json:"brand,omitempty" yaml:"brand"`
	Price     *float64  `json:"price,omitempty" yaml:"price"`
	ListPrice *float64  `json:"list_price,omitempty" yaml:"list_price"`
	Image     string    `json:"image,omitempty" yaml:"image"`
	Site      string    `json:"site,omitempty" yaml:"site"`
	URL       string    `json:"url,omitempty" yaml:"url"`
	ScrapedAt time.Time `json:"scraped_at,omitempty" yaml:"scraped_at"`
}

// MaxReviewSnippets bounds how many review snippets a scraper keeps.
const MaxReviewSnippets = 5
