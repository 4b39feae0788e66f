package engine

import (
	"regexp"
	"sort"
	"strings"

	"EcoAware/internal/domain"
)

var punctuationReplacer = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
	"‐", "-", "‑", "-", "‒", "-", "–", "-", "—", "-", "―", "-", "−", "-",
)

// Normalize lowercases s, straightens curly quotes, unifies dashes to '-',
// and collapses whitespace runs to a single space.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = punctuationReplacer.Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}

var (
	percentSignal   = regexp.MustCompile(`(\d{1,3}\s?%|percent)`)
	standardsSignal = regexp.MustCompile(`\b(standard|certified|certification|verified|audit|audited|traceability|chain of custody|methodology|scope|boundary|lca|life[ -]cycle)\b`)
	energySignal    = regexp.MustCompile(`\b(kwh|watts?|wh/yr|kwh/year)\b`)
)

// Sections records which listing sections carried any text.
type Sections struct {
	Title       bool `json:"title"`
	Bullets     bool `json:"bullets"`
	Specs       bool `json:"specs"`
	Description bool `json:"description"`
	Badges      bool `json:"badges"`
}

// Signals are fixed probes over the evidence text.
type Signals struct {
	HasPercent       bool `json:"has_percent"`
	HasStandardWords bool `json:"has_standard_words"`
	HasEnergyMetrics bool `json:"has_energy_metrics"`
}

// Evidence is the normalized search surface for one product.
type Evidence struct {
	Text       string   `json:"text"`
	ReviewText string   `json:"review_text"`
	Sections   Sections `json:"sections"`
	Signals    Signals  `json:"signals"`
}

// BuildEvidence normalizes a product record into a single matchable text plus
// a separate review text.
func BuildEvidence(p domain.ProductRecord) Evidence {
	title := Normalize(p.Title)

	bullets := make([]string, 0, len(p.Bullets))
	for _, b := range p.Bullets {
		if nb := Normalize(b); nb != "" {
			bullets = append(bullets, nb)
		}
	}

	description := Normalize(p.Description)
	specs := Normalize(specsText(p))
	badges := Normalize(strings.Join(p.Badges, " ") + " " + p.BadgesText)
	about := Normalize(strings.Join(p.AboutItems, " "))
	reviews := Normalize(strings.Join(p.ReviewSnippets, " "))
	warranty := Normalize(p.Warranty)

	parts := make([]string, 0, 7)
	for _, part := range []string{title, strings.Join(bullets, " "), specs, description, badges, about, warranty} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	text := strings.Join(parts, " | ")

	return Evidence{
		Text:       text,
		ReviewText: reviews,
		Sections: Sections{
			Title:       title != "",
			Bullets:     len(bullets) > 0,
			Specs:       specs != "",
			Description: description != "",
			Badges:      badges != "",
		},
		Signals: Signals{
			HasPercent:       percentSignal.MatchString(text),
			HasStandardWords: standardsSignal.MatchString(text),
			HasEnergyMetrics: energySignal.MatchString(text),
		},
	}
}

// specsText prefers the scraper's flattened spec text and otherwise joins the
// detail values in key order so the result does not depend on map iteration.
func specsText(p domain.ProductRecord) string {
	if strings.TrimSpace(p.SpecsText) != "" {
		return p.SpecsText
	}
	if len(p.Details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p.Details))
	for k := range p.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, p.Details[k])
	}
	return strings.Join(values, " ")
}
