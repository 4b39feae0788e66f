package engine

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"EcoAware/internal/domain"
	"EcoAware/internal/knowledge"
)

// Confidence is tracked in hundredths so threshold checks are exact.
const (
	confidenceBase         = 25
	unknownBelow           = 40
	maxSeverePenalty       = 25
	severePenaltyPerFiring = 5
)

const (
	maxReasons        = 6
	maxMissingSignals = 4
	strongBucketAbove = 55
)

const (
	defaultCertTip  = "Look for a named certification or standard."
	specificDetails = "Look for specific details: %, standards, audits."
)

var (
	carbonQuantity    = regexp.MustCompile(`\b(kg co2|g co2|tco2e|co2e)\b`)
	carbonMethodology = regexp.MustCompile(`\b(iso 14067|ghg protocol|lca|life[ -]cycle|boundary|scope)\b`)
)

// confidenceHundredths derives confidence in [0,100] hundredths.
func confidenceHundredths(ev Evidence, certs CertResult, fired []domain.RuleFiring, profile knowledge.Profile) int {
	c := confidenceBase
	if ev.Sections.Bullets {
		c += 15
	}
	if ev.Sections.Specs {
		c += 15
	}
	if ev.Sections.Badges {
		c += 10
	}
	if ev.Sections.Description {
		c += 10
	}
	if ev.Signals.HasPercent || ev.Signals.HasEnergyMetrics {
		c += 10
	}
	if len(certs.Matched) > 0 {
		c += 10
	}
	if len(certs.Matched) == 0 && profile.CertDependency >= 0.4 {
		c -= hundredths(profile.MissingCertBehavior.ConfidencePenalty)
	}

	severe := 0
	for _, f := range fired {
		if f.Severity >= 3 {
			severe++
		}
	}
	c -= min(maxSeverePenalty, severePenaltyPerFiring*severe)

	return clampInt(c, 0, 100)
}

func hundredths(f float64) int {
	return int(math.Round(f * 100))
}

// greenwashingRisk accumulates per-firing risk plus the category's
// missing-certification increase when no strong certification was found.
func greenwashingRisk(certs CertResult, fired []domain.RuleFiring, profile knowledge.Profile) int {
	risk := 10
	for _, f := range fired {
		switch {
		case f.Severity >= 4:
			risk += 20
		case f.Severity == 3:
			risk += 12
		case f.Severity == 2:
			risk += 7
		default:
			risk += 3
		}
	}
	if !certs.HasStrong {
		risk += hundredths(profile.MissingCertBehavior.RiskIncrease)
	}
	return clampInt(risk, 0, 100)
}

// RiskLevel buckets a greenwashing risk value for display.
func RiskLevel(risk int) string {
	switch {
	case risk >= 60:
		return "HIGH"
	case risk >= 35:
		return "MODERATE"
	case risk >= 15:
		return "LOW"
	default:
		return "NONE"
	}
}

// displayScore rounds the composite, pulling it 40% toward neutral when the
// state is unknown.
func displayScore(raw float64, unknown bool) int {
	if unknown {
		raw = 0.6*raw + 0.4*domain.NeutralBucket
	}
	return int(math.Round(clampFloat(raw, 0, 100)))
}

// Label returns the label and color for a score. Unknown always wins.
func Label(score int, unknown bool) (string, string) {
	switch {
	case unknown:
		return "Unknown", "unknown"
	case score >= 75:
		return "Very Sustainable", "very-high"
	case score >= 55:
		return "Sustainable", "high"
	case score >= 40:
		return "Moderate", "medium"
	case score >= 25:
		return "Low Sustainability", "low"
	default:
		return "Not Sustainable", "very-low"
	}
}

func confidenceLabel(h int, signals int) (string, string) {
	switch {
	case h >= 70:
		return "HIGH", fmt.Sprintf("%d evidence signals. Assessment well-supported.", signals)
	case h >= 40:
		return "MEDIUM", fmt.Sprintf("%d signals found, some data missing.", signals)
	case h >= 20:
		return "LOW", fmt.Sprintf("Only %d signal(s). Assessment limited.", signals)
	default:
		return "INSUFFICIENT", "No meaningful signals. Baseline estimate."
	}
}

func signalCount(ev Evidence, certs CertResult, dur *domain.Durability) int {
	n := len(certs.Matched)
	if dur != nil {
		n++
	}
	if ev.Signals.HasPercent {
		n++
	}
	if ev.Signals.HasStandardWords {
		n++
	}
	return n
}

func buildReasons(certs CertResult, buckets domain.Buckets, dur *domain.Durability, fired []domain.RuleFiring) []domain.Reason {
	reasons := make([]domain.Reason, 0, maxReasons)

	for _, c := range firstCerts(certs.Matched, 2) {
		reasons = append(reasons, domain.Reason{
			Type:   domain.ReasonPositive,
			Text:   c.DisplayName + " detected",
			Detail: c.WhatItMeans,
		})
	}

	if name, value := strongestBucket(buckets); value > strongBucketAbove {
		reasons = append(reasons, domain.Reason{
			Type: domain.ReasonPositive,
			Text: fmt.Sprintf("Strongest: %s (%d/100)", name, value),
		})
	}

	if dur != nil && dur.Count > 0 {
		reasons = append(reasons, domain.Reason{
			Type: domain.ReasonPositive,
			Text: "Durability: " + dur.Signals[0],
		})
	}

	bySeverity := make([]domain.RuleFiring, len(fired))
	copy(bySeverity, fired)
	sort.SliceStable(bySeverity, func(i, j int) bool {
		return bySeverity[i].Severity > bySeverity[j].Severity
	})
	for i, f := range bySeverity {
		if i == 2 {
			break
		}
		reasons = append(reasons, domain.Reason{
			Type:   domain.ReasonWarning,
			Text:   f.UserMessage,
			Source: f.SourceRefs,
		})
	}

	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	return reasons
}

func firstCerts(c []domain.CertMatch, n int) []domain.CertMatch {
	if len(c) > n {
		return c[:n]
	}
	return c
}

// strongestBucket returns the highest bucket; ties keep canonical order.
func strongestBucket(b domain.Buckets) (domain.BucketName, int) {
	best := domain.BucketNames[0]
	for _, name := range domain.BucketNames[1:] {
		if b.Get(name) > b.Get(best) {
			best = name
		}
	}
	return best, b.Get(best)
}

func missingSignals(ev Evidence, certs CertResult, profile, general knowledge.Profile) []string {
	var missing []string
	if len(certs.Matched) == 0 {
		tip := profile.CertificationTip
		if tip == "" {
			tip = general.CertificationTip
		}
		if tip == "" {
			tip = defaultCertTip
		}
		missing = append(missing, tip)
	}
	if !ev.Signals.HasStandardWords {
		missing = append(missing, specificDetails)
	}
	if len(missing) > maxMissingSignals {
		missing = missing[:maxMissingSignals]
	}
	return missing
}

func carbonNote(ev Evidence, t knowledge.CarbonTemplates) string {
	switch {
	case !carbonQuantity.MatchString(ev.Text):
		return t.NoData
	case !carbonMethodology.MatchString(ev.Text):
		return t.QualitativeOnly
	default:
		return t.NumericWithSource
	}
}
