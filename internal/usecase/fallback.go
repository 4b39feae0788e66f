package usecase

import (
	"fmt"
	"strings"

	"EcoAware/internal/domain"
)

const (
	reviewSignalPrefix  = "Review"
	reviewsPrefix       = "Reviews:"
	reviewConcernPrefix = "Review concerns:"
	neutralOpinion      = 50
)

// FallbackNarration builds a narration from the assessment alone. It is used
// when no narrator is configured or the narrator fails, and always carries a
// neutral opinion.
func FallbackNarration(a domain.Assessment) domain.Narration {
	opinion := neutralOpinion
	return domain.Narration{
		Verdict:               fallbackVerdict(a),
		SustainabilitySummary: fallbackSummary(a),
		ConfidenceExplanation: a.ConfidenceReason,
		DurabilityInsight:     durabilityInsight(a.Durability),
		GreenwashingSummary:   greenwashingSummary(a.Greenwashing),
		GreenwashingFlags:     greenwashingFlags(a.Greenwashing),
		CredibleClaims:        credibleClaims(a.MatchedCerts),
		ReviewInsight:         reviewInsight(a.Durability),
		AIContextScore:        &opinion,
		Fallback:              true,
	}
}

func fallbackVerdict(a domain.Assessment) string {
	var b strings.Builder
	if a.State == domain.StateUnknown {
		b.WriteString("Limited data available for this product. ")
	}
	fmt.Fprintf(&b, "Sustainability score: %d/100 (%s). ", a.Score, a.Label)

	switch {
	case a.Score >= 65:
		b.WriteString("Good signals detected. ")
	case a.Score >= 40:
		b.WriteString("Average, greener alternatives may exist. ")
	default:
		b.WriteString("Few sustainability signals. Consider alternatives. ")
	}

	switch {
	case a.Greenwashing.Risk >= 60:
		b.WriteString("Greenwashing risk is elevated and some claims appear misleading. ")
	case a.Greenwashing.Risk >= 25:
		b.WriteString("Some claims could be better qualified. ")
	}

	return strings.TrimSpace(b.String())
}

func fallbackSummary(a domain.Assessment) string {
	var positive, warnings []string
	for _, r := range a.Reasons {
		switch r.Type {
		case domain.ReasonPositive:
			positive = append(positive, r.Text)
		case domain.ReasonWarning:
			warnings = append(warnings, r.Text)
		}
	}

	certs := make([]string, 0, len(a.MatchedCerts))
	for _, c := range a.MatchedCerts {
		certs = append(certs, c.DisplayName)
	}

	var summary string
	switch {
	case len(certs) > 0 && len(positive) > 0:
		summary = strings.Join(certs, ", ") + " verified."
		if extra := firstNotMentioning(positive, certs); extra != "" {
			summary += " " + extra + "."
		}
	case len(positive) > 0:
		summary = strings.Join(positive[:min(2, len(positive))], ". ") + "."
	case len(certs) > 0:
		summary = strings.Join(certs, ", ") + " certified."
	default:
		summary = "No strong sustainability signals detected on this listing."
	}

	if len(warnings) > 0 && a.Greenwashing.Risk >= 50 {
		summary += " Note: " + warnings[0] + "."
	}
	return strings.TrimSpace(summary)
}

// firstNotMentioning returns the first reason that does not repeat a
// certification name.
func firstNotMentioning(reasons, certs []string) string {
	for _, r := range reasons {
		mentioned := false
		for _, c := range certs {
			if strings.Contains(r, c) {
				mentioned = true
				break
			}
		}
		if !mentioned {
			return r
		}
	}
	return ""
}

func reviewInsight(d *domain.Durability) string {
	if d == nil {
		return ""
	}
	var signals []string
	for _, s := range d.Signals {
		if strings.HasPrefix(s, reviewsPrefix) || strings.HasPrefix(s, reviewConcernPrefix) {
			signals = append(signals, s)
		}
	}
	if len(signals) == 0 {
		return ""
	}
	return strings.Join(signals, ". ") + "."
}

func durabilityInsight(d *domain.Durability) string {
	if d == nil {
		return ""
	}
	var signals []string
	for _, s := range d.Signals {
		if strings.HasPrefix(s, reviewSignalPrefix) {
			continue
		}
		signals = append(signals, s)
		if len(signals) == 2 {
			break
		}
	}
	return strings.Join(signals, ", ")
}

func greenwashingSummary(g domain.Greenwashing) string {
	if len(g.RulesFired) == 0 || g.Risk < 40 {
		return ""
	}
	return g.RulesFired[0].UserMessage
}

func greenwashingFlags(g domain.Greenwashing) []string {
	flags := []string{}
	if g.Risk < 40 {
		return flags
	}
	for _, r := range g.RulesFired {
		if len(flags) == 2 {
			break
		}
		flags = append(flags, r.UserMessage)
	}
	return flags
}

func credibleClaims(certs []domain.CertMatch) []string {
	claims := []string{}
	for _, c := range certs {
		if len(claims) == 2 {
			break
		}
		claims = append(claims, c.DisplayName+" verified")
	}
	return claims
}
