package engine

import (
	"regexp"
	"strings"

	"EcoAware/internal/domain"
)

var (
	yearWarranty     = regexp.MustCompile(`(\d+)\s*year\s*warranty`)
	lifetimeWarranty = regexp.MustCompile(`lifetime\s*warranty`)
	repairability    = regexp.MustCompile(`\b(replaceable parts|replaceable battery|modular|repairable|spare parts)\b`)
)

var durableMaterials = []struct {
	label   string
	phrases []string
}{
	{"Stainless steel", []string{"stainless steel"}},
	{"Solid wood", []string{"solid wood"}},
	{"Cast iron", []string{"cast iron"}},
	{"Full grain leather", []string{"full grain leather", "full-grain leather"}},
	{"Cordura fabric", []string{"cordura"}},
	{"Gore-Tex", []string{"gore-tex", "goretex"}},
}

var (
	reviewPositive = []string{"durable", "sturdy", "well-built", "well built", "heavy duty", "long-lasting", "built to last"}
	reviewNegative = []string{"broke", "broken", "fell apart", "cheaply made", "flimsy", "poor quality"}
)

// assessDurability returns nil when no durability signal is present.
func assessDurability(ev Evidence) *domain.Durability {
	var findings []string

	if m := yearWarranty.FindString(ev.Text); m != "" {
		findings = append(findings, "Warranty: "+m)
	} else if m := lifetimeWarranty.FindString(ev.Text); m != "" {
		findings = append(findings, "Warranty: "+m)
	}

	for _, dm := range durableMaterials {
		for _, p := range dm.phrases {
			if strings.Contains(ev.Text, p) {
				findings = append(findings, dm.label)
				break
			}
		}
	}

	if repairability.MatchString(ev.Text) {
		findings = append(findings, "Repairability signals")
	}

	if pos := presentPhrases(ev.ReviewText, reviewPositive); len(pos) > 0 {
		findings = append(findings, "Reviews: "+strings.Join(firstN(pos, 2), ", "))
	}
	if neg := presentPhrases(ev.ReviewText, reviewNegative); len(neg) > 0 {
		findings = append(findings, "Review concerns: "+strings.Join(firstN(neg, 2), ", "))
	}

	if len(findings) == 0 {
		return nil
	}
	return &domain.Durability{Signals: findings, Count: len(findings)}
}

func presentPhrases(text string, phrases []string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, p := range phrases {
		if strings.Contains(text, p) {
			out = append(out, p)
		}
	}
	return out
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
