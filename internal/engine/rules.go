package engine

import (
	"strings"
	"unicode/utf8"

	"EcoAware/internal/domain"
	"EcoAware/internal/knowledge"
)

// Rule ids whose claims can be true on their face for certain materials.
const (
	RuleBiodegradable = "DEGRADABLE_OR_BIODEGRADABLE_UNQUALIFIED"
	RuleCompostable   = "UNQUALIFIED_COMPOSTABLE"
	RuleRecyclable    = "UNQUALIFIED_RECYCLABLE_CLAIM"
)

const snippetRadius = 80

// materialSet matches material names as plain substrings so "hardwood" or
// "woolen" count. Names listed in words only match as whole words: "pla"
// would otherwise hit "plastic" and "tin" any "-ting" word.
type materialSet struct {
	names []string
	words terms
}

func (m materialSet) anyIn(text string) bool {
	for _, n := range m.names {
		if strings.Contains(text, n) {
			return true
		}
	}
	return m.words.anyIn(text)
}

var (
	biodegradableMaterials = materialSet{names: []string{
		"bamboo", "wood", "cotton", "hemp", "jute", "cork", "wool", "silk", "linen", "sisal",
		"coconut", "paper", "cardboard", "natural rubber", "beeswax", "straw", "seaweed", "mushroom",
		"mycelium", "cellulose",
	}}
	compostableMaterials = materialSet{
		names: []string{
			"bamboo", "wood", "cotton", "hemp", "jute", "cork", "paper", "cardboard", "coconut",
			"straw", "seaweed", "cellulose",
		},
		words: compileTerms([]string{"pla"}),
	}
	recyclableMaterials = materialSet{
		names: []string{
			"aluminum", "aluminium", "glass", "steel", "copper", "paper", "cardboard",
		},
		words: compileTerms([]string{"tin"}),
	}
)

type compiledRule struct {
	rule          knowledge.Rule
	categories    map[string]struct{}
	any, all      terms
	none          terms
	requiresProof terms
	proofTerms    terms
}

func compileRules(rules []knowledge.Rule) []compiledRule {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cats := make(map[string]struct{})
		for _, c := range r.Applicability.Categories() {
			cats[c] = struct{}{}
		}
		out = append(out, compiledRule{
			rule:          r,
			categories:    cats,
			any:           compileTerms(r.Match.Any),
			all:           compileTerms(r.Match.All),
			none:          compileTerms(r.Match.None),
			requiresProof: compileTerms(r.RequiresProofAny),
			proofTerms:    compileTerms(r.ProofTermsAny),
		})
	}
	return out
}

func (r compiledRule) appliesTo(category string) bool {
	if _, ok := r.categories[knowledge.AnyCategory]; ok {
		return true
	}
	_, ok := r.categories[category]
	return ok
}

func (r compiledRule) predicate(text string) bool {
	if len(r.any) > 0 && !r.any.anyIn(text) {
		return false
	}
	if len(r.all) > 0 && !r.all.allIn(text) {
		return false
	}
	if len(r.none) > 0 && r.none.anyIn(text) {
		return false
	}
	return true
}

// materialSuppressed reports whether the claim is true for a material named
// in the evidence.
func materialSuppressed(id, text string) bool {
	switch id {
	case RuleBiodegradable:
		return biodegradableMaterials.anyIn(text)
	case RuleCompostable:
		return compostableMaterials.anyIn(text)
	case RuleRecyclable:
		return recyclableMaterials.anyIn(text)
	}
	return false
}

// evaluateRules returns firings in catalog order, at most one per rule.
func (e *Engine) evaluateRules(ev Evidence, category string) []domain.RuleFiring {
	var fired []domain.RuleFiring
	for _, r := range e.rules {
		if !r.appliesTo(category) || !r.predicate(ev.Text) {
			continue
		}
		if len(r.requiresProof) > 0 && !r.requiresProof.anyIn(ev.Text) {
			continue
		}
		if len(r.proofTerms) > 0 && r.proofTerms.anyIn(ev.Text) {
			continue
		}
		if materialSuppressed(r.rule.ID, ev.Text) {
			continue
		}

		var snippet string
		if needle, at, ok := r.any.first(ev.Text); ok {
			snippet = snip(ev.Text, at, len(needle.text), snippetRadius)
		}

		fired = append(fired, domain.RuleFiring{
			ID:              r.rule.ID,
			Name:            r.rule.Name,
			Severity:        r.rule.Severity,
			UserMessage:     r.rule.UserMessage,
			SourceRefs:      r.rule.SourceRefs,
			EvidenceSnippet: snippet,
		})
	}
	return fired
}

// snip returns text around [at, at+n) widened by radius bytes on each side,
// aligned to rune boundaries.
func snip(text string, at, n, radius int) string {
	start := max(0, at-radius)
	end := min(len(text), at+n+radius)
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return strings.TrimSpace(text[start:end])
}
