// Package knowledge defines the externally supplied knowledge packs (rule
// catalog, certification catalog, category model, carbon phrasing policy)
// and loads them once into immutable values.
package knowledge

import (
	"errors"
	"fmt"
	"strings"

	"EcoAware/internal/domain"
)

// ErrInvalidPack marks a pack that decoded but failed validation.
var ErrInvalidPack = errors.New("invalid knowledge pack")

// Pack document names, shared by the directory loader and the Postgres store.
const (
	PackRules          = "greenwashing_rules"
	PackCertifications = "certifications"
	PackCategories     = "category_model"
	PackCarbon         = "carbon_claims_policy"
)

// PackNames lists every document a complete knowledge set needs.
var PackNames = []string{PackRules, PackCertifications, PackCategories, PackCarbon}

// GeneralCategory is the mandatory fallback category id.
const GeneralCategory = "general"

// AnyCategory makes a rule applicable to every category.
const AnyCategory = "any"

// Certification kinds consulted by the energy and ethics buckets.
const (
	KindEnergy    = "energy"
	KindFairTrade = "fair_trade"
	KindBCorp     = "b_corp"
)

// Packs is the full knowledge set consumed by the engine.
type Packs struct {
	Rules          []Rule        `json:"rules" yaml:"rules"`
	Certifications CertCatalog   `json:"certifications" yaml:"certifications"`
	Categories     CategoryModel `json:"categories" yaml:"categories"`
	Carbon         CarbonPolicy  `json:"carbon" yaml:"carbon"`
}

// Rule is a single greenwashing rule.
type Rule struct {
	ID               string        `json:"id" yaml:"id"`
	Name             string        `json:"name" yaml:"name"`
	Severity         int           `json:"severity" yaml:"severity"`
	Applicability    Applicability `json:"applicability" yaml:"applicability"`
	Match            RuleMatch     `json:"match" yaml:"match"`
	RequiresProofAny []string      `json:"requires_proof_any,omitempty" yaml:"requires_proof_any"`
	ProofTermsAny    []string      `json:"proof_terms_any,omitempty" yaml:"proof_terms_any"`
	UserMessage      string        `json:"user_message" yaml:"user_message"`
	SourceRefs       []string      `json:"source_refs,omitempty" yaml:"source_refs"`
}

// Applicability scopes a rule to product categories.
type Applicability struct {
	ProductCategories []string `json:"product_categories,omitempty" yaml:"product_categories"`
}

// Categories returns the applicable categories, defaulting to "any".
func (a Applicability) Categories() []string {
	if len(a.ProductCategories) == 0 {
		return []string{AnyCategory}
	}
	return a.ProductCategories
}

// RuleMatch is the any/all/none predicate of a rule.
type RuleMatch struct {
	Any  []string `json:"any,omitempty" yaml:"any"`
	All  []string `json:"all,omitempty" yaml:"all"`
	None []string `json:"none,omitempty" yaml:"none"`
}

// CertCatalog wraps the certification list.
type CertCatalog struct {
	Certifications []Certification `json:"certifications" yaml:"certifications"`
}

// Certification is one catalog entry.
type Certification struct {
	ID          string   `json:"id" yaml:"id"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	Strength    int      `json:"strength" yaml:"strength"`
	Kind        string   `json:"kind,omitempty" yaml:"kind"`
	Patterns    []string `json:"patterns" yaml:"patterns"`
	WhatItMeans string   `json:"what_it_means,omitempty" yaml:"what_it_means"`
	Limitations string   `json:"limitations,omitempty" yaml:"limitations"`
}

// EffectiveKind returns Kind, or a kind inferred from well-known ids.
func (c Certification) EffectiveKind() string {
	if c.Kind != "" {
		return c.Kind
	}
	switch strings.ToUpper(c.ID) {
	case "ENERGY_STAR":
		return KindEnergy
	case "FAIRTRADE", "FAIR_TRADE", "RAINFOREST_ALLIANCE":
		return KindFairTrade
	case "B_CORP":
		return KindBCorp
	}
	return ""
}

// CategoryModel holds the ordered category definitions. Order matters: on a
// keyword-hit tie the earlier category wins.
type CategoryModel struct {
	Categories []Category `json:"categories" yaml:"categories"`
}

// Category is one category with its detection keywords and weight profile.
type Category struct {
	ID       string   `json:"id" yaml:"id"`
	Label    string   `json:"label" yaml:"label"`
	Keywords []string `json:"keywords" yaml:"keywords"`
	Profile  Profile  `json:"profile" yaml:"profile"`
}

// Profile is the per-category weighting and missing-certification behavior.
type Profile struct {
	Weights             domain.Weights      `json:"weights" yaml:"weights"`
	CertDependency      float64             `json:"cert_dependency" yaml:"cert_dependency"`
	MissingCertBehavior MissingCertBehavior `json:"missing_cert_behavior" yaml:"missing_cert_behavior"`
	CertificationTip    string              `json:"certification_tip,omitempty" yaml:"certification_tip"`
}

// MissingCertBehavior applies when a category usually needs a certification.
type MissingCertBehavior struct {
	ConfidencePenalty float64 `json:"confidence_penalty" yaml:"confidence_penalty"`
	RiskIncrease      float64 `json:"risk_increase" yaml:"risk_increase"`
}

// Find returns the category with the given id.
func (m CategoryModel) Find(id string) (Category, bool) {
	for _, c := range m.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// General returns the mandatory fallback category.
func (m CategoryModel) General() Category {
	if c, ok := m.Find(GeneralCategory); ok {
		return c
	}
	return Category{ID: GeneralCategory, Label: "General"}
}

// CarbonPolicy holds the three carbon-claim phrasing templates.
type CarbonPolicy struct {
	PhrasingTemplates CarbonTemplates `json:"phrasing_templates" yaml:"phrasing_templates"`
}

// CarbonTemplates are keyed by evidence tier.
type CarbonTemplates struct {
	NoData            string `json:"no_data" yaml:"no_data"`
	QualitativeOnly   string `json:"qualitative_only" yaml:"qualitative_only"`
	NumericWithSource string `json:"numeric_with_source" yaml:"numeric_with_source"`
}

// Validate checks structural constraints the engine relies on.
func (p *Packs) Validate() error {
	var problems []string

	seen := make(map[string]struct{}, len(p.Rules))
	for i, r := range p.Rules {
		if strings.TrimSpace(r.ID) == "" {
			problems = append(problems, fmt.Sprintf("rule #%d has no id", i))
		}
		if _, dup := seen[r.ID]; dup {
			problems = append(problems, fmt.Sprintf("rule %s is duplicated", r.ID))
		}
		seen[r.ID] = struct{}{}
		if r.Severity < 1 || r.Severity > 4 {
			problems = append(problems, fmt.Sprintf("rule %s severity %d outside 1-4", r.ID, r.Severity))
		}
	}

	for _, c := range p.Certifications.Certifications {
		if c.Strength < 1 || c.Strength > 5 {
			problems = append(problems, fmt.Sprintf("certification %s strength %d outside 1-5", c.ID, c.Strength))
		}
	}

	if _, ok := p.Categories.Find(GeneralCategory); !ok {
		problems = append(problems, "category model has no general category")
	}
	for _, c := range p.Categories.Categories {
		for _, name := range domain.BucketNames {
			if c.Profile.Weights.Get(name) < 0 {
				problems = append(problems, fmt.Sprintf("category %s has negative %s weight", c.ID, name))
			}
		}
	}

	t := p.Carbon.PhrasingTemplates
	if t.NoData == "" || t.QualitativeOnly == "" || t.NumericWithSource == "" {
		problems = append(problems, "carbon policy is missing a phrasing template")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPack, strings.Join(problems, "; "))
	}
	return nil
}

// Summary is a short description used in logs and the packs endpoint.
type Summary struct {
	Rules          int `json:"rules"`
	Certifications int `json:"certifications"`
	Categories     int `json:"categories"`
}

// Summary counts the entries of each pack.
func (p *Packs) Summary() Summary {
	return Summary{
		Rules:          len(p.Rules),
		Certifications: len(p.Certifications.Certifications),
		Categories:     len(p.Categories.Categories),
	}
}
