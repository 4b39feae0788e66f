package engine

import (
	"strings"

	"EcoAware/internal/knowledge"
)

type compiledCategory struct {
	category knowledge.Category
	keywords terms
}

// Classification is the detected category with the profile used for scoring.
type Classification struct {
	Category string
	Label    string
	Profile  knowledge.Profile
}

func compileCategories(model knowledge.CategoryModel) ([]compiledCategory, compiledCategory) {
	out := make([]compiledCategory, 0, len(model.Categories))
	for _, c := range model.Categories {
		out = append(out, compiledCategory{category: c, keywords: compileTerms(c.Keywords)})
	}
	return out, compiledCategory{category: model.General()}
}

// classify picks the category with the most keyword hits in the title and
// category hint. Ties keep the earlier category; no hits yields general.
func (e *Engine) classify(title, hint string) Classification {
	text := Normalize(title + " " + hint)

	best := e.general
	bestHits := 0
	for _, c := range e.categories {
		if hits := c.keywords.hits(text); hits > bestHits {
			best, bestHits = c, hits
		}
	}

	return Classification{
		Category: best.category.ID,
		Label:    categoryLabel(best.category),
		Profile:  best.category.Profile,
	}
}

func categoryLabel(c knowledge.Category) string {
	if c.Label != "" {
		return c.Label
	}
	label := strings.ReplaceAll(c.ID, "_", " ")
	if label == "" {
		return "General"
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
