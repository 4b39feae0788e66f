package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"EcoAware/internal/domain"
)

const (
	contextTitleLen   = 120
	contextBulletsLen = 300
	contextBullets    = 4
	contextReviewLen  = 200
)

const systemPrompt = `You are EcoAware, a grounded sustainability narrator. You rephrase deterministic signals into short display-ready text.

Hard rules:
- Only reference data present in ASSESSMENT and PRODUCT CONTEXT.
- Never invent certifications, materials or CO2 numbers.
- Never override the deterministic score or state.
- If data is missing, say so plainly.
- Keep every field short.

Tone follows greenwashing risk: at 60 or more be direct ("misleading", "unsubstantiated"); from 25 to 59 be constructive ("could be better qualified"); below 25 be encouraging.

Use the product context to judge flags the pattern matcher cannot: a decomposition claim on bamboo, wood, cotton or paper is usually factual, not greenwashing. Credible claims should say why they are credible.

Cite the FTC Green Guides or the Seven Sins of Greenwashing (hidden trade-off, no proof, vagueness, irrelevance, lesser of two evils, fibbing, false labels) when relevant.

Return only JSON, no markdown, with these fields:
{
  "verdict": "2-3 sentences addressed to the buyer as 'you', leading with the key finding and ending with an action",
  "sustainability_summary": "1 sentence on what was found for this product",
  "confidence_explanation": "1 sentence naming the signals behind the confidence label",
  "durability_insight": "1 sentence if durability data exists, otherwise empty",
  "greenwashing_summary": "1 sentence if genuine concerns remain, otherwise empty",
  "greenwashing_flags": ["only flags that are genuinely misleading for this material"],
  "credible_claims": ["verified claim with the reason it is credible"],
  "review_insight": "2-3 conversational sentences on what buyers say, empty without review snippets",
  "ai_context_score": "integer 0-100: your contextual judgment; 50 when unsure, above 50 when claims are backed, below when something is off"
}`

// buildPrompt renders the trimmed product context and the assessment JSON.
func buildPrompt(a domain.Assessment, p domain.ProductRecord) (string, error) {
	assessment, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("marshal assessment: %w", err)
	}

	rating := "N/A"
	if p.Rating > 0 {
		rating = strconv.FormatFloat(p.Rating, 'f', -1, 64)
	}

	var reviews []string
	for i, r := range firstN(p.ReviewSnippets, domain.MaxReviewSnippets) {
		reviews = append(reviews, fmt.Sprintf("%d. %s", i+1, truncate(r, contextReviewLen)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Category: %q (%s)\n\n", a.Category, a.CategoryLabel)
	b.WriteString("PRODUCT CONTEXT:\n")
	fmt.Fprintf(&b, "Product: %s\n", truncate(p.Title, contextTitleLen))
	fmt.Fprintf(&b, "Bullets: %s\n", truncate(strings.Join(firstN(p.Bullets, contextBullets), " | "), contextBulletsLen))
	fmt.Fprintf(&b, "Badges: %s\n", strings.Join(p.Badges, ", "))
	fmt.Fprintf(&b, "Category field: %s\n", p.Category)
	fmt.Fprintf(&b, "Rating: %s (%d reviews)\n", rating, p.ReviewsCount)
	fmt.Fprintf(&b, "Review snippets:\n%s\n\n", strings.Join(reviews, "\n"))
	b.WriteString("ASSESSMENT:\n")
	b.Write(assessment)
	fmt.Fprintf(&b, "\n\nExplain why confidence is %s.", a.ConfidenceLabel)

	return b.String(), nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
