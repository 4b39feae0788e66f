package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	retry "github.com/sethvargo/go-retry"

	"EcoAware/internal/config"
	"EcoAware/internal/domain"
	"EcoAware/internal/engine"
	"EcoAware/internal/ports"
)

var (
	// ErrMisconfigured is returned when endpoint, model or key is missing.
	ErrMisconfigured = errors.New("narrator misconfigured")
	// ErrFabricatedCarbon marks output quoting CO2 quantities absent from the input.
	ErrFabricatedCarbon = errors.New("narration contains carbon figures")
)

const maxTokens = 750

var fabricatedCarbon = regexp.MustCompile(`(?i)\d+\s*kg\s*co2|\d+\s*tons?\s*co2`)

// Narrator implements ports.Narrator backed by OpenAI-compatible chat APIs.
type Narrator struct {
	endpoint   string
	model      string
	apiKey     string
	maxRetries uint64
	retryBase  time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.Narrator = (*Narrator)(nil)

// NewNarrator builds a client from configuration.
func NewNarrator(cfg config.NarratorConfig, logger *slog.Logger) *Narrator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Narrator{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		retryBase:  time.Second,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Narrate asks the model to rephrase the assessment. The returned narration
// carries the model's opinion when it gave a usable one.
func (n *Narrator) Narrate(ctx context.Context, a domain.Assessment, p domain.ProductRecord) (domain.Narration, error) {
	if n == nil || n.apiKey == "" || n.endpoint == "" || n.model == "" {
		return domain.Narration{}, ErrMisconfigured
	}

	prompt, err := buildPrompt(a, p)
	if err != nil {
		return domain.Narration{}, fmt.Errorf("build prompt: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"model":       n.model,
		"max_tokens":  maxTokens,
		"temperature": 0.2,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return domain.Narration{}, fmt.Errorf("marshal narrator payload: %w", err)
	}

	var content string
	b := retry.WithMaxRetries(n.maxRetries, retry.NewFibonacci(n.retryBase))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		c, err := n.complete(ctx, body)
		if err != nil {
			return err
		}
		content = c
		return nil
	})
	if err != nil {
		return domain.Narration{}, fmt.Errorf("narrate: %w", err)
	}

	narration, err := decodeNarration(content)
	if err != nil {
		return domain.Narration{}, err
	}
	n.debug("narration received", "category", a.Category, "opinion", narration.AIContextScore != nil)
	return narration, nil
}

// complete performs one chat-completions call. Transport errors, 429 and 5xx
// are retryable.
func (n *Narrator) complete(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", retry.RetryableError(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("narrator error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			n.debug("retrying narrator call", "status", resp.StatusCode)
			return "", retry.RetryableError(err)
		}
		return "", err
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("decode completion: no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

type rawNarration struct {
	Verdict               string   `json:"verdict"`
	SustainabilitySummary string   `json:"sustainability_summary"`
	ConfidenceExplanation string   `json:"confidence_explanation"`
	DurabilityInsight     string   `json:"durability_insight"`
	GreenwashingSummary   string   `json:"greenwashing_summary"`
	GreenwashingFlags     []string `json:"greenwashing_flags"`
	CredibleClaims        []string `json:"credible_claims"`
	ReviewInsight         string   `json:"review_insight"`
	AIContextScore        any      `json:"ai_context_score"`
}

// decodeNarration strips markdown fences, decodes the narration and rejects
// output that quotes CO2 quantities.
func decodeNarration(content string) (domain.Narration, error) {
	clean := strings.NewReplacer("```json", "", "```", "").Replace(content)
	clean = strings.TrimSpace(clean)

	dec := json.NewDecoder(strings.NewReader(clean))
	dec.UseNumber()
	var raw rawNarration
	if err := dec.Decode(&raw); err != nil {
		return domain.Narration{}, fmt.Errorf("decode narration: %w", err)
	}

	texts := []string{
		raw.Verdict, raw.SustainabilitySummary, raw.ConfidenceExplanation, raw.DurabilityInsight,
		raw.GreenwashingSummary, raw.ReviewInsight,
	}
	texts = append(texts, raw.GreenwashingFlags...)
	texts = append(texts, raw.CredibleClaims...)
	if fabricatedCarbon.MatchString(strings.Join(texts, " ")) {
		return domain.Narration{}, ErrFabricatedCarbon
	}

	narration := domain.Narration{
		Verdict:               raw.Verdict,
		SustainabilitySummary: raw.SustainabilitySummary,
		ConfidenceExplanation: raw.ConfidenceExplanation,
		DurabilityInsight:     raw.DurabilityInsight,
		GreenwashingSummary:   raw.GreenwashingSummary,
		GreenwashingFlags:     raw.GreenwashingFlags,
		CredibleClaims:        raw.CredibleClaims,
		ReviewInsight:         raw.ReviewInsight,
	}
	if opinion, ok := engine.ParseOpinion(raw.AIContextScore); ok {
		narration.AIContextScore = &opinion
	}
	return narration, nil
}

func (n *Narrator) debug(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Debug(msg, args...)
	}
}
