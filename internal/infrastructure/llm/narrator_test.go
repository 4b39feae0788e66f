package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"EcoAware/internal/config"
	"EcoAware/internal/domain"
)

func completion(content string) []byte {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
	return body
}

func newTestNarrator(url string, retries uint64) *Narrator {
	n := NewNarrator(config.NarratorConfig{Endpoint: url, Model: "test-model", APIKey: "secret", MaxRetries: retries}, nil)
	n.retryBase = time.Millisecond
	return n
}

func TestNarrateDecodesFencedJSON(t *testing.T) {
	t.Parallel()

	type captured struct {
		auth  string
		model string
		user  string
	}
	seen := make(chan captured, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		seen <- captured{auth: r.Header.Get("Authorization"), model: req.Model, user: req.Messages[len(req.Messages)-1].Content}
		_, _ = w.Write(completion("```json\n{\"verdict\": \"Looks solid.\", \"credible_claims\": [\"FSC verified\"], \"ai_context_score\": \"72\"}\n```"))
	}))
	defer server.Close()

	narration, err := newTestNarrator(server.URL, 0).Narrate(context.Background(),
		domain.Assessment{Category: "home_goods", ConfidenceLabel: "MEDIUM"},
		domain.ProductRecord{Title: "Bamboo cutting board", ReviewSnippets: []string{"Solid and sturdy board"}})
	if err != nil {
		t.Fatalf("Narrate error: %v", err)
	}

	got := <-seen
	if got.auth != "Bearer secret" || got.model != "test-model" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if !strings.Contains(got.user, "Product: Bamboo cutting board") || !strings.Contains(got.user, "1. Solid and sturdy board") {
		t.Fatalf("prompt lacks product context: %s", got.user)
	}
	if narration.Verdict != "Looks solid." || len(narration.CredibleClaims) != 1 {
		t.Fatalf("unexpected narration: %+v", narration)
	}
	if narration.AIContextScore == nil || *narration.AIContextScore != 72 {
		t.Fatalf("unexpected opinion: %v", narration.AIContextScore)
	}
	if narration.Fallback {
		t.Fatal("model narration must not be marked as fallback")
	}
}

func TestNarrateRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(completion(`{"verdict": "ok", "ai_context_score": 40}`))
	}))
	defer server.Close()

	narration, err := newTestNarrator(server.URL, 2).Narrate(context.Background(), domain.Assessment{}, domain.ProductRecord{})
	if err != nil {
		t.Fatalf("Narrate error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if narration.AIContextScore == nil || *narration.AIContextScore != 40 {
		t.Fatalf("unexpected opinion: %v", narration.AIContextScore)
	}
}

func TestNarrateDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestNarrator(server.URL, 3).Narrate(context.Background(), domain.Assessment{}, domain.ProductRecord{})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestNarrateMisconfigured(t *testing.T) {
	t.Parallel()

	n := NewNarrator(config.NarratorConfig{Endpoint: "http://localhost", Model: "m"}, nil)
	if _, err := n.Narrate(context.Background(), domain.Assessment{}, domain.ProductRecord{}); !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured, got %v", err)
	}
}

func TestDecodeNarration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		err     error
	}{
		{name: "carbon figure", content: `{"verdict": "Saves 12 kg CO2 a year."}`, err: ErrFabricatedCarbon},
		{name: "carbon in flags", content: `{"greenwashing_flags": ["emits 3 tons CO2"]}`, err: ErrFabricatedCarbon},
		{name: "missing opinion", content: `{"verdict": "fine"}`},
		{name: "out of range opinion", content: `{"verdict": "fine", "ai_context_score": 140}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := decodeNarration(tt.content)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if err == nil && n.AIContextScore != nil {
				t.Fatalf("expected no opinion, got %d", *n.AIContextScore)
			}
		})
	}

	if _, err := decodeNarration("not json"); err == nil {
		t.Fatal("expected decode error")
	}
}
