package advisory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, serverURL string, attempts int) *HTTPClient {
	t.Helper()
	c, err := NewHTTPClient(Config{
		BaseURL:     serverURL,
		APIKey:      "test-key",
		Model:       "test-model",
		MaxAttempts: attempts,
		Timeout:     2 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return c
}

func messagesPayload(text string) string {
	body, _ := json.Marshal(map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	return string(body)
}

func TestAnalyzeClauseSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path %s, want /v1/messages", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != DefaultAnthropicVersion {
			t.Errorf("anthropic-version %q", got)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req["model"] != "test-model" {
			t.Errorf("model %v", req["model"])
		}

		w.Write([]byte(messagesPayload(`{"summary":"Requires quarterly audits.","risk_level":"High","categories":["Audit","IP"],"confidence":0.92}`)))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 1)
	adv, err := c.AnalyzeClause(context.Background(), "Vendor shall permit quarterly audits.")
	if err != nil {
		t.Fatalf("AnalyzeClause: %v", err)
	}
	if adv.RiskLevel != RiskHigh {
		t.Errorf("risk level %s, want High", adv.RiskLevel)
	}
	if len(adv.Categories) != 2 || adv.Categories[0] != CategoryAudit {
		t.Errorf("categories %v", adv.Categories)
	}
	if adv.ReviewRequired {
		t.Error("review required at confidence 0.92")
	}
	if adv.RawClause != "Vendor shall permit quarterly audits." {
		t.Errorf("raw clause %q", adv.RawClause)
	}
	if adv.ModelUsed != "test-model" {
		t.Errorf("model used %q", adv.ModelUsed)
	}
}

func TestAnalyzeClauseLowConfidenceRequiresReview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(messagesPayload(`{"summary":"Unclear obligations.","risk_level":"Low","categories":["Other"],"confidence":0.5}`)))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 1)
	adv, err := c.AnalyzeClause(context.Background(), "clause")
	if err != nil {
		t.Fatalf("AnalyzeClause: %v", err)
	}
	if !adv.ReviewRequired {
		t.Error("confidence 0.5 must require review")
	}
}

func TestAnalyzeClauseRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Write([]byte(messagesPayload("not json at all")))
			return
		}
		w.Write([]byte(messagesPayload(`{"summary":"ok","risk_level":"Low","categories":["Other"],"confidence":0.9}`)))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	adv, err := c.AnalyzeClause(context.Background(), "clause")
	if err != nil {
		t.Fatalf("AnalyzeClause: %v", err)
	}
	if adv.RiskLevel != RiskLow {
		t.Errorf("risk level %s after retry", adv.RiskLevel)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server called %d times, want 2", got)
	}
}

func TestAnalyzeClauseExhaustedRetriesFallsBack(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	adv, err := c.AnalyzeClause(context.Background(), "clause text")
	if err != nil {
		t.Fatalf("AnalyzeClause: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server called %d times, want 2", got)
	}
	if adv.RiskLevel != RiskMedium || adv.Confidence != 0 || !adv.ReviewRequired {
		t.Errorf("fallback advisory %+v", adv)
	}
	if adv.Error == "" {
		t.Error("fallback advisory has no error detail")
	}
	if adv.RawClause != "clause text" {
		t.Errorf("raw clause %q", adv.RawClause)
	}
}

func TestAnalyzeClauseRejectsInvalidPayloads(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"bad risk level", `{"summary":"s","risk_level":"Critical","categories":["Other"],"confidence":0.9}`},
		{"empty categories", `{"summary":"s","risk_level":"Low","categories":[],"confidence":0.9}`},
		{"confidence out of range", `{"summary":"s","risk_level":"Low","categories":["Other"],"confidence":1.5}`},
		{"unknown field", `{"summary":"s","risk_level":"Low","categories":["Other"],"confidence":0.9,"extra":1}`},
		{"markdown fence", "```json\n{}\n```"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseAdvisory(tc.text, "clause", "m"); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestAnalyzeClauseContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(t, srv.URL, 3)
	if _, err := c.AnalyzeClause(ctx, "clause"); err == nil {
		t.Error("expected context error")
	}
}

func TestNewHTTPClientRequiresAPIKey(t *testing.T) {
	if _, err := NewHTTPClient(Config{}, nil); err == nil {
		t.Error("expected error without api key")
	}
	if _, err := NewHTTPClient(Config{APIKey: "k"}, nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMockClient(t *testing.T) {
	adv, err := NewMockClient().AnalyzeClause(context.Background(), "some clause")
	if err != nil {
		t.Fatalf("AnalyzeClause: %v", err)
	}
	if adv.RiskLevel != RiskMedium {
		t.Errorf("risk level %s", adv.RiskLevel)
	}
	if adv.Confidence != 0.87 || adv.ReviewRequired {
		t.Errorf("confidence %v review %v", adv.Confidence, adv.ReviewRequired)
	}
	if adv.ModelUsed != "mock" {
		t.Errorf("model used %q", adv.ModelUsed)
	}
	if adv.RawClause != "some clause" {
		t.Errorf("raw clause %q", adv.RawClause)
	}
	if err := adv.Validate(); err != nil {
		t.Errorf("mock advisory invalid: %v", err)
	}
	if !strings.Contains(adv.Summary, "audit") && !strings.Contains(adv.Summary, "audits") {
		t.Errorf("summary %q", adv.Summary)
	}
}
