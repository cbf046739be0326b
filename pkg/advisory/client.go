package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
)

const (
	// DefaultAnthropicVersion is the API version header value.
	DefaultAnthropicVersion = "2023-06-01"

	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultMaxAttempts bounds API calls per analysis, initial call
	// included.
	DefaultMaxAttempts = 3

	// DefaultTimeout bounds a single API call.
	DefaultTimeout = 30 * time.Second
)

const systemPrompt = `You are a contract clause analyst for enterprise B2B SaaS deals.
Analyze the provided clause and return a JSON object with exactly these fields:

{
  "summary": "<1-2 sentence plain-English summary of what the clause requires>",
  "risk_level": "<Low | Medium | High>",
  "categories": ["<one or more of: Audit, Data Residency, IP, Other>"],
  "confidence": <float 0.0 to 1.0 indicating your confidence in the analysis>
}

Rules:
- categories MUST be a list with at least one value
- risk_level MUST be exactly one of: Low, Medium, High
- confidence MUST be a number between 0.0 and 1.0
- Return ONLY valid JSON, no markdown fences, no extra text`

// Client analyzes contract clauses.
type Client interface {
	AnalyzeClause(ctx context.Context, clauseText string) (Advisory, error)
}

// Config configures the live HTTP client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxAttempts int
	Timeout     time.Duration
}

// HTTPClient calls Anthropic's Messages API. Malformed responses and
// transport failures are retried; when every attempt fails the client
// returns a fail-safe fallback advisory rather than an error, so a
// degraded analysis service never blocks deal intake.
type HTTPClient struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewHTTPClient validates the configuration and builds a live client.
func NewHTTPClient(cfg Config, logger *slog.Logger) (*HTTPClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("advisory: api key is required for live mode")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				ForceAttemptHTTP2:   true,
			},
		},
		logger: logger.With("component", "advisory.client"),
	}, nil
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// AnalyzeClause sends the clause for analysis, retrying transient and
// parse failures with exponential backoff. Only context cancellation
// surfaces as an error; exhausted retries yield the fallback advisory.
func (c *HTTPClient) AnalyzeClause(ctx context.Context, clauseText string) (Advisory, error) {
	var lastErr string
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(math.Pow(2, float64(attempt-2))) * time.Second
			select {
			case <-ctx.Done():
				return Advisory{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		adv, err := c.call(ctx, clauseText)
		if err == nil {
			return adv, nil
		}
		if ctx.Err() != nil {
			return Advisory{}, ctx.Err()
		}
		lastErr = fmt.Sprintf("attempt %d/%d: %v", attempt, c.cfg.MaxAttempts, err)
		c.logger.Warn("clause analysis attempt failed",
			"attempt", attempt,
			"max_attempts", c.cfg.MaxAttempts,
			"error", err)
	}

	c.logger.Error("clause analysis retries exhausted", "error", lastErr)
	return fallback(clauseText, c.cfg.Model, lastErr), nil
}

func (c *HTTPClient) call(ctx context.Context, clauseText string) (Advisory, error) {
	reqBody := messagesRequest{
		Model:       c.cfg.Model,
		MaxTokens:   512,
		Temperature: 0,
		System:      systemPrompt,
		Messages: []message{
			{Role: "user", Content: "Analyze this contract clause:\n\n" + clauseText},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Advisory{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return Advisory{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", DefaultAnthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Advisory{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Advisory{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Advisory{}, fmt.Errorf("api returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var mr messagesResponse
	if err := json.Unmarshal(body, &mr); err != nil {
		return Advisory{}, fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(mr.Content) == 0 {
		return Advisory{}, fmt.Errorf("response has no content blocks")
	}

	return parseAdvisory(mr.Content[0].Text, clauseText, c.cfg.Model)
}

// parseAdvisory decodes the model's JSON output into a validated
// Advisory. The model must return a bare JSON object; anything else is
// a parse failure and triggers a retry.
func parseAdvisory(raw, clauseText, model string) (Advisory, error) {
	var payload struct {
		Summary    string     `json:"summary"`
		RiskLevel  RiskLevel  `json:"risk_level"`
		Categories []Category `json:"categories"`
		Confidence float64    `json:"confidence"`
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return Advisory{}, fmt.Errorf("decoding advisory payload: %w", err)
	}

	adv := Advisory{
		Summary:        payload.Summary,
		RiskLevel:      payload.RiskLevel,
		Categories:     payload.Categories,
		Confidence:     payload.Confidence,
		ReviewRequired: payload.Confidence < ReviewThreshold,
		RawClause:      clauseText,
		ModelUsed:      model,
	}
	if err := adv.Validate(); err != nil {
		return Advisory{}, fmt.Errorf("invalid advisory payload: %w", err)
	}
	return adv, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
