package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"charyscan/internal/config"
	"charyscan/internal/ports"
)

// HTTPScorer talks to the external scoring endpoint. The endpoint
// accepts {title, content, prompt?} and answers {score, summary} or
// {error: true, message}.
type HTTPScorer struct {
	endpoint string
	apiKey   string
	prompt   string
	http     *http.Client
}

var _ ports.Scorer = (*HTTPScorer)(nil)

// NewHTTPScorer builds a scorer from configuration.
func NewHTTPScorer(cfg config.ScoringConfig) *HTTPScorer {
	return &HTTPScorer{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		prompt:   cfg.Prompt,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Score posts the article and returns the raw response body for the
// normalizer. A well-formed {error, message} body is a scoring failure.
func (s *HTTPScorer) Score(ctx context.Context, title, body string) (string, error) {
	if s.endpoint == "" {
		return "", fmt.Errorf("scoring endpoint not configured")
	}

	request := map[string]any{
		"title":   title,
		"content": body,
	}
	if s.prompt != "" {
		request["prompt"] = s.prompt
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal scoring payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send scoring request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read scoring response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("scoring service %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var failure struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &failure); err == nil && failure.Error {
		return "", fmt.Errorf("scoring service rejected request: %s", failure.Message)
	}

	return string(raw), nil
}
