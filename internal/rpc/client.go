package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const defaultAttemptTimeout = 10 * time.Second

// Response carries the parsed result payload and the endpoint that answered.
type Response struct {
	Endpoint string
	Result   json.RawMessage
}

// Attempt records one failed endpoint try, in call order.
type Attempt struct {
	Endpoint string
	Cause    error
}

// NodeError is a query-level error object returned inside a well-formed
// JSON-RPC response body.
type NodeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node error %d: %s", e.Code, e.Message)
}

// ExhaustedError reports that every configured endpoint failed.
type ExhaustedError struct {
	Method   string
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("rpc %s: all %d endpoints failed", e.Method, len(e.Attempts))
}

// Client issues JSON-RPC calls against an ordered list of candidate
// endpoints. Endpoints are tried strictly one at a time, in configured
// order, and the first structurally valid response wins. Order encodes
// preference; there is no health tracking or reordering.
type Client struct {
	endpoints      []string
	http           *http.Client
	attemptTimeout time.Duration
	logger         *slog.Logger
}

// New wires an HTTP client; a nil client gets sane defaults. Each
// endpoint receives exactly one attempt per call, bounded by the
// per-attempt timeout.
func New(endpoints []string, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		endpoints:      endpoints,
		http:           client,
		attemptTimeout: defaultAttemptTimeout,
		logger:         logger,
	}
}

// SetAttemptTimeout overrides the per-endpoint deadline.
func (c *Client) SetAttemptTimeout(d time.Duration) {
	if d > 0 {
		c.attemptTimeout = d
	}
}

type envelope struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      string `json:"id"`
}

// Call walks the endpoint list and returns the first result payload.
// Transport failures, non-2xx statuses, bodies that do not parse, and
// bodies without a result key are all recorded per endpoint and trigger
// fallback to the next one. When the list is exhausted the returned
// error is an *ExhaustedError carrying every cause in attempt order.
func (c *Client) Call(ctx context.Context, method string, params any) (Response, error) {
	if method == "" {
		return Response{}, fmt.Errorf("rpc: empty method")
	}

	attempts := make([]Attempt, 0, len(c.endpoints))
	for _, endpoint := range c.endpoints {
		result, err := c.attempt(ctx, endpoint, method, params)
		if err != nil {
			c.debug("endpoint attempt failed", "endpoint", endpoint, "method", method, "error", err)
			attempts = append(attempts, Attempt{Endpoint: endpoint, Cause: err})
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return Response{Endpoint: endpoint, Result: result}, nil
	}

	return Response{}, &ExhaustedError{Method: method, Attempts: attempts}
}

// CallInto decodes the result payload into out and reports the endpoint
// that answered.
func (c *Client) CallInto(ctx context.Context, method string, params any, out any) (string, error) {
	resp, err := c.Call(ctx, method, params)
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return resp.Endpoint, fmt.Errorf("decode %s result: %w", method, err)
	}
	return resp.Endpoint, nil
}

func (c *Client) attempt(ctx context.Context, endpoint, method string, params any) (json.RawMessage, error) {
	actx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	// Fresh id per attempt so a late answer from a previous endpoint
	// cannot be confused with the current one.
	body, err := json.Marshal(envelope{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      uuid.NewString(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(actx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("node returned %s", resp.Status)
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed response body: %w", err)
	}

	if raw, ok := payload["error"]; ok && !isJSONNull(raw) {
		nodeErr := &NodeError{}
		if err := json.Unmarshal(raw, nodeErr); err != nil {
			return nil, fmt.Errorf("unreadable error object: %s", string(raw))
		}
		return nil, nodeErr
	}

	// An explicit "result": null is still a valid answer; a body with
	// no result key at all is not, and must not pass for empty data.
	result, ok := payload["result"]
	if !ok {
		return nil, fmt.Errorf("response has no result field")
	}

	return result, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
