package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HandshakeSigner talks to the remote handshake-based signing service.
// The service holds a session per account and signs server-side after
// the user approves the handshake in their companion app.
type HandshakeSigner struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ Provider = (*HandshakeSigner)(nil)

// NewHandshakeSigner points at the service API; token may be empty
// until a handshake completes.
func NewHandshakeSigner(baseURL, token string) *HandshakeSigner {
	return &HandshakeSigner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Name identifies the provider for the capability probe.
func (s *HandshakeSigner) Name() string { return "signer" }

// SetToken installs the session token produced by a handshake.
func (s *HandshakeSigner) SetToken(token string) { s.token = token }

// SignAndIdentify verifies the session and returns the account behind
// it.
func (s *HandshakeSigner) SignAndIdentify(ctx context.Context, username string) (Identity, error) {
	var me struct {
		Account   string `json:"account"`
		PublicKey string `json:"public_key"`
	}
	if err := s.post(ctx, "/me", map[string]any{"username": username}, &me); err != nil {
		return Identity{}, err
	}
	if me.Account == "" {
		me.Account = username
	}
	return Identity{Username: me.Account, PublicKey: me.PublicKey}, nil
}

// Vote broadcasts an upvote through the service.
func (s *HandshakeSigner) Vote(ctx context.Context, req VoteRequest) error {
	ops := []Operation{{
		Type: "vote",
		Value: map[string]any{
			"voter":    req.Voter,
			"author":   req.Author,
			"permlink": req.Permlink,
			"weight":   req.Weight,
		},
	}}
	_, err := s.Broadcast(ctx, req.Voter, ops)
	return err
}

// Broadcast submits operations for server-side signing.
func (s *HandshakeSigner) Broadcast(ctx context.Context, username string, ops []Operation) (BroadcastResult, error) {
	var result struct {
		TxID string `json:"tx_id"`
	}
	payload := map[string]any{"username": username, "operations": ops}
	if err := s.post(ctx, "/broadcast", payload, &result); err != nil {
		return BroadcastResult{}, err
	}
	return BroadcastResult{TxID: result.TxID}, nil
}

func (s *HandshakeSigner) post(ctx context.Context, path string, payload any, out any) error {
	if s.token == "" {
		return fmt.Errorf("%w: no signer session", ErrAuthorizationRequired)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal signer payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", s.token)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("signer service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: signer session expired", ErrAuthorizationRequired)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("signer service returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode signer response: %w", err)
	}
	return nil
}
