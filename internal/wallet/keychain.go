package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// KeychainBridge talks to the local keychain extension bridge over
// HTTP. The bridge pops a confirmation dialog for every request, so a
// "cancel" answer maps to ErrUserCancelled.
type KeychainBridge struct {
	baseURL string
	http    *http.Client
}

var _ Provider = (*KeychainBridge)(nil)

// NewKeychainBridge points at the bridge; a typical local setup listens
// on localhost.
func NewKeychainBridge(baseURL string) *KeychainBridge {
	return &KeychainBridge{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 90 * time.Second},
	}
}

// Name identifies the provider for the capability probe.
func (k *KeychainBridge) Name() string { return "keychain" }

type bridgeResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	PublicKey string `json:"public_key"`
	TxID      string `json:"tx_id"`
}

// SignAndIdentify asks the bridge to sign a fresh challenge and
// confirms the account it was signed with.
func (k *KeychainBridge) SignAndIdentify(ctx context.Context, username string) (Identity, error) {
	resp, err := k.post(ctx, "/requestSignBuffer", map[string]any{
		"username": username,
		"message":  "charyscan-login-" + uuid.NewString(),
		"method":   "Posting",
	})
	if err != nil {
		return Identity{}, err
	}
	return Identity{Username: username, PublicKey: resp.PublicKey}, nil
}

// Vote asks the bridge to sign and broadcast a vote.
func (k *KeychainBridge) Vote(ctx context.Context, req VoteRequest) error {
	_, err := k.post(ctx, "/requestVote", map[string]any{
		"username": req.Voter,
		"author":   req.Author,
		"permlink": req.Permlink,
		"weight":   req.Weight,
	})
	return err
}

// Broadcast asks the bridge to sign and broadcast custom operations.
func (k *KeychainBridge) Broadcast(ctx context.Context, username string, ops []Operation) (BroadcastResult, error) {
	resp, err := k.post(ctx, "/requestBroadcast", map[string]any{
		"username":   username,
		"operations": ops,
		"method":     "Posting",
	})
	if err != nil {
		return BroadcastResult{}, err
	}
	return BroadcastResult{TxID: resp.TxID}, nil
}

func (k *KeychainBridge) post(ctx context.Context, path string, payload any) (bridgeResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return bridgeResponse{}, fmt.Errorf("marshal bridge payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return bridgeResponse{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := k.http.Do(req)
	if err != nil {
		return bridgeResponse{}, fmt.Errorf("keychain bridge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return bridgeResponse{}, fmt.Errorf("keychain bridge returned %s", resp.Status)
	}

	var parsed bridgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return bridgeResponse{}, fmt.Errorf("decode bridge response: %w", err)
	}

	if !parsed.Success {
		if strings.Contains(strings.ToLower(parsed.Error), "cancel") {
			return bridgeResponse{}, ErrUserCancelled
		}
		return bridgeResponse{}, fmt.Errorf("keychain bridge: %s", parsed.Error)
	}

	return parsed, nil
}
