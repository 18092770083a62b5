package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"charyscan/internal/config"
)

// RedirectSigner implements the OAuth-style provider: the user is sent
// to an authorize URL, comes back with a code, and the code is
// exchanged server-side for an access token that authorizes broadcasts.
type RedirectSigner struct {
	clientID     string
	clientSecret string
	redirectURI  string
	authorizeURL string
	tokenURL     string
	apiURL       string
	token        string
	http         *http.Client
}

var _ Provider = (*RedirectSigner)(nil)

// Token is the result of a code exchange.
type Token struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	ExpiresIn   int    `json:"expires_in"`
}

// NewRedirectSigner builds the provider from configuration.
func NewRedirectSigner(cfg config.OAuthConfig) *RedirectSigner {
	return &RedirectSigner{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		authorizeURL: cfg.AuthorizeURL,
		tokenURL:     cfg.TokenURL,
		apiURL:       strings.TrimSuffix(cfg.APIURL, "/"),
		http:         &http.Client{Timeout: 30 * time.Second},
	}
}

// Name identifies the provider for the capability probe.
func (s *RedirectSigner) Name() string { return "oauth" }

// AuthorizeURL builds the URL the user must visit to grant access.
func (s *RedirectSigner) AuthorizeURL(state string) string {
	query := url.Values{}
	query.Set("client_id", s.clientID)
	query.Set("redirect_uri", s.redirectURI)
	query.Set("response_type", "code")
	query.Set("scope", "login,vote,comment,custom_json")
	if state != "" {
		query.Set("state", state)
	}
	return s.authorizeURL + "?" + query.Encode()
}

// ExchangeCode trades the code captured from the return URL for an
// access token and installs it on the provider.
func (s *RedirectSigner) ExchangeCode(ctx context.Context, code string) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)
	form.Set("redirect_uri", s.redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Token{}, fmt.Errorf("token endpoint returned %s", resp.Status)
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return Token{}, fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return Token{}, fmt.Errorf("token endpoint returned no access token")
	}

	s.token = token.AccessToken
	return token, nil
}

// SignAndIdentify confirms the account behind the current token.
func (s *RedirectSigner) SignAndIdentify(ctx context.Context, username string) (Identity, error) {
	if s.token == "" {
		return Identity{}, fmt.Errorf("%w: visit %s", ErrAuthorizationRequired, s.AuthorizeURL(""))
	}

	var me struct {
		User string `json:"user"`
	}
	if err := s.call(ctx, "/me", nil, &me); err != nil {
		return Identity{}, err
	}
	if me.User == "" {
		me.User = username
	}
	return Identity{Username: me.User}, nil
}

// Vote broadcasts an upvote with the current token.
func (s *RedirectSigner) Vote(ctx context.Context, req VoteRequest) error {
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

// Broadcast submits operations; without a token the result carries the
// authorize redirect instead of an error so the caller can forward the
// user there.
func (s *RedirectSigner) Broadcast(ctx context.Context, username string, ops []Operation) (BroadcastResult, error) {
	if s.token == "" {
		return BroadcastResult{RedirectURL: s.AuthorizeURL("")}, nil
	}

	var result struct {
		TxID string `json:"tx_id"`
	}
	payload := map[string]any{"operations": ops}
	if err := s.call(ctx, "/broadcast", payload, &result); err != nil {
		return BroadcastResult{}, err
	}
	return BroadcastResult{TxID: result.TxID}, nil
}

func (s *RedirectSigner) call(ctx context.Context, path string, payload any, out any) error {
	var body *strings.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = strings.NewReader(string(raw))
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("signer api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: token expired", ErrAuthorizationRequired)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("signer api returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode signer api response: %w", err)
	}
	return nil
}
