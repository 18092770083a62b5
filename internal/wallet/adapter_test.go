package wallet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charyscan/internal/config"
)

type fakeProvider struct {
	name  string
	votes []VoteRequest
	ops   [][]Operation
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) SignAndIdentify(ctx context.Context, username string) (Identity, error) {
	return Identity{Username: username, PublicKey: "STM7fake"}, nil
}
func (f *fakeProvider) Vote(ctx context.Context, req VoteRequest) error {
	f.votes = append(f.votes, req)
	return nil
}
func (f *fakeProvider) Broadcast(ctx context.Context, username string, ops []Operation) (BroadcastResult, error) {
	f.ops = append(f.ops, ops)
	return BroadcastResult{TxID: "tx123"}, nil
}

func TestAdapterReportsMissingCapability(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(StaticProbe(), nil)

	err := adapter.Vote(context.Background(), "keychain", VoteRequest{})
	require.ErrorIs(t, err, ErrCapabilityUnavailable)

	_, err = adapter.SignAndIdentify(context.Background(), "oauth", "alice")
	require.ErrorIs(t, err, ErrCapabilityUnavailable)
}

func TestAdapterDispatchesVote(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{name: "fake"}
	adapter := NewAdapter(StaticProbe(provider), nil)

	req := VoteRequest{Voter: "curator", Author: "alice", Permlink: "post-1", Weight: 10000}
	require.NoError(t, adapter.Vote(context.Background(), "fake", req))
	require.Len(t, provider.votes, 1)
	assert.Equal(t, req, provider.votes[0])
}

func TestAdapterCommentBuildsOperation(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{name: "fake"}
	adapter := NewAdapter(StaticProbe(provider), nil)

	res, err := adapter.Comment(context.Background(), "fake", Comment{
		ParentPermlink: "hive-149312",
		Author:         "curator",
		Permlink:       "charity-report-2026-08-31",
		Title:          "Report",
		Body:           "body",
		Tags:           []string{"charity"},
	})
	require.NoError(t, err)
	assert.Equal(t, "tx123", res.TxID)

	require.Len(t, provider.ops, 1)
	require.Len(t, provider.ops[0], 1)
	op := provider.ops[0][0]
	assert.Equal(t, "comment", op.Type)
	assert.Equal(t, "curator", op.Value["author"])
	assert.Equal(t, "hive-149312", op.Value["parent_permlink"])
	assert.Contains(t, op.Value["json_metadata"], `"charity"`)
}

func TestKeychainCancelledDialog(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"user canceled the request"}`))
	}))
	defer server.Close()

	bridge := NewKeychainBridge(server.URL)
	err := bridge.Vote(context.Background(), VoteRequest{Voter: "curator"})
	require.ErrorIs(t, err, ErrUserCancelled)
}

func TestKeychainVoteSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/requestVote", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"tx_id":"abc"}`))
	}))
	defer server.Close()

	bridge := NewKeychainBridge(server.URL)
	require.NoError(t, bridge.Vote(context.Background(), VoteRequest{Voter: "curator", Author: "alice", Permlink: "p", Weight: 5000}))
}

func TestHandshakeSignerRequiresSession(t *testing.T) {
	t.Parallel()

	signer := NewHandshakeSigner("https://example.invalid/api", "")
	err := signer.Vote(context.Background(), VoteRequest{Voter: "curator"})
	require.ErrorIs(t, err, ErrAuthorizationRequired)
}

func TestRedirectSignerAuthorizeURL(t *testing.T) {
	t.Parallel()

	signer := NewRedirectSigner(config.OAuthConfig{
		ClientID:     "charyscan",
		RedirectURI:  "https://app.example/callback",
		AuthorizeURL: "https://signer.example/oauth2/authorize",
	})

	raw := signer.AuthorizeURL("state-1")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "charyscan", q.Get("client_id"))
	assert.Equal(t, "https://app.example/callback", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "state-1", q.Get("state"))
}

func TestRedirectSignerExchangeCode(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "code-42", r.PostForm.Get("code"))
		_, _ = w.Write([]byte(`{"access_token":"tok","username":"curator","expires_in":3600}`))
	}))
	defer server.Close()

	signer := NewRedirectSigner(config.OAuthConfig{ClientID: "charyscan", TokenURL: server.URL})

	token, err := signer.ExchangeCode(context.Background(), "code-42")
	require.NoError(t, err)
	assert.Equal(t, "tok", token.AccessToken)
	assert.Equal(t, "curator", token.Username)
}

func TestRedirectSignerBroadcastWithoutTokenRedirects(t *testing.T) {
	t.Parallel()

	signer := NewRedirectSigner(config.OAuthConfig{
		ClientID:     "charyscan",
		AuthorizeURL: "https://signer.example/oauth2/authorize",
	})

	res, err := signer.Broadcast(context.Background(), "curator", nil)
	require.NoError(t, err)
	assert.Contains(t, res.RedirectURL, "https://signer.example/oauth2/authorize")
}
