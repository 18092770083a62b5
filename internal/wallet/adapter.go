// Package wallet wraps the external signing providers behind one
// request/callback contract. No cryptography happens in-process: every
// operation is delegated to a provider that holds the keys.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrCapabilityUnavailable reports an absent signing provider;
	// surfaced immediately, never retried.
	ErrCapabilityUnavailable = errors.New("wallet: capability unavailable")

	// ErrUserCancelled reports a dismissed signing dialog; callers drop
	// the pending action silently.
	ErrUserCancelled = errors.New("wallet: user cancelled")

	// ErrAuthorizationRequired reports a redirect-based provider that
	// has no token yet; the caller must complete the authorize flow.
	ErrAuthorizationRequired = errors.New("wallet: authorization required")
)

// Identity is the signed-in account confirmed by a provider.
type Identity struct {
	Username  string
	PublicKey string
}

// VoteRequest describes an upvote; weight is in basis points
// (10000 = 100%).
type VoteRequest struct {
	Voter    string
	Author   string
	Permlink string
	Weight   int
}

// Operation is one custom blockchain operation to broadcast.
type Operation struct {
	Type  string         `json:"type"`
	Value map[string]any `json:"value"`
}

// BroadcastResult reports a broadcast outcome; RedirectURL is set when
// the provider requires the user to finish the flow externally.
type BroadcastResult struct {
	TxID        string
	RedirectURL string
}

// Comment describes a comment or root post to publish.
type Comment struct {
	ParentAuthor   string
	ParentPermlink string
	Author         string
	Permlink       string
	Title          string
	Body           string
	Tags           []string
}

// Provider is one external signing capability.
type Provider interface {
	Name() string
	SignAndIdentify(ctx context.Context, username string) (Identity, error)
	Vote(ctx context.Context, req VoteRequest) error
	Broadcast(ctx context.Context, username string, ops []Operation) (BroadcastResult, error)
}

// Probe resolves a provider by name. It replaces ambient global
// capability flags: availability is decided by whoever constructs the
// probe, and the adapter only sees a typed optional handle.
type Probe func(name string) (Provider, bool)

// StaticProbe builds a probe over a fixed provider set; nil entries are
// skipped so partially configured sets work.
func StaticProbe(providers ...Provider) Probe {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		if p != nil {
			byName[p.Name()] = p
		}
	}
	return func(name string) (Provider, bool) {
		p, ok := byName[name]
		return p, ok
	}
}

// Adapter dispatches signing operations to a probed provider.
type Adapter struct {
	probe  Probe
	logger *slog.Logger
}

// NewAdapter wires the capability probe.
func NewAdapter(probe Probe, logger *slog.Logger) *Adapter {
	return &Adapter{probe: probe, logger: logger}
}

func (a *Adapter) provider(name string) (Provider, error) {
	if a.probe == nil {
		return nil, fmt.Errorf("%w: no probe configured", ErrCapabilityUnavailable)
	}
	p, ok := a.probe(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCapabilityUnavailable, name)
	}
	return p, nil
}

// SignAndIdentify confirms account ownership through the named provider.
func (a *Adapter) SignAndIdentify(ctx context.Context, provider, username string) (Identity, error) {
	p, err := a.provider(provider)
	if err != nil {
		return Identity{}, err
	}
	return p.SignAndIdentify(ctx, username)
}

// Vote broadcasts an upvote through the named provider.
func (a *Adapter) Vote(ctx context.Context, provider string, req VoteRequest) error {
	p, err := a.provider(provider)
	if err != nil {
		return err
	}
	if err := p.Vote(ctx, req); err != nil {
		return fmt.Errorf("vote via %s: %w", provider, err)
	}
	a.debug("vote broadcast", "provider", provider, "author", req.Author, "permlink", req.Permlink, "weight", req.Weight)
	return nil
}

// Comment publishes a comment operation through the named provider.
func (a *Adapter) Comment(ctx context.Context, provider string, c Comment) (BroadcastResult, error) {
	p, err := a.provider(provider)
	if err != nil {
		return BroadcastResult{}, err
	}

	op := Operation{
		Type: "comment",
		Value: map[string]any{
			"parent_author":   c.ParentAuthor,
			"parent_permlink": c.ParentPermlink,
			"author":          c.Author,
			"permlink":        c.Permlink,
			"title":           c.Title,
			"body":            c.Body,
			"json_metadata":   metadataJSON(c.Tags),
		},
	}

	res, err := p.Broadcast(ctx, c.Author, []Operation{op})
	if err != nil {
		return BroadcastResult{}, fmt.Errorf("comment via %s: %w", provider, err)
	}
	return res, nil
}

// Broadcast sends custom operations through the named provider.
func (a *Adapter) Broadcast(ctx context.Context, provider, username string, ops []Operation) (BroadcastResult, error) {
	p, err := a.provider(provider)
	if err != nil {
		return BroadcastResult{}, err
	}
	res, err := p.Broadcast(ctx, username, ops)
	if err != nil {
		return BroadcastResult{}, fmt.Errorf("broadcast via %s: %w", provider, err)
	}
	return res, nil
}

func metadataJSON(tags []string) string {
	if len(tags) == 0 {
		return `{"app":"charyscan"}`
	}
	quoted := ""
	for i, tag := range tags {
		if i > 0 {
			quoted += ","
		}
		quoted += fmt.Sprintf("%q", tag)
	}
	return fmt.Sprintf(`{"app":"charyscan","tags":[%s]}`, quoted)
}

func (a *Adapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
