package ports

import (
	"context"

	"charyscan/internal/domain"
	"charyscan/internal/rpc"
)

// NodeClient issues JSON-RPC reads against the configured node set.
type NodeClient interface {
	Call(ctx context.Context, method string, params any) (rpc.Response, error)
}

// Scorer asks an external model for a charitable-intent assessment and
// returns its raw textual answer for normalization.
type Scorer interface {
	Score(ctx context.Context, title, body string) (string, error)
}

// AnalysisRepository persists analyses keyed by article URL.
type AnalysisRepository interface {
	Upsert(ctx context.Context, a domain.Analysis) error
	Get(ctx context.Context, url string) (domain.Analysis, bool, error)
	List(ctx context.Context, f domain.ListFilter) ([]domain.Analysis, error)
	SetFlag(ctx context.Context, url string, flag domain.Flag, value bool) error
	ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error)
}

// EventPublisher emits an event for each completed analysis.
type EventPublisher interface {
	AnalysisCompleted(ctx context.Context, a domain.Analysis) error
}
