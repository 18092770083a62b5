package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"charyscan/internal/domain"
	"charyscan/internal/normalize"
	"charyscan/internal/ports"
)

// Orchestrator drives the per-post scoring lifecycle:
// Pending → Scoring → {Scored | Failed}. Scoring failures never surface
// as errors; they degrade to a mock-flagged local heuristic score so
// callers always get a usable record. Only the persistence step can
// return an error.
type Orchestrator struct {
	scorer ports.Scorer
	repo   ports.AnalysisRepository
	events ports.EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

// New wires the orchestrator; repo, events, and even scorer may be nil
// (a nil scorer always takes the mock path).
func New(scorer ports.Scorer, repo ports.AnalysisRepository, events ports.EventPublisher, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		scorer: scorer,
		repo:   repo,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// Analyze scores one post and upserts the result keyed by its URL.
// Re-analyzing the same URL updates the stored entity in place, never
// duplicates it. The returned record is valid even when err is non-nil
// (persistence failed) or the scorer fell back to a mock.
func (o *Orchestrator) Analyze(ctx context.Context, post domain.Post) (domain.Analysis, error) {
	a := domain.Analysis{
		URL:      post.URL(),
		Author:   post.Author,
		Permlink: post.Permlink,
		Title:    post.Title,
		State:    domain.StateScoring,
	}

	raw, err := o.score(ctx, post)
	if err != nil {
		o.warn("scoring failed, falling back to mock", "url", a.URL, "error", err)
		return o.mock(post, a), nil
	}

	rec := normalize.Normalize(raw)
	a.Score = rec.Score
	a.Summary = rec.Summary
	a.Reason = rec.Reason
	a.Evidence = rec.Evidence
	a.Raw = rec.Raw
	a.State = domain.StateScored
	a.CreatedAt = o.now().UTC()
	a.UpdatedAt = a.CreatedAt

	if o.repo != nil {
		if err := o.repo.Upsert(ctx, a); err != nil {
			return a, fmt.Errorf("store analysis %s: %w", a.URL, err)
		}
	}

	if o.events != nil {
		if err := o.events.AnalysisCompleted(ctx, a); err != nil {
			o.warn("publish analysis event", "url", a.URL, "error", err)
		}
	}

	return a, nil
}

func (o *Orchestrator) warn(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Warn(msg, args...)
	}
}

func (o *Orchestrator) score(ctx context.Context, post domain.Post) (string, error) {
	if o.scorer == nil {
		return "", fmt.Errorf("no scorer configured")
	}
	return o.scorer.Score(ctx, post.Title, post.Body)
}

// mock builds the deterministic fallback record. It is disclosed via
// IsMock and deliberately not persisted: a stored entity appears only
// on a real scorer success.
func (o *Orchestrator) mock(post domain.Post, a domain.Analysis) domain.Analysis {
	score := MockScore(post.Title, post.Body)
	a.Score = &score
	a.Summary = post.Preview
	a.IsMock = true
	a.State = domain.StateFailed
	a.CreatedAt = o.now().UTC()
	a.UpdatedAt = a.CreatedAt
	return a
}
