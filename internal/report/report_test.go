package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charyscan/internal/config"
	"charyscan/internal/domain"
	"charyscan/internal/wallet"
)

type fakeRepo struct {
	analyses []domain.Analysis
	filter   domain.ListFilter
}

func (f *fakeRepo) Upsert(ctx context.Context, a domain.Analysis) error { return nil }
func (f *fakeRepo) Get(ctx context.Context, url string) (domain.Analysis, bool, error) {
	return domain.Analysis{}, false, nil
}
func (f *fakeRepo) List(ctx context.Context, filter domain.ListFilter) ([]domain.Analysis, error) {
	f.filter = filter
	return f.analyses, nil
}
func (f *fakeRepo) SetFlag(ctx context.Context, url string, flag domain.Flag, value bool) error {
	return nil
}
func (f *fakeRepo) ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	return nil, nil
}

func TestPublishBroadcastsReport(t *testing.T) {
	t.Parallel()

	score := 7.5
	repo := &fakeRepo{analyses: []domain.Analysis{
		{
			URL:     "https://peakd.com/@alice/post-1",
			Author:  "alice",
			Title:   "Helping hands",
			Score:   &score,
			Summary: "a | summary\nwith newline",
		},
	}}

	provider := &recordingProvider{}
	adapter := wallet.NewAdapter(wallet.StaticProbe(provider), nil)

	p := New(repo, adapter, "fake", "curator", config.ReportConfig{
		Title:          "Charity curation report",
		ParentPermlink: "hive-149312",
		Limit:          5,
	}, nil)
	p.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }

	res, err := p.Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tx-report", res.TxID)

	require.Len(t, provider.ops, 1)
	op := provider.ops[0]
	assert.Equal(t, "comment", op.Type)
	assert.Equal(t, "curator", op.Value["author"])
	assert.Equal(t, "charity-report-2026-08-31", op.Value["permlink"])

	body, _ := op.Value["body"].(string)
	assert.Contains(t, body, "https://peakd.com/@alice/post-1")
	assert.Contains(t, body, "7.5")
	assert.NotContains(t, body, "a | summary", "pipes must be escaped for the table")

	// Archived entries stay out of the report.
	require.NotNil(t, repo.filter.Archived)
	assert.False(t, *repo.filter.Archived)
	assert.EqualValues(t, 5, repo.filter.Limit)
}

func TestPublishNothingToReport(t *testing.T) {
	t.Parallel()

	provider := &recordingProvider{}
	adapter := wallet.NewAdapter(wallet.StaticProbe(provider), nil)
	p := New(&fakeRepo{}, adapter, "fake", "curator", config.ReportConfig{}, nil)

	_, err := p.Publish(context.Background())
	require.Error(t, err)
}

type recordingProvider struct {
	ops []wallet.Operation
}

func (r *recordingProvider) Name() string { return "fake" }
func (r *recordingProvider) SignAndIdentify(ctx context.Context, username string) (wallet.Identity, error) {
	return wallet.Identity{Username: username}, nil
}
func (r *recordingProvider) Vote(ctx context.Context, req wallet.VoteRequest) error { return nil }
func (r *recordingProvider) Broadcast(ctx context.Context, username string, ops []wallet.Operation) (wallet.BroadcastResult, error) {
	r.ops = append(r.ops, ops...)
	return wallet.BroadcastResult{TxID: "tx-report"}, nil
}
