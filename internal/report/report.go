package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"charyscan/internal/config"
	"charyscan/internal/domain"
	"charyscan/internal/ports"
	"charyscan/internal/wallet"
)

// Publisher renders a markdown digest of recent curated analyses and
// publishes it on-chain as a post through the wallet adapter.
type Publisher struct {
	repo     ports.AnalysisRepository
	wallet   *wallet.Adapter
	provider string
	author   string
	cfg      config.ReportConfig
	logger   *slog.Logger
	now      func() time.Time
}

// New wires the repository and wallet adapter.
func New(repo ports.AnalysisRepository, w *wallet.Adapter, provider, author string, cfg config.ReportConfig, logger *slog.Logger) *Publisher {
	return &Publisher{
		repo:     repo,
		wallet:   w,
		provider: provider,
		author:   author,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Publish builds and broadcasts the report post. Archived entries are
// excluded; the newest entries up to the configured limit are included.
func (p *Publisher) Publish(ctx context.Context) (wallet.BroadcastResult, error) {
	archived := false
	limit := p.cfg.Limit
	if limit <= 0 {
		limit = 10
	}

	analyses, err := p.repo.List(ctx, domain.ListFilter{
		Archived: &archived,
		Limit:    uint64(limit),
	})
	if err != nil {
		return wallet.BroadcastResult{}, fmt.Errorf("load analyses: %w", err)
	}
	if len(analyses) == 0 {
		return wallet.BroadcastResult{}, fmt.Errorf("nothing to report")
	}

	day := p.now().UTC().Format("2006-01-02")
	comment := wallet.Comment{
		ParentPermlink: p.cfg.ParentPermlink,
		Author:         p.author,
		Permlink:       "charity-report-" + day,
		Title:          fmt.Sprintf("%s — %s", p.cfg.Title, day),
		Body:           buildBody(analyses),
		Tags:           []string{"charity", "curation"},
	}

	res, err := p.wallet.Comment(ctx, p.provider, comment)
	if err != nil {
		return wallet.BroadcastResult{}, err
	}

	if p.logger != nil {
		p.logger.Info("report published", "permlink", comment.Permlink, "entries", len(analyses), "tx", res.TxID)
	}
	return res, nil
}

func buildBody(analyses []domain.Analysis) string {
	var b strings.Builder
	b.WriteString("Recently curated charitable posts:\n\n")
	b.WriteString("| Post | Score | Summary |\n|---|---|---|\n")

	for _, a := range analyses {
		score := "—"
		if a.Score != nil {
			score = fmt.Sprintf("%.1f", *a.Score)
			if a.IsMock {
				score += " (est.)"
			}
		}
		title := a.Title
		if title == "" {
			title = "@" + a.Author + "/" + a.Permlink
		}
		summary := strings.ReplaceAll(a.Summary, "|", "/")
		summary = strings.ReplaceAll(summary, "\n", " ")
		fmt.Fprintf(&b, "| [%s](%s) | %s | %s |\n", title, a.URL, score, summary)
	}

	return b.String()
}
