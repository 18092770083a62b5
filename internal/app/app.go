package app

import (
	"context"
	"fmt"
	"log/slog"

	"charyscan/internal/analyze"
	"charyscan/internal/config"
	"charyscan/internal/events"
	"charyscan/internal/fetcher"
	"charyscan/internal/logging"
	"charyscan/internal/ports"
	"charyscan/internal/report"
	"charyscan/internal/rpc"
	"charyscan/internal/scoring"
	"charyscan/internal/storage"
	"charyscan/internal/wallet"
)

// Application wires configuration into runnable components.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	Node         *rpc.Client
	Fetcher      *fetcher.Fetcher
	Orchestrator *analyze.Orchestrator
	Repository   ports.AnalysisRepository
	Wallet       *wallet.Adapter
	Report       *report.Publisher

	store  *storage.Repository
	events *events.Publisher
}

// New builds the application. Storage, events, and scoring are optional
// by configuration; missing pieces degrade (no exclusion of known
// posts, no events, mock scores).
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	a := &Application{cfg: cfg, logger: logger}

	a.Node = rpc.New(cfg.Nodes, nil, logger.With("component", "rpc"))
	a.Node.SetAttemptTimeout(cfg.RPC.AttemptTimeout())

	if cfg.Database.DSN != "" {
		store, err := storage.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		a.store = store
		a.Repository = store
	}

	if len(cfg.Kafka.Brokers) > 0 {
		a.events = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	scorer, err := buildScorer(cfg)
	if err != nil {
		return nil, err
	}

	a.Fetcher = fetcher.New(a.Node, a.Repository, logger.With("component", "fetcher"))

	var publisher ports.EventPublisher
	if a.events != nil {
		publisher = a.events
	}
	a.Orchestrator = analyze.New(scorer, a.Repository, publisher, logger.With("component", "analyze"))

	a.Wallet = wallet.NewAdapter(buildProbe(cfg.Wallet), logger.With("component", "wallet"))

	if a.Repository != nil {
		a.Report = report.New(a.Repository, a.Wallet, cfg.Wallet.Provider, cfg.Wallet.Account,
			cfg.Report, logger.With("component", "report"))
	}

	return a, nil
}

func buildScorer(cfg config.Config) (ports.Scorer, error) {
	if cfg.Ollama.URL != "" {
		scorer, err := scoring.NewOllamaScorer(cfg.Ollama.URL, cfg.Ollama.Model, cfg.Scoring.Prompt)
		if err != nil {
			return nil, fmt.Errorf("build ollama scorer: %w", err)
		}
		return scorer, nil
	}
	if cfg.Scoring.Endpoint != "" {
		return scoring.NewHTTPScorer(cfg.Scoring), nil
	}
	return nil, nil
}

func buildProbe(cfg config.WalletConfig) wallet.Probe {
	var providers []wallet.Provider
	if cfg.Keychain.URL != "" {
		providers = append(providers, wallet.NewKeychainBridge(cfg.Keychain.URL))
	}
	if cfg.Signer.URL != "" {
		providers = append(providers, wallet.NewHandshakeSigner(cfg.Signer.URL, ""))
	}
	if cfg.OAuth.ClientID != "" {
		providers = append(providers, wallet.NewRedirectSigner(cfg.OAuth))
	}
	return wallet.StaticProbe(providers...)
}

// ScanOnce discovers new posts from the configured sources and analyzes
// each one. Per-post failures are logged, not fatal.
func (a *Application) ScanOnce(ctx context.Context) error {
	posts, err := a.Fetcher.FetchNew(ctx, a.cfg.Sources)
	if err != nil {
		return fmt.Errorf("fetch posts: %w", err)
	}

	a.logger.Info("scan found posts", "count", len(posts))

	for _, post := range posts {
		analysis, err := a.Orchestrator.Analyze(ctx, post)
		if err != nil {
			a.logger.Error("persist analysis", "url", post.URL(), "error", err)
			continue
		}

		score := 0.0
		if analysis.Score != nil {
			score = *analysis.Score
		}
		a.logger.Info("post analyzed",
			"url", analysis.URL,
			"score", score,
			"mock", analysis.IsMock,
			"state", string(analysis.State))
	}

	return nil
}

// Close releases long-lived resources.
func (a *Application) Close() error {
	var first error
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			first = err
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
