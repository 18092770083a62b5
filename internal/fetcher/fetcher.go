package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"charyscan/internal/config"
	"charyscan/internal/domain"
	"charyscan/internal/ports"
)

const (
	previewLimit  = 280
	defaultLimit  = 20
	createdLayout = "2006-01-02T15:04:05"
)

// Fetcher discovers candidate posts from configured tag and community
// sources. The sources are independent queries, so they run
// concurrently — unlike the node client's endpoint fallback, which is
// sequential by design.
type Fetcher struct {
	node   ports.NodeClient
	repo   ports.AnalysisRepository
	logger *slog.Logger
}

// New wires the node client; repo may be nil, in which case no posts
// are excluded as already analyzed.
func New(node ports.NodeClient, repo ports.AnalysisRepository, logger *slog.Logger) *Fetcher {
	return &Fetcher{node: node, repo: repo, logger: logger}
}

// rawPost mirrors the node's post shape; json_metadata arrives either
// as an embedded JSON string or as a plain object depending on the API.
type rawPost struct {
	Author           string          `json:"author"`
	Permlink         string          `json:"permlink"`
	Title            string          `json:"title"`
	Body             string          `json:"body"`
	Category         string          `json:"category"`
	Created          string          `json:"created"`
	JSONMetadata     json.RawMessage `json:"json_metadata"`
	AuthorReputation int64           `json:"author_reputation"`
}

// FetchNew queries every source concurrently, merges results in source
// order, drops (author, permlink) duplicates keeping the first
// occurrence, and excludes posts whose URL is already stored.
func (f *Fetcher) FetchNew(ctx context.Context, sources []config.SourceConfig) ([]domain.Post, error) {
	results := make([][]domain.Post, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			posts, err := f.fetchSource(gctx, src)
			if err != nil {
				return fmt.Errorf("source %s %q: %w", src.Kind, src.Name, err)
			}
			results[i] = posts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := dedupe(results)
	f.debug("sources merged", "sources", len(sources), "posts", len(merged))

	if f.repo == nil || len(merged) == 0 {
		return merged, nil
	}

	urls := make([]string, len(merged))
	for i, p := range merged {
		urls[i] = p.URL()
	}
	known, err := f.repo.ExistingURLs(ctx, urls)
	if err != nil {
		return nil, fmt.Errorf("load existing urls: %w", err)
	}

	fresh := merged[:0]
	for _, p := range merged {
		if !known[p.URL()] {
			fresh = append(fresh, p)
		}
	}
	return fresh, nil
}

// Get fetches a single post by author and permlink.
func (f *Fetcher) Get(ctx context.Context, author, permlink string) (domain.Post, error) {
	resp, err := f.node.Call(ctx, "condenser_api.get_content", []any{author, permlink})
	if err != nil {
		return domain.Post{}, fmt.Errorf("get content: %w", err)
	}

	var rp rawPost
	if err := json.Unmarshal(resp.Result, &rp); err != nil {
		return domain.Post{}, fmt.Errorf("decode post: %w", err)
	}
	if rp.Author == "" || rp.Permlink == "" {
		return domain.Post{}, fmt.Errorf("post @%s/%s not found", author, permlink)
	}

	return toDomain(rp), nil
}

func (f *Fetcher) fetchSource(ctx context.Context, src config.SourceConfig) ([]domain.Post, error) {
	limit := src.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var (
		method string
		params any
	)
	switch src.Kind {
	case "community":
		method = "bridge.get_ranked_posts"
		params = map[string]any{"sort": "created", "tag": src.Name, "limit": limit, "observer": ""}
	default:
		method = "condenser_api.get_discussions_by_created"
		params = []any{map[string]any{"tag": src.Name, "limit": limit}}
	}

	resp, err := f.node.Call(ctx, method, params)
	if err != nil {
		return nil, err
	}

	var raw []rawPost
	if err := json.Unmarshal(resp.Result, &raw); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", method, err)
	}

	posts := make([]domain.Post, 0, len(raw))
	for _, rp := range raw {
		if rp.Author == "" || rp.Permlink == "" {
			continue
		}
		posts = append(posts, toDomain(rp))
	}
	f.debug("source fetched", "kind", src.Kind, "name", src.Name, "endpoint", resp.Endpoint, "posts", len(posts))
	return posts, nil
}

func toDomain(rp rawPost) domain.Post {
	created, err := time.Parse(createdLayout, rp.Created)
	if err != nil {
		created = time.Time{}
	}

	return domain.Post{
		Author:     rp.Author,
		Permlink:   rp.Permlink,
		Title:      strings.TrimSpace(rp.Title),
		Body:       rp.Body,
		Category:   rp.Category,
		Created:    created,
		Reputation: FormatReputation(rp.AuthorReputation),
		Preview:    Preview(rp.Body, previewLimit),
		ImageURL:   firstImage(rp.JSONMetadata),
	}
}

// dedupe merges per-source slices preserving source order; the first
// occurrence of an (author, permlink) pair wins.
func dedupe(groups [][]domain.Post) []domain.Post {
	seen := map[string]struct{}{}
	var merged []domain.Post
	for _, posts := range groups {
		for _, p := range posts {
			if _, ok := seen[p.Key()]; ok {
				continue
			}
			seen[p.Key()] = struct{}{}
			merged = append(merged, p)
		}
	}
	return merged
}

// FormatReputation converts the raw chain reputation integer to a
// human-scale number by fixed-point division.
func FormatReputation(raw int64) float64 {
	return math.Round(float64(raw)/1e9*100) / 100
}

func firstImage(meta json.RawMessage) string {
	if len(meta) == 0 {
		return ""
	}

	raw := meta
	var embedded string
	if err := json.Unmarshal(meta, &embedded); err == nil {
		if embedded == "" {
			return ""
		}
		raw = []byte(embedded)
	}

	var payload struct {
		Image []string `json:"image"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || len(payload.Image) == 0 {
		return ""
	}
	return payload.Image[0]
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
