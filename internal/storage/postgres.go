package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"charyscan/internal/domain"
	"charyscan/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
    url          TEXT PRIMARY KEY,
    author       TEXT NOT NULL DEFAULT '',
    permlink     TEXT NOT NULL DEFAULT '',
    title        TEXT NOT NULL DEFAULT '',
    score        DOUBLE PRECISION,
    summary      TEXT NOT NULL DEFAULT '',
    reason       TEXT NOT NULL DEFAULT '',
    evidence     TEXT[],
    raw_response TEXT,
    is_mock      BOOLEAN NOT NULL DEFAULT FALSE,
    state        TEXT NOT NULL DEFAULT 'scored',
    favorite     BOOLEAN NOT NULL DEFAULT FALSE,
    archived     BOOLEAN NOT NULL DEFAULT FALSE,
    chary        BOOLEAN NOT NULL DEFAULT FALSE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

var listColumns = []string{
	"url", "author", "permlink", "title", "score", "summary", "reason",
	"evidence", "raw_response", "is_mock", "state",
	"favorite", "archived", "chary", "created_at", "updated_at",
}

var flagColumns = map[domain.Flag]string{
	domain.FlagFavorite: "favorite",
	domain.FlagArchived: "archived",
	domain.FlagChary:    "chary",
}

// Repository persists analyses in Postgres, one row per article URL.
type Repository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

var _ ports.AnalysisRepository = (*Repository)(nil)

// Open connects to Postgres and prepares the schema.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	repo := New(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// New wires an existing connection pool.
func New(db *sqlx.DB) *Repository {
	return &Repository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// EnsureSchema creates the analyses table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

type analysisRow struct {
	URL       string          `db:"url"`
	Author    string          `db:"author"`
	Permlink  string          `db:"permlink"`
	Title     string          `db:"title"`
	Score     sql.NullFloat64 `db:"score"`
	Summary   string          `db:"summary"`
	Reason    string          `db:"reason"`
	Evidence  pq.StringArray  `db:"evidence"`
	Raw       sql.NullString  `db:"raw_response"`
	IsMock    bool            `db:"is_mock"`
	State     string          `db:"state"`
	Favorite  bool            `db:"favorite"`
	Archived  bool            `db:"archived"`
	Chary     bool            `db:"chary"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (row analysisRow) toDomain() domain.Analysis {
	a := domain.Analysis{
		URL:       row.URL,
		Author:    row.Author,
		Permlink:  row.Permlink,
		Title:     row.Title,
		Summary:   row.Summary,
		Reason:    row.Reason,
		Evidence:  []string(row.Evidence),
		IsMock:    row.IsMock,
		State:     domain.AnalysisState(row.State),
		Favorite:  row.Favorite,
		Archived:  row.Archived,
		Chary:     row.Chary,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.Score.Valid {
		score := row.Score.Float64
		a.Score = &score
	}
	if row.Raw.Valid {
		a.Raw = row.Raw.String
	}
	return a
}

// Upsert inserts or updates the analysis keyed by URL. Conflict
// resolution keeps exactly one row per URL; curator flags are owned by
// the curator and never overwritten by a re-scan.
func (r *Repository) Upsert(ctx context.Context, a domain.Analysis) error {
	var score any
	if a.Score != nil {
		score = *a.Score
	}

	query, args, err := r.sb.Insert("analyses").
		Columns("url", "author", "permlink", "title", "score", "summary",
			"reason", "evidence", "raw_response", "is_mock", "state").
		Values(a.URL, a.Author, a.Permlink, a.Title, score, a.Summary,
			a.Reason, pq.StringArray(a.Evidence), a.Raw, a.IsMock, string(a.State)).
		Suffix(`ON CONFLICT (url) DO UPDATE SET
            score = EXCLUDED.score,
            summary = EXCLUDED.summary,
            reason = EXCLUDED.reason,
            evidence = EXCLUDED.evidence,
            raw_response = EXCLUDED.raw_response,
            is_mock = EXCLUDED.is_mock,
            state = EXCLUDED.state,
            updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert analysis: %w", err)
	}
	return nil
}

// Get loads one analysis by URL; the bool reports presence.
func (r *Repository) Get(ctx context.Context, url string) (domain.Analysis, bool, error) {
	query, args, err := r.sb.Select(listColumns...).
		From("analyses").
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return domain.Analysis{}, false, fmt.Errorf("build get: %w", err)
	}

	var row analysisRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Analysis{}, false, nil
		}
		return domain.Analysis{}, false, fmt.Errorf("get analysis: %w", err)
	}
	return row.toDomain(), true, nil
}

// List returns stored analyses matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f domain.ListFilter) ([]domain.Analysis, error) {
	query, args, err := r.listQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	var rows []analysisRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}

	out := make([]domain.Analysis, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *Repository) listQuery(f domain.ListFilter) sq.SelectBuilder {
	b := r.sb.Select(listColumns...).
		From("analyses").
		OrderBy("created_at DESC")

	if f.Favorite != nil {
		b = b.Where(sq.Eq{"favorite": *f.Favorite})
	}
	if f.Archived != nil {
		b = b.Where(sq.Eq{"archived": *f.Archived})
	}
	if f.Chary != nil {
		b = b.Where(sq.Eq{"chary": *f.Chary})
	}
	if f.Limit > 0 {
		b = b.Limit(f.Limit)
	}
	if f.Offset > 0 {
		b = b.Offset(f.Offset)
	}
	return b
}

// SetFlag flips one curator flag. Archival is a flag flip, never a
// delete.
func (r *Repository) SetFlag(ctx context.Context, url string, flag domain.Flag, value bool) error {
	column, ok := flagColumns[flag]
	if !ok {
		return fmt.Errorf("unknown flag %q", flag)
	}

	query, args, err := r.sb.Update("analyses").
		Set(column, value).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build flag update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set flag %s: %w", flag, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("no stored analysis for %s", url)
	}
	return nil
}

// ExistingURLs reports which of the given URLs already have a row.
func (r *Repository) ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	known := make(map[string]bool)
	if len(urls) == 0 {
		return known, nil
	}

	query, args, err := r.sb.Select("url").
		From("analyses").
		Where(sq.Eq{"url": urls}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build existing urls: %w", err)
	}

	var found []string
	if err := r.db.SelectContext(ctx, &found, query, args...); err != nil {
		return nil, fmt.Errorf("query existing urls: %w", err)
	}
	for _, url := range found {
		known[url] = true
	}
	return known, nil
}
