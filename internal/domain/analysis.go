package domain

import "time"

// AnalysisState enumerates the per-post scoring lifecycle.
type AnalysisState string

const (
	StatePending AnalysisState = "pending"
	StateScoring AnalysisState = "scoring"
	StateScored  AnalysisState = "scored"
	StateFailed  AnalysisState = "failed"
)

// Analysis is the charitable-intent assessment of one article URL.
// It doubles as the stored entity; the URL is the uniqueness key.
type Analysis struct {
	URL      string
	Author   string
	Permlink string
	Title    string

	Score    *float64
	Summary  string
	Reason   string
	Evidence []string
	Raw      string

	IsMock bool
	State  AnalysisState

	Favorite bool
	Archived bool
	Chary    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Flag names a curator-toggled boolean on a stored analysis.
type Flag string

const (
	FlagFavorite Flag = "favorite"
	FlagArchived Flag = "archived"
	FlagChary    Flag = "chary"
)

// ListFilter selects stored analyses; nil flag pointers mean "any".
type ListFilter struct {
	Favorite *bool
	Archived *bool
	Chary    *bool
	Limit    uint64
	Offset   uint64
}
