package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charyscan/internal/domain"
)

func boolPtr(v bool) *bool { return &v }

func TestListQueryDefaults(t *testing.T) {
	t.Parallel()

	r := New(nil)
	query, args, err := r.listQuery(domain.ListFilter{}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "FROM analyses")
	assert.Contains(t, query, "ORDER BY created_at DESC")
	assert.NotContains(t, query, "WHERE")
	assert.NotContains(t, query, "LIMIT")
	assert.Empty(t, args)
}

func TestListQueryFilters(t *testing.T) {
	t.Parallel()

	r := New(nil)
	filter := domain.ListFilter{
		Favorite: boolPtr(true),
		Archived: boolPtr(false),
		Limit:    25,
		Offset:   50,
	}

	query, args, err := r.listQuery(filter).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "favorite = $1")
	assert.Contains(t, query, "archived = $2")
	assert.Contains(t, query, "LIMIT 25")
	assert.Contains(t, query, "OFFSET 50")
	assert.Equal(t, []interface{}{true, false}, args)
}

func TestListQueryCharyFlag(t *testing.T) {
	t.Parallel()

	r := New(nil)
	query, args, err := r.listQuery(domain.ListFilter{Chary: boolPtr(true)}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "chary = $1")
	assert.Equal(t, []interface{}{true}, args)
}

func TestFlagColumnsCoverDomainFlags(t *testing.T) {
	t.Parallel()

	for _, flag := range []domain.Flag{domain.FlagFavorite, domain.FlagArchived, domain.FlagChary} {
		_, ok := flagColumns[flag]
		assert.True(t, ok, "missing column for flag %s", flag)
	}
	_, ok := flagColumns[domain.Flag("deleted")]
	assert.False(t, ok, "deletion must not be expressible as a flag")
}

func TestRowRoundTrip(t *testing.T) {
	t.Parallel()

	row := analysisRow{
		URL:      "https://peakd.com/@alice/post-1",
		Author:   "alice",
		Permlink: "post-1",
		Summary:  "s",
		Evidence: []string{"e1", "e2"},
		State:    "scored",
		Favorite: true,
	}

	a := row.toDomain()
	assert.Equal(t, "alice", a.Author)
	assert.Nil(t, a.Score, "NULL score maps to absent")
	assert.Equal(t, []string{"e1", "e2"}, a.Evidence)
	assert.Equal(t, domain.StateScored, a.State)
	assert.True(t, a.Favorite)
	assert.Empty(t, a.Raw)
}
