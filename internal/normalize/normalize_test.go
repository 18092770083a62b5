package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStructuredJSON(t *testing.T) {
	t.Parallel()

	raw := `{"score":7,"summary":"x"}`
	rec := Normalize(raw)

	require.NotNil(t, rec.Score)
	assert.Equal(t, 7.0, *rec.Score)
	assert.Equal(t, "x", rec.Summary)
	assert.Equal(t, raw, rec.Raw)
	assert.False(t, rec.Heuristic)
}

func TestNormalizeStructuredNumericStringScore(t *testing.T) {
	t.Parallel()

	rec := Normalize(`{"score":"8.5","summary":"y","reason":"z","evidence":["a","b"]}`)

	require.NotNil(t, rec.Score)
	assert.Equal(t, 8.5, *rec.Score)
	assert.Equal(t, "y", rec.Summary)
	assert.Equal(t, "z", rec.Reason)
	assert.Equal(t, []string{"a", "b"}, rec.Evidence)
	assert.False(t, rec.Heuristic)
}

func TestNormalizeHeuristicLabels(t *testing.T) {
	t.Parallel()

	rec := Normalize("Score: 8/10\nSummary: Great work\nReason: helped many")

	require.NotNil(t, rec.Score)
	assert.Equal(t, 8.0, *rec.Score)
	assert.Equal(t, "Great work", rec.Summary)
	assert.Equal(t, "helped many", rec.Reason)
	assert.True(t, rec.Heuristic)
}

func TestNormalizeHeuristicEvidence(t *testing.T) {
	t.Parallel()

	rec := Normalize("Summary: ok\nEvidence:\n- receipts posted\n- photos attached")

	assert.Equal(t, "ok", rec.Summary)
	assert.Equal(t, []string{"receipts posted", "photos attached"}, rec.Evidence)
}

func TestNormalizeEmptyInput(t *testing.T) {
	t.Parallel()

	rec := Normalize("")
	assert.Nil(t, rec.Score)
	assert.Empty(t, rec.Summary)
	assert.Empty(t, rec.Reason)
	assert.Empty(t, rec.Evidence)
	assert.Equal(t, "", rec.Raw)

	rec = Normalize("   \n  ")
	assert.Nil(t, rec.Score)
	assert.Empty(t, rec.Summary)
}

func TestNormalizeUnlabeledTextFallsBackToFirstLine(t *testing.T) {
	t.Parallel()

	rec := Normalize("random text with no labels\nand a second line")

	assert.Nil(t, rec.Score)
	assert.Equal(t, "random text with no labels", rec.Summary)
	assert.True(t, rec.Heuristic)
}

func TestNormalizeLongUnlabeledTextTruncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 100) // one 500-char line, no breaks
	rec := Normalize(long)

	assert.Nil(t, rec.Score)
	assert.LessOrEqual(t, len(rec.Summary), fallbackSummaryLimit)
	assert.True(t, strings.HasPrefix(long, rec.Summary))
}

func TestNormalizeJSONWithoutExpectedKeysUsesHeuristics(t *testing.T) {
	t.Parallel()

	rec := Normalize(`{"foo":1}`)
	assert.True(t, rec.Heuristic)
	assert.Equal(t, `{"foo":1}`, rec.Summary)
}

func TestNormalizeScoreWithoutSlashTen(t *testing.T) {
	t.Parallel()

	rec := Normalize("the score is 9 overall")
	require.NotNil(t, rec.Score)
	assert.Equal(t, 9.0, *rec.Score)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exact", Truncate("exact", 5))
	assert.Equal(t, "he…", Truncate("hello", 2))
	assert.Equal(t, "héll…", Truncate("héllo wörld", 4))
	assert.Equal(t, "untouched", Truncate("untouched", 0))
}
