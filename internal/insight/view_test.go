package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodtrail/moodtrail/internal/domain"
)

func TestRank_StableDescending(t *testing.T) {
	recs := Rank([]domain.InsightAggregate{
		{ActionID: "c", Name: "C", AverageRating: 3.9, RatingCount: 2, TimesUsed: 2},
		{ActionID: "a", Name: "A", AverageRating: 4.6, RatingCount: 3, TimesUsed: 3},
		{ActionID: "b", Name: "B", AverageRating: 4.6, RatingCount: 1, TimesUsed: 4},
	})
	require.Len(t, recs, 3)

	names := []string{recs[0].Name, recs[1].Name, recs[2].Name}
	assert.Equal(t, []string{"A", "B", "C"}, names)
	assert.Equal(t, []int{1, 2, 3}, []int{recs[0].Rank, recs[1].Rank, recs[2].Rank})
	assert.Equal(t, "A is a standout (4.6/5). Keep it as a first choice when you need support.", recs[0].Copy)
	assert.Equal(t, "B is a standout (4.6/5). Keep it as a first choice when you need support.", recs[1].Copy)
	assert.Equal(t, "C is moderately helpful (3.9/5). Keep refining how you use it.", recs[2].Copy)
}

func TestCopy_Bands(t *testing.T) {
	tests := []struct {
		avg  float64
		want string
	}{
		{4.5, "walk is a standout (4.5/5). Keep it as a first choice when you need support."},
		{4.0, "walk is working well (4.0/5). Try scheduling it more often (7 uses so far)."},
		{3.0, "walk is moderately helpful (3.0/5). Keep refining how you use it."},
		{2.4, "walk is rated 2.4/5. Consider pairing it with another action or adjusting your approach."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Copy("walk", tt.avg, 7))
	}
}

func TestScore(t *testing.T) {
	width, badge := Score(4.0, 0)
	assert.Zero(t, width)
	assert.Equal(t, "N/A", badge)

	width, badge = Score(4.0, 3)
	assert.InDelta(t, 80.0, width, 1e-9)
	assert.Equal(t, "4.0/5", badge)

	width, _ = Score(7, 1)
	assert.InDelta(t, 100.0, width, 1e-9)
}

func TestNotesAndSuggestion(t *testing.T) {
	notes := Notes([]string{"If you'd like, try journaling.", "Average mood 3.5/5."})
	assert.Equal(t, []string{"Average mood 3.5/5."}, notes)

	assert.Empty(t, Suggestion(nil))
	recs := Rank([]domain.InsightAggregate{{Name: "music", AverageRating: 4.25, RatingCount: 1}})
	assert.Equal(t, "If you'd like, you can try more music (4.2/5).", Suggestion(recs))
}

func TestTodayActions_Display(t *testing.T) {
	two := 2
	today := &domain.CheckIn{
		Actions: []domain.ActionEntry{
			{ActionID: "walk", ActionName: "walk", Rating: &two},
			{ActionID: "music", ActionName: "music"},
			{ActionID: "call"},
		},
		Ratings: map[string]int{"walk": 5},
	}
	top := []domain.InsightAggregate{{ActionID: "music", AverageRating: 3.75}}

	got := TodayActions(today, top)
	require.Len(t, got, 3)
	assert.Equal(t, "2.0/5", got[0].Display(), "embedded rating is read first")
	assert.Equal(t, "3.8/5 (avg)", got[1].Display())
	assert.Equal(t, "N/A", got[2].Display())
	assert.Equal(t, "Action", got[2].Name)

	assert.Empty(t, TodayActions(nil, top))
}
