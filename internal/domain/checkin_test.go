package domain

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestCheckIn_SetRating_UpdatesBothRepresentations(t *testing.T) {
	c := CheckIn{
		Actions: []ActionEntry{{ActionID: "act-1", ActionName: "walk"}},
	}

	assert.True(t, c.SetRating("act-1", 4))
	assert.Equal(t, 4, *c.Actions[0].Rating)
	assert.Equal(t, 4, c.Ratings["act-1"])

	assert.False(t, c.SetRating("act-2", 5))
	assert.NotContains(t, c.Ratings, "act-2")
}

func TestCheckIn_ResolvedRating(t *testing.T) {
	c := CheckIn{
		Actions: []ActionEntry{
			{ActionID: "a", Rating: intPtr(2)},
			{ActionID: "b"},
			{ActionID: "c"},
		},
		Ratings: map[string]int{"a": 5, "b": 4},
	}

	r, ok := c.ResolvedRating("a")
	assert.True(t, ok)
	assert.Equal(t, 2, r, "embedded rating wins")

	r, ok = c.ResolvedRating("b")
	assert.True(t, ok)
	assert.Equal(t, 4, r)

	_, ok = c.ResolvedRating("c")
	assert.False(t, ok)
}

func TestCheckIn_MergedRatings_MapWins(t *testing.T) {
	c := CheckIn{
		Actions: []ActionEntry{{ActionID: "a", Rating: intPtr(2)}, {ActionID: "b", Rating: intPtr(1)}},
		Ratings: map[string]int{"a": 5},
	}
	assert.Equal(t, map[string]int{"a": 5, "b": 1}, c.MergedRatings())
}

func TestCheckIn_ApplyKeepsDateAndTime(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := CheckIn{Date: "2026-03-01", Time: &at}

	later := at.Add(2 * time.Hour)
	c.Apply(CheckInFields{
		Date:    "2026-03-02",
		Time:    &later,
		Mood:    4,
		Energy:  2,
		Stress:  1,
		Actions: []ActionEntry{{ActionID: "a", ActionName: "walk"}},
		Ratings: map[string]int{"a": 5},
	})

	assert.Equal(t, "2026-03-01", c.Date)
	assert.Equal(t, at, *c.Time)
	assert.Equal(t, 4, c.Mood)
	assert.Equal(t, 5, *c.Actions[0].Rating)
}

func TestCompareNewestFirst(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	entries := []*CheckIn{
		{Syncable: Syncable{ID: "untimed-1"}},
		{Syncable: Syncable{ID: "early"}, Time: &t1},
		{Syncable: Syncable{ID: "untimed-2"}},
		{Syncable: Syncable{ID: "late"}, Time: &t2},
	}

	slices.SortStableFunc(entries, CompareNewestFirst)

	var got []string
	for _, e := range entries {
		got = append(got, e.ID)
	}
	assert.Equal(t, []string{"late", "early", "untimed-1", "untimed-2"}, got)
}

func TestItem_Temporary(t *testing.T) {
	assert.True(t, Item{ID: "walk", Name: "walk"}.Temporary())
	assert.True(t, Item{Name: "walk"}.Temporary())
	assert.False(t, Item{ID: "act-1", Name: "walk"}.Temporary())
}
