package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodtrail/moodtrail/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTag(userID, id, name string) *domain.Tag {
	t := &domain.Tag{UserID: userID, Name: name}
	t.ID = id
	t.InitTimestamps()
	return t
}

func TestTags_CreateAndLookupByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTag(ctx, newTag("u1", "tag-1", "Morning Walk")))

	got, err := s.GetTagByName(ctx, "u1", "  morning   walk ")
	require.NoError(t, err)
	assert.Equal(t, "tag-1", got.ID)
	assert.Equal(t, "Morning Walk", got.Name)

	_, err = s.GetTagByName(ctx, "u2", "morning walk")
	assert.ErrorIs(t, err, ErrNotFound, "names are scoped per user")
}

func TestTags_DuplicateNameRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTag(ctx, newTag("u1", "tag-1", "sleep")))
	err := s.CreateTag(ctx, newTag("u1", "tag-2", "SLEEP"))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// Another user may reuse the name.
	require.NoError(t, s.CreateTag(ctx, newTag("u2", "tag-3", "sleep")))
}

func TestTags_RenameMovesIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := newTag("u1", "tag-1", "work")
	require.NoError(t, s.CreateTag(ctx, tag))

	tag.Name = "career"
	require.NoError(t, s.UpdateTag(ctx, tag))

	_, err := s.GetTagByName(ctx, "u1", "work")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.GetTagByName(ctx, "u1", "career")
	require.NoError(t, err)
	assert.Equal(t, "tag-1", got.ID)

	// The old name is free again.
	require.NoError(t, s.CreateTag(ctx, newTag("u1", "tag-2", "work")))
}

func TestTags_ListOrderedByCreation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"zeta", "alpha", "mid"} {
		tag := newTag("u1", "tag-"+name, name)
		tag.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.CreateTag(ctx, tag))
	}

	tags, err := s.ListTags(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "zeta", tags[0].Name)
	assert.Equal(t, "alpha", tags[1].Name)
	assert.Equal(t, "mid", tags[2].Name)

	empty, err := s.ListTags(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestActions_UpdateMissing(t *testing.T) {
	s := newTestStore(t)
	a := &domain.Action{UserID: "u1", Name: "walk"}
	a.ID = "act-missing"

	err := s.UpdateAction(context.Background(), a)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckIns_ByDateAndHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mk := func(id, date string, at time.Time) *domain.CheckIn {
		c := &domain.CheckIn{UserID: "u1", Date: date, Time: &at, Mood: 3, Energy: 3, Stress: 3}
		c.ID = id
		c.InitTimestamps()
		return c
	}

	require.NoError(t, s.CreateCheckIn(ctx, mk("chk-a", "2026-03-01", day)))
	require.NoError(t, s.CreateCheckIn(ctx, mk("chk-b", "2026-03-01", day.Add(3*time.Hour))))
	require.NoError(t, s.CreateCheckIn(ctx, mk("chk-c", "2026-03-02", day.Add(24*time.Hour))))

	today, err := s.ListCheckInsByDate(ctx, "u1", "2026-03-01")
	require.NoError(t, err)
	require.Len(t, today, 2)
	assert.Equal(t, "chk-b", today[0].ID)
	assert.Equal(t, "chk-a", today[1].ID)

	history, err := s.ListCheckIns(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "chk-c", history[0].ID)

	require.NoError(t, s.DeleteCheckIn(ctx, "u1", "chk-b"))
	require.NoError(t, s.DeleteCheckIn(ctx, "u1", "chk-b"), "delete is idempotent")

	today, err = s.ListCheckInsByDate(ctx, "u1", "2026-03-01")
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, "chk-a", today[0].ID)
}

func TestCheckIns_RatingsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &domain.CheckIn{
		UserID:  "u1",
		Date:    "2026-03-01",
		Actions: []domain.ActionEntry{{ActionID: "act-1", ActionName: "walk"}},
	}
	c.ID = "chk-1"
	require.True(t, c.SetRating("act-1", 5))
	require.NoError(t, s.CreateCheckIn(ctx, c))

	got, err := s.GetCheckIn(ctx, "u1", "chk-1")
	require.NoError(t, err)
	require.NotNil(t, got.Actions[0].Rating)
	assert.Equal(t, 5, *got.Actions[0].Rating)
	assert.Equal(t, 5, got.Ratings["act-1"])

	_, err = s.GetCheckIn(ctx, "u2", "chk-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
