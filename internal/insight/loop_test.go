package insight

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodtrail/moodtrail/internal/domain"
	"github.com/moodtrail/moodtrail/internal/notify"
)

type fakeReader struct {
	mu       sync.Mutex
	result   *domain.Insights
	err      error
	today    *domain.CheckIn
	todayErr error
	gate     chan struct{}
	fetches  atomic.Int32
	started  chan struct{}
}

func (f *fakeReader) Insights(ctx context.Context) (*domain.Insights, error) {
	f.fetches.Add(1)
	f.mu.Lock()
	gate, started := f.gate, f.started
	f.mu.Unlock()
	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.err
}

func (f *fakeReader) ByDate(_ context.Context, _ string) (*domain.CheckIn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.today, f.todayErr
}

func (f *fakeReader) set(fn func(*fakeReader)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type alerts struct {
	mu   sync.Mutex
	msgs []string
}

func (a *alerts) add(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.msgs = append(a.msgs, msg)
}

func (a *alerts) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.msgs)
}

func newTestLoop(t *testing.T, r *fakeReader, al *alerts) *Loop {
	t.Helper()
	opts := Options{
		RetryDelay:    5 * time.Millisecond,
		FollowUpDelay: time.Millisecond,
	}
	if al != nil {
		opts.Alert = al.add
	}
	l := New(r, r, opts, slog.New(slog.DiscardHandler))
	t.Cleanup(l.Close)
	return l
}

func sampleInsights() *domain.Insights {
	return &domain.Insights{
		TopActions: []domain.InsightAggregate{
			{ActionID: "walk", Name: "walk", AverageRating: 4.2, TimesUsed: 5, RatingCount: 5},
		},
		Insights: []string{"Your most used action is walk.", "If you'd like, log more actions."},
	}
}

func TestLoop_CoalescesRequestsWhileBusy(t *testing.T) {
	r := &fakeReader{result: sampleInsights(), gate: make(chan struct{}), started: make(chan struct{}, 1)}
	l := newTestLoop(t, r, nil)

	l.Refresh()
	<-r.started
	assert.True(t, l.Busy())

	l.Refresh()
	l.Refresh()
	close(r.gate)
	l.Settle()

	assert.Equal(t, int32(2), r.fetches.Load())
	assert.False(t, l.Busy())
	require.NotNil(t, l.Snapshot())
}

func TestLoop_RetriesWhileTodayUnrated(t *testing.T) {
	r := &fakeReader{
		result: sampleInsights(),
		today: &domain.CheckIn{
			Date:    "2026-03-14",
			Actions: []domain.ActionEntry{{ActionID: "walk", ActionName: "walk"}},
		},
	}
	l := newTestLoop(t, r, nil)

	l.Refresh()
	l.Settle()
	assert.Equal(t, int32(3), r.fetches.Load(), "one fetch plus two retries")

	// The counter resets, so the next refresh may retry again.
	l.Refresh()
	l.Settle()
	assert.Equal(t, int32(6), r.fetches.Load())
}

func TestLoop_NoRetryOnceRatingResolves(t *testing.T) {
	four := 4
	r := &fakeReader{
		result: sampleInsights(),
		today: &domain.CheckIn{
			Actions: []domain.ActionEntry{{ActionID: "walk", Rating: &four}, {ActionID: "music"}},
			Ratings: map[string]int{"music": 2},
		},
	}
	l := newTestLoop(t, r, nil)

	l.Refresh()
	l.Settle()
	assert.Equal(t, int32(1), r.fetches.Load())
}

func TestLoop_DegradedReads(t *testing.T) {
	r := &fakeReader{
		err:      errors.New("Missing or insufficient permissions."),
		todayErr: errors.New("offline"),
	}
	al := &alerts{}
	l := newTestLoop(t, r, al)

	l.Refresh()
	l.Settle()

	snap := l.Snapshot()
	require.NotNil(t, snap)
	assert.Empty(t, snap.Insights.TopActions)
	assert.Nil(t, snap.Today)
	assert.False(t, snap.Degraded)
	assert.Zero(t, al.count(), "permission errors are not alerted")
}

func TestLoop_AlertsOnceUntilSuccess(t *testing.T) {
	r := &fakeReader{err: errors.New("503 service unavailable")}
	al := &alerts{}
	l := newTestLoop(t, r, al)

	for range 3 {
		l.Refresh()
		l.Settle()
	}
	assert.Equal(t, 1, al.count())
	assert.True(t, l.Snapshot().Degraded)

	r.set(func(f *fakeReader) { f.err = nil; f.result = sampleInsights() })
	l.Refresh()
	l.Settle()
	assert.False(t, l.Snapshot().Degraded)

	r.set(func(f *fakeReader) { f.err = errors.New("503 service unavailable") })
	l.Refresh()
	l.Settle()
	assert.Equal(t, 2, al.count())
	assert.Equal(t, "Failed to load insights", al.msgs[1])
}

func TestLoop_SnapshotView(t *testing.T) {
	r := &fakeReader{
		result: sampleInsights(),
		today: &domain.CheckIn{
			Actions: []domain.ActionEntry{{ActionID: "walk", ActionName: "walk"}},
			Ratings: map[string]int{"walk": 5},
		},
	}
	l := newTestLoop(t, r, nil)

	l.Refresh()
	l.Settle()

	snap := l.Snapshot()
	require.Len(t, snap.Recommendations, 1)
	assert.Equal(t, 1, snap.Recommendations[0].Rank)
	assert.Equal(t, []string{"Your most used action is walk."}, snap.Notes)
	require.Len(t, snap.TodayActions, 1)
	assert.Equal(t, "5.0/5", snap.TodayActions[0].Display())
	assert.InDelta(t, 4.2, snap.TodayActions[0].Average, 1e-9)
}

func TestLoop_FollowsReloadNotifications(t *testing.T) {
	r := &fakeReader{result: sampleInsights()}
	l := newTestLoop(t, r, nil)
	pub := notify.NewPublisher()
	t.Cleanup(pub.Close)

	updates := l.Updates().Subscribe()
	l.Start(pub)
	// Give the follower time to subscribe before publishing.
	time.Sleep(10 * time.Millisecond)
	pub.Publish()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := updates.Wait(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r.fetches.Load(), int32(1))
}

func TestLoop_RefreshAfterCloseIsNoop(t *testing.T) {
	r := &fakeReader{result: sampleInsights()}
	l := New(r, r, Options{}, slog.New(slog.DiscardHandler))
	l.Close()

	l.Refresh()
	l.Settle()
	assert.Zero(t, r.fetches.Load())
}

func TestLoop_CloseDuringFetchRaisesNoAlert(t *testing.T) {
	r := &fakeReader{result: sampleInsights(), gate: make(chan struct{}), started: make(chan struct{}, 1)}
	al := &alerts{}
	l := New(r, r, Options{Alert: al.add}, slog.New(slog.DiscardHandler))
	sub := l.Updates().Subscribe()

	l.Refresh()
	<-r.started
	l.Close()

	assert.Zero(t, al.count())
	assert.Nil(t, l.Snapshot(), "an abandoned fetch leaves no snapshot")
	assert.False(t, l.Busy())
	assert.False(t, sub.Changed())
}
