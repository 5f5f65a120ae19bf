// Package insight keeps a fresh view of the user's action aggregates.
//
// The Loop serializes fetches. A refresh requested while one is in flight
// collapses into a single follow-up. After each fetch the loop looks at
// today's check-in; while any of its actions still has no rating the remote
// write has probably not landed yet, so a bounded number of delayed retries
// are scheduled.
package insight

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/moodtrail/moodtrail/internal/domain"
	domainerrors "github.com/moodtrail/moodtrail/internal/errors"
	"github.com/moodtrail/moodtrail/internal/notify"
	"github.com/moodtrail/moodtrail/internal/remote"
)

// Loop defaults.
const (
	DefaultRetryDelay    = 300 * time.Millisecond
	DefaultMaxRetries    = 2
	DefaultFollowUpDelay = 50 * time.Millisecond

	alertMessage = "Failed to load insights"
)

// TodayReader reads the latest check-in for a date.
type TodayReader interface {
	ByDate(ctx context.Context, date string) (*domain.CheckIn, error)
}

// Options tunes a Loop.
type Options struct {
	RetryDelay    time.Duration
	MaxRetries    int
	FollowUpDelay time.Duration
	Now           func() time.Time
	// Alert receives the user-visible failure message.
	Alert func(message string)
}

func (o Options) withDefaults() Options {
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.FollowUpDelay <= 0 {
		o.FollowUpDelay = DefaultFollowUpDelay
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Snapshot is the result of one fetch.
type Snapshot struct {
	Insights        *domain.Insights
	Today           *domain.CheckIn
	Recommendations []Recommendation
	TodayActions    []TodayAction
	Notes           []string
	// Degraded is set when the aggregates could not be read.
	Degraded  bool
	FetchedAt time.Time
}

// Loop fetches aggregates on demand and after reload notifications.
type Loop struct {
	insights remote.InsightReader
	today    TodayReader
	opts     Options
	logger   *slog.Logger

	mu       sync.Mutex
	busy     bool
	pending  bool
	retries  int
	alerted  bool
	snapshot *Snapshot
	updated  *notify.Publisher

	ctx       context.Context
	cancel    context.CancelFunc
	work      sync.WaitGroup
	followers sync.WaitGroup
}

// New creates a loop. Nothing is fetched until Refresh or Follow.
func New(insights remote.InsightReader, today TodayReader, opts Options, logger *slog.Logger) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		insights: insights,
		today:    today,
		opts:     opts.withDefaults(),
		logger:   logger.With("component", "insight"),
		updated:  notify.NewPublisher(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Snapshot returns the latest fetch result, or nil before the first one completes.
func (l *Loop) Snapshot() *Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot
}

// Updates publishes once per completed fetch.
func (l *Loop) Updates() *notify.Publisher {
	return l.updated
}

// Busy reports whether a fetch is in flight.
func (l *Loop) Busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.busy
}

// Refresh starts a fetch, or marks one pending if a fetch is in flight.
// Any number of pending requests produce a single follow-up.
func (l *Loop) Refresh() {
	if l.ctx.Err() != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		l.pending = true
		return
	}
	l.startLocked()
}

// tryRefresh starts a fetch unless one is already running.
func (l *Loop) tryRefresh() {
	if l.ctx.Err() != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return
	}
	l.startLocked()
}

func (l *Loop) startLocked() {
	l.busy = true
	l.work.Add(1)
	go func() {
		defer l.work.Done()
		l.run(l.ctx)
	}()
}

// Follow refreshes whenever pub moves to a new version, until ctx ends or
// pub is closed.
func (l *Loop) Follow(ctx context.Context, pub *notify.Publisher) error {
	sub := pub.Subscribe()
	for {
		if _, err := sub.Wait(ctx); err != nil {
			return err
		}
		l.Refresh()
	}
}

// Start runs Follow in the background for the life of the loop.
func (l *Loop) Start(pub *notify.Publisher) {
	l.followers.Add(1)
	go func() {
		defer l.followers.Done()
		//nolint:errcheck // ends on Close or when pub closes
		_ = l.Follow(l.ctx, pub)
	}()
}

// Settle blocks until no fetch is running or scheduled.
func (l *Loop) Settle() {
	l.work.Wait()
}

// Close stops followers and scheduled fetches and waits for in-flight work.
func (l *Loop) Close() {
	l.cancel()
	l.followers.Wait()
	l.work.Wait()
	l.updated.Close()
}

func (l *Loop) run(ctx context.Context) {
	snap, alert := l.fetch(ctx)
	if snap == nil {
		l.mu.Lock()
		l.busy = false
		l.pending = false
		l.mu.Unlock()
		return
	}

	l.mu.Lock()
	l.snapshot = snap
	l.busy = false
	if l.pending {
		l.pending = false
		l.scheduleLocked(l.opts.FollowUpDelay)
	}
	if hasUnresolved(snap.Today) && l.retries < l.opts.MaxRetries {
		l.retries++
		l.logger.Debug("today's ratings not settled, retrying", "attempt", l.retries)
		l.scheduleLocked(l.opts.RetryDelay)
	} else {
		l.retries = 0
	}
	l.mu.Unlock()

	l.updated.Publish()
	if alert && l.opts.Alert != nil {
		l.opts.Alert(alertMessage)
	}
}

// scheduleLocked runs tryRefresh after d unless the loop closes first.
func (l *Loop) scheduleLocked(d time.Duration) {
	l.work.Add(1)
	go func() {
		defer l.work.Done()
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-l.ctx.Done():
		case <-t.C:
			l.tryRefresh()
		}
	}()
}

// fetch reads aggregates and today's check-in. It reports whether a
// failure alert should be raised. A nil snapshot means the loop closed
// mid-fetch and the result must be discarded.
func (l *Loop) fetch(ctx context.Context) (*Snapshot, bool) {
	snap := &Snapshot{FetchedAt: l.opts.Now()}
	alert := false

	insights, err := l.insights.Insights(ctx)
	switch {
	case ctx.Err() != nil:
		l.logger.Debug("insight fetch abandoned on close", "error", err)
		return nil, false
	case err == nil:
		l.mu.Lock()
		l.alerted = false
		l.mu.Unlock()
	case domainerrors.IsPermissionDenied(err):
		l.logger.Debug("insights not readable, showing empty", "error", err)
		insights = nil
	default:
		l.logger.Error("failed to load insights", "error", err)
		insights = nil
		snap.Degraded = true
		l.mu.Lock()
		alert = !l.alerted
		l.alerted = true
		l.mu.Unlock()
	}
	if insights == nil {
		insights = domain.EmptyInsights()
	}

	today, err := l.today.ByDate(ctx, domain.DateKey(l.opts.Now()))
	if ctx.Err() != nil {
		l.logger.Debug("insight fetch abandoned on close", "error", err)
		return nil, false
	}
	if err != nil {
		l.logger.Debug("today's check-in not readable", "error", err)
		today = nil
	}

	snap.Insights = insights
	snap.Today = today
	snap.Recommendations = Rank(insights.TopActions)
	snap.TodayActions = TodayActions(today, insights.TopActions)
	snap.Notes = Notes(insights.Insights)
	return snap, alert
}
