// Package checkin manages the client-side lifecycle of the user's check-ins:
// the bounded list for today, drafts, saves, ratings and deletes.
//
// A check-in moves from an unsaved draft to a saved record whose date and
// time are fixed on first save. Later saves with the same ID update the
// editable fields only. Deleted records are gone for good.
package checkin

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/moodtrail/moodtrail/internal/domain"
	domainerrors "github.com/moodtrail/moodtrail/internal/errors"
	"github.com/moodtrail/moodtrail/internal/notify"
	"github.com/moodtrail/moodtrail/internal/remote"
)

// DefaultSettleDelay is how long writes are given to settle remotely before
// subscribers are told to reload aggregates.
const DefaultSettleDelay = 150 * time.Millisecond

// Fallback messages shown when the store error carries none of its own.
const (
	msgSaveFailed    = "Failed to save"
	msgDeleteFailed  = "Failed to delete"
	msgRatingFailed  = "Failed to save rating"
	msgRatingsFailed = "Failed to save ratings"
	msgNotSaved      = "Please save today's check-in before rating actions."
)

// Options tunes a Manager.
type Options struct {
	SettleDelay time.Duration
	DailyLimit  int
	// Now supplies the timestamp for new check-ins and today's date key.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.SettleDelay <= 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.DailyLimit <= 0 {
		o.DailyLimit = domain.DailyLimit
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Manager drives check-in writes for one user session.
type Manager struct {
	store  remote.CheckInStore
	reload *notify.Publisher
	opts   Options
	logger *slog.Logger

	busy atomic.Int32

	mu    sync.Mutex
	today []*domain.CheckIn
}

// New creates a manager. reload receives a delayed publish after each write
// that changes ratings.
func New(store remote.CheckInStore, reload *notify.Publisher, opts Options, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		reload: reload,
		opts:   opts.withDefaults(),
		logger: logger.With("component", "checkin"),
	}
}

// Busy reports whether a save, delete or rating write is in progress.
func (m *Manager) Busy() bool {
	return m.busy.Load() > 0
}

func (m *Manager) begin() func() {
	m.busy.Add(1)
	return func() { m.busy.Add(-1) }
}

// Today returns the last loaded list of today's check-ins, newest first.
func (m *Manager) Today() []*domain.CheckIn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.today)
}

// LoadToday reads history and keeps the entries dated today, newest first with
// untimed entries last. A permission-denied store yields an empty list.
func (m *Manager) LoadToday(ctx context.Context) ([]*domain.CheckIn, error) {
	history, err := m.store.History(ctx)
	if err != nil {
		if domainerrors.IsPermissionDenied(err) {
			m.logger.Debug("history not readable, showing no entries", "error", err)
			m.setToday(nil)
			return []*domain.CheckIn{}, nil
		}
		m.logger.Warn("failed to load today's check-ins", "error", err)
		return nil, err
	}

	key := domain.DateKey(m.opts.Now())
	today := make([]*domain.CheckIn, 0, m.opts.DailyLimit)
	for _, c := range history {
		if c != nil && c.Date == key {
			today = append(today, c)
		}
	}
	slices.SortStableFunc(today, domain.CompareNewestFirst)

	m.setToday(today)
	return slices.Clone(today), nil
}

func (m *Manager) setToday(entries []*domain.CheckIn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.today = entries
}

// StartNew returns a blank draft, or a daily-limit error when today's list is full.
// Call LoadToday first; the guard only sees the last loaded list.
func (m *Manager) StartNew() (Draft, error) {
	m.mu.Lock()
	n := len(m.today)
	m.mu.Unlock()

	if n >= m.opts.DailyLimit {
		return Draft{}, domainerrors.DailyLimit(m.opts.DailyLimit)
	}
	d := NewDraft()
	now := m.opts.Now()
	d.Time = &now
	return d, nil
}

// Save persists the draft and returns the check-in ID. A draft with an ID
// updates that record in place; the store keeps its original date and time.
func (m *Manager) Save(ctx context.Context, d Draft) (string, error) {
	defer m.begin()()

	now := m.opts.Now()
	fields := d.Fields(now)

	id, err := m.store.Save(ctx, fields, d.ID)
	if err != nil {
		m.logger.Warn("check-in save failed", "check_in_id", d.ID, "error", err)
		return "", surface(err, msgSaveFailed)
	}
	if id == "" {
		id = d.ID
	}

	if _, err := m.LoadToday(ctx); err != nil {
		m.logger.Debug("reload after save failed", "error", err)
	}
	m.RequestReload()

	m.logger.Info("check-in saved", "check_in_id", id, "updated", d.ID != "")
	return id, nil
}

// ResolveCheckIn finds the check-in that logged actionID by scanning history
// in store order and taking the first match.
//
// The scan reads the whole history on every call.
func (m *Manager) ResolveCheckIn(ctx context.Context, actionID string) (string, error) {
	history, err := m.store.History(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range history {
		if c != nil && c.HasAction(actionID) {
			return c.ID, nil
		}
	}
	return "", domainerrors.NotFoundf("no check-in found for action %s", actionID)
}

// UpdateRating rates one action. Without checkInID the owning check-in is
// resolved from history, and a miss fails with NotFound.
func (m *Manager) UpdateRating(ctx context.Context, actionID string, rating int, checkInID string) error {
	if rating < domain.MinScale || rating > domain.MaxScale {
		return domainerrors.Validationf("rating must be between %d and %d", domain.MinScale, domain.MaxScale)
	}
	defer m.begin()()

	if checkInID == "" {
		resolved, err := m.ResolveCheckIn(ctx, actionID)
		if err != nil {
			if domainerrors.Is(err, domainerrors.ErrNotFound) {
				return err
			}
			return surface(err, msgRatingFailed)
		}
		checkInID = resolved
	}

	if err := m.store.UpdateActionRating(ctx, checkInID, actionID, rating); err != nil {
		m.logger.Warn("rating update failed",
			"check_in_id", checkInID,
			"action_id", actionID,
			"error", err,
		)
		return surface(err, msgRatingFailed)
	}
	m.RequestReload()
	return nil
}

// RateAll writes a rating for every action on the check-in, concurrently.
// Actions missing from ratings get the default rating. The returned check-in
// is re-read from the store, or patched locally if that read fails.
func (m *Manager) RateAll(ctx context.Context, checkInID string, ratings map[string]int) (*domain.CheckIn, error) {
	if checkInID == "" {
		return nil, domainerrors.Validation(msgNotSaved)
	}
	for id, r := range ratings {
		if r < domain.MinScale || r > domain.MaxScale {
			return nil, domainerrors.Validationf("rating for %s must be between %d and %d", id, domain.MinScale, domain.MaxScale)
		}
	}
	defer m.begin()()

	entry, err := m.store.ByID(ctx, checkInID)
	if err != nil {
		return nil, surface(err, msgRatingsFailed)
	}

	applied := make(map[string]int, len(entry.Actions))
	g, gctx := errgroup.WithContext(ctx)
	for _, a := range entry.Actions {
		r, ok := ratings[a.ActionID]
		if !ok || r == 0 {
			r = domain.DefaultRating
		}
		applied[a.ActionID] = r
		actionID := a.ActionID
		g.Go(func() error {
			return m.store.UpdateActionRating(gctx, checkInID, actionID, r)
		})
	}
	if err := g.Wait(); err != nil {
		m.logger.Warn("rating batch failed", "check_in_id", checkInID, "error", err)
		return nil, surface(err, msgRatingsFailed)
	}
	m.RequestReload()

	fresh, err := m.store.ByID(ctx, checkInID)
	if err != nil {
		m.logger.Debug("re-read after rating failed", "check_in_id", checkInID, "error", err)
		for id, r := range applied {
			entry.SetRating(id, r)
		}
		return entry, nil
	}
	return fresh, nil
}

// Delete removes a check-in and drops it from today's list. It does not ask
// for an aggregate reload; callers that show insights call RequestReload.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	defer m.begin()()

	if err := m.store.Delete(ctx, id); err != nil {
		m.logger.Warn("check-in delete failed", "check_in_id", id, "error", err)
		return surface(err, msgDeleteFailed)
	}

	m.mu.Lock()
	m.today = slices.DeleteFunc(slices.Clone(m.today), func(c *domain.CheckIn) bool {
		return c.ID == id
	})
	m.mu.Unlock()
	return nil
}

// RequestReload tells subscribers to reload once the settle delay has passed.
func (m *Manager) RequestReload() {
	if m.reload == nil {
		return
	}
	m.reload.PublishAfter(m.opts.SettleDelay)
}

// surface turns a store error into one whose message can be shown to the user,
// keeping the original code and cause.
func surface(err error, fallback string) error {
	code := domainerrors.CodeInternal
	var domainErr *domainerrors.Error
	if domainerrors.As(err, &domainErr) {
		code = domainErr.Code
	}
	return domainerrors.Wrap(err, code, domainerrors.UserMessage(err, fallback))
}
