package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodtrail/moodtrail/internal/domain"
	domainerrors "github.com/moodtrail/moodtrail/internal/errors"
	"github.com/moodtrail/moodtrail/internal/normalize"
)

// fakeStore is an in-memory remote.TaxonomyStore with failure injection.
type fakeStore struct {
	mu            sync.Mutex
	items         []domain.Item
	next          int
	createErr     error
	updateErr     error
	deactivateErr error
	listErr       error
	// updateID, when set, is returned by Update instead of the stored ID.
	updateID    string
	creates     []string
	deactivated []string
	// gate, when set, holds every call until it is closed.
	gate chan struct{}
}

func (f *fakeStore) hold() {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (f *fakeStore) Create(_ context.Context, item domain.Item) (string, error) {
	f.hold()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.creates = append(f.creates, item.Name)
	for _, it := range f.items {
		if normalize.SameName(it.Name, item.Name) {
			return it.ID, nil
		}
	}
	f.next++
	id := fmt.Sprintf("srv-%d", f.next)
	f.items = append(f.items, domain.Item{ID: id, Name: item.Name, Category: item.Category})
	return id, nil
}

func (f *fakeStore) Update(_ context.Context, id string, item domain.Item, previousName string) (string, error) {
	f.hold()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return "", f.updateErr
	}
	for i, it := range f.items {
		if it.ID == id || it.Name == previousName {
			f.items[i].Name = item.Name
			if f.updateID != "" {
				f.items[i].ID = f.updateID
			}
			return f.items[i].ID, nil
		}
	}
	f.next++
	newID := fmt.Sprintf("srv-%d", f.next)
	f.items = append(f.items, domain.Item{ID: newID, Name: item.Name})
	return newID, nil
}

func (f *fakeStore) Deactivate(_ context.Context, id string) error {
	f.hold()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deactivateErr != nil {
		return f.deactivateErr
	}
	f.deactivated = append(f.deactivated, id)
	f.items = slices.DeleteFunc(f.items, func(it domain.Item) bool { return it.ID == id })
	return nil
}

func (f *fakeStore) List(_ context.Context) ([]domain.Item, error) {
	f.hold()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return slices.Clone(f.items), nil
}

func (f *fakeStore) set(fn func(*fakeStore)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func newTestReconciler(t *testing.T, store *fakeStore, opts Options) *Reconciler {
	t.Helper()
	r := New(store, opts, slog.New(slog.DiscardHandler))
	t.Cleanup(r.Close)
	return r
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		existing []domain.Item
		incoming []domain.Item
		want     []domain.Item
	}{
		{
			name:     "repeated name keeps one entry with the latest id",
			existing: []domain.Item{{ID: "a", Name: "a"}},
			incoming: []domain.Item{{ID: "x1", Name: "a"}, {ID: "x2", Name: "a"}},
			want:     []domain.Item{{ID: "x2", Name: "a"}},
		},
		{
			name:     "first-seen position wins",
			existing: []domain.Item{{ID: "b", Name: "b"}, {ID: "a", Name: "a"}},
			incoming: []domain.Item{{ID: "srv-a", Name: "a"}, {ID: "srv-c", Name: "c"}},
			want:     []domain.Item{{ID: "b", Name: "b"}, {ID: "srv-a", Name: "a"}, {ID: "srv-c", Name: "c"}},
		},
		{
			name:     "missing ids fall back to the name",
			incoming: []domain.Item{{Name: "walk"}},
			want:     []domain.Item{{ID: "walk", Name: "walk"}},
		},
		{
			name: "empty inputs",
			want: []domain.Item{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.existing, tt.incoming))
		})
	}
}

func TestMerge_Idempotent(t *testing.T) {
	items := []domain.Item{{ID: "1", Name: "work"}, {ID: "2", Name: "sleep"}}
	once := Merge(nil, items)
	assert.Equal(t, once, Merge(once, items))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, domain.Item{ID: "walk", Name: "walk"}, Normalize("walk"))
	assert.Equal(t, domain.Item{ID: "walk", Name: "walk"}, NormalizeItem(domain.Item{Name: "walk"}))
	assert.Equal(t, domain.Item{ID: "act-1", Name: "walk"}, NormalizeItem(domain.Item{ID: "act-1", Name: "walk"}))
}

func TestAdd_OptimisticThenConfirmed(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(t, store, Options{Kind: "tags"})

	mutationID := r.Add("  Work  ")
	require.NotEmpty(t, mutationID)

	// Visible before the remote answers.
	assert.Contains(t, r.Selected(), "Work")
	assert.Len(t, r.Items(), 1)

	r.Wait()
	assert.Equal(t, []domain.Item{{ID: "srv-1", Name: "Work"}}, r.Items())
	assert.Equal(t, []string{"Work"}, r.Selected())

	m, ok := r.Queue().Get(mutationID)
	require.True(t, ok)
	assert.Equal(t, StatusConfirmed, m.Status)
	assert.Equal(t, OpCreate, m.Op)
}

func TestAdd_EmptyIsNoop(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(t, store, Options{})

	assert.Empty(t, r.Add("   "))
	r.Wait()
	assert.Empty(t, r.Items())
	assert.Empty(t, store.creates)
}

func TestAdd_CaseFoldedDuplicateOnlySelects(t *testing.T) {
	store := &fakeStore{items: []domain.Item{{ID: "srv-9", Name: "Walk"}}}
	r := newTestReconciler(t, store, Options{})
	r.Load(context.Background())

	assert.Empty(t, r.Add("walk"))
	r.Wait()

	assert.Equal(t, []string{"Walk"}, r.Selected())
	assert.Len(t, r.Items(), 1)
	assert.Empty(t, store.creates)
}

func TestAdd_FailureIsRecordedAndRetried(t *testing.T) {
	boom := errors.New("network down")
	store := &fakeStore{createErr: boom}
	r := newTestReconciler(t, store, Options{})

	mutationID := r.Add("sleep")
	r.Wait()

	// The optimistic entry stays.
	assert.Equal(t, []domain.Item{{ID: "sleep", Name: "sleep"}}, r.Items())

	failed := r.Queue().Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, mutationID, failed[0].ID)
	assert.ErrorIs(t, failed[0].Err, boom)

	store.set(func(f *fakeStore) { f.createErr = nil })
	require.NoError(t, r.Retry(context.Background(), mutationID))

	m, _ := r.Queue().Get(mutationID)
	assert.Equal(t, StatusConfirmed, m.Status)
	assert.Equal(t, 2, m.Attempts)
	assert.Equal(t, []domain.Item{{ID: "srv-1", Name: "sleep"}}, r.Items())
	assert.Empty(t, r.Queue().Failed())
}

func TestAdd_RollbackRemovesOptimisticEntry(t *testing.T) {
	store := &fakeStore{createErr: errors.New("nope")}
	r := newTestReconciler(t, store, Options{})

	mutationID := r.Add("sleep")
	r.Wait()
	require.NoError(t, r.Rollback(mutationID))

	assert.Empty(t, r.Items())
	assert.Empty(t, r.Selected())
	_, ok := r.Queue().Get(mutationID)
	assert.False(t, ok)
}

func TestRetryAndRollback_RequireFailedMutation(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(t, store, Options{})

	err := r.Retry(context.Background(), "missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	mutationID := r.Add("work")
	r.Wait()

	assert.ErrorIs(t, r.Retry(context.Background(), mutationID), domainerrors.ErrConflict)
	assert.ErrorIs(t, r.Rollback(mutationID), domainerrors.ErrConflict)
}

func TestEdit_RenamesAndAlignsRemoteID(t *testing.T) {
	store := &fakeStore{items: []domain.Item{{ID: "srv-1", Name: "work"}, {ID: "srv-2", Name: "sleep"}}}
	store.updateID = "srv-77"
	r := newTestReconciler(t, store, Options{})
	r.Load(context.Background())
	r.SetSelected([]string{"work", "sleep"})
	gate := make(chan struct{})
	store.set(func(f *fakeStore) { f.gate = gate })

	mutationID := r.Edit("srv-1", "office", "work")
	require.NotEmpty(t, mutationID)

	// Local rename is immediate; the renamed entry moves to the end.
	items := r.Items()
	require.Len(t, items, 2)
	assert.Equal(t, domain.Item{ID: "srv-1", Name: "office"}, items[1])
	assert.Equal(t, []string{"office", "sleep"}, r.Selected())

	close(gate)
	r.Wait()
	items = r.Items()
	assert.Contains(t, items, domain.Item{ID: "srv-77", Name: "office"})
	assert.NotContains(t, items, domain.Item{ID: "srv-1", Name: "office"})
	for _, it := range items {
		assert.NotEqual(t, "work", it.Name)
	}
}

func TestEdit_FailureRollback(t *testing.T) {
	store := &fakeStore{items: []domain.Item{{ID: "srv-1", Name: "work"}}}
	r := newTestReconciler(t, store, Options{})
	r.Load(context.Background())
	r.SetSelected([]string{"work"})
	store.set(func(f *fakeStore) { f.updateErr = errors.New("offline") })

	mutationID := r.Edit("srv-1", "office", "work")
	r.Wait()
	require.Len(t, r.Queue().Failed(), 1)

	require.NoError(t, r.Rollback(mutationID))
	assert.Equal(t, []domain.Item{{ID: "srv-1", Name: "work"}}, r.Items())
	assert.Equal(t, []string{"work"}, r.Selected())
}

func TestDelete_TemporaryItemStaysLocal(t *testing.T) {
	store := &fakeStore{createErr: errors.New("offline")}
	r := newTestReconciler(t, store, Options{})
	r.Add("sleep")
	r.Wait()

	assert.Empty(t, r.Delete(domain.Item{ID: "sleep", Name: "sleep"}))
	r.Wait()

	assert.Empty(t, r.Items())
	assert.Empty(t, r.Selected())
	assert.Empty(t, store.deactivated)
}

func TestDelete_ConfirmedItemDeactivates(t *testing.T) {
	store := &fakeStore{items: []domain.Item{{ID: "srv-1", Name: "work"}}}
	r := newTestReconciler(t, store, Options{})
	r.Load(context.Background())

	mutationID := r.Delete(domain.Item{ID: "srv-1", Name: "work"})
	require.NotEmpty(t, mutationID)
	r.Wait()

	assert.Empty(t, r.Items())
	assert.Equal(t, []string{"srv-1"}, store.deactivated)
	m, _ := r.Queue().Get(mutationID)
	assert.Equal(t, StatusConfirmed, m.Status)
}

func TestDelete_FailureIsSwallowedAndRollbackRestores(t *testing.T) {
	store := &fakeStore{items: []domain.Item{{ID: "srv-1", Name: "work"}}}
	r := newTestReconciler(t, store, Options{})
	r.Load(context.Background())
	r.SetSelected([]string{"work"})
	store.set(func(f *fakeStore) { f.deactivateErr = errors.New("offline") })

	mutationID := r.Delete(domain.Item{ID: "srv-1", Name: "work"})
	r.Wait()

	assert.Empty(t, r.Items())
	require.Len(t, r.Queue().Failed(), 1)

	require.NoError(t, r.Rollback(mutationID))
	assert.Equal(t, []domain.Item{{ID: "srv-1", Name: "work"}}, r.Items())
	assert.Equal(t, []string{"work"}, r.Selected())
}

func TestLoad_FailureUsesDefaultsAndAlertsOnce(t *testing.T) {
	store := &fakeStore{listErr: errors.New("connection refused")}
	var alerts []string
	r := newTestReconciler(t, store, Options{
		Kind:     "tags",
		Defaults: DefaultTags(),
		Alert:    func(msg string) { alerts = append(alerts, msg) },
	})

	r.Load(context.Background())
	r.Load(context.Background())

	assert.Equal(t, DefaultTags(), r.Items())
	assert.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "tags")
}

func TestLoad_PermissionDeniedIsSilent(t *testing.T) {
	store := &fakeStore{listErr: domainerrors.PermissionDenied()}
	alerted := false
	r := newTestReconciler(t, store, Options{
		Defaults: DefaultActions(),
		Alert:    func(string) { alerted = true },
	})

	r.Load(context.Background())

	assert.False(t, alerted)
	assert.Len(t, r.Items(), 6)
	assert.Equal(t, "call a friend", r.Items()[4].Name)
}

func TestQueue_Prune(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(t, store, Options{})
	r.Add("a")
	r.Add("b")
	r.Wait()

	assert.Len(t, r.Queue().List(), 2)
	assert.Equal(t, 2, r.Queue().Prune())
	assert.Empty(t, r.Queue().List())
}

func TestEdit_BeforeCreateConfirmsRunsAfterIt(t *testing.T) {
	gate := make(chan struct{})
	store := &fakeStore{gate: gate}
	r := newTestReconciler(t, store, Options{})

	createID := r.Add("runing")
	editID := r.Edit("runing", "running", "runing")
	assert.Equal(t, []domain.Item{{ID: "runing", Name: "running"}}, r.Items())
	assert.Equal(t, []string{"running"}, r.Selected())

	close(gate)
	r.Wait()

	assert.Equal(t, []domain.Item{{ID: "srv-1", Name: "running"}}, r.Items())
	assert.Equal(t, []domain.Item{{ID: "srv-1", Name: "running"}}, store.items)
	assert.Equal(t, []string{"runing"}, store.creates)
	for _, id := range []string{createID, editID} {
		m, ok := r.Queue().Get(id)
		require.True(t, ok)
		assert.Equal(t, StatusConfirmed, m.Status, m.Op)
	}
}

func TestDelete_BeforeCreateConfirmsDeactivatesIt(t *testing.T) {
	gate := make(chan struct{})
	store := &fakeStore{gate: gate}
	r := newTestReconciler(t, store, Options{})

	r.Add("nap")
	mutationID := r.Delete(domain.Item{ID: "nap", Name: "nap"})
	require.NotEmpty(t, mutationID, "a create in flight must be followed by a deactivate")
	assert.Empty(t, r.Items())

	close(gate)
	r.Wait()

	assert.Empty(t, r.Items())
	assert.Empty(t, store.items)
	assert.Equal(t, []string{"srv-1"}, store.deactivated)
}

func TestDelete_AfterFailedCreateSendsNothing(t *testing.T) {
	gate := make(chan struct{})
	store := &fakeStore{gate: gate, createErr: errors.New("offline")}
	r := newTestReconciler(t, store, Options{})

	r.Add("nap")
	mutationID := r.Delete(domain.Item{ID: "nap", Name: "nap"})
	require.NotEmpty(t, mutationID)

	close(gate)
	r.Wait()

	assert.Empty(t, r.Items())
	assert.Empty(t, store.deactivated)
	m, _ := r.Queue().Get(mutationID)
	assert.Equal(t, StatusConfirmed, m.Status)
}
