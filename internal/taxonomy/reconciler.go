package taxonomy

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/moodtrail/moodtrail/internal/domain"
	domainerrors "github.com/moodtrail/moodtrail/internal/errors"
	"github.com/moodtrail/moodtrail/internal/normalize"
	"github.com/moodtrail/moodtrail/internal/remote"
)

// DefaultCallTimeout bounds each background remote call.
const DefaultCallTimeout = 30 * time.Second

// Options configures a Reconciler.
type Options struct {
	// Kind names the taxonomy in logs and alerts, e.g. "tags".
	Kind string
	// Defaults are merged in when the remote list cannot be read.
	Defaults []domain.Item
	// CallTimeout bounds each background remote call.
	CallTimeout time.Duration
	// Alert receives the one user-visible warning about a failed load.
	Alert func(message string)
}

// Reconciler owns the local list and selection for one taxonomy.
type Reconciler struct {
	store  remote.TaxonomyStore
	opts   Options
	queue  *Queue
	logger *slog.Logger

	mu       sync.Mutex
	items    []domain.Item
	selected []string
	warned   bool
	// tails holds the completion channel of the last mutation touching
	// each chain key; later mutations on the same key wait for it.
	tails map[string]chan struct{}
	// aliases maps a local ID to the ID the server assigned it.
	aliases map[string]string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a reconciler over store.
func New(store remote.TaxonomyStore, opts Options, logger *slog.Logger) *Reconciler {
	if opts.Kind == "" {
		opts.Kind = "items"
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Reconciler{
		store:   store,
		opts:    opts,
		queue:   NewQueue(),
		logger:  logger.With("component", "taxonomy", "kind", opts.Kind),
		tails:   make(map[string]chan struct{}),
		aliases: make(map[string]string),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Items returns a copy of the local list.
func (r *Reconciler) Items() []domain.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items)
}

// Selected returns the selected names in selection order.
func (r *Reconciler) Selected() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.selected)
}

// SetSelected replaces the selection.
func (r *Reconciler) SetSelected(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = slices.Clone(names)
}

// Toggle flips the selection of name and reports whether it is now selected.
func (r *Reconciler) Toggle(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.Contains(r.selected, name) {
		r.deselectLocked(name)
		return false
	}
	r.selected = append(r.selected, name)
	return true
}

// Find returns the item whose name matches under case folding.
func (r *Reconciler) Find(name string) (domain.Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(name)
}

// Queue exposes the reconciliation queue.
func (r *Reconciler) Queue() *Queue {
	return r.queue
}

// Wait blocks until all background calls have finished.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

// Close cancels background calls and waits for them.
func (r *Reconciler) Close() {
	r.cancel()
	r.wg.Wait()
}

// Load merges the remote list into the local one. When the list cannot be
// read the defaults are merged instead; the first non-permission failure
// raises an alert, permission failures stay silent.
func (r *Reconciler) Load(ctx context.Context) {
	items, err := r.store.List(ctx)
	if err == nil {
		r.mu.Lock()
		r.items = Merge(r.items, items)
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	r.items = Merge(r.items, r.opts.Defaults)
	alert := !r.warned && !domainerrors.IsPermissionDenied(err)
	if alert {
		r.warned = true
	}
	r.mu.Unlock()

	if !alert {
		r.logger.Debug("remote list unavailable, using defaults", "error", err)
		return
	}
	r.logger.Warn("failed to load remote list, using defaults", "error", err)
	if r.opts.Alert != nil {
		r.opts.Alert(fmt.Sprintf("Could not load your %s. Showing defaults for now.", r.opts.Kind))
	}
}

// Add inserts name locally, selects it and creates it remotely in the
// background. A name already present under case folding is only selected.
// Add never blocks on the remote and never fails; it returns the ID of the
// queued mutation, or "" when nothing was sent.
func (r *Reconciler) Add(name string) string {
	return r.AddItem(domain.Item{Name: name})
}

// AddItem is Add with a category.
func (r *Reconciler) AddItem(item domain.Item) string {
	name := normalize.Name(item.Name)
	if name == "" {
		return ""
	}

	r.mu.Lock()
	if existing, ok := r.findLocked(name); ok {
		r.selectLocked(existing.Name)
		r.mu.Unlock()
		return ""
	}
	local := domain.Item{ID: name, Name: name, Category: item.Category}
	r.items = Merge(r.items, []domain.Item{local})
	r.selectLocked(name)
	r.mu.Unlock()

	m := r.queue.enqueue(Mutation{Op: OpCreate, Item: local})
	r.background(m)
	return m.ID
}

// Edit renames the entry identified by id (or oldName) to newName locally
// and persists the rename in the background. Returns the mutation ID, or ""
// when newName is empty.
func (r *Reconciler) Edit(id, newName, oldName string) string {
	newName = normalize.Name(newName)
	if newName == "" {
		return ""
	}

	r.mu.Lock()
	var category string
	r.items = slices.DeleteFunc(r.items, func(it domain.Item) bool {
		match := it.Name == oldName || it.ID == id
		if match && category == "" {
			category = it.Category
		}
		return match
	})
	renamed := domain.Item{ID: id, Name: newName, Category: category}
	r.items = Merge(r.items, []domain.Item{renamed})
	r.renameSelectionLocked(oldName, newName)
	r.mu.Unlock()

	m := r.queue.enqueue(Mutation{Op: OpUpdate, Item: renamed, PreviousName: oldName})
	r.background(m)
	return m.ID
}

// Delete removes item from the list and selection. Items the server never
// saw are dropped locally only; others are deactivated remotely in the
// background, after any create still in flight for the same name. Returns
// the mutation ID, or "" when nothing was sent.
func (r *Reconciler) Delete(item domain.Item) string {
	r.mu.Lock()
	r.items = slices.DeleteFunc(r.items, func(it domain.Item) bool {
		return it.Name == item.Name || (item.ID != "" && it.ID == item.ID)
	})
	wasSelected := slices.Contains(r.selected, item.Name)
	r.deselectLocked(item.Name)
	local := item.Temporary() && !r.remoteLocked(item)
	r.mu.Unlock()

	if local {
		return ""
	}

	m := r.queue.enqueue(Mutation{Op: OpDeactivate, Item: item, WasSelected: wasSelected})
	r.background(m)
	return m.ID
}

// Retry re-sends a failed mutation and waits for the result.
func (r *Reconciler) Retry(ctx context.Context, mutationID string) error {
	m, ok := r.queue.Get(mutationID)
	if !ok {
		return domainerrors.NotFoundf("mutation %s not found", mutationID)
	}
	if m.Status != StatusFailed {
		return domainerrors.Conflict(fmt.Sprintf("mutation %s is %s, only failed mutations can be retried", mutationID, m.Status))
	}

	r.queue.transition(m.ID, StatusPending, nil)
	return r.execute(ctx, m)
}

// Rollback undoes the local effect of a failed mutation and forgets it.
func (r *Reconciler) Rollback(mutationID string) error {
	m, ok := r.queue.Get(mutationID)
	if !ok {
		return domainerrors.NotFoundf("mutation %s not found", mutationID)
	}
	if m.Status != StatusFailed {
		return domainerrors.Conflict(fmt.Sprintf("mutation %s is %s, only failed mutations can be rolled back", mutationID, m.Status))
	}

	r.mu.Lock()
	switch m.Op {
	case OpCreate:
		r.items = slices.DeleteFunc(r.items, func(it domain.Item) bool { return it.Name == m.Item.Name })
		r.deselectLocked(m.Item.Name)
	case OpUpdate:
		r.items = slices.DeleteFunc(r.items, func(it domain.Item) bool { return it.Name == m.Item.Name })
		previous := m.Item
		previous.Name = m.PreviousName
		r.items = Merge(r.items, []domain.Item{previous})
		r.renameSelectionLocked(m.Item.Name, m.PreviousName)
	case OpDeactivate:
		r.items = Merge(r.items, []domain.Item{m.Item})
		if m.WasSelected {
			r.selectLocked(m.Item.Name)
		}
	}
	r.mu.Unlock()

	r.queue.remove(m.ID)
	r.logger.Info("mutation rolled back", "mutation_id", m.ID, "op", m.Op, "name", m.Item.Name)
	return nil
}

// background runs a queued mutation without blocking the caller. Mutations
// sharing a name or ID run in submission order.
func (r *Reconciler) background(m Mutation) {
	done := make(chan struct{})
	keys := chainKeys(m)

	r.mu.Lock()
	var prev []chan struct{}
	for _, k := range keys {
		if t, ok := r.tails[k]; ok && !slices.Contains(prev, t) {
			prev = append(prev, t)
		}
		r.tails[k] = done
	}
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			close(done)
			r.mu.Lock()
			for _, k := range keys {
				if r.tails[k] == done {
					delete(r.tails, k)
				}
			}
			r.mu.Unlock()
		}()
		for _, p := range prev {
			<-p
		}
		//nolint:errcheck // failures are recorded on the queue
		_ = r.execute(r.ctx, m)
	}()
}

// chainKeys returns the names and ID a mutation touches.
func chainKeys(m Mutation) []string {
	keys := []string{"name:" + normalize.Key(m.Item.Name)}
	if m.PreviousName != "" {
		keys = append(keys, "name:"+normalize.Key(m.PreviousName))
	}
	if m.Item.ID != "" {
		keys = append(keys, "id:"+m.Item.ID)
	}
	return keys
}

// execute performs the remote call for m, applies the server's answer
// locally and records the outcome.
func (r *Reconciler) execute(ctx context.Context, m Mutation) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.CallTimeout)
	defer cancel()

	var err error
	switch m.Op {
	case OpCreate:
		var remoteID string
		if remoteID, err = r.store.Create(ctx, m.Item); err == nil {
			r.confirmID(m.Item, m.Item.ID, remoteID)
		}
	case OpUpdate:
		item := m.Item
		item.ID = r.resolveID(item.ID)
		var remoteID string
		if remoteID, err = r.store.Update(ctx, item.ID, item, m.PreviousName); err == nil {
			r.confirmID(item, m.Item.ID, remoteID)
		}
	case OpDeactivate:
		id := r.resolveID(m.Item.ID)
		if (domain.Item{ID: id, Name: m.Item.Name}).Temporary() {
			// The create it followed never landed.
			break
		}
		err = r.store.Deactivate(ctx, id)
	}

	if err != nil {
		r.queue.transition(m.ID, StatusFailed, err)
		r.logger.Warn("remote mutation failed",
			"mutation_id", m.ID,
			"op", m.Op,
			"name", m.Item.Name,
			"error", err,
		)
		return err
	}

	r.queue.transition(m.ID, StatusConfirmed, nil)
	if m.Op != OpDeactivate {
		r.refresh(ctx)
	}
	return nil
}

// confirmID swaps a local ID for the one the server assigned. When the item
// was renamed or removed locally in the meantime only the ID is updated.
func (r *Reconciler) confirmID(item domain.Item, localID, remoteID string) {
	if remoteID == "" || remoteID == localID {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.aliases[localID] = remoteID
	if !slices.ContainsFunc(r.items, func(it domain.Item) bool { return it.Name == item.Name }) {
		for i := range r.items {
			if r.items[i].ID == localID {
				r.items[i].ID = remoteID
			}
		}
		return
	}

	r.items = slices.DeleteFunc(r.items, func(it domain.Item) bool {
		return it.ID == localID && it.Name != item.Name
	})
	confirmed := item
	confirmed.ID = remoteID
	r.items = Merge(r.items, []domain.Item{confirmed})
}

// refresh merges the remote list after a confirmed write. Names that a
// pending rename or deactivation is about to remove are skipped. Failures
// only log.
func (r *Reconciler) refresh(ctx context.Context) {
	items, err := r.store.List(ctx)
	if err != nil {
		r.logger.Debug("refresh after write failed", "error", err)
		return
	}

	stale := make(map[string]bool)
	for _, m := range r.queue.Pending() {
		switch {
		case m.Op == OpUpdate && !normalize.SameName(m.PreviousName, m.Item.Name):
			stale[normalize.Key(m.PreviousName)] = true
		case m.Op == OpDeactivate:
			stale[normalize.Key(m.Item.Name)] = true
		}
	}
	items = slices.DeleteFunc(items, func(it domain.Item) bool { return stale[normalize.Key(it.Name)] })

	r.mu.Lock()
	r.items = Merge(r.items, items)
	r.mu.Unlock()
}

// resolveID maps a local ID to the server's, when one is known.
func (r *Reconciler) resolveID(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if remoteID, ok := r.aliases[id]; ok {
		return remoteID
	}
	return id
}

// remoteLocked reports whether item exists remotely or is about to.
func (r *Reconciler) remoteLocked(item domain.Item) bool {
	if _, ok := r.aliases[item.ID]; ok {
		return true
	}
	return slices.ContainsFunc(r.queue.Pending(), func(m Mutation) bool {
		return m.Op == OpCreate && normalize.SameName(m.Item.Name, item.Name)
	})
}

func (r *Reconciler) findLocked(name string) (domain.Item, bool) {
	for _, it := range r.items {
		if normalize.SameName(it.Name, name) {
			return it, true
		}
	}
	return domain.Item{}, false
}

func (r *Reconciler) selectLocked(name string) {
	if !slices.Contains(r.selected, name) {
		r.selected = append(r.selected, name)
	}
}

func (r *Reconciler) deselectLocked(name string) {
	r.selected = slices.DeleteFunc(r.selected, func(s string) bool { return s == name })
}

func (r *Reconciler) renameSelectionLocked(from, to string) {
	if !slices.Contains(r.selected, from) {
		return
	}
	renamed := make([]string, 0, len(r.selected))
	for _, s := range r.selected {
		if s == from {
			s = to
		}
		if !slices.Contains(renamed, s) {
			renamed = append(renamed, s)
		}
	}
	r.selected = renamed
}
