package taxonomy

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moodtrail/moodtrail/internal/domain"
)

// Status is the reconciliation state of one optimistic mutation.
type Status string

// Mutation states.
const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Op is the remote operation a mutation performs.
type Op string

// Mutation operations.
const (
	OpCreate     Op = "create"
	OpUpdate     Op = "update"
	OpDeactivate Op = "deactivate"
)

// Mutation records one local change and the remote call that backs it.
type Mutation struct {
	ID   string
	Op   Op
	Item domain.Item
	// PreviousName is the name before an update.
	PreviousName string
	// WasSelected records whether a deleted item was selected, for rollback.
	WasSelected bool
	Status      Status
	Err         error
	Attempts    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Queue tracks mutations in submission order.
type Queue struct {
	mu    sync.Mutex
	order []string
	byID  map[string]*Mutation
	now   func() time.Time
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{byID: make(map[string]*Mutation), now: time.Now}
}

func (q *Queue) enqueue(m Mutation) Mutation {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	m.ID = uuid.NewString()
	m.Status = StatusPending
	m.Attempts = 1
	m.CreatedAt = now
	m.UpdatedAt = now

	q.byID[m.ID] = &m
	q.order = append(q.order, m.ID)
	return m
}

func (q *Queue) transition(id string, status Status, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	m, ok := q.byID[id]
	if !ok {
		return
	}
	m.Status = status
	m.Err = err
	m.UpdatedAt = q.now()
	if status == StatusPending {
		m.Attempts++
	}
}

func (q *Queue) remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.byID, id)
	q.order = slices.DeleteFunc(q.order, func(v string) bool { return v == id })
}

// Get returns a copy of the mutation with the given ID.
func (q *Queue) Get(id string) (Mutation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	m, ok := q.byID[id]
	if !ok {
		return Mutation{}, false
	}
	return *m, true
}

// List returns every tracked mutation in submission order.
func (q *Queue) List() []Mutation {
	return q.filter(func(*Mutation) bool { return true })
}

// Failed returns the mutations whose remote call failed.
func (q *Queue) Failed() []Mutation {
	return q.filter(func(m *Mutation) bool { return m.Status == StatusFailed })
}

// Pending returns the mutations still waiting on the remote.
func (q *Queue) Pending() []Mutation {
	return q.filter(func(m *Mutation) bool { return m.Status == StatusPending })
}

// Prune drops confirmed mutations and returns how many were removed.
func (q *Queue) Prune() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	before := len(q.order)
	q.order = slices.DeleteFunc(q.order, func(id string) bool {
		if q.byID[id].Status == StatusConfirmed {
			delete(q.byID, id)
			return true
		}
		return false
	})
	return before - len(q.order)
}

func (q *Queue) filter(keep func(*Mutation) bool) []Mutation {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Mutation, 0, len(q.order))
	for _, id := range q.order {
		if m := q.byID[id]; keep(m) {
			out = append(out, *m)
		}
	}
	return out
}
