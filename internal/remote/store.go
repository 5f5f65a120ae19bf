// Package remote is the client side of the per-user store: the interfaces
// the core components depend on, and an HTTP implementation of them.
package remote

import (
	"context"

	"github.com/moodtrail/moodtrail/internal/domain"
)

// TaxonomyStore persists one taxonomy (tags or actions) for the session user.
// Returned IDs are server-assigned and may differ from the ID passed in.
type TaxonomyStore interface {
	Create(ctx context.Context, item domain.Item) (string, error)
	Update(ctx context.Context, id string, item domain.Item, previousName string) (string, error)
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Item, error)
}

// CheckInStore persists check-ins for the session user.
type CheckInStore interface {
	// Save creates a check-in, or updates existingID in place, and returns its ID.
	Save(ctx context.Context, fields domain.CheckInFields, existingID string) (string, error)
	// History returns every check-in, newest first.
	History(ctx context.Context) ([]*domain.CheckIn, error)
	// ByDate returns the latest check-in on date, or nil.
	ByDate(ctx context.Context, date string) (*domain.CheckIn, error)
	ByID(ctx context.Context, id string) (*domain.CheckIn, error)
	Delete(ctx context.Context, id string) error
	UpdateActionRating(ctx context.Context, checkInID, actionID string, rating int) error
}

// InsightReader reads the server-computed action aggregates.
type InsightReader interface {
	Insights(ctx context.Context) (*domain.Insights, error)
}
