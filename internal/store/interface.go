// Package store persists per-user tags, actions, and check-ins.
//
// The badger-backed Store in this package is the default backend; package
// sqlite provides an alternative with the same contract.
package store

import (
	"context"

	"github.com/moodtrail/moodtrail/internal/domain"
)

// Repository defines every persistence operation the services need.
// All reads are scoped by user ID; no method crosses users.
type Repository interface {
	Close() error
	// Ping reports whether the backend can serve reads.
	Ping(ctx context.Context) error

	// Tags. Listings include deactivated tags; callers filter on Active.
	CreateTag(ctx context.Context, t *domain.Tag) error
	GetTag(ctx context.Context, userID, id string) (*domain.Tag, error)
	GetTagByName(ctx context.Context, userID, name string) (*domain.Tag, error)
	UpdateTag(ctx context.Context, t *domain.Tag) error
	ListTags(ctx context.Context, userID string) ([]*domain.Tag, error)

	// Actions.
	CreateAction(ctx context.Context, a *domain.Action) error
	GetAction(ctx context.Context, userID, id string) (*domain.Action, error)
	GetActionByName(ctx context.Context, userID, name string) (*domain.Action, error)
	UpdateAction(ctx context.Context, a *domain.Action) error
	ListActions(ctx context.Context, userID string) ([]*domain.Action, error)

	// Check-ins. Listings are newest first.
	CreateCheckIn(ctx context.Context, c *domain.CheckIn) error
	GetCheckIn(ctx context.Context, userID, id string) (*domain.CheckIn, error)
	UpdateCheckIn(ctx context.Context, c *domain.CheckIn) error
	DeleteCheckIn(ctx context.Context, userID, id string) error
	ListCheckIns(ctx context.Context, userID string) ([]*domain.CheckIn, error)
	ListCheckInsByDate(ctx context.Context, userID, date string) ([]*domain.CheckIn, error)
}

// Compile-time check that the badger Store satisfies Repository.
var _ Repository = (*Store)(nil)
