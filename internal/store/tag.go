package store

import (
	"context"
	"slices"
	"strings"

	"github.com/moodtrail/moodtrail/internal/domain"
)

// CreateTag stores a new tag. The name must be unique for the user under case folding.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	return s.tags.Create(ctx, t.UserID, t.ID, t)
}

// GetTag retrieves a tag by ID, including deactivated tags.
func (s *Store) GetTag(ctx context.Context, userID, id string) (*domain.Tag, error) {
	return s.tags.Get(ctx, userID, id)
}

// GetTagByName looks a tag up by name, ignoring case and spacing differences.
func (s *Store) GetTagByName(ctx context.Context, userID, name string) (*domain.Tag, error) {
	return s.tags.GetByIndex(ctx, userID, "name", name)
}

// UpdateTag replaces a tag. Renames move the name index entry.
func (s *Store) UpdateTag(ctx context.Context, t *domain.Tag) error {
	t.Touch()
	return s.tags.Update(ctx, t.UserID, t.ID, t)
}

// ListTags returns the user's tags ordered by creation time.
func (s *Store) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	tags, err := Collect(s.tags.List(ctx, userID))
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(tags, func(a, b *domain.Tag) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return tags, nil
}

// CreateAction stores a new action. The name must be unique for the user under case folding.
func (s *Store) CreateAction(ctx context.Context, a *domain.Action) error {
	return s.actions.Create(ctx, a.UserID, a.ID, a)
}

// GetAction retrieves an action by ID, including deactivated actions.
func (s *Store) GetAction(ctx context.Context, userID, id string) (*domain.Action, error) {
	return s.actions.Get(ctx, userID, id)
}

// GetActionByName looks an action up by name, ignoring case and spacing differences.
func (s *Store) GetActionByName(ctx context.Context, userID, name string) (*domain.Action, error) {
	return s.actions.GetByIndex(ctx, userID, "name", name)
}

// UpdateAction replaces an action.
func (s *Store) UpdateAction(ctx context.Context, a *domain.Action) error {
	a.Touch()
	return s.actions.Update(ctx, a.UserID, a.ID, a)
}

// ListActions returns the user's actions ordered by creation time.
func (s *Store) ListActions(ctx context.Context, userID string) ([]*domain.Action, error) {
	actions, err := Collect(s.actions.List(ctx, userID))
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(actions, func(a, b *domain.Action) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return actions, nil
}
