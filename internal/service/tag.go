package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/moodtrail/moodtrail/internal/domain"
	domainerrors "github.com/moodtrail/moodtrail/internal/errors"
	"github.com/moodtrail/moodtrail/internal/id"
	"github.com/moodtrail/moodtrail/internal/normalize"
	"github.com/moodtrail/moodtrail/internal/store"
)

// TagService manages a user's tags. Deleting a tag only deactivates it; the
// record is revived when the same name is created again.
type TagService struct {
	store  store.Repository
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Repository, logger *slog.Logger) *TagService {
	return &TagService{store: store, logger: logger}
}

// List returns the user's active tags in creation order.
func (s *TagService) List(ctx context.Context, userID string) ([]*domain.Tag, error) {
	all, err := s.store.ListTags(ctx, userID)
	if err != nil {
		return nil, err
	}
	active := make([]*domain.Tag, 0, len(all))
	for _, t := range all {
		if t.Active() {
			active = append(active, t)
		}
	}
	return active, nil
}

// Create adds a tag and returns it. Creating a name the user already has
// returns the existing tag, reactivating it if needed.
func (s *TagService) Create(ctx context.Context, userID, rawName string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := normalize.Name(rawName)
	if name == "" {
		return nil, domainerrors.Validation("tag name cannot be empty")
	}

	existing, err := s.store.GetTagByName(ctx, userID, name)
	switch {
	case err == nil:
		return s.revive(ctx, existing)
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	tag := &domain.Tag{UserID: userID, Name: name}
	tag.ID, err = id.Generate(id.PrefixTag)
	if err != nil {
		return nil, err
	}
	tag.InitTimestamps()

	if err := s.store.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a race with a concurrent create of the same name.
			return s.store.GetTagByName(ctx, userID, name)
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}

	s.logger.Info("tag created",
		"tag_id", tag.ID,
		"user_id", userID,
		"name", name,
	)
	return tag, nil
}

// Update renames a tag and returns the tag that now carries the name.
//
// Clients may hold a temporary identity (the tag's own name) that the server
// never issued. When id is unknown, the tag is located by previousName; if that
// also fails the name is created. When the new name already belongs to another
// tag, the renamed tag is retired and the other tag's ID is returned.
func (s *TagService) Update(ctx context.Context, userID, tagID, rawName, previousName string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := normalize.Name(rawName)
	if name == "" {
		return nil, domainerrors.Validation("tag name cannot be empty")
	}

	tag, err := s.store.GetTag(ctx, userID, tagID)
	if errors.Is(err, store.ErrNotFound) && previousName != "" {
		tag, err = s.store.GetTagByName(ctx, userID, previousName)
	}
	if errors.Is(err, store.ErrNotFound) {
		return s.Create(ctx, userID, name)
	}
	if err != nil {
		return nil, err
	}

	owner, err := s.store.GetTagByName(ctx, userID, name)
	if err == nil && owner.ID != tag.ID {
		if tag.Active() {
			tag.MarkDeleted()
			if err := s.store.UpdateTag(ctx, tag); err != nil {
				return nil, fmt.Errorf("retire renamed tag: %w", err)
			}
		}
		s.logger.Info("tag rename merged into existing tag",
			"tag_id", tag.ID,
			"merged_into", owner.ID,
			"user_id", userID,
		)
		return s.revive(ctx, owner)
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	tag.Name = name
	if tag.IsDeleted() {
		tag.DeletedAt = nil
	}
	if err := s.store.UpdateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}

	s.logger.Info("tag renamed",
		"tag_id", tag.ID,
		"user_id", userID,
		"name", name,
	)
	return tag, nil
}

// Deactivate hides a tag from listings. Deactivating twice is not an error.
func (s *TagService) Deactivate(ctx context.Context, userID, tagID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tag, err := s.store.GetTag(ctx, userID, tagID)
	if err != nil {
		return err
	}
	if tag.IsDeleted() {
		return nil
	}

	tag.MarkDeleted()
	if err := s.store.UpdateTag(ctx, tag); err != nil {
		return fmt.Errorf("deactivate tag: %w", err)
	}

	s.logger.Info("tag deactivated", "tag_id", tagID, "user_id", userID)
	return nil
}

func (s *TagService) revive(ctx context.Context, tag *domain.Tag) (*domain.Tag, error) {
	if tag.Active() {
		return tag, nil
	}
	tag.Restore()
	if err := s.store.UpdateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("reactivate tag: %w", err)
	}
	s.logger.Info("tag reactivated", "tag_id", tag.ID, "user_id", tag.UserID)
	return tag, nil
}
