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

// ActionService manages a user's coping actions.
// Identity rules match TagService; the category is stored verbatim.
type ActionService struct {
	store  store.Repository
	logger *slog.Logger
}

// NewActionService creates a new action service.
func NewActionService(store store.Repository, logger *slog.Logger) *ActionService {
	return &ActionService{store: store, logger: logger}
}

// ActionUpdate carries the fields of a rename.
type ActionUpdate struct {
	Name         string
	Category     string
	PreviousName string
}

// List returns the user's active actions in creation order.
func (s *ActionService) List(ctx context.Context, userID string) ([]*domain.Action, error) {
	all, err := s.store.ListActions(ctx, userID)
	if err != nil {
		return nil, err
	}
	active := make([]*domain.Action, 0, len(all))
	for _, a := range all {
		if a.Active() {
			active = append(active, a)
		}
	}
	return active, nil
}

// Create adds an action, or returns (and reactivates) the one already using the name.
func (s *ActionService) Create(ctx context.Context, userID, rawName, category string) (*domain.Action, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := normalize.Name(rawName)
	if name == "" {
		return nil, domainerrors.Validation("action name cannot be empty")
	}

	existing, err := s.store.GetActionByName(ctx, userID, name)
	if err == nil {
		return s.revive(ctx, existing)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	action := &domain.Action{UserID: userID, Name: name, Category: category}
	if action.ID, err = id.Generate(id.PrefixAction); err != nil {
		return nil, err
	}
	action.InitTimestamps()

	if err := s.store.CreateAction(ctx, action); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return s.store.GetActionByName(ctx, userID, name)
		}
		return nil, fmt.Errorf("create action: %w", err)
	}

	s.logger.Info("action created",
		"action_id", action.ID,
		"user_id", userID,
		"name", name,
		"category", category,
	)
	return action, nil
}

// Update renames an action and returns the action that now carries the name.
// Unknown IDs fall back to PreviousName, then to creating the name.
func (s *ActionService) Update(ctx context.Context, userID, actionID string, upd ActionUpdate) (*domain.Action, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := normalize.Name(upd.Name)
	if name == "" {
		return nil, domainerrors.Validation("action name cannot be empty")
	}

	action, err := s.store.GetAction(ctx, userID, actionID)
	if errors.Is(err, store.ErrNotFound) && upd.PreviousName != "" {
		action, err = s.store.GetActionByName(ctx, userID, upd.PreviousName)
	}
	if errors.Is(err, store.ErrNotFound) {
		return s.Create(ctx, userID, name, upd.Category)
	}
	if err != nil {
		return nil, err
	}

	owner, err := s.store.GetActionByName(ctx, userID, name)
	if err == nil && owner.ID != action.ID {
		if action.Active() {
			action.MarkDeleted()
			if err := s.store.UpdateAction(ctx, action); err != nil {
				return nil, fmt.Errorf("retire renamed action: %w", err)
			}
		}
		s.logger.Info("action rename merged into existing action",
			"action_id", action.ID,
			"merged_into", owner.ID,
			"user_id", userID,
		)
		return s.revive(ctx, owner)
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	action.Name = name
	if upd.Category != "" {
		action.Category = upd.Category
	}
	action.DeletedAt = nil
	if err := s.store.UpdateAction(ctx, action); err != nil {
		return nil, fmt.Errorf("update action: %w", err)
	}

	s.logger.Info("action renamed",
		"action_id", action.ID,
		"user_id", userID,
		"name", name,
	)
	return action, nil
}

// Deactivate hides an action from listings. History keeps referencing it.
func (s *ActionService) Deactivate(ctx context.Context, userID, actionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	action, err := s.store.GetAction(ctx, userID, actionID)
	if err != nil {
		return err
	}
	if action.IsDeleted() {
		return nil
	}

	action.MarkDeleted()
	if err := s.store.UpdateAction(ctx, action); err != nil {
		return fmt.Errorf("deactivate action: %w", err)
	}

	s.logger.Info("action deactivated", "action_id", actionID, "user_id", userID)
	return nil
}

func (s *ActionService) revive(ctx context.Context, action *domain.Action) (*domain.Action, error) {
	if action.Active() {
		return action, nil
	}
	action.Restore()
	if err := s.store.UpdateAction(ctx, action); err != nil {
		return nil, fmt.Errorf("reactivate action: %w", err)
	}
	s.logger.Info("action reactivated", "action_id", action.ID, "user_id", action.UserID)
	return action, nil
}
