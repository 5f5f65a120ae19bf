package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/moodtrail/moodtrail/internal/domain"
	domainerrors "github.com/moodtrail/moodtrail/internal/errors"
	"github.com/moodtrail/moodtrail/internal/id"
	"github.com/moodtrail/moodtrail/internal/store"
	"github.com/moodtrail/moodtrail/internal/validation"
)

// CheckInService stores check-ins and keeps their two rating representations aligned.
type CheckInService struct {
	store     store.Repository
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewCheckInService creates a new check-in service.
func NewCheckInService(store store.Repository, validator *validation.Validator, logger *slog.Logger) *CheckInService {
	return &CheckInService{
		store:     store,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// Save creates a check-in, or updates existingID in place.
//
// Updates never move a check-in: its date and time stay as first saved.
// A save without existingID always creates a new record; the per-day cap is
// enforced by the client before it starts a new entry.
func (s *CheckInService) Save(ctx context.Context, userID string, fields domain.CheckInFields, existingID string) (*domain.CheckIn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(fields); err != nil {
		return nil, err
	}
	if err := validateRatingKeys(fields); err != nil {
		return nil, err
	}

	if existingID != "" {
		entry, err := s.store.GetCheckIn(ctx, userID, existingID)
		if err != nil {
			return nil, err
		}
		entry.Apply(fields)
		if err := s.store.UpdateCheckIn(ctx, entry); err != nil {
			return nil, fmt.Errorf("update check-in: %w", err)
		}
		s.logger.Info("check-in updated",
			"checkin_id", entry.ID,
			"user_id", userID,
			"actions", len(entry.Actions),
		)
		return entry, nil
	}

	entry := &domain.CheckIn{UserID: userID, Date: fields.Date, Time: fields.Time}
	if entry.Time == nil {
		now := s.now()
		entry.Time = &now
	}
	var err error
	if entry.ID, err = id.Generate(id.PrefixCheckIn); err != nil {
		return nil, err
	}
	entry.InitTimestamps()
	entry.Apply(fields)

	if err := s.store.CreateCheckIn(ctx, entry); err != nil {
		return nil, fmt.Errorf("create check-in: %w", err)
	}

	s.logger.Info("check-in created",
		"checkin_id", entry.ID,
		"user_id", userID,
		"date", entry.Date,
	)
	return entry, nil
}

// History returns every check-in for the user, newest first.
func (s *CheckInService) History(ctx context.Context, userID string) ([]*domain.CheckIn, error) {
	return s.store.ListCheckIns(ctx, userID)
}

// ByDate returns the most recent check-in on date, or nil when there is none.
func (s *CheckInService) ByDate(ctx context.Context, userID, date string) (*domain.CheckIn, error) {
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, domainerrors.Validationf("invalid date %q", date)
	}
	entries, err := s.store.ListCheckInsByDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

// Get returns one check-in.
func (s *CheckInService) Get(ctx context.Context, userID, checkInID string) (*domain.CheckIn, error) {
	return s.store.GetCheckIn(ctx, userID, checkInID)
}

// Delete removes a check-in. Missing check-ins are not an error.
func (s *CheckInService) Delete(ctx context.Context, userID, checkInID string) error {
	if err := s.store.DeleteCheckIn(ctx, userID, checkInID); err != nil {
		return fmt.Errorf("delete check-in: %w", err)
	}
	s.logger.Info("check-in deleted", "checkin_id", checkInID, "user_id", userID)
	return nil
}

// UpdateActionRating sets the rating of one action on one check-in, writing
// both the embedded entry and the ratings map.
func (s *CheckInService) UpdateActionRating(ctx context.Context, userID, checkInID, actionID string, rating int) (*domain.CheckIn, error) {
	if rating < domain.MinScale || rating > domain.MaxScale {
		return nil, domainerrors.Validationf("rating must be between %d and %d", domain.MinScale, domain.MaxScale)
	}

	entry, err := s.store.GetCheckIn(ctx, userID, checkInID)
	if err != nil {
		return nil, err
	}
	if !entry.SetRating(actionID, rating) {
		return nil, domainerrors.NotFoundf("action %s is not part of check-in %s", actionID, checkInID)
	}
	if err := s.store.UpdateCheckIn(ctx, entry); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update rating: %w", err)
	}

	s.logger.Info("action rated",
		"checkin_id", checkInID,
		"action_id", actionID,
		"user_id", userID,
		"rating", rating,
	)
	return entry, nil
}

// validateRatingKeys rejects ratings for actions the check-in does not list.
func validateRatingKeys(fields domain.CheckInFields) error {
	listed := make(map[string]bool, len(fields.Actions))
	for _, a := range fields.Actions {
		if a.ActionID == "" {
			return domainerrors.Validation("every action needs an id")
		}
		if a.Rating != nil && (*a.Rating < domain.MinScale || *a.Rating > domain.MaxScale) {
			return domainerrors.Validationf("rating for %s must be between %d and %d", a.ActionID, domain.MinScale, domain.MaxScale)
		}
		listed[a.ActionID] = true
	}
	for actionID := range fields.Ratings {
		if !listed[actionID] {
			return domainerrors.Validationf("rating given for unlisted action %s", actionID)
		}
	}
	return nil
}
