package store

import (
	"context"
	"slices"

	"github.com/moodtrail/moodtrail/internal/domain"
)

// CreateCheckIn stores a new check-in.
func (s *Store) CreateCheckIn(ctx context.Context, c *domain.CheckIn) error {
	return s.checkIns.Create(ctx, c.UserID, c.ID, c)
}

// GetCheckIn retrieves a check-in by ID.
func (s *Store) GetCheckIn(ctx context.Context, userID, id string) (*domain.CheckIn, error) {
	return s.checkIns.Get(ctx, userID, id)
}

// UpdateCheckIn replaces a check-in.
func (s *Store) UpdateCheckIn(ctx context.Context, c *domain.CheckIn) error {
	c.Touch()
	return s.checkIns.Update(ctx, c.UserID, c.ID, c)
}

// DeleteCheckIn removes a check-in. Deleting a missing check-in is not an error.
func (s *Store) DeleteCheckIn(ctx context.Context, userID, id string) error {
	return s.checkIns.Delete(ctx, userID, id)
}

// ListCheckIns returns the user's full history, newest first.
func (s *Store) ListCheckIns(ctx context.Context, userID string) ([]*domain.CheckIn, error) {
	entries, err := Collect(s.checkIns.List(ctx, userID))
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(entries, domain.CompareNewestFirst)
	return entries, nil
}

// ListCheckInsByDate returns the check-ins for one calendar day, newest first.
func (s *Store) ListCheckInsByDate(ctx context.Context, userID, date string) ([]*domain.CheckIn, error) {
	entries, err := Collect(s.checkIns.ListByIndex(ctx, userID, "date", date))
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(entries, domain.CompareNewestFirst)
	return entries, nil
}
