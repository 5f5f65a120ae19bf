package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/moodtrail/moodtrail/internal/domain"
)

const checkInColumns = `id, user_id, date, time, mood, energy, stress, note, tags, actions, ratings, created_at, updated_at`

func scanCheckIn(scanner interface{ Scan(dest ...any) error }) (*domain.CheckIn, error) {
	var (
		c                      domain.CheckIn
		at                     sql.NullString
		tags, actions, ratings string
		createdAt, updatedAt   string
	)
	err := scanner.Scan(
		&c.ID, &c.UserID, &c.Date, &at,
		&c.Mood, &c.Energy, &c.Stress, &c.Note,
		&tags, &actions, &ratings,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if c.Time, err = parseNullableTime(at); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(actions), &c.Actions); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}
	if err := json.Unmarshal([]byte(ratings), &c.Ratings); err != nil {
		return nil, fmt.Errorf("decode ratings: %w", err)
	}
	return &c, nil
}

// encodeCollections serializes the JSON columns of a check-in.
func encodeCollections(c *domain.CheckIn) (tags, actions, ratings string, err error) {
	enc := func(v any, empty string) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		if string(b) == "null" {
			return empty, nil
		}
		return string(b), nil
	}
	if tags, err = enc(c.Tags, "[]"); err != nil {
		return "", "", "", fmt.Errorf("encode tags: %w", err)
	}
	if actions, err = enc(c.Actions, "[]"); err != nil {
		return "", "", "", fmt.Errorf("encode actions: %w", err)
	}
	if ratings, err = enc(c.Ratings, "{}"); err != nil {
		return "", "", "", fmt.Errorf("encode ratings: %w", err)
	}
	return tags, actions, ratings, nil
}

// CreateCheckIn inserts a new check-in.
func (s *Store) CreateCheckIn(ctx context.Context, c *domain.CheckIn) error {
	tags, actions, ratings, err := encodeCollections(c)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO check_ins (`+checkInColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Date, nullTimeString(c.Time),
		c.Mood, c.Energy, c.Stress, c.Note,
		tags, actions, ratings,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	return mapWriteErr(err)
}

// GetCheckIn retrieves a check-in by ID.
func (s *Store) GetCheckIn(ctx context.Context, userID, id string) (*domain.CheckIn, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+checkInColumns+` FROM check_ins WHERE user_id = ? AND id = ?`, userID, id)
	c, err := scanCheckIn(row)
	return c, mapReadErr(err)
}

// UpdateCheckIn rewrites the editable fields of a check-in. Date and time are immutable.
func (s *Store) UpdateCheckIn(ctx context.Context, c *domain.CheckIn) error {
	c.Touch()
	tags, actions, ratings, err := encodeCollections(c)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE check_ins
		SET mood = ?, energy = ?, stress = ?, note = ?, tags = ?, actions = ?, ratings = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`,
		c.Mood, c.Energy, c.Stress, c.Note, tags, actions, ratings, formatTime(c.UpdatedAt),
		c.UserID, c.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// DeleteCheckIn removes a check-in. Deleting a missing check-in is not an error.
func (s *Store) DeleteCheckIn(ctx context.Context, userID, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM check_ins WHERE user_id = ? AND id = ?`, userID, id)
	return err
}

// ListCheckIns returns the user's full history, newest first.
func (s *Store) ListCheckIns(ctx context.Context, userID string) ([]*domain.CheckIn, error) {
	return s.queryCheckIns(ctx, `SELECT `+checkInColumns+` FROM check_ins WHERE user_id = ?`, userID)
}

// ListCheckInsByDate returns one day's check-ins, newest first.
func (s *Store) ListCheckInsByDate(ctx context.Context, userID, date string) ([]*domain.CheckIn, error) {
	return s.queryCheckIns(ctx,
		`SELECT `+checkInColumns+` FROM check_ins WHERE user_id = ? AND date = ?`, userID, date)
}

// queryCheckIns sorts in Go so untimed rows land last regardless of collation.
func (s *Store) queryCheckIns(ctx context.Context, query string, args ...any) ([]*domain.CheckIn, error) {
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY created_at ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*domain.CheckIn{}
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.SortStableFunc(entries, domain.CompareNewestFirst)
	return entries, nil
}
