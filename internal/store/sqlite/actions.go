package sqlite

import (
	"context"
	"database/sql"

	"github.com/moodtrail/moodtrail/internal/domain"
	"github.com/moodtrail/moodtrail/internal/normalize"
)

const actionColumns = `id, user_id, name, category, created_at, updated_at, deleted_at`

func scanAction(scanner interface{ Scan(dest ...any) error }) (*domain.Action, error) {
	var (
		a                    domain.Action
		category, deletedAt  sql.NullString
		createdAt, updatedAt string
	)
	if err := scanner.Scan(&a.ID, &a.UserID, &a.Name, &category, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}
	a.Category = category.String

	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if a.DeletedAt, err = parseNullableTime(deletedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAction inserts a new action.
func (s *Store) CreateAction(ctx context.Context, a *domain.Action) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO actions (id, user_id, name, name_key, category, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, normalize.Key(a.Name), nullString(a.Category),
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt), nullTimeString(a.DeletedAt),
	)
	return mapWriteErr(err)
}

// GetAction retrieves an action by ID.
func (s *Store) GetAction(ctx context.Context, userID, id string) (*domain.Action, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+actionColumns+` FROM actions WHERE user_id = ? AND id = ?`, userID, id)
	a, err := scanAction(row)
	return a, mapReadErr(err)
}

// GetActionByName retrieves an action by case-folded name.
func (s *Store) GetActionByName(ctx context.Context, userID, name string) (*domain.Action, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+actionColumns+` FROM actions WHERE user_id = ? AND name_key = ?`, userID, normalize.Key(name))
	a, err := scanAction(row)
	return a, mapReadErr(err)
}

// UpdateAction rewrites an action's name, category, and deletion state.
func (s *Store) UpdateAction(ctx context.Context, a *domain.Action) error {
	a.Touch()
	res, err := s.db.ExecContext(ctx, `
		UPDATE actions SET name = ?, name_key = ?, category = ?, updated_at = ?, deleted_at = ?
		WHERE user_id = ? AND id = ?`,
		a.Name, normalize.Key(a.Name), nullString(a.Category), formatTime(a.UpdatedAt), nullTimeString(a.DeletedAt),
		a.UserID, a.ID,
	)
	if err != nil {
		return mapWriteErr(err)
	}
	return expectOne(res)
}

// ListActions returns the user's actions ordered by creation time.
func (s *Store) ListActions(ctx context.Context, userID string) ([]*domain.Action, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+actionColumns+` FROM actions WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actions := []*domain.Action{}
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
