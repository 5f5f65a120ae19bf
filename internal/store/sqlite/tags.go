package sqlite

import (
	"context"
	"database/sql"

	"github.com/moodtrail/moodtrail/internal/domain"
	"github.com/moodtrail/moodtrail/internal/normalize"
)

// tagColumns must match the scan order in scanTag.
const tagColumns = `id, user_id, name, created_at, updated_at, deleted_at`

func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var (
		t                    domain.Tag
		createdAt, updatedAt string
		deletedAt            sql.NullString
	)
	if err := scanner.Scan(&t.ID, &t.UserID, &t.Name, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if t.DeletedAt, err = parseNullableTime(deletedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTag inserts a new tag.
// Returns store.ErrAlreadyExists when the user already has the name.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, user_id, name, name_key, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Name, normalize.Key(t.Name),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt), nullTimeString(t.DeletedAt),
	)
	return mapWriteErr(err)
}

// GetTag retrieves a tag by ID.
func (s *Store) GetTag(ctx context.Context, userID, id string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? AND id = ?`, userID, id)
	t, err := scanTag(row)
	return t, mapReadErr(err)
}

// GetTagByName retrieves a tag by case-folded name.
func (s *Store) GetTagByName(ctx context.Context, userID, name string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? AND name_key = ?`, userID, normalize.Key(name))
	t, err := scanTag(row)
	return t, mapReadErr(err)
}

// UpdateTag rewrites a tag's name and deletion state.
func (s *Store) UpdateTag(ctx context.Context, t *domain.Tag) error {
	t.Touch()
	res, err := s.db.ExecContext(ctx, `
		UPDATE tags SET name = ?, name_key = ?, updated_at = ?, deleted_at = ?
		WHERE user_id = ? AND id = ?`,
		t.Name, normalize.Key(t.Name), formatTime(t.UpdatedAt), nullTimeString(t.DeletedAt),
		t.UserID, t.ID,
	)
	if err != nil {
		return mapWriteErr(err)
	}
	return expectOne(res)
}

// ListTags returns the user's tags ordered by creation time.
func (s *Store) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
