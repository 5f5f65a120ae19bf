package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/moodtrail/moodtrail/internal/domain"
	"github.com/moodtrail/moodtrail/internal/normalize"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	tags     *Entity[domain.Tag]
	actions  *Entity[domain.Action]
	checkIns *Entity[domain.CheckIn]
}

// New opens (or creates) a Badger database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{db: db, logger: logger}

	s.tags = NewEntity[domain.Tag](s, "tag:").
		WithUniqueIndex("name", func(t *domain.Tag) []string {
			return []string{normalize.Key(t.Name)}
		}, normalize.Key)
	s.actions = NewEntity[domain.Action](s, "act:").
		WithUniqueIndex("name", func(a *domain.Action) []string {
			return []string{normalize.Key(a.Name)}
		}, normalize.Key)
	s.checkIns = NewEntity[domain.CheckIn](s, "chk:").
		WithIndex("date", func(c *domain.CheckIn) []string {
			return []string{c.Date}
		})

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}
	return s, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Ping runs an empty read transaction.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return s.db.View(func(_ *badger.Txn) error { return nil })
}
