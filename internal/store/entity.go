package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/dgraph-io/badger/v4"
)

// Entity provides generic CRUD operations for a per-user domain type.
//
// Key layout, where scope is the owning user ID:
//
//	{prefix}{scope}:{id}                       -> entity JSON
//	idx:{prefix}{index}:{scope}:{value}        -> id           (unique index)
//	idx:{prefix}{index}:{scope}:{value}:{id}   -> id           (multi-value index)
type Entity[T any] struct {
	store   *Store
	prefix  string
	indexes []Index[T]
}

// Index defines a secondary index on an entity.
type Index[T any] struct {
	name            string
	unique          bool
	keyGen          func(*T) []string
	lookupTransform func(string) string
}

// NewEntity creates a new Entity instance for type T.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{store: s, prefix: prefix}
}

// WithIndex adds a non-unique secondary index, queried with ListByIndex.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{name: name, keyGen: keyGen})
	return e
}

// WithUniqueIndex adds a unique secondary index, queried with GetByIndex.
// lookupTransform is applied to lookup values so callers can pass raw input.
func (e *Entity[T]) WithUniqueIndex(name string, keyGen func(*T) []string, lookupTransform func(string) string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{
		name:            name,
		unique:          true,
		keyGen:          keyGen,
		lookupTransform: lookupTransform,
	})
	return e
}

func (e *Entity[T]) key(scope, id string) []byte {
	return []byte(e.prefix + scope + ":" + id)
}

func (e *Entity[T]) scopePrefix(scope string) []byte {
	return []byte(e.prefix + scope + ":")
}

func (e *Entity[T]) indexKey(idx Index[T], scope, value, id string) []byte {
	k := "idx:" + e.prefix + idx.name + ":" + scope + ":" + value
	if !idx.unique {
		k += ":" + id
	}
	return []byte(k)
}

// Create stores a new entity under scope/id.
// Returns ErrAlreadyExists if the id or any unique index value is taken.
func (e *Entity[T]) Create(ctx context.Context, scope, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(e.key(scope, id))
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}

		if err := e.checkConflicts(txn, scope, entity, nil); err != nil {
			return err
		}
		if err := txn.Set(e.key(scope, id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		return e.writeIndexes(txn, scope, id, entity)
	})
}

// Get retrieves an entity by ID.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Get(ctx context.Context, scope, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity *T
	err := e.store.db.View(func(txn *badger.Txn) error {
		var err error
		entity, err = e.read(txn, scope, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// GetByIndex retrieves an entity through a unique index.
func (e *Entity[T]) GetByIndex(ctx context.Context, scope, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx, ok := e.index(indexName)
	if !ok || !idx.unique {
		return nil, fmt.Errorf("unknown unique index %q", indexName)
	}
	if idx.lookupTransform != nil {
		value = idx.lookupTransform(value)
	}

	var entity *T
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(e.indexKey(idx, scope, value, ""))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		entity, err = e.read(txn, scope, string(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// ListByIndex returns every entity whose non-unique index matches value.
func (e *Entity[T]) ListByIndex(ctx context.Context, scope, indexName, value string) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		idx, ok := e.index(indexName)
		if !ok || idx.unique {
			yield(nil, fmt.Errorf("unknown multi-value index %q", indexName))
			return
		}

		prefix := e.indexKey(idx, scope, value, "")
		_ = e.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return err
				}
				id, err := it.Item().ValueCopy(nil)
				if err != nil {
					yield(nil, err)
					return err
				}
				entity, err := e.read(txn, scope, string(id))
				if errors.Is(err, ErrNotFound) {
					continue
				}
				if !yield(entity, err) || err != nil {
					return nil
				}
			}
			return nil
		})
	}
}

// Update replaces an existing entity and moves its index entries.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Update(ctx context.Context, scope, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		old, err := e.read(txn, scope, id)
		if err != nil {
			return err
		}
		if err := e.checkConflicts(txn, scope, entity, old); err != nil {
			return err
		}
		if err := e.deleteIndexes(txn, scope, id, old); err != nil {
			return err
		}
		if err := txn.Set(e.key(scope, id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		return e.writeIndexes(txn, scope, id, entity)
	})
}

// Delete removes an entity and its index entries.
// This operation is idempotent - it does not return an error if the entity does not exist.
func (e *Entity[T]) Delete(ctx context.Context, scope, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		old, err := e.read(txn, scope, id)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := e.deleteIndexes(txn, scope, id, old); err != nil {
			return err
		}
		if err := txn.Delete(e.key(scope, id)); err != nil {
			return fmt.Errorf("failed to delete key: %w", err)
		}
		return nil
	})
}

// List returns an iterator over every entity in scope, in key order.
func (e *Entity[T]) List(ctx context.Context, scope string) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		_ = e.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = e.scopePrefix(scope)
			opts.PrefetchValues = true

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return err
				}

				var entity T
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &entity)
				})
				if err != nil {
					yield(nil, err)
					return err
				}
				if !yield(&entity, nil) {
					return nil // Consumer stopped early
				}
			}
			return nil
		})
	}
}

// Collect drains an iterator into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[*T, error]) ([]*T, error) {
	var out []*T
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *Entity[T]) index(name string) (Index[T], bool) {
	for _, idx := range e.indexes {
		if idx.name == name {
			return idx, true
		}
	}
	return Index[T]{}, false
}

func (e *Entity[T]) read(txn *badger.Txn, scope, id string) (*T, error) {
	item, err := txn.Get(e.key(scope, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	var entity T
	err = item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, &entity); err != nil {
			return fmt.Errorf("failed to unmarshal entity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// checkConflicts rejects unique index values held by another entity.
// Values the old version of the entity already owned are allowed.
func (e *Entity[T]) checkConflicts(txn *badger.Txn, scope string, entity, old *T) error {
	for _, idx := range e.indexes {
		if !idx.unique {
			continue
		}
		owned := make(map[string]bool)
		if old != nil {
			for _, v := range idx.keyGen(old) {
				owned[v] = true
			}
		}
		for _, v := range idx.keyGen(entity) {
			if owned[v] {
				continue
			}
			_, err := txn.Get(e.indexKey(idx, scope, v, ""))
			if err == nil {
				return fmt.Errorf("index %s conflict on key %s: %w", idx.name, v, ErrAlreadyExists)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check index key: %w", err)
			}
		}
	}
	return nil
}

func (e *Entity[T]) writeIndexes(txn *badger.Txn, scope, id string, entity *T) error {
	for _, idx := range e.indexes {
		for _, v := range idx.keyGen(entity) {
			if err := txn.Set(e.indexKey(idx, scope, v, id), []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}
	}
	return nil
}

func (e *Entity[T]) deleteIndexes(txn *badger.Txn, scope, id string, entity *T) error {
	for _, idx := range e.indexes {
		for _, v := range idx.keyGen(entity) {
			if err := txn.Delete(e.indexKey(idx, scope, v, id)); err != nil {
				return fmt.Errorf("failed to delete index key: %w", err)
			}
		}
	}
	return nil
}
