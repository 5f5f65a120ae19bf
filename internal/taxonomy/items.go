// Package taxonomy keeps a local, optimistically mutated copy of the user's
// tags or actions in step with the remote store.
//
// Local changes apply immediately and are persisted in the background. Every
// background call is tracked in a Queue; failures never reach the caller but
// remain listed so they can be retried or rolled back.
package taxonomy

import (
	"github.com/moodtrail/moodtrail/internal/domain"
)

// Normalize builds a temporary item whose ID is its name.
func Normalize(name string) domain.Item {
	return domain.Item{ID: name, Name: name}
}

// NormalizeItem fills a missing ID with the name.
func NormalizeItem(item domain.Item) domain.Item {
	if item.ID == "" {
		item.ID = item.Name
	}
	return item
}

// Merge folds incoming into existing keyed by name. A repeated name takes the
// later item's ID (and category, when set) but keeps the position where the
// name was first seen. Neither input is modified.
func Merge(existing, incoming []domain.Item) []domain.Item {
	out := make([]domain.Item, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))

	add := func(item domain.Item) {
		item = NormalizeItem(item)
		if i, ok := index[item.Name]; ok {
			out[i].ID = item.ID
			if item.Category != "" {
				out[i].Category = item.Category
			}
			return
		}
		index[item.Name] = len(out)
		out = append(out, item)
	}

	for _, item := range existing {
		add(item)
	}
	for _, item := range incoming {
		add(item)
	}
	return out
}

// DefaultTags are shown when the remote tag list cannot be read.
func DefaultTags() []domain.Item {
	return normalizeAll("work", "family", "sleep", "exercise", "social", "health")
}

// DefaultActions are shown when the remote action list cannot be read.
func DefaultActions() []domain.Item {
	return normalizeAll("walk", "breathing", "journaling", "music", "call a friend", "stretching")
}

func normalizeAll(names ...string) []domain.Item {
	items := make([]domain.Item, len(names))
	for i, n := range names {
		items[i] = Normalize(n)
	}
	return items
}
