// Package main prints a read-only summary of a MoodTrail badger database.
//
// Usage:
//
//	DATA_PATH=~/.moodtrail/data go run ./cmd/dbinspect
//	DATA_PATH=~/.moodtrail/data go run ./cmd/dbinspect --user usr-abc123
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/moodtrail/moodtrail/internal/domain"
)

var userFilter = flag.String("user", "", "Only show records for this user ID")

// prefixes maps record key prefixes to display names.
var prefixes = []struct {
	prefix string
	name   string
}{
	{"tag:", "tags"},
	{"act:", "actions"},
	{"chk:", "check-ins"},
}

type userCounts struct {
	records  map[string]int
	inactive int
	unrated  int
	latest   string
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/.moodtrail/data")
	}
	dbPath := filepath.Join(dataPath, "badger")

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	users := map[string]*userCounts{}
	counts := func(userID string) *userCounts {
		c, ok := users[userID]
		if !ok {
			c = &userCounts{records: map[string]int{}}
			users[userID] = c
		}
		return c
	}

	err = db.View(func(txn *badger.Txn) error {
		for _, p := range prefixes {
			it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(p.prefix), PrefetchValues: true, PrefetchSize: 100})
			for it.Rewind(); it.Valid(); it.Next() {
				item := it.Item()
				rest := strings.TrimPrefix(string(item.Key()), p.prefix)
				userID, _, ok := strings.Cut(rest, ":")
				if !ok || (*userFilter != "" && userID != *userFilter) {
					continue
				}
				c := counts(userID)
				c.records[p.name]++

				if err := item.Value(func(val []byte) error {
					return inspectValue(p.prefix, val, c)
				}); err != nil {
					log.Printf("Error reading %s: %v", item.Key(), err)
				}
			}
			it.Close()
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	ids := make([]string, 0, len(users))
	for userID := range users {
		ids = append(ids, userID)
	}
	sort.Strings(ids)

	for _, userID := range ids {
		c := users[userID]
		fmt.Printf("User: %s\n", userID)
		for _, p := range prefixes {
			fmt.Printf("  %-10s %d\n", p.name+":", c.records[p.name])
		}
		fmt.Printf("  inactive tags/actions: %d\n", c.inactive)
		fmt.Printf("  unrated action entries: %d\n", c.unrated)
		if c.latest != "" {
			fmt.Printf("  latest check-in date: %s\n", c.latest)
		}
		fmt.Println()
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Users: %d\n", len(users))
}

func inspectValue(prefix string, val []byte, c *userCounts) error {
	switch prefix {
	case "tag:", "act:":
		var s struct {
			domain.Syncable
		}
		if err := json.Unmarshal(val, &s); err != nil {
			return err
		}
		if s.IsDeleted() {
			c.inactive++
		}
	case "chk:":
		var entry domain.CheckIn
		if err := json.Unmarshal(val, &entry); err != nil {
			return err
		}
		for _, a := range entry.Actions {
			if _, ok := entry.ResolvedRating(a.ActionID); !ok {
				c.unrated++
			}
		}
		if entry.Date > c.latest {
			c.latest = entry.Date
		}
	}
	return nil
}
