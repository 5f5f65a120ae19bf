// Package main provides a tool to seed a user's store with sample check-ins.
//
// It creates the default tags and actions for the user and then logs one to
// four check-ins per day over the past few days, with random scales and
// action ratings, so insights have something to aggregate.
//
// Usage:
//
//	DATA_PATH=~/.moodtrail/data go run ./cmd/seed --user usr-abc123
//	DATA_PATH=~/.moodtrail/data go run ./cmd/seed --user usr-abc123 --days 30
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/moodtrail/moodtrail/internal/domain"
	"github.com/moodtrail/moodtrail/internal/logger"
	"github.com/moodtrail/moodtrail/internal/service"
	"github.com/moodtrail/moodtrail/internal/store"
	"github.com/moodtrail/moodtrail/internal/taxonomy"
	"github.com/moodtrail/moodtrail/internal/validation"
)

var (
	userID = flag.String("user", "", "User ID to seed (required)")
	days   = flag.Int("days", 14, "Number of past days to fill")
)

func main() {
	flag.Parse()
	if *userID == "" {
		log.Fatal("--user is required")
	}

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/.moodtrail/data")
	}
	dbPath := filepath.Join(dataPath, "badger")

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	quiet := logger.Discard()
	tags := service.NewTagService(s, quiet)
	actions := service.NewActionService(s, quiet)
	checkIns := service.NewCheckInService(s, validation.New(), quiet)

	var tagNames []string
	for _, item := range taxonomy.DefaultTags() {
		tag, err := tags.Create(ctx, *userID, item.Name)
		if err != nil {
			log.Fatalf("Failed to create tag %q: %v", item.Name, err)
		}
		tagNames = append(tagNames, tag.Name)
	}

	var available []*domain.Action
	for _, item := range taxonomy.DefaultActions() {
		action, err := actions.Create(ctx, *userID, item.Name, item.Category)
		if err != nil {
			log.Fatalf("Failed to create action %q: %v", item.Name, err)
		}
		available = append(available, action)
	}
	fmt.Printf("Ensured %d tags and %d actions\n", len(tagNames), len(available))

	now := time.Now()
	created := 0
	for day := *days - 1; day >= 0; day-- {
		// Skip roughly one day in five, but always fill today and yesterday.
		if day > 1 && rand.Float32() > 0.8 {
			continue
		}

		perDay := 1 + rand.IntN(domain.DailyLimit)
		for n := range perDay {
			hour := 7 + n*4 + rand.IntN(3)
			at := time.Date(now.Year(), now.Month(), now.Day()-day, hour, rand.IntN(60), 0, 0, time.Local)

			fields := randomFields(at, tagNames, available)
			if _, err := checkIns.Save(ctx, *userID, fields, ""); err != nil {
				log.Printf("Failed to create check-in for %s: %v", fields.Date, err)
				continue
			}
			created++
		}
	}

	fmt.Printf("Created %d check-ins over %d days\n", created, *days)
	fmt.Println("Seeding complete!")
}

func randomFields(at time.Time, tagNames []string, available []*domain.Action) domain.CheckInFields {
	scale := func() int { return domain.MinScale + rand.IntN(domain.MaxScale) }

	fields := domain.CheckInFields{
		Date:    domain.DateKey(at),
		Time:    &at,
		Mood:    scale(),
		Energy:  scale(),
		Stress:  scale(),
		Ratings: map[string]int{},
	}

	for _, name := range tagNames {
		if rand.Float32() < 0.3 {
			fields.Tags = append(fields.Tags, name)
		}
	}

	for _, a := range available {
		if rand.Float32() >= 0.4 {
			continue
		}
		entry := domain.ActionEntry{ActionID: a.ID, ActionName: a.Name}
		// Leave about one action in four unrated.
		if rand.Float32() < 0.75 {
			r := scale()
			entry.Rating = &r
			fields.Ratings[a.ID] = r
		}
		fields.Actions = append(fields.Actions, entry)
	}
	return fields
}
