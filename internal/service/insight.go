package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/moodtrail/moodtrail/internal/domain"
	"github.com/moodtrail/moodtrail/internal/store"
)

// DefaultTopActions is the number of aggregates returned by InsightService.Get.
const DefaultTopActions = 10

// InsightService computes per-action aggregates over a user's full history.
type InsightService struct {
	store  store.Repository
	logger *slog.Logger
	limit  int
}

// NewInsightService creates a new insight service.
func NewInsightService(store store.Repository, logger *slog.Logger) *InsightService {
	return &InsightService{store: store, logger: logger, limit: DefaultTopActions}
}

type actionTally struct {
	agg domain.InsightAggregate
	sum int
}

// Get returns the user's top actions, ordered by average rating then usage,
// plus advisory notes.
func (s *InsightService) Get(ctx context.Context, userID string) (*domain.Insights, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	history, err := s.store.ListCheckIns(ctx, userID)
	if err != nil {
		return nil, err
	}
	actions, err := s.store.ListActions(ctx, userID)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(actions))
	for _, a := range actions {
		names[a.ID] = a.Name
	}

	tallies := make(map[string]*actionTally)
	moodSum := 0
	for _, entry := range history {
		moodSum += entry.Mood
		ratings := entry.MergedRatings()
		seen := make(map[string]bool, len(entry.Actions))
		for _, used := range entry.Actions {
			if used.ActionID == "" || seen[used.ActionID] {
				continue
			}
			seen[used.ActionID] = true

			t, ok := tallies[used.ActionID]
			if !ok {
				name := names[used.ActionID]
				if name == "" {
					name = used.ActionName
				}
				t = &actionTally{agg: domain.InsightAggregate{ActionID: used.ActionID, Name: name}}
				tallies[used.ActionID] = t
			}
			t.agg.TimesUsed++
			if r, ok := ratings[used.ActionID]; ok {
				t.sum += r
				t.agg.RatingCount++
			}
		}
	}

	top := make([]domain.InsightAggregate, 0, len(tallies))
	for _, t := range tallies {
		if t.agg.RatingCount > 0 {
			t.agg.AverageRating = float64(t.sum) / float64(t.agg.RatingCount)
		}
		top = append(top, t.agg)
	}
	slices.SortFunc(top, func(a, b domain.InsightAggregate) int {
		return cmp.Or(
			cmp.Compare(b.AverageRating, a.AverageRating),
			cmp.Compare(b.TimesUsed, a.TimesUsed),
			cmp.Compare(a.Name, b.Name),
		)
	})
	if s.limit > 0 && len(top) > s.limit {
		top = top[:s.limit]
	}

	result := &domain.Insights{TopActions: top, Insights: buildNotes(history, top, moodSum)}

	s.logger.Debug("insights computed",
		"user_id", userID,
		"checkins", len(history),
		"actions", len(top),
	)
	return result, nil
}

func buildNotes(history []*domain.CheckIn, top []domain.InsightAggregate, moodSum int) []string {
	if len(history) == 0 {
		return []string{"Log a few check-ins to start seeing which actions help you most."}
	}

	notes := []string{
		fmt.Sprintf("Your average mood across %d check-ins is %.1f/5.", len(history), float64(moodSum)/float64(len(history))),
	}

	if len(top) > 0 {
		mostUsed := slices.MaxFunc(top, func(a, b domain.InsightAggregate) int {
			return cmp.Or(cmp.Compare(a.TimesUsed, b.TimesUsed), cmp.Compare(b.Name, a.Name))
		})
		notes = append(notes, fmt.Sprintf("You reach for %s most often (%d times).", mostUsed.Name, mostUsed.TimesUsed))

		if top[0].RatingCount > 0 {
			notes = append(notes, fmt.Sprintf("%s has your highest average rating (%.1f/5).", top[0].Name, top[0].AverageRating))
		}
	}

	unrated := 0
	for _, a := range top {
		if a.RatingCount == 0 {
			unrated++
		}
	}
	if unrated > 0 {
		notes = append(notes, fmt.Sprintf("If you'd like sharper recommendations, rate the %d action(s) you haven't rated yet.", unrated))
	} else {
		notes = append(notes, "If you'd like to explore, try pairing your top action with a new one this week.")
	}
	return notes
}
