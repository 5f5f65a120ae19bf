package insight

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/moodtrail/moodtrail/internal/domain"
)

// BadgeUnrated is shown in place of a score for actions nobody rated yet.
const BadgeUnrated = "N/A"

// hiddenNotePrefix marks server notes the client replaces with its own suggestion.
const hiddenNotePrefix = "If you'd like"

// Recommendation is one ranked action as shown to the user.
type Recommendation struct {
	Rank      int
	ActionID  string
	Name      string
	Average   float64
	TimesUsed int
	HasRating bool
	// Score is the bar width in percent, 0 when the action is unrated.
	Score float64
	Badge string
	Copy  string
}

// TodayAction is an action logged in today's check-in with its ratings.
type TodayAction struct {
	ID      string
	Name    string
	Rating  *int
	Average float64
}

// Display renders today's rating, else the overall average, else the unrated badge.
func (a TodayAction) Display() string {
	switch {
	case a.Rating != nil:
		return fmt.Sprintf("%.1f/5", float64(*a.Rating))
	case a.Average > 0:
		return fmt.Sprintf("%.1f/5 (avg)", a.Average)
	default:
		return BadgeUnrated
	}
}

// Rank orders aggregates by descending average. Ties keep server order.
func Rank(top []domain.InsightAggregate) []Recommendation {
	sorted := slices.Clone(top)
	slices.SortStableFunc(sorted, func(a, b domain.InsightAggregate) int {
		return cmp.Compare(b.AverageRating, a.AverageRating)
	})

	recs := make([]Recommendation, 0, len(sorted))
	for i, agg := range sorted {
		name := agg.Name
		if name == "" {
			name = "Action"
		}
		score, badge := Score(agg.AverageRating, agg.RatingCount)
		recs = append(recs, Recommendation{
			Rank:      i + 1,
			ActionID:  agg.ActionID,
			Name:      name,
			Average:   agg.AverageRating,
			TimesUsed: agg.TimesUsed,
			HasRating: agg.RatingCount > 0,
			Score:     score,
			Badge:     badge,
			Copy:      Copy(name, agg.AverageRating, agg.TimesUsed),
		})
	}
	return recs
}

// Score returns the bar width for an average on the 1-5 scale and its badge.
// Unrated actions get width 0 and the N/A badge whatever their average says.
func Score(average float64, ratingCount int) (float64, string) {
	if ratingCount <= 0 {
		return 0, BadgeUnrated
	}
	width := max(0, min(100, average/domain.MaxScale*100))
	return width, fmt.Sprintf("%.1f/5", average)
}

// Copy returns the recommendation sentence for an action's average.
func Copy(name string, average float64, timesUsed int) string {
	switch {
	case average >= 4.5:
		return fmt.Sprintf("%s is a standout (%.1f/5). Keep it as a first choice when you need support.", name, average)
	case average >= 4:
		return fmt.Sprintf("%s is working well (%.1f/5). Try scheduling it more often (%d uses so far).", name, average, timesUsed)
	case average >= 3:
		return fmt.Sprintf("%s is moderately helpful (%.1f/5). Keep refining how you use it.", name, average)
	default:
		return fmt.Sprintf("%s is rated %.1f/5. Consider pairing it with another action or adjusting your approach.", name, average)
	}
}

// Suggestion nudges toward the top-ranked action, or "" when there is none.
func Suggestion(recs []Recommendation) string {
	if len(recs) == 0 {
		return ""
	}
	top := recs[0]
	return fmt.Sprintf("If you'd like, you can try more %s (%.1f/5).", top.Name, top.Average)
}

// Notes drops server notes the client renders itself.
func Notes(notes []string) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		if !strings.HasPrefix(n, hiddenNotePrefix) {
			out = append(out, n)
		}
	}
	return out
}

// TodayActions lists the actions on today's check-in. Each carries the
// embedded rating, else the map rating, plus the overall average from top.
func TodayActions(today *domain.CheckIn, top []domain.InsightAggregate) []TodayAction {
	if today == nil {
		return []TodayAction{}
	}
	averages := make(map[string]float64, len(top))
	for _, agg := range top {
		averages[agg.ActionID] = agg.AverageRating
	}

	out := make([]TodayAction, 0, len(today.Actions))
	for _, a := range today.Actions {
		name := a.ActionName
		if name == "" {
			name = "Action"
		}
		ta := TodayAction{ID: a.ActionID, Name: name, Average: averages[a.ActionID]}
		if r, ok := today.ResolvedRating(a.ActionID); ok {
			ta.Rating = &r
		}
		out = append(out, ta)
	}
	return out
}

// hasUnresolved reports whether any action on the check-in lacks a rating
// in both the embedded entry and the ratings map.
func hasUnresolved(today *domain.CheckIn) bool {
	if today == nil {
		return false
	}
	return slices.ContainsFunc(today.Actions, func(a domain.ActionEntry) bool {
		_, ok := today.ResolvedRating(a.ActionID)
		return !ok
	})
}
