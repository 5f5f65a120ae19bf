package checkin

import (
	"maps"
	"slices"
	"time"

	"github.com/moodtrail/moodtrail/internal/domain"
)

// Draft is the editable form of a check-in.
type Draft struct {
	// ID is empty until the check-in is first saved.
	ID string
	// Time is the creation time of a saved check-in, for display only.
	Time    *time.Time
	Mood    int
	Energy  int
	Stress  int
	Note    string
	Tags    []string
	Actions []domain.ActionEntry
	Ratings map[string]int
}

// NewDraft returns an empty draft with every scale at its midpoint.
func NewDraft() Draft {
	return Draft{
		Mood:    domain.DefaultRating,
		Energy:  domain.DefaultRating,
		Stress:  domain.DefaultRating,
		Ratings: map[string]int{},
	}
}

// Hydrate builds a draft for editing a saved check-in. Ratings come from the
// embedded entries overlaid by the ratings map.
func Hydrate(entry *domain.CheckIn) Draft {
	if entry == nil {
		return NewDraft()
	}
	d := Draft{
		ID:      entry.ID,
		Time:    entry.Time,
		Mood:    orDefault(entry.Mood),
		Energy:  orDefault(entry.Energy),
		Stress:  orDefault(entry.Stress),
		Note:    entry.Note,
		Tags:    slices.Clone(entry.Tags),
		Actions: make([]domain.ActionEntry, 0, len(entry.Actions)),
		Ratings: entry.MergedRatings(),
	}
	for _, a := range entry.Actions {
		a.Rating = nil
		d.Actions = append(d.Actions, a)
	}
	return d
}

// Fields converts the draft into the fields sent to the store. Only ratings for
// actions on the draft are kept, and each entry carries its rating.
func (d Draft) Fields(now time.Time) domain.CheckInFields {
	ratings := make(map[string]int, len(d.Ratings))
	actions := make([]domain.ActionEntry, 0, len(d.Actions))
	for _, a := range d.Actions {
		entry := domain.ActionEntry{ActionID: a.ActionID, ActionName: a.ActionName}
		if r, ok := d.Ratings[a.ActionID]; ok && r >= domain.MinScale && r <= domain.MaxScale {
			ratings[a.ActionID] = r
			entry.Rating = &r
		}
		actions = append(actions, entry)
	}

	ts := now
	return domain.CheckInFields{
		Date:    domain.DateKey(now),
		Time:    &ts,
		Mood:    d.Mood,
		Energy:  d.Energy,
		Stress:  d.Stress,
		Note:    d.Note,
		Tags:    slices.Clone(d.Tags),
		Actions: actions,
		Ratings: ratings,
	}
}

// ToggleAction adds or removes an action and reports whether it is now on the draft.
func (d *Draft) ToggleAction(item domain.Item) bool {
	if i := slices.IndexFunc(d.Actions, func(a domain.ActionEntry) bool { return a.ActionID == item.ID }); i >= 0 {
		d.Actions = slices.Delete(d.Actions, i, i+1)
		delete(d.Ratings, item.ID)
		return false
	}
	d.Actions = append(d.Actions, domain.ActionEntry{ActionID: item.ID, ActionName: item.Name})
	return true
}

// Rate sets the draft rating for an action.
func (d *Draft) Rate(actionID string, rating int) {
	if d.Ratings == nil {
		d.Ratings = map[string]int{}
	}
	d.Ratings[actionID] = rating
}

// Clone returns a deep copy of the draft.
func (d Draft) Clone() Draft {
	d.Tags = slices.Clone(d.Tags)
	d.Actions = slices.Clone(d.Actions)
	d.Ratings = maps.Clone(d.Ratings)
	return d
}

func orDefault(v int) int {
	if v == 0 {
		return domain.DefaultRating
	}
	return v
}
