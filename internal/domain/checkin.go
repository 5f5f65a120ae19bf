package domain

import (
	"slices"
	"time"
)

// Check-in constraints.
const (
	// DateLayout is the calendar-day key format for CheckIn.Date.
	DateLayout = "2006-01-02"

	MinScale = 1
	MaxScale = 5

	// DefaultRating is applied to actions the user never rated.
	DefaultRating = 3

	// DailyLimit caps the check-ins a user may start on one calendar day.
	DailyLimit = 4
)

// ActionEntry records a coping action used during a check-in.
type ActionEntry struct {
	ActionID   string `json:"action_id"`
	ActionName string `json:"action_name"`
	Rating     *int   `json:"rating,omitempty"`
}

// CheckIn is one self-report. Ratings are stored twice: on each embedded
// ActionEntry and in the Ratings map keyed by action ID. Writers keep both in step.
type CheckIn struct {
	Syncable
	UserID  string         `json:"user_id"`
	Date    string         `json:"date"`
	Time    *time.Time     `json:"time,omitempty"`
	Mood    int            `json:"mood"`
	Energy  int            `json:"energy"`
	Stress  int            `json:"stress"`
	Note    string         `json:"note,omitempty"`
	Tags    []string       `json:"tags"`
	Actions []ActionEntry  `json:"actions"`
	Ratings map[string]int `json:"ratings"`
}

// CheckInFields are the user-editable fields sent when saving a check-in.
type CheckInFields struct {
	Date    string         `json:"date" validate:"required,datetime=2006-01-02"`
	Time    *time.Time     `json:"time,omitempty"`
	Mood    int            `json:"mood" validate:"min=1,max=5"`
	Energy  int            `json:"energy" validate:"min=1,max=5"`
	Stress  int            `json:"stress" validate:"min=1,max=5"`
	Note    string         `json:"note,omitempty" validate:"max=2000"`
	Tags    []string       `json:"tags,omitempty" validate:"dive,required,max=64"`
	Actions []ActionEntry  `json:"actions,omitempty" validate:"dive"`
	Ratings map[string]int `json:"ratings,omitempty" validate:"dive,min=1,max=5"`
}

// Apply copies editable fields onto the check-in. Date and Time are left alone:
// they are fixed when the check-in is first saved.
func (c *CheckIn) Apply(f CheckInFields) {
	c.Mood = f.Mood
	c.Energy = f.Energy
	c.Stress = f.Stress
	c.Note = f.Note
	c.Tags = slices.Clone(f.Tags)
	c.Actions = slices.Clone(f.Actions)
	c.Ratings = make(map[string]int, len(f.Ratings))
	for k, v := range f.Ratings {
		c.Ratings[k] = v
	}
	c.syncRatings()
}

// HasAction reports whether the check-in logged the given action.
func (c *CheckIn) HasAction(actionID string) bool {
	return slices.ContainsFunc(c.Actions, func(a ActionEntry) bool {
		return a.ActionID == actionID
	})
}

// SetRating writes rating into both the embedded entry and the ratings map.
// Returns false if the action is not part of the check-in.
func (c *CheckIn) SetRating(actionID string, rating int) bool {
	found := false
	for i := range c.Actions {
		if c.Actions[i].ActionID == actionID {
			r := rating
			c.Actions[i].Rating = &r
			found = true
		}
	}
	if !found {
		return false
	}
	if c.Ratings == nil {
		c.Ratings = make(map[string]int)
	}
	c.Ratings[actionID] = rating
	return true
}

// ResolvedRating returns the rating for an action, preferring the embedded entry
// and falling back to the ratings map.
func (c *CheckIn) ResolvedRating(actionID string) (int, bool) {
	for _, a := range c.Actions {
		if a.ActionID == actionID && a.Rating != nil {
			return *a.Rating, true
		}
	}
	if r, ok := c.Ratings[actionID]; ok {
		return r, true
	}
	return 0, false
}

// MergedRatings returns every known rating with map values overriding embedded ones.
func (c *CheckIn) MergedRatings() map[string]int {
	out := make(map[string]int, len(c.Actions))
	for _, a := range c.Actions {
		if a.Rating != nil {
			out[a.ActionID] = *a.Rating
		}
	}
	for k, v := range c.Ratings {
		out[k] = v
	}
	return out
}

// syncRatings fills embedded ratings from the map and the map from embedded ratings,
// with the map taking precedence when both are present.
func (c *CheckIn) syncRatings() {
	for id, r := range c.MergedRatings() {
		if !c.HasAction(id) {
			continue
		}
		c.SetRating(id, r)
	}
}

// CompareNewestFirst orders check-ins by Time descending with untimed entries last.
// Use it with slices.SortStableFunc so equal times keep their input order.
func CompareNewestFirst(a, b *CheckIn) int {
	switch {
	case a.Time == nil && b.Time == nil:
		return 0
	case a.Time == nil:
		return 1
	case b.Time == nil:
		return -1
	default:
		return b.Time.Compare(*a.Time)
	}
}

// DateKey formats t as a calendar-day key in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
