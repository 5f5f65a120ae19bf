package domain

// Tag is a user-defined label attached to check-ins by name.
// Names are unique per user; deactivated tags keep their ID so a later
// create with the same name can revive them.
type Tag struct {
	Syncable
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Active reports whether the tag is visible in listings.
func (t *Tag) Active() bool {
	return !t.IsDeleted()
}

// Action is a coping action the user can log and rate.
// Identity rules match Tag; Category is carried but never interpreted.
type Action struct {
	Syncable
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// Active reports whether the action is visible in listings.
func (a *Action) Active() bool {
	return !a.IsDeleted()
}

// Item is the client-side view of a tag or action: an ID and a name.
// Before the server confirms it, an item's ID equals its name.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// Temporary reports whether the item has not been confirmed by the server.
func (i Item) Temporary() bool {
	return i.ID == "" || i.ID == i.Name
}
