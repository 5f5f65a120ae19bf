package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/moodtrail/moodtrail/internal/domain"
)

func (s *Server) registerCheckInRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCheckIns",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{userID}/checkins",
		Summary:     "Check-in history",
		Description: "Returns every check-in, newest first",
		Tags:        []string{"Check-ins"},
		Security:    bearerSecurity,
	}, s.handleListCheckIns)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveCheckIn",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/{userID}/checkins",
		Summary:     "Save check-in",
		Description: "Creates a check-in, or updates existing_id in place keeping its date and time",
		Tags:        []string{"Check-ins"},
		Security:    bearerSecurity,
	}, s.handleSaveCheckIn)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCheckInByDate",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{userID}/checkins/by-date/{date}",
		Summary:     "Latest check-in on a date",
		Description: "Returns the most recent check-in for the date, or null",
		Tags:        []string{"Check-ins"},
		Security:    bearerSecurity,
	}, s.handleGetCheckInByDate)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCheckIn",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{userID}/checkins/{id}",
		Summary:     "Get check-in",
		Tags:        []string{"Check-ins"},
		Security:    bearerSecurity,
	}, s.handleGetCheckIn)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCheckIn",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/{userID}/checkins/{id}",
		Summary:     "Delete check-in",
		Tags:        []string{"Check-ins"},
		Security:    bearerSecurity,
	}, s.handleDeleteCheckIn)

	huma.Register(s.api, huma.Operation{
		OperationID: "rateCheckInAction",
		Method:      http.MethodPut,
		Path:        "/api/v1/users/{userID}/checkins/{id}/ratings/{actionID}",
		Summary:     "Rate an action",
		Description: "Sets the rating of one action on one check-in",
		Tags:        []string{"Check-ins"},
		Security:    bearerSecurity,
	}, s.handleRateAction)
}

// === DTOs ===

// CheckInRequest is the body for saving a check-in.
type CheckInRequest struct {
	ExistingID string               `json:"existing_id,omitempty" doc:"Check-in to update in place"`
	Date       string               `json:"date" doc:"Calendar day, YYYY-MM-DD"`
	Time       *time.Time           `json:"time,omitempty" doc:"Instant of the check-in; defaults to now"`
	Mood       int                  `json:"mood" doc:"Mood, 1 to 5"`
	Energy     int                  `json:"energy" doc:"Energy, 1 to 5"`
	Stress     int                  `json:"stress" doc:"Stress, 1 to 5"`
	Note       string               `json:"note,omitempty" doc:"Free-form note"`
	Tags       []string             `json:"tags,omitempty" doc:"Tag names"`
	Actions    []ActionEntryPayload `json:"actions,omitempty" doc:"Coping actions used"`
	Ratings    map[string]int       `json:"ratings,omitempty" doc:"Ratings keyed by action ID"`
}

// ActionEntryPayload is one action on a check-in.
type ActionEntryPayload struct {
	ActionID   string `json:"action_id" doc:"Action ID"`
	ActionName string `json:"action_name" doc:"Action name at the time of the check-in"`
	Rating     *int   `json:"rating,omitempty" doc:"Rating, 1 to 5, when set"`
}

func (r CheckInRequest) fields() domain.CheckInFields {
	actions := make([]domain.ActionEntry, len(r.Actions))
	for i, a := range r.Actions {
		actions[i] = domain.ActionEntry{ActionID: a.ActionID, ActionName: a.ActionName, Rating: a.Rating}
	}
	return domain.CheckInFields{
		Date:    r.Date,
		Time:    r.Time,
		Mood:    r.Mood,
		Energy:  r.Energy,
		Stress:  r.Stress,
		Note:    r.Note,
		Tags:    r.Tags,
		Actions: actions,
		Ratings: r.Ratings,
	}
}

// SaveCheckInInput wraps the save request for Huma.
type SaveCheckInInput struct {
	UserID string `path:"userID" doc:"Owning user ID"`
	Body   CheckInRequest
}

// CheckInResponse contains check-in data in API responses.
type CheckInResponse struct {
	ID        string               `json:"id" doc:"Check-in ID"`
	Date      string               `json:"date" doc:"Calendar day, YYYY-MM-DD"`
	Time      *time.Time           `json:"time,omitempty" doc:"Instant of the check-in"`
	Mood      int                  `json:"mood"`
	Energy    int                  `json:"energy"`
	Stress    int                  `json:"stress"`
	Note      string               `json:"note,omitempty"`
	Tags      []string             `json:"tags"`
	Actions   []ActionEntryPayload `json:"actions"`
	Ratings   map[string]int       `json:"ratings"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// CheckInOutput wraps a single check-in for Huma.
type CheckInOutput struct {
	Body CheckInResponse
}

// ListCheckInsOutput wraps the history for Huma.
type ListCheckInsOutput struct {
	Body struct {
		CheckIns []CheckInResponse `json:"check_ins" doc:"Check-ins, newest first"`
	}
}

// ByDateInput addresses a calendar day.
type ByDateInput struct {
	UserID string `path:"userID" doc:"Owning user ID"`
	Date   string `path:"date" doc:"Calendar day, YYYY-MM-DD"`
}

// ByDateOutput carries the latest check-in on a day, or null.
type ByDateOutput struct {
	Body struct {
		CheckIn *CheckInResponse `json:"check_in" doc:"Latest check-in, or null"`
	}
}

// CheckInPathInput addresses one check-in.
type CheckInPathInput struct {
	UserID string `path:"userID" doc:"Owning user ID"`
	ID     string `path:"id" doc:"Check-in ID"`
}

// RateActionInput carries one rating.
type RateActionInput struct {
	UserID   string `path:"userID" doc:"Owning user ID"`
	ID       string `path:"id" doc:"Check-in ID"`
	ActionID string `path:"actionID" doc:"Action ID"`
	Body     struct {
		Rating int `json:"rating" minimum:"1" maximum:"5" doc:"Rating, 1 to 5"`
	}
}

// === Handlers ===

func (s *Server) handleListCheckIns(ctx context.Context, input *UserPathInput) (*ListCheckInsOutput, error) {
	if err := authorize(ctx, input.UserID); err != nil {
		return nil, err
	}

	entries, err := s.services.CheckIn.History(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	out := &ListCheckInsOutput{}
	out.Body.CheckIns = make([]CheckInResponse, len(entries))
	for i, c := range entries {
		out.Body.CheckIns[i] = mapCheckInResponse(c)
	}
	return out, nil
}

func (s *Server) handleSaveCheckIn(ctx context.Context, input *SaveCheckInInput) (*CheckInOutput, error) {
	if err := authorize(ctx, input.UserID); err != nil {
		return nil, err
	}

	entry, err := s.services.CheckIn.Save(ctx, input.UserID, input.Body.fields(), input.Body.ExistingID)
	if err != nil {
		return nil, err
	}
	return &CheckInOutput{Body: mapCheckInResponse(entry)}, nil
}

func (s *Server) handleGetCheckInByDate(ctx context.Context, input *ByDateInput) (*ByDateOutput, error) {
	if err := authorize(ctx, input.UserID); err != nil {
		return nil, err
	}

	entry, err := s.services.CheckIn.ByDate(ctx, input.UserID, input.Date)
	if err != nil {
		return nil, err
	}

	out := &ByDateOutput{}
	if entry != nil {
		resp := mapCheckInResponse(entry)
		out.Body.CheckIn = &resp
	}
	return out, nil
}

func (s *Server) handleGetCheckIn(ctx context.Context, input *CheckInPathInput) (*CheckInOutput, error) {
	if err := authorize(ctx, input.UserID); err != nil {
		return nil, err
	}

	entry, err := s.services.CheckIn.Get(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, err
	}
	return &CheckInOutput{Body: mapCheckInResponse(entry)}, nil
}

func (s *Server) handleDeleteCheckIn(ctx context.Context, input *CheckInPathInput) (*struct{}, error) {
	if err := authorize(ctx, input.UserID); err != nil {
		return nil, err
	}
	if err := s.services.CheckIn.Delete(ctx, input.UserID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleRateAction(ctx context.Context, input *RateActionInput) (*CheckInOutput, error) {
	if err := authorize(ctx, input.UserID); err != nil {
		return nil, err
	}

	entry, err := s.services.CheckIn.UpdateActionRating(ctx, input.UserID, input.ID, input.ActionID, input.Body.Rating)
	if err != nil {
		return nil, err
	}
	return &CheckInOutput{Body: mapCheckInResponse(entry)}, nil
}

func mapCheckInResponse(c *domain.CheckIn) CheckInResponse {
	actions := make([]ActionEntryPayload, len(c.Actions))
	for i, a := range c.Actions {
		actions[i] = ActionEntryPayload{ActionID: a.ActionID, ActionName: a.ActionName, Rating: a.Rating}
	}
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	ratings := c.Ratings
	if ratings == nil {
		ratings = map[string]int{}
	}
	return CheckInResponse{
		ID:        c.ID,
		Date:      c.Date,
		Time:      c.Time,
		Mood:      c.Mood,
		Energy:    c.Energy,
		Stress:    c.Stress,
		Note:      c.Note,
		Tags:      tags,
		Actions:   actions,
		Ratings:   ratings,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
