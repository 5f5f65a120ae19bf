package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/moodtrail/moodtrail/internal/domain"
)

type checkInClient struct {
	c *Client
}

type saveRequest struct {
	ExistingID string `json:"existing_id,omitempty"`
	domain.CheckInFields
}

func (s *checkInClient) Save(ctx context.Context, fields domain.CheckInFields, existingID string) (string, error) {
	var out domain.CheckIn
	body := saveRequest{ExistingID: existingID, CheckInFields: fields}
	if err := s.c.do(ctx, http.MethodPost, "/checkins", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (s *checkInClient) History(ctx context.Context) ([]*domain.CheckIn, error) {
	var out struct {
		CheckIns []*domain.CheckIn `json:"check_ins"`
	}
	if err := s.c.do(ctx, http.MethodGet, "/checkins", nil, &out); err != nil {
		return nil, err
	}
	return out.CheckIns, nil
}

func (s *checkInClient) ByDate(ctx context.Context, date string) (*domain.CheckIn, error) {
	var out struct {
		CheckIn *domain.CheckIn `json:"check_in"`
	}
	if err := s.c.do(ctx, http.MethodGet, "/checkins/by-date/"+url.PathEscape(date), nil, &out); err != nil {
		return nil, err
	}
	return out.CheckIn, nil
}

func (s *checkInClient) ByID(ctx context.Context, id string) (*domain.CheckIn, error) {
	var out domain.CheckIn
	if err := s.c.do(ctx, http.MethodGet, "/checkins/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *checkInClient) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, "/checkins/"+url.PathEscape(id), nil, nil)
}

func (s *checkInClient) UpdateActionRating(ctx context.Context, checkInID, actionID string, rating int) error {
	path := "/checkins/" + url.PathEscape(checkInID) + "/ratings/" + url.PathEscape(actionID)
	return s.c.do(ctx, http.MethodPut, path, map[string]int{"rating": rating}, nil)
}
