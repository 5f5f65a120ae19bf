package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/moodtrail/moodtrail/internal/domain"
)

// taxonomyClient serves both /tags and /actions; only the path and the
// list envelope key differ.
type taxonomyClient struct {
	c          *Client
	collection string
	listKey    string
}

type taxonomyRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category,omitempty"`
	PreviousName string `json:"previous_name,omitempty"`
}

func (t *taxonomyClient) request(item domain.Item, previousName string) taxonomyRequest {
	req := taxonomyRequest{Name: item.Name, PreviousName: previousName}
	// Tags carry no category on the wire.
	if t.collection == "actions" {
		req.Category = item.Category
	}
	return req
}

func (t *taxonomyClient) Create(ctx context.Context, item domain.Item) (string, error) {
	var out domain.Item
	if err := t.c.do(ctx, http.MethodPost, "/"+t.collection, t.request(item, ""), &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (t *taxonomyClient) Update(ctx context.Context, id string, item domain.Item, previousName string) (string, error) {
	var out domain.Item
	path := "/" + t.collection + "/" + url.PathEscape(id)
	if err := t.c.do(ctx, http.MethodPatch, path, t.request(item, previousName), &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (t *taxonomyClient) Deactivate(ctx context.Context, id string) error {
	path := "/" + t.collection + "/" + url.PathEscape(id) + "/deactivate"
	return t.c.do(ctx, http.MethodPost, path, nil, nil)
}

func (t *taxonomyClient) List(ctx context.Context) ([]domain.Item, error) {
	var envelope map[string]json.RawMessage
	if err := t.c.do(ctx, http.MethodGet, "/"+t.collection, nil, &envelope); err != nil {
		return nil, err
	}
	items := []domain.Item{}
	if raw, ok := envelope[t.listKey]; ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
	}
	return items, nil
}
