package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/moodtrail/moodtrail/internal/domain"
)

var bearerSecurity = []map[string][]string{{"bearer": {}}}

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{userID}/tags",
		Summary:     "List tags",
		Description: "Returns the user's active tags in creation order",
		Tags:        []string{"Tags"},
		Security:    bearerSecurity,
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "createTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/{userID}/tags",
		Summary:     "Create tag",
		Description: "Creates a tag, or returns and reactivates an existing tag with the same name",
		Tags:        []string{"Tags"},
		Security:    bearerSecurity,
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTag",
		Method:      http.MethodPatch,
		Path:        "/api/v1/users/{userID}/tags/{id}",
		Summary:     "Rename tag",
		Description: "Renames a tag. Unknown IDs are resolved by previous_name, then created.",
		Tags:        []string{"Tags"},
		Security:    bearerSecurity,
	}, s.handleUpdateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deactivateTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/{userID}/tags/{id}/deactivate",
		Summary:     "Deactivate tag",
		Description: "Hides a tag from listings without deleting it",
		Tags:        []string{"Tags"},
		Security:    bearerSecurity,
	}, s.handleDeactivateTag)
}

// === DTOs ===

// UserPathInput identifies the user that owns a resource collection.
type UserPathInput struct {
	UserID string `path:"userID" doc:"Owning user ID"`
}

// TagResponse contains tag data in API responses.
type TagResponse struct {
	ID        string    `json:"id" doc:"Tag ID"`
	Name      string    `json:"name" doc:"Tag name"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

// ListTagsResponse contains a list of tags.
type ListTagsResponse struct {
	Tags []TagResponse `json:"tags" doc:"List of tags"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	Name string `json:"name" minLength:"1" maxLength:"64" doc:"Tag name"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	UserID string `path:"userID" doc:"Owning user ID"`
	Body   CreateTagRequest
}

// TagOutput wraps the tag response for Huma.
type TagOutput struct {
	Body TagResponse
}

// UpdateTagRequest is the request body for renaming a tag.
type UpdateTagRequest struct {
	Name         string `json:"name" minLength:"1" maxLength:"64" doc:"New tag name"`
	PreviousName string `json:"previous_name,omitempty" doc:"Name the client last saw, used when the ID is temporary"`
}

// UpdateTagInput wraps the update tag request for Huma.
type UpdateTagInput struct {
	UserID string `path:"userID" doc:"Owning user ID"`
	ID     string `path:"id" doc:"Tag ID"`
	Body   UpdateTagRequest
}

// DeactivateInput addresses one user-scoped resource.
type DeactivateInput struct {
	UserID string `path:"userID" doc:"Owning user ID"`
	ID     string `path:"id" doc:"Resource ID"`
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, input *UserPathInput) (*ListTagsOutput, error) {
	if err := authorize(ctx, input.UserID); err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.List(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	resp := make([]TagResponse, len(tags))
	for i, t := range tags {
		resp[i] = mapTagResponse(t)
	}
	return &ListTagsOutput{Body: ListTagsResponse{Tags: resp}}, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	if err := authorize(ctx, input.UserID); err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.Create(ctx, input.UserID, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: mapTagResponse(tag)}, nil
}

func (s *Server) handleUpdateTag(ctx context.Context, input *UpdateTagInput) (*TagOutput, error) {
	if err := authorize(ctx, input.UserID); err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.Update(ctx, input.UserID, input.ID, input.Body.Name, input.Body.PreviousName)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: mapTagResponse(tag)}, nil
}

func (s *Server) handleDeactivateTag(ctx context.Context, input *DeactivateInput) (*struct{}, error) {
	if err := authorize(ctx, input.UserID); err != nil {
		return nil, err
	}
	if err := s.services.Tag.Deactivate(ctx, input.UserID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func mapTagResponse(t *domain.Tag) TagResponse {
	return TagResponse{
		ID:        t.ID,
		Name:      t.Name,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
