package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/moodtrail/moodtrail/internal/domain"
	"github.com/moodtrail/moodtrail/internal/service"
)

func (s *Server) registerActionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listActions",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{userID}/actions",
		Summary:     "List actions",
		Description: "Returns the user's active coping actions in creation order",
		Tags:        []string{"Actions"},
		Security:    bearerSecurity,
	}, s.handleListActions)

	huma.Register(s.api, huma.Operation{
		OperationID: "createAction",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/{userID}/actions",
		Summary:     "Create action",
		Description: "Creates an action, or returns and reactivates an existing action with the same name",
		Tags:        []string{"Actions"},
		Security:    bearerSecurity,
	}, s.handleCreateAction)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateAction",
		Method:      http.MethodPatch,
		Path:        "/api/v1/users/{userID}/actions/{id}",
		Summary:     "Rename action",
		Tags:        []string{"Actions"},
		Security:    bearerSecurity,
	}, s.handleUpdateAction)

	huma.Register(s.api, huma.Operation{
		OperationID: "deactivateAction",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/{userID}/actions/{id}/deactivate",
		Summary:     "Deactivate action",
		Tags:        []string{"Actions"},
		Security:    bearerSecurity,
	}, s.handleDeactivateAction)
}

// ActionResponse contains action data in API responses.
type ActionResponse struct {
	ID        string    `json:"id" doc:"Action ID"`
	Name      string    `json:"name" doc:"Action name"`
	Category  string    `json:"category,omitempty" doc:"Free-form category"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

// ListActionsOutput wraps the action list for Huma.
type ListActionsOutput struct {
	Body struct {
		Actions []ActionResponse `json:"actions" doc:"List of actions"`
	}
}

// ActionRequest is the body for creating or renaming an action.
type ActionRequest struct {
	Name         string `json:"name" minLength:"1" maxLength:"64" doc:"Action name"`
	Category     string `json:"category,omitempty" maxLength:"64" doc:"Free-form category"`
	PreviousName string `json:"previous_name,omitempty" doc:"Name the client last saw, used when the ID is temporary"`
}

// CreateActionInput wraps the create action request for Huma.
type CreateActionInput struct {
	UserID string `path:"userID" doc:"Owning user ID"`
	Body   ActionRequest
}

// UpdateActionInput wraps the rename action request for Huma.
type UpdateActionInput struct {
	UserID string `path:"userID" doc:"Owning user ID"`
	ID     string `path:"id" doc:"Action ID"`
	Body   ActionRequest
}

// ActionOutput wraps a single action for Huma.
type ActionOutput struct {
	Body ActionResponse
}

func (s *Server) handleListActions(ctx context.Context, input *UserPathInput) (*ListActionsOutput, error) {
	if err := authorize(ctx, input.UserID); err != nil {
		return nil, err
	}

	actions, err := s.services.Action.List(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	out := &ListActionsOutput{}
	out.Body.Actions = make([]ActionResponse, len(actions))
	for i, a := range actions {
		out.Body.Actions[i] = mapActionResponse(a)
	}
	return out, nil
}

func (s *Server) handleCreateAction(ctx context.Context, input *CreateActionInput) (*ActionOutput, error) {
	if err := authorize(ctx, input.UserID); err != nil {
		return nil, err
	}

	action, err := s.services.Action.Create(ctx, input.UserID, input.Body.Name, input.Body.Category)
	if err != nil {
		return nil, err
	}
	return &ActionOutput{Body: mapActionResponse(action)}, nil
}

func (s *Server) handleUpdateAction(ctx context.Context, input *UpdateActionInput) (*ActionOutput, error) {
	if err := authorize(ctx, input.UserID); err != nil {
		return nil, err
	}

	action, err := s.services.Action.Update(ctx, input.UserID, input.ID, service.ActionUpdate{
		Name:         input.Body.Name,
		Category:     input.Body.Category,
		PreviousName: input.Body.PreviousName,
	})
	if err != nil {
		return nil, err
	}
	return &ActionOutput{Body: mapActionResponse(action)}, nil
}

func (s *Server) handleDeactivateAction(ctx context.Context, input *DeactivateInput) (*struct{}, error) {
	if err := authorize(ctx, input.UserID); err != nil {
		return nil, err
	}
	if err := s.services.Action.Deactivate(ctx, input.UserID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func mapActionResponse(a *domain.Action) ActionResponse {
	return ActionResponse{
		ID:        a.ID,
		Name:      a.Name,
		Category:  a.Category,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
