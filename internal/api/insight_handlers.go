package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/moodtrail/moodtrail/internal/domain"
)

func (s *Server) registerInsightRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getInsights",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{userID}/insights",
		Summary:     "Action insights",
		Description: "Returns per-action rating aggregates and advisory notes across the user's history",
		Tags:        []string{"Insights"},
		Security:    bearerSecurity,
	}, s.handleGetInsights)
}

// InsightsOutput wraps the aggregate read for Huma.
type InsightsOutput struct {
	Body domain.Insights
}

func (s *Server) handleGetInsights(ctx context.Context, input *UserPathInput) (*InsightsOutput, error) {
	if err := authorize(ctx, input.UserID); err != nil {
		return nil, err
	}

	insights, err := s.services.Insight.Get(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	return &InsightsOutput{Body: *insights}, nil
}
