package domain

// InsightAggregate summarizes how an action has been rated across all check-ins.
type InsightAggregate struct {
	ActionID      string  `json:"action_id"`
	Name          string  `json:"name"`
	AverageRating float64 `json:"average_rating"`
	TimesUsed     int     `json:"times_used"`
	RatingCount   int     `json:"rating_count"`
}

// Insights is the aggregate read returned by the server.
type Insights struct {
	TopActions []InsightAggregate `json:"top_actions"`
	Insights   []string           `json:"insights"`
}

// EmptyInsights returns an empty, non-nil result.
func EmptyInsights() *Insights {
	return &Insights{TopActions: []InsightAggregate{}, Insights: []string{}}
}
