package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodtrail/moodtrail/internal/domain"
)

func saveCheckIn(t *testing.T, ts *testServer, auth string, body map[string]any) CheckInResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/users/usr-alice/checkins", auth, body)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	return decode[CheckInResponse](t, resp.Body.Bytes())
}

func TestCheckIns_SaveUpdateAndRate(t *testing.T) {
	ts := setupTestServer(t, Options{})
	alice := ts.bearer(t, "usr-alice")
	base := "/api/v1/users/usr-alice/checkins"

	created := saveCheckIn(t, ts, alice, map[string]any{
		"date":   "2026-03-14",
		"time":   "2026-03-14T09:30:00Z",
		"mood":   3,
		"energy": 2,
		"stress": 4,
		"tags":   []string{"work"},
		"actions": []map[string]any{
			{"action_id": "act-walk", "action_name": "walk"},
		},
	})
	require.NotNil(t, created.Time)
	assert.Equal(t, "2026-03-14", created.Date)

	// Updating in place keeps date and time.
	updated := saveCheckIn(t, ts, alice, map[string]any{
		"existing_id": created.ID,
		"date":        "2026-03-20",
		"time":        "2026-03-20T18:00:00Z",
		"mood":        5,
		"energy":      4,
		"stress":      1,
		"actions": []map[string]any{
			{"action_id": "act-walk", "action_name": "walk"},
		},
	})
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "2026-03-14", updated.Date)
	assert.True(t, created.Time.Equal(*updated.Time))
	assert.Equal(t, 5, updated.Mood)

	resp := ts.api.Put(base+"/"+created.ID+"/ratings/act-walk", alice, map[string]any{"rating": 4})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	rated := decode[CheckInResponse](t, resp.Body.Bytes())
	require.NotNil(t, rated.Actions[0].Rating)
	assert.Equal(t, 4, *rated.Actions[0].Rating)
	assert.Equal(t, 4, rated.Ratings["act-walk"])

	resp = ts.api.Put(base+"/"+created.ID+"/ratings/act-unknown", alice, map[string]any{"rating": 4})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Put(base+"/"+created.ID+"/ratings/act-walk", alice, map[string]any{"rating": 9})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestCheckIns_ValidationErrors(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/users/usr-alice/checkins", ts.bearer(t, "usr-alice"), map[string]any{
		"date":   "14/03/2026",
		"mood":   0,
		"energy": 3,
		"stress": 3,
	})
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	apiErr := decode[APIError](t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", apiErr.Code)
	assert.NotNil(t, apiErr.Details)
}

func TestCheckIns_ByDateHistoryAndDelete(t *testing.T) {
	ts := setupTestServer(t, Options{})
	alice := ts.bearer(t, "usr-alice")
	base := "/api/v1/users/usr-alice/checkins"

	resp := ts.api.Get(base+"/by-date/2026-03-14", alice)
	require.Equal(t, http.StatusOK, resp.Code)
	empty := decode[struct {
		CheckIn *CheckInResponse `json:"check_in"`
	}](t, resp.Body.Bytes())
	assert.Nil(t, empty.CheckIn)

	morning := saveCheckIn(t, ts, alice, map[string]any{
		"date": "2026-03-14", "time": "2026-03-14T08:00:00Z", "mood": 2, "energy": 2, "stress": 2,
	})
	evening := saveCheckIn(t, ts, alice, map[string]any{
		"date": "2026-03-14", "time": "2026-03-14T20:00:00Z", "mood": 4, "energy": 4, "stress": 4,
	})

	resp = ts.api.Get(base+"/by-date/2026-03-14", alice)
	require.Equal(t, http.StatusOK, resp.Code)
	latest := decode[struct {
		CheckIn *CheckInResponse `json:"check_in"`
	}](t, resp.Body.Bytes())
	require.NotNil(t, latest.CheckIn)
	assert.Equal(t, evening.ID, latest.CheckIn.ID)

	resp = ts.api.Get(base, alice)
	require.Equal(t, http.StatusOK, resp.Code)
	history := decode[struct {
		CheckIns []domain.CheckIn `json:"check_ins"`
	}](t, resp.Body.Bytes())
	require.Len(t, history.CheckIns, 2)
	assert.Equal(t, evening.ID, history.CheckIns[0].ID)

	resp = ts.api.Delete(base+"/"+morning.ID, alice)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get(base+"/"+morning.ID, alice)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestInsights_Aggregates(t *testing.T) {
	ts := setupTestServer(t, Options{})
	alice := ts.bearer(t, "usr-alice")

	resp := ts.api.Post("/api/v1/users/usr-alice/actions", alice, map[string]any{"name": "Walk"})
	require.Equal(t, http.StatusOK, resp.Code)
	walk := decode[ActionResponse](t, resp.Body.Bytes())

	for _, rating := range []int{4, 5} {
		saveCheckIn(t, ts, alice, map[string]any{
			"date": "2026-03-14", "mood": 3, "energy": 3, "stress": 3,
			"actions": []map[string]any{{"action_id": walk.ID, "action_name": "Walk", "rating": rating}},
			"ratings": map[string]int{walk.ID: rating},
		})
	}

	resp = ts.api.Get("/api/v1/users/usr-alice/insights", alice)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	insights := decode[domain.Insights](t, resp.Body.Bytes())
	require.Len(t, insights.TopActions, 1)
	assert.Equal(t, walk.ID, insights.TopActions[0].ActionID)
	assert.InDelta(t, 4.5, insights.TopActions[0].AverageRating, 0.001)
	assert.Equal(t, 2, insights.TopActions[0].TimesUsed)
	assert.Equal(t, 2, insights.TopActions[0].RatingCount)
	assert.NotEmpty(t, insights.Insights)
}
