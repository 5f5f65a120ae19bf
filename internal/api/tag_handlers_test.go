package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTags_Lifecycle(t *testing.T) {
	ts := setupTestServer(t, Options{})
	alice := ts.bearer(t, "usr-alice")
	base := "/api/v1/users/usr-alice/tags"

	resp := ts.api.Post(base, alice, map[string]any{"name": "  Work "})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	work := decode[TagResponse](t, resp.Body.Bytes())
	assert.Equal(t, "Work", work.Name)
	assert.NotEmpty(t, work.ID)

	// Creating the same name again returns the same tag.
	resp = ts.api.Post(base, alice, map[string]any{"name": "work"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, work.ID, decode[TagResponse](t, resp.Body.Bytes()).ID)

	resp = ts.api.Patch(base+"/"+work.ID, alice, map[string]any{"name": "Office", "previous_name": "Work"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	renamed := decode[TagResponse](t, resp.Body.Bytes())
	assert.Equal(t, work.ID, renamed.ID)
	assert.Equal(t, "Office", renamed.Name)

	resp = ts.api.Post(base+"/"+work.ID+"/deactivate", alice)
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	resp = ts.api.Get(base, alice)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[ListTagsResponse](t, resp.Body.Bytes()).Tags)
}

func TestTags_RenameTemporaryIdentity(t *testing.T) {
	ts := setupTestServer(t, Options{})
	alice := ts.bearer(t, "usr-alice")
	base := "/api/v1/users/usr-alice/tags"

	// The client still holds the name as the ID.
	resp := ts.api.Patch(base+"/sleep", alice, map[string]any{"name": "Rest", "previous_name": "sleep"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	created := decode[TagResponse](t, resp.Body.Bytes())
	assert.NotEqual(t, "sleep", created.ID)
	assert.Equal(t, "Rest", created.Name)
}

func TestTags_DeactivateUnknown(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/users/usr-alice/tags/tag-missing/deactivate", ts.bearer(t, "usr-alice"))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestActions_CreateAndList(t *testing.T) {
	ts := setupTestServer(t, Options{})
	alice := ts.bearer(t, "usr-alice")
	base := "/api/v1/users/usr-alice/actions"

	resp := ts.api.Post(base, alice, map[string]any{"name": "Walk", "category": "movement"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	walk := decode[ActionResponse](t, resp.Body.Bytes())
	assert.Equal(t, "movement", walk.Category)

	resp = ts.api.Post(base, alice, map[string]any{"name": "Breathing"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get(base, alice)
	require.Equal(t, http.StatusOK, resp.Code)
	list := decode[struct {
		Actions []ActionResponse `json:"actions"`
	}](t, resp.Body.Bytes())
	require.Len(t, list.Actions, 2)
	assert.Equal(t, "Walk", list.Actions[0].Name)
	assert.Equal(t, "Breathing", list.Actions[1].Name)

	resp = ts.api.Patch(base+"/"+walk.ID, alice, map[string]any{"name": "Long walk", "category": "movement"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Long walk", decode[ActionResponse](t, resp.Body.Bytes()).Name)

	// Bob sees none of Alice's actions.
	resp = ts.api.Get("/api/v1/users/usr-bob/actions", ts.bearer(t, "usr-bob"))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[struct {
		Actions []ActionResponse `json:"actions"`
	}](t, resp.Body.Bytes()).Actions)
}
