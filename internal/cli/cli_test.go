package cli

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/moodtrail/moodtrail/internal/api"
	"github.com/moodtrail/moodtrail/internal/auth"
	"github.com/moodtrail/moodtrail/internal/remote"
	"github.com/moodtrail/moodtrail/internal/service"
	"github.com/moodtrail/moodtrail/internal/store"
	"github.com/moodtrail/moodtrail/internal/validation"
)

// memCredentials keeps tokens in a map.
type memCredentials map[string]string

func (m memCredentials) Token(server, userID string) (string, error) {
	token, ok := m[account(server, userID)]
	if !ok {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

func (m memCredentials) SaveToken(server, userID, token string) error {
	m[account(server, userID)] = token
	return nil
}

func (m memCredentials) DeleteToken(server, userID string) error {
	delete(m, account(server, userID))
	return nil
}

type testEnv struct {
	url    string
	tokens *auth.TokenService
	dir    string
	creds  memCredentials
	now    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	key, err := auth.LoadOrGenerateKey(filepath.Join(t.TempDir(), "token.key"))
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	srv := api.NewServer(st, &api.Services{
		Tag:     service.NewTagService(st, logger),
		Action:  service.NewActionService(st, logger),
		CheckIn: service.NewCheckInService(st, validation.New(), logger),
		Insight: service.NewInsightService(st, logger),
	}, tokens, api.Options{}, logger)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{
		url:    ts.URL,
		tokens: tokens,
		dir:    t.TempDir(),
		creds:  memCredentials{},
		now:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local),
	}
}

// run executes one command line and returns its stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(
		WithCredentials(e.creds),
		WithConfigDir(e.dir),
		WithClock(func() time.Time { return e.now }),
	)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "moodtrail %v", args)
	return out
}

func (e *testEnv) login(t *testing.T, userID string) {
	t.Helper()
	token, err := e.tokens.Issue(userID)
	require.NoError(t, err)
	out := e.mustRun(t, "login", "--server", e.url, "--user", userID, "--token", token)
	assert.Contains(t, out, "Logged in to "+e.url+" as "+userID)
}

var checkInIDPattern = regexp.MustCompile(`chk-[A-Za-z0-9_-]+`)

func TestCLI_CheckInFlow(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "usr-alice")

	_, err := os.Stat(filepath.Join(env.dir, "config.yaml"))
	require.NoError(t, err, "login should write the config file")

	out := env.mustRun(t, "tags", "add", "work")
	assert.Contains(t, out, `Added tag "work"`)

	out = env.mustRun(t, "new", "--mood", "2", "--stress", "4", "--tag", "work", "--action", "walk=4", "--action", "read")
	id := checkInIDPattern.FindString(out)
	require.NotEmpty(t, id, "output: %s", out)

	out = env.mustRun(t, "today")
	assert.Contains(t, out, "1 of 4 check-ins")
	assert.Contains(t, out, "walk (4)")
	assert.Contains(t, out, "read (-)")
	assert.Contains(t, out, "work")

	out = env.mustRun(t, "rate", "read", "5")
	assert.Contains(t, out, "Rated read 5/5")

	out = env.mustRun(t, "today")
	assert.Contains(t, out, "read (5)")

	out = env.mustRun(t, "rate-all", id, "--action", "walk=2")
	assert.Contains(t, out, "walk (2)")
	assert.Contains(t, out, "read (3)", "actions left out are rated 3")

	out = env.mustRun(t, "edit", id, "--mood", "5")
	assert.Contains(t, out, "Updated check-in "+id)

	token, err := env.tokens.Issue("usr-alice")
	require.NoError(t, err)
	entry, err := remote.NewClient(env.url, "usr-alice", token).CheckIns().ByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 5, entry.Mood)
	assert.Equal(t, 4, entry.Stress)
	assert.Len(t, entry.Actions, 2, "edit without --action keeps the actions")

	out = env.mustRun(t, "insights")
	assert.Contains(t, out, "What helps most")
	assert.Regexp(t, `1\.\s+read`, out)
	assert.Regexp(t, `2\.\s+walk`, out)
	assert.Contains(t, out, "If you'd like, you can try more read (3.0/5).")

	out = env.mustRun(t, "history")
	assert.Contains(t, out, "2026-03-14")

	out = env.mustRun(t, "delete", id)
	assert.Contains(t, out, "Deleted check-in "+id)

	out = env.mustRun(t, "history")
	assert.Contains(t, out, "No check-ins yet.")

	out = env.mustRun(t, "insights")
	assert.Contains(t, out, "No actions logged yet.")
	assert.NotContains(t, out, "What helps most")
}

func TestCLI_DailyLimit(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "usr-bob")

	for i := 0; i < 4; i++ {
		env.mustRun(t, "new")
	}
	_, err := env.run(t, "new")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4")
}

func TestCLI_TaxonomyCommands(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "usr-carol")

	env.mustRun(t, "actions", "add", "stretch", "--category", "body")
	out := env.mustRun(t, "actions", "list")
	assert.Contains(t, out, "stretch")
	assert.Contains(t, out, "body")
	assert.Contains(t, out, "synced")

	out = env.mustRun(t, "actions", "add", "Stretch")
	assert.Contains(t, out, "already exists")

	out = env.mustRun(t, "actions", "rename", "stretch", "yoga")
	assert.Contains(t, out, `Renamed action "stretch" to "yoga"`)

	out = env.mustRun(t, "actions", "rm", "yoga")
	assert.Contains(t, out, `Removed action "yoga"`)

	out = env.mustRun(t, "actions", "list")
	assert.NotContains(t, out, "yoga")

	_, err := env.run(t, "tags", "rm", "missing")
	assert.Error(t, err)
}

func TestCLI_RequiresLogin(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "today", "--server", env.url, "--user", "usr-dave")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	env.login(t, "usr-dave")
	env.mustRun(t, "logout")

	_, err = env.run(t, "today")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestCLI_LoginRejectsBadToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "login", "--server", env.url, "--user", "usr-erin", "--token", "v4.public.bogus")
	require.Error(t, err)
	assert.Empty(t, env.creds)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("server: http://file.example/\nuser_id: usr-file\ntimeout: 5s\n"), 0o600))

	cfg, err := loadConfig(newViper(dir), dir)
	require.NoError(t, err)
	assert.Equal(t, "http://file.example", cfg.Server)
	assert.Equal(t, "usr-file", cfg.UserID)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "warn", cfg.LogLevel)

	t.Setenv("MOODTRAIL_SERVER", "http://env.example")
	t.Setenv("MOODTRAIL_USER_ID", "usr-env")

	cfg, err = loadConfig(newViper(dir), dir)
	require.NoError(t, err)
	assert.Equal(t, "http://env.example", cfg.Server)
	assert.Equal(t, "usr-env", cfg.UserID)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := loadConfig(newViper(dir), dir)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.Server)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.InDelta(t, 10.0, cfg.RatePerSecond, 0.001)
}

func TestKeyringCredentials(t *testing.T) {
	keyring.MockInit()
	creds := NewKeyringCredentials()

	_, err := creds.Token("http://s", "usr-a")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, creds.SaveToken("http://s", "usr-a", "tok"))
	token, err := creds.Token("http://s", "usr-a")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	_, err = creds.Token("http://other", "usr-a")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, creds.DeleteToken("http://s", "usr-a"))
	require.NoError(t, creds.DeleteToken("http://s", "usr-a"))
	_, err = creds.Token("http://s", "usr-a")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestParseRated(t *testing.T) {
	tests := []struct {
		raw     string
		name    string
		rating  int
		wantErr bool
	}{
		{raw: "walk", name: "walk"},
		{raw: "walk=4", name: "walk", rating: 4},
		{raw: "  deep breathing = 5", name: "deep breathing", rating: 5},
		{raw: "walk=6", wantErr: true},
		{raw: "walk=x", wantErr: true},
		{raw: "=3", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			name, rating, err := parseRated(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.rating, rating)
		})
	}
}

func TestBar(t *testing.T) {
	assert.Equal(t, "[....................]", bar(0))
	assert.Equal(t, "[##########..........]", bar(50))
	assert.Equal(t, "[####################]", bar(100))
	assert.Equal(t, "[####################]", bar(140))
}
