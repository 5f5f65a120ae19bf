package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:       AppConfig{Environment: "development"},
		Logger:    LoggerConfig{Level: "info"},
		Store:     StoreConfig{Driver: DriverBadger, DataPath: "/data"},
		Auth:      AuthConfig{KeyPath: "/data/token.key", TokenDuration: time.Hour},
		RateLimit: RateLimitConfig{Enabled: true, PerMin: 60, Burst: 10},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestValidate_StoreDriver(t *testing.T) {
	for _, driver := range []string{DriverBadger, DriverSQLite} {
		cfg := validConfig()
		cfg.Store.Driver = driver
		assert.NoError(t, cfg.Validate(), driver)
	}

	cfg := validConfig()
	cfg.Store.Driver = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "invalid store driver")
}

func TestValidate_RateLimit(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.PerMin = 0
	assert.Error(t, cfg.Validate())

	cfg.RateLimit.Enabled = false
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("STORE_DRIVER", "sqlite")

	cfg, err := Load([]string{
		"-port", "9100",
		"-data-path", dir,
		"-env-file", filepath.Join(dir, "missing.env"),
	})
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, dir, cfg.Store.DataPath)
	assert.Equal(t, filepath.Join(dir, "token.key"), cfg.Auth.KeyPath)
	assert.Equal(t, filepath.Join(dir, "moodtrail.db"), cfg.DatabasePath())
	assert.Equal(t, 720*time.Hour, cfg.Auth.TokenDuration)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LOG_LEVEL=debug\nCORS_ORIGINS=http://a.test, http://b.test\n"), 0o600))

	// Keep the process environment clean after godotenv sets values.
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("CORS_ORIGINS", "")
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))
	require.NoError(t, os.Unsetenv("CORS_ORIGINS"))

	cfg, err := Load([]string{"-data-path", dir, "-env-file", envFile})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
}

func TestLoad_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	_, err := Load([]string{"-data-path", dir, "-read-timeout", "soon", "-env-file", filepath.Join(dir, "none")})
	assert.ErrorContains(t, err, "server_read_timeout")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/moods", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "moods"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("relative/dir", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestGetBoolConfigValue(t *testing.T) {
	t.Setenv("FLAG_UNDER_TEST", "YES")
	assert.True(t, getBoolConfigValue("", "FLAG_UNDER_TEST", false))
	assert.False(t, getBoolConfigValue("off", "FLAG_UNDER_TEST", true))
	assert.True(t, getBoolConfigValue("", "FLAG_NOT_SET", true))
}
