package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configDirName  = ".moodtrail"
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "MOODTRAIL"
)

// Config is the client configuration stored in ~/.moodtrail/config.yaml.
// Every key can be overridden with a MOODTRAIL_ environment variable,
// e.g. MOODTRAIL_SERVER.
type Config struct {
	Server   string        `mapstructure:"server"`
	UserID   string        `mapstructure:"user_id"`
	Timeout  time.Duration `mapstructure:"timeout"`
	LogLevel string        `mapstructure:"log_level"`
	// RatePerSecond paces requests to the server; 0 disables pacing.
	RatePerSecond float64 `mapstructure:"rate_per_second"`
}

// DefaultConfigDir returns ~/.moodtrail.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDirName), nil
}

// newViper returns a viper instance reading dir/config.yaml and MOODTRAIL_* env.
func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(dir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server", "http://localhost:8080")
	v.SetDefault("user_id", "")
	v.SetDefault("timeout", "30s")
	v.SetDefault("log_level", "warn")
	v.SetDefault("rate_per_second", 10)
	return v
}

// loadConfig reads .env files, then the config file, then the environment.
// A missing config file is not an error.
func loadConfig(v *viper.Viper, dir string) (*Config, error) {
	// godotenv never overrides variables that are already set.
	_ = godotenv.Load(filepath.Join(dir, ".env"))
	_ = godotenv.Load()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Server = strings.TrimRight(cfg.Server, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &cfg, nil
}

// saveConfig writes the login details to dir/config.yaml.
func saveConfig(v *viper.Viper, dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	v.Set("server", cfg.Server)
	v.Set("user_id", cfg.UserID)
	return v.WriteConfigAs(filepath.Join(dir, configFileName+"."+configFileType))
}
