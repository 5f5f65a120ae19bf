// Package providers contains dependency injection providers for the MoodTrail server.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/moodtrail/moodtrail/internal/config"
	"github.com/moodtrail/moodtrail/internal/logger"
)

// Args holds the command-line arguments handed to config.Load.
type Args []string

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	args, err := do.Invoke[Args](i)
	if err != nil {
		args = Args(os.Args[1:])
	}
	return config.Load(args)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting MoodTrail server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"store_driver", cfg.Store.Driver,
		"data_path", cfg.Store.DataPath,
	)

	return log, nil
}
