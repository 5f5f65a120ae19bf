package providers

import (
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/moodtrail/moodtrail/internal/config"
	"github.com/moodtrail/moodtrail/internal/logger"
	"github.com/moodtrail/moodtrail/internal/store"
	"github.com/moodtrail/moodtrail/internal/store/sqlite"
)

// StoreHandle wraps the configured repository with shutdown capability.
type StoreHandle struct {
	store.Repository
	Driver string
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the database for the configured driver.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := cfg.DatabasePath()
	var (
		repo store.Repository
		err  error
	)
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		repo, err = sqlite.Open(path, log.Component("store"))
	case config.DriverBadger:
		repo, err = store.New(path, log.Component("store"))
	default:
		err = fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", cfg.Store.Driver, "path", path)

	return &StoreHandle{Repository: repo, Driver: cfg.Store.Driver}, nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
