package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"

	"github.com/moodtrail/moodtrail/internal/api"
	"github.com/moodtrail/moodtrail/internal/auth"
	"github.com/moodtrail/moodtrail/internal/config"
	"github.com/moodtrail/moodtrail/internal/logger"
	"github.com/moodtrail/moodtrail/internal/ratelimit"
	"github.com/moodtrail/moodtrail/internal/service"
)

// LimiterHandle wraps the per-user limiter so its sweeper stops on shutdown.
type LimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *LimiterHandle) Shutdown() error {
	if h.KeyedRateLimiter != nil {
		h.Stop()
	}
	return nil
}

// ProvideRateLimiter provides the per-user API limiter, or a nil limiter when disabled.
func ProvideRateLimiter(i do.Injector) (*LimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.RateLimit.Enabled {
		log.Info("Rate limiting disabled by configuration")
		return &LimiterHandle{}, nil
	}
	return &LimiterHandle{
		KeyedRateLimiter: ratelimit.PerMinute(cfg.RateLimit.PerMin, cfg.RateLimit.Burst),
	}, nil
}

// ProvideMetrics provides request metrics registered on a fresh registry.
func ProvideMetrics(_ do.Injector) (*api.Metrics, error) {
	return api.NewMetrics(prometheus.NewRegistry()), nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	limiter := do.MustInvoke[*LimiterHandle](i)
	metrics := do.MustInvoke[*api.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Tag:     do.MustInvoke[*service.TagService](i),
		Action:  do.MustInvoke[*service.ActionService](i),
		CheckIn: do.MustInvoke[*service.CheckInService](i),
		Insight: do.MustInvoke[*service.InsightService](i),
	}

	handler := api.NewServer(storeHandle.Repository, services, tokens, api.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		Limiter:     limiter.KeyedRateLimiter,
		Metrics:     metrics,
	}, log.Component("api"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
