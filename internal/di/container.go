// Package di provides dependency injection configuration for the MoodTrail server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/moodtrail/moodtrail/internal/api"
	"github.com/moodtrail/moodtrail/internal/auth"
	"github.com/moodtrail/moodtrail/internal/config"
	"github.com/moodtrail/moodtrail/internal/di/providers"
	"github.com/moodtrail/moodtrail/internal/logger"
	"github.com/moodtrail/moodtrail/internal/service"
	"github.com/moodtrail/moodtrail/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
// args are the command-line arguments passed to config.Load.
func NewContainer(args []string) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, providers.Args(args))

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideActionService)
	do.Provide(injector, providers.ProvideCheckInService)
	do.Provide(injector, providers.ProvideInsightService)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideMetrics)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// Providers are lazy, so this is where configuration and database errors surface.
func Bootstrap(injector *do.RootScope) error {
	steps := []func() error{
		invoke[*config.Config](injector),
		invoke[*logger.Logger](injector),
		invoke[providers.AuthKey](injector),
		invoke[*providers.StoreHandle](injector),
		invoke[*auth.TokenService](injector),
		invoke[*validation.Validator](injector),
		invoke[*service.TagService](injector),
		invoke[*service.ActionService](injector),
		invoke[*service.CheckInService](injector),
		invoke[*service.InsightService](injector),
		invoke[*providers.LimiterHandle](injector),
		invoke[*api.Metrics](injector),
		invoke[*providers.HTTPServerHandle](injector),
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func invoke[T any](injector do.Injector) func() error {
	return func() error {
		_, err := do.Invoke[T](injector)
		return err
	}
}
