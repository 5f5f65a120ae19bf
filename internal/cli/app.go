// Package cli implements the moodtrail command-line client.
//
// Configuration lives in ~/.moodtrail/config.yaml (overridable with
// MOODTRAIL_* variables and a .env file); the API token lives in the OS
// keyring. Each command opens a session against the server that wires the
// taxonomy reconcilers, the check-in manager and the insight loop over one
// remote client.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/moodtrail/moodtrail/internal/checkin"
	"github.com/moodtrail/moodtrail/internal/insight"
	"github.com/moodtrail/moodtrail/internal/logger"
	"github.com/moodtrail/moodtrail/internal/notify"
	"github.com/moodtrail/moodtrail/internal/ratelimit"
	"github.com/moodtrail/moodtrail/internal/remote"
	"github.com/moodtrail/moodtrail/internal/taxonomy"
)

// App holds what every command needs: configuration, credentials and output.
type App struct {
	configDir  string
	viper      *viper.Viper
	cfg        *Config
	creds      Credentials
	httpClient *http.Client
	now        func() time.Time
	logger     *slog.Logger

	session *Session
}

// Option configures the App behind NewRootCmd.
type Option func(*App)

// WithCredentials replaces the keyring token store.
func WithCredentials(c Credentials) Option {
	return func(a *App) { a.creds = c }
}

// WithHTTPClient sets the HTTP client used to reach the server.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) { a.httpClient = hc }
}

// WithConfigDir sets the config directory, overriding ~/.moodtrail.
func WithConfigDir(dir string) Option {
	return func(a *App) { a.configDir = dir }
}

// WithClock sets the clock used for today's date and new check-ins.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

func newApp(opts ...Option) *App {
	a := &App{
		creds: NewKeyringCredentials(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// init loads configuration once the command line is parsed.
func (a *App) init(cmd *cobra.Command) error {
	dir, _ := cmd.Flags().GetString("config-dir")
	if dir == "" {
		dir = a.configDir
	}
	if dir == "" {
		var err error
		if dir, err = DefaultConfigDir(); err != nil {
			return err
		}
	}
	a.configDir = dir

	a.viper = newViper(dir)
	if f := cmd.Flags().Lookup("server"); f != nil {
		_ = a.viper.BindPFlag("server", f)
	}
	if f := cmd.Flags().Lookup("user"); f != nil {
		_ = a.viper.BindPFlag("user_id", f)
	}

	cfg, err := loadConfig(a.viper, dir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logger.New(logger.Config{
		Writer:  cmd.ErrOrStderr(),
		Level:   logger.ParseLevel(cfg.LogLevel),
		NoColor: os.Getenv("NO_COLOR") != "",
	}).Logger
	return nil
}

// Session is an authenticated connection to the server with the client
// components wired over it.
type Session struct {
	Client   *remote.Client
	Reload   *notify.Publisher
	Tags     *taxonomy.Reconciler
	Actions  *taxonomy.Reconciler
	CheckIns *checkin.Manager
	Insights *insight.Loop

	limiter  *ratelimit.KeyedRateLimiter
	loadOnce sync.Once
}

// open returns the command's session, creating it on first use.
func (a *App) open(cmd *cobra.Command) (*Session, error) {
	if a.session != nil {
		return a.session, nil
	}
	token, err := a.creds.Token(a.cfg.Server, a.cfg.UserID)
	if err != nil {
		return nil, err
	}

	opts := []remote.Option{remote.WithLogger(a.logger.With("component", "remote"))}
	hc := a.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: a.cfg.Timeout}
	}
	opts = append(opts, remote.WithHTTPClient(hc))

	var limiter *ratelimit.KeyedRateLimiter
	if a.cfg.RatePerSecond > 0 {
		limiter = ratelimit.New(a.cfg.RatePerSecond, int(math.Ceil(a.cfg.RatePerSecond)))
		opts = append(opts, remote.WithLimiter(limiter))
	}

	client := remote.NewClient(a.cfg.Server, a.cfg.UserID, token, opts...)
	alert := func(msg string) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", msg)
	}

	reload := notify.NewPublisher()
	s := &Session{
		Client: client,
		Reload: reload,
		Tags: taxonomy.New(client.Tags(), taxonomy.Options{
			Kind:     "tags",
			Defaults: taxonomy.DefaultTags(),
			Alert:    alert,
		}, a.logger),
		Actions: taxonomy.New(client.Actions(), taxonomy.Options{
			Kind:     "actions",
			Defaults: taxonomy.DefaultActions(),
			Alert:    alert,
		}, a.logger),
		CheckIns: checkin.New(client.CheckIns(), reload, checkin.Options{Now: a.now}, a.logger),
		Insights: insight.New(client, client.CheckIns(), insight.Options{Now: a.now, Alert: alert}, a.logger),
		limiter:  limiter,
	}
	s.Insights.Start(reload)

	a.session = s
	return s, nil
}

// loadTaxonomies reads tags and actions once per session.
func (s *Session) loadTaxonomies(ctx context.Context) {
	s.loadOnce.Do(func() {
		s.Tags.Load(ctx)
		s.Actions.Load(ctx)
	})
}

// Close waits for background work and releases the session.
func (s *Session) Close() {
	s.Tags.Close()
	s.Actions.Close()
	s.Insights.Close()
	s.Reload.Close()
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

func (a *App) close() {
	if a.session != nil {
		a.session.Close()
		a.session = nil
	}
}

// run opens a session for fn and closes it afterwards.
func (a *App) run(cmd *cobra.Command, fn func(ctx context.Context, s *Session) error) error {
	s, err := a.open(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(cmd.Context(), s)
}
