// Package app wires the session core together: vault, local store, gateway,
// API client, identity adapters and the coordinator.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/stillwaterhq/stillwater/internal/session/api"
	"github.com/stillwaterhq/stillwater/internal/session/coordinator"
	"github.com/stillwaterhq/stillwater/internal/session/gateway"
	"github.com/stillwaterhq/stillwater/internal/session/identity"
	"github.com/stillwaterhq/stillwater/internal/session/store"
	"github.com/stillwaterhq/stillwater/internal/session/store/drivers/sqlite"
	"github.com/stillwaterhq/stillwater/internal/session/vault"
	"github.com/stillwaterhq/stillwater/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the session core with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	tokens store.TokenStore
	db     store.Store

	Gateway     *gateway.Gateway
	API         *api.Client
	Coordinator *coordinator.Coordinator
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "session-core",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initStores(); err != nil {
		return nil, err
	}
	app.initSession()

	return app, nil
}

// Logger exposes the root logger for callers that add their own components.
func (app *Application) Logger() *slog.Logger { return app.logger }

// Close releases the coordinator's timers and the database connection.
func (app *Application) Close() error {
	app.Coordinator.Close()
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// initStores opens the token vault and the local database and applies
// migrations.
func (app *Application) initStores() error {
	if app.cfg.VaultSecret == "" {
		return fmt.Errorf("vault secret is required")
	}

	tokens, err := vault.Open(app.cfg.VaultFile, []byte(app.cfg.VaultSecret))
	if err != nil {
		return fmt.Errorf("failed to open token vault: %w", err)
	}
	app.tokens = tokens

	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initSession builds the gateway, API client, identity adapters and the
// coordinator, and wires the gateway's auth-failure hook to the logout
// cascade.
func (app *Application) initSession() {
	push := &identity.LoggingPush{Logger: slogx.Component(app.logger, "push")}
	billing := &identity.LoggingBilling{Logger: slogx.Component(app.logger, "billing")}
	analytics := &identity.LoggingAnalytics{Logger: slogx.Component(app.logger, "analytics")}

	var httpClient *http.Client
	if app.cfg.HTTPTimeout > 0 {
		httpClient = &http.Client{Timeout: app.cfg.HTTPTimeout}
	}
	gw := gateway.New(gateway.Config{
		BaseURL:    app.cfg.APIBaseURL,
		Tokens:     app.tokens,
		HTTPClient: httpClient,
		Logger:     app.logger,
	})
	client := api.New(gw, app.tokens)

	coord := coordinator.New(coordinator.Config{
		Tokens:        app.tokens,
		Local:         app.db,
		Users:         client,
		Reminders:     client,
		Push:          push,
		Billing:       billing,
		Analytics:     analytics,
		Logger:        app.logger,
		ReminderDelay: app.cfg.ReminderDelay,
		MorningHour:   app.cfg.MorningHour,
	})
	gw.SetOnAuthFailure(coord.HandleAuthFailure)

	app.Gateway = gw
	app.API = client
	app.Coordinator = coord
}
