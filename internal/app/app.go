package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"civicdesk/internal/retention"
	"civicdesk/pkg/api/handlers"
	"civicdesk/pkg/banner"
	"civicdesk/pkg/chat"
	"civicdesk/pkg/config"
	"civicdesk/pkg/logger"
	"civicdesk/pkg/mailer"
	"civicdesk/pkg/notify"
	"civicdesk/pkg/realtime"
	"civicdesk/pkg/store"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	hub     *realtime.Hub
	engine  *notify.Engine
	chatMgr *chat.Manager
	mail    *mailer.Mailer

	srv *http.Server
}

// New initializes resources that do not require a running context (DB,
// hub, fan-out engine, handler wiring). It does not start the HTTP
// server; call Run to start it and block until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	if err := store.Open(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", eff.DBPath, err)
	}

	cfg := eff.Config
	m := mailer.New(cfg.SMTP)
	hub := realtime.NewHub(cfg.Realtime, cfg.Security.CORS.AllowedOrigins)
	engine := notify.New(hub, m)
	chatMgr := chat.NewManager(engine, hub)
	handlers.Init(engine, chatMgr, m, cfg.Security.JWTSecret)

	return &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		hub:       hub,
		engine:    engine,
		chatMgr:   chatMgr,
		mail:      m,
	}, nil
}

func validateConfig(eff config.EffectiveConfigResult) error {
	if eff.Config == nil {
		return fmt.Errorf("nil config")
	}
	if eff.Config.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret (or CIVICDESK_JWT_SECRET) is required")
	}
	if eff.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	return nil
}

// Run starts the hub dispatch loop, the retention scheduler and the HTTP
// server, and blocks until ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()

	go a.hub.Run(ctx)

	cancelRetention, err := retention.Start(ctx, a.eff.Config.Retention)
	if err != nil {
		return err
	}
	defer cancelRetention()

	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		a.shutdown()
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// shutdown drains the HTTP server and closes the store.
func (a *App) shutdown() {
	logger.Info("server_shutting_down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.srv != nil {
		if err := a.srv.Shutdown(sctx); err != nil {
			logger.Error("http_shutdown_failed", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
	}
	logger.Info("server_stopped")
}

// printBanner prints the startup banner and build info.
func (a *App) printBanner() {
	verStr := a.version
	if a.commit != "none" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "unknown" {
		verStr += " @ " + a.buildDate
	}
	banner.PrintWithEff(a.eff, verStr)
}
