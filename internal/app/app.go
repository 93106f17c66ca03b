// Package app provides the main application setup and dependency injection.
package app

import (
	"github.com/KiNGTV2025/xdert/pkg/cache"
	"github.com/KiNGTV2025/xdert/pkg/config"
	"github.com/KiNGTV2025/xdert/pkg/handlers/api"
	"github.com/KiNGTV2025/xdert/pkg/httpclient"
	"github.com/KiNGTV2025/xdert/pkg/logging"
	"github.com/KiNGTV2025/xdert/pkg/metrics"
	"github.com/KiNGTV2025/xdert/pkg/playlist"
	"github.com/KiNGTV2025/xdert/pkg/relay"
	"github.com/KiNGTV2025/xdert/pkg/resolve"
	"github.com/KiNGTV2025/xdert/pkg/server"
)

// App is the main application container.
type App struct {
	Config  *config.Config
	Log     *logging.Logger
	Server  *server.Server
	Metrics *metrics.Metrics
	Cache   *cache.ResolveCache
}

// New creates and initializes the application.
func New() (*App, error) {
	cfg := config.Load()

	log := logging.New(cfg.LogLevel, cfg.LogJSON, nil)
	log.Info("initializing StreamFlow relay", "port", cfg.Port, "log_level", cfg.LogLevel)

	client := httpclient.New(cfg, log)

	m := metrics.New()
	resolveCache := cache.New(cfg.CacheTTL, cfg.CacheSweepThreshold, m)
	resolver := resolve.New(client, resolve.NewExtractor(), log)

	srv := server.New(cfg, log)

	handlers := api.NewHandlers(
		log,
		client,
		resolveCache,
		resolver,
		playlist.NewRewriter(),
		relay.New(client, log),
		m,
	)
	handlers.RegisterRoutes(srv.Router())

	return &App{
		Config:  cfg,
		Log:     log,
		Server:  srv,
		Metrics: m,
		Cache:   resolveCache,
	}, nil
}

// Run starts the application.
func (a *App) Run() error {
	a.Log.Info("starting StreamFlow relay", "port", a.Config.Port)
	return a.Server.Start()
}

// Shutdown releases application resources.
func (a *App) Shutdown() {
	a.Log.Info("shutting down application")
	a.Cache.Clear()
}
