package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"sysdash/internal/cache"
	"sysdash/internal/config"
	"sysdash/internal/db"
	"sysdash/internal/models"
	"sysdash/internal/refresh"
	"sysdash/internal/session"
	"sysdash/internal/stats"
	"sysdash/internal/view"
	"sysdash/internal/watch"
	"sysdash/internal/web"
)

// Core is the query side shared by the server and the terminal client.
type Core struct {
	Store *db.Store
	Cache *cache.Cache
	View  *view.Assembler
}

func NewCore(cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) *Core {
	store := db.NewStore(cfg.DBPath)
	c := cache.New(cfg.CacheTTL, cache.WithRegisterer(reg))
	agg := stats.NewAggregator(store, models.DefaultThresholds)
	return &Core{
		Store: store,
		Cache: c,
		View:  view.NewAssembler(store, agg, c, cfg.AlertLimit, logger.With("module", "view")),
	}
}

type App struct {
	cfg  config.Config
	log  *slog.Logger
	core *Core

	refresh *refresh.Scheduler
	watcher *watch.Watcher
	web     *web.Server

	httpSrv *http.Server
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	core := NewCore(cfg, logger, reg)

	key := []byte(cfg.SessionKey)
	if len(key) == 0 {
		logger.Warn("APP_SESSION_KEY not set, sessions will not survive a restart")
		key = securecookie.GenerateRandomKey(32)
	}
	w := web.NewServer(core.View, core.Store, session.NewStore(key, cfg.SecureCookies), reg, logger.With("module", "web"))

	a := &App{cfg: cfg, log: logger, core: core, web: w}
	if cfg.AutoRefresh {
		s, err := refresh.NewScheduler(core.Cache, cfg.RefreshInterval, a.warm, logger.With("module", "refresh"))
		if err != nil {
			return nil, err
		}
		a.refresh = s
	}
	if cfg.WatchStore {
		wt, err := watch.New(cfg.DBPath, core.Cache.InvalidateAll, logger.With("module", "watch"))
		if err != nil {
			return nil, err
		}
		a.watcher = wt
	}
	a.httpSrv = &http.Server{Addr: cfg.Addr, Handler: w.Routes(), ReadHeaderTimeout: 10 * time.Second}
	return a, nil
}

// warm renders the unfiltered dashboard so the first page view hits the cache.
func (a *App) warm(ctx context.Context) {
	d := a.core.View.Render(ctx, models.FilterSpec{}, models.DefaultDisplayLimit)
	a.log.Debug("dashboard warmed", "status", d.Status)
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", "addr", a.cfg.Addr)
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if err := a.core.Store.Ping(ctx); err != nil {
		a.log.Warn("store not ready yet", "db", a.cfg.DBPath, "err", err)
	}
	if a.refresh != nil {
		a.warm(ctx)
		a.refresh.Start(ctx)
		defer a.refresh.Stop()
	}
	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			a.log.Error("store watcher failed", "err", err)
		} else {
			defer a.watcher.Stop()
		}
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		a.log.Error("http server failed", "err", err)
		return err
	}
}
