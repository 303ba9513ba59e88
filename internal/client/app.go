// Package client assembles the local node: catalog, image store, worker
// pool, services and the capture API, and runs them until shutdown.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/assets"
	"github.com/dmitrijs2005/closetsync/internal/catalog"
	"github.com/dmitrijs2005/closetsync/internal/client/cloudclient"
	"github.com/dmitrijs2005/closetsync/internal/client/config"
	"github.com/dmitrijs2005/closetsync/internal/client/httpapi"
	"github.com/dmitrijs2005/closetsync/internal/client/services"
	"github.com/dmitrijs2005/closetsync/internal/client/tryon"
	"github.com/dmitrijs2005/closetsync/internal/jobs"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/syncer"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Node holds every long-lived component of the local node.
type Node struct {
	Config  *config.Config
	Logger  logging.Logger
	Catalog *catalog.Catalog
	Store   *assets.FSStore
	Pool    *jobs.Pool
	Tracker *jobs.Tracker
	Cloud   *cloudclient.Client
	Health  *cloudclient.Health

	Auth    services.AuthService
	Capture services.CaptureService
	Library services.LibraryService
	TryOn   services.TryOnService
	Sync    services.SyncService
}

// Build opens storage and wires the services. The pool is created but not
// started; Run or RunPool starts it.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Node, error) {
	c, err := catalog.Open(ctx, "sqlite", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	store, err := assets.NewFSStore(cfg.DataDir, logger.With("component", "asset_store"))
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("asset store: %w", err)
	}

	health, err := cloudclient.NewHealth(cfg.CloudGRPCAddr)
	if err != nil {
		_ = store.Close()
		_ = c.Close()
		return nil, fmt.Errorf("cloud health client: %w", err)
	}

	pool := jobs.NewPool(cfg.Workers, cfg.QueueSize, logger)
	tracker := jobs.NewTracker(c.Jobs(c.DB), pool, logger)
	cloud := cloudclient.New(cfg.CloudURL, cfg.SyncTimeout, logger)

	var gen tryon.Generator = tryon.Disabled{}
	if cfg.TryOnURL != "" {
		gen = tryon.NewHTTPGenerator(cfg.TryOnURL, cfg.SyncTimeout)
	}

	exporter := syncer.NewExporter(c, store, cloud, cfg.SyncTimeout, logger.With("component", "exporter"))

	return &Node{
		Config:  cfg,
		Logger:  logger,
		Catalog: c,
		Store:   store,
		Pool:    pool,
		Tracker: tracker,
		Cloud:   cloud,
		Health:  health,

		Auth: services.NewAuthService(c, cloud, pool, cfg.SecretKey, cfg.AccessTokenValidityDuration, logger),
		Capture: services.NewCaptureService(c, store, tracker, services.CaptureOptions{
			FetchTimeout: cfg.FetchTimeout,
			MaxBytes:     int64(cfg.MaxCaptureBytes),
			JobDelay:     cfg.JobDelay,
		}, logger),
		Library: services.NewLibraryService(c, store, logger),
		TryOn:   services.NewTryOnService(c, store, gen, logger),
		Sync:    services.NewSyncService(c, exporter, tracker, health, cloud, logger),
	}, nil
}

// Router builds the HTTP API over the node's services.
func (n *Node) Router() *gin.Engine {
	return httpapi.NewRouter(httpapi.RouterConfig{
		Auth:    httpapi.NewAuthMiddleware(n.Auth, n.Auth),
		Account: httpapi.NewAccountHandler(n.Auth),
		Capture: httpapi.NewCaptureHandler(n.Capture, int64(n.Config.MaxCaptureBytes)),
		Library: httpapi.NewLibraryHandler(n.Library),
		TryOn:   httpapi.NewTryOnHandler(n.TryOn),
		Sync:    httpapi.NewSyncHandler(n.Sync, n.Logger),
		Status:  httpapi.NewStatusHandler(n.Library, n.Sync),
		Logger:  n.Logger,
	})
}

// Close releases storage handles. The pool must have stopped.
func (n *Node) Close() error {
	return errors.Join(n.Health.Close(), n.Store.Close(), n.Catalog.Close())
}

// Run serves the API and runs the worker pool until ctx is done, then
// shuts the server down and lets queued jobs drain.
func (n *Node) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              n.Config.HTTPAddr,
		Handler:           n.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return n.Pool.Run(ctx)
	})

	g.Go(func() error {
		n.Logger.Info(ctx, "local node listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		n.Logger.Info(ctx, "shutting down local node")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type App struct {
	config *config.Config
	logger logging.Logger
}

func NewApp(c *config.Config) *App {
	gin.SetMode(gin.ReleaseMode)
	logger := logging.NewJSONLogger(logging.Output(c.LogFile), slog.LevelInfo)
	return &App{config: c, logger: logger}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until a termination signal arrives or a component fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting local node...")
	app.initSignalHandler(cancelFunc)

	node, err := Build(ctx, app.config, app.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := node.Close(); err != nil {
			app.logger.Error(ctx, "close node", "error", err)
		}
	}()

	return node.Run(ctx)
}
