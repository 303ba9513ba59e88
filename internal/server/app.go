// Package server assembles the cloud node: catalog, asset store, the
// ingest API and the gRPC health service, and runs them until shutdown.
package server

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
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/server/config"
	"github.com/dmitrijs2005/closetsync/internal/server/httpapi"
	"github.com/dmitrijs2005/closetsync/internal/server/services"
	"github.com/dmitrijs2005/closetsync/internal/syncer"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/closetsync/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

// Node holds every long-lived component of the cloud node.
type Node struct {
	Config  *config.Config
	Logger  logging.Logger
	Catalog *catalog.Catalog
	Store   assets.Store
	Users   services.UserService
	Sync    services.SyncService

	closeStore func() error
}

// newS3Client is a seam for tests.
var newS3Client = func(ctx context.Context, cfg assets.S3Config) (assets.S3API, error) {
	return assets.NewS3Client(ctx, cfg)
}

// Build opens the catalog and the configured asset backend and wires the
// services.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Node, error) {
	c, err := catalog.Open(ctx, cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg, logger.With("component", "asset_store"))
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("asset store: %w", err)
	}

	users := services.NewUserService(c, cfg.SecretKey, cfg.AccessTokenValidityDuration, logger)
	ingester := syncer.NewIngester(c, store, logger.With("component", "ingester"))

	return &Node{
		Config:     cfg,
		Logger:     logger,
		Catalog:    c,
		Store:      store,
		Users:      users,
		Sync:       services.NewSyncService(c, ingester, users, logger),
		closeStore: closeStore,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (assets.Store, func() error, error) {
	switch cfg.AssetBackend {
	case config.BackendFS, "":
		s, err := assets.NewFSStore(cfg.DataDir, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendS3:
		client, err := newS3Client(ctx, assets.S3Config{
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			Bucket:       cfg.S3Bucket,
			Prefix:       cfg.S3Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return assets.NewS3Store(client, cfg.S3Bucket, cfg.S3Prefix, logger), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown asset backend %q", cfg.AssetBackend)
}

// Router builds the ingest API.
func (n *Node) Router() *gin.Engine {
	return httpapi.NewRouter(httpapi.NewHandler(n.Users, n.Sync, int64(n.Config.MaxSyncBytes)), n.Logger)
}

func (n *Node) Close() error {
	return errors.Join(n.closeStore(), n.Catalog.Close())
}

// Run serves the HTTP API and the gRPC health service until ctx is done.
func (n *Node) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              n.Config.HTTPAddr,
		Handler:           n.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	health := gs.NewHealthServer(n.Config.GRPCAddr, n.Logger, n.Catalog.DB.PingContext, gs.DefaultProbeInterval)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return health.Run(ctx)
	})

	g.Go(func() error {
		n.Logger.Info(ctx, "cloud node listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		n.Logger.Info(ctx, "shutting down cloud node")
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
	// Channel to catch OS signals.
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

	app.logger.Info(ctx, "Starting cloud node...")
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
