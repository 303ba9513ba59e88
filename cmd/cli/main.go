package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/buildinfo"
	"github.com/dmitrijs2005/closetsync/internal/client"
	"github.com/dmitrijs2005/closetsync/internal/client/cli"
	"github.com/dmitrijs2005/closetsync/internal/client/config"
	"github.com/dmitrijs2005/closetsync/internal/logging"
)

const onlineCheckInterval = 10 * time.Second

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()

	// the REPL owns stdout
	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = logging.Output(cfg.LogFile)
	}
	logger := logging.NewJSONLogger(out, slog.LevelWarn)

	ctx, cancel := context.WithCancel(context.Background())

	node, err := client.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	poolDone := make(chan struct{})
	go func() {
		defer close(poolDone)
		if err := node.Pool.Run(ctx); err != nil {
			logger.Error(ctx, "worker pool", "error", err)
		}
	}()

	app := cli.NewApp(cli.Services{
		Auth:    node.Auth,
		Library: node.Library,
		Capture: node.Capture,
		Sync:    node.Sync,
	})
	app.Root(ctx, onlineCheckInterval)

	cancel()
	<-poolDone
	if err := node.Close(); err != nil {
		logger.Error(context.Background(), "close", "error", err)
	}
}
