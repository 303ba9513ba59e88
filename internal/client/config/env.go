package config

import (
	"errors"

	"github.com/dmitrijs2005/closetsync/internal/flagx"
)

// parseEnv overlays Config with CLOSETSYNC_* variables, after loading .env
// from the working directory. Panics on malformed values.
func parseEnv(cfg *Config) {
	if err := flagx.LoadDotEnv(); err != nil {
		panic(err)
	}

	flagx.EnvString("CLOSETSYNC_HTTP_ADDR", &cfg.HTTPAddr)
	flagx.EnvString("CLOSETSYNC_DATABASE_DSN", &cfg.DatabaseDSN)
	flagx.EnvString("CLOSETSYNC_DATA_DIR", &cfg.DataDir)
	flagx.EnvString("CLOSETSYNC_CLOUD_URL", &cfg.CloudURL)
	flagx.EnvString("CLOSETSYNC_CLOUD_GRPC_ADDR", &cfg.CloudGRPCAddr)
	flagx.EnvString("CLOSETSYNC_SECRET_KEY", &cfg.SecretKey)
	flagx.EnvString("CLOSETSYNC_TRYON_URL", &cfg.TryOnURL)
	flagx.EnvString("CLOSETSYNC_LOG_FILE", &cfg.LogFile)

	err := errors.Join(
		flagx.EnvDuration("CLOSETSYNC_SYNC_TIMEOUT", &cfg.SyncTimeout),
		flagx.EnvDuration("CLOSETSYNC_JOB_DELAY", &cfg.JobDelay),
		flagx.EnvDuration("CLOSETSYNC_ACCESS_TOKEN_TTL", &cfg.AccessTokenValidityDuration),
		flagx.EnvDuration("CLOSETSYNC_FETCH_TIMEOUT", &cfg.FetchTimeout),
		flagx.EnvInt("CLOSETSYNC_WORKERS", &cfg.Workers),
		flagx.EnvInt("CLOSETSYNC_QUEUE_SIZE", &cfg.QueueSize),
		flagx.EnvInt("CLOSETSYNC_MAX_CAPTURE_BYTES", &cfg.MaxCaptureBytes),
	)
	if err != nil {
		panic(err)
	}
}
