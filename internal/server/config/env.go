package config

import (
	"errors"

	"github.com/dmitrijs2005/closetsync/internal/flagx"
)

// parseEnv overlays Config with CLOSETSYNC_CLOUD_* variables, after loading
// .env from the working directory. Panics on malformed values.
func parseEnv(cfg *Config) {
	if err := flagx.LoadDotEnv(); err != nil {
		panic(err)
	}

	flagx.EnvString("CLOSETSYNC_CLOUD_HTTP_ADDR", &cfg.HTTPAddr)
	flagx.EnvString("CLOSETSYNC_CLOUD_GRPC_ADDR", &cfg.GRPCAddr)
	flagx.EnvString("CLOSETSYNC_CLOUD_DB_DRIVER", &cfg.DBDriver)
	flagx.EnvString("CLOSETSYNC_CLOUD_DATABASE_DSN", &cfg.DatabaseDSN)
	flagx.EnvString("CLOSETSYNC_CLOUD_ASSET_BACKEND", &cfg.AssetBackend)
	flagx.EnvString("CLOSETSYNC_CLOUD_DATA_DIR", &cfg.DataDir)
	flagx.EnvString("CLOSETSYNC_CLOUD_SECRET_KEY", &cfg.SecretKey)
	flagx.EnvString("CLOSETSYNC_CLOUD_S3_USER", &cfg.S3RootUser)
	flagx.EnvString("CLOSETSYNC_CLOUD_S3_PASSWORD", &cfg.S3RootPassword)
	flagx.EnvString("CLOSETSYNC_CLOUD_S3_BUCKET", &cfg.S3Bucket)
	flagx.EnvString("CLOSETSYNC_CLOUD_S3_REGION", &cfg.S3Region)
	flagx.EnvString("CLOSETSYNC_CLOUD_S3_ENDPOINT", &cfg.S3BaseEndpoint)
	flagx.EnvString("CLOSETSYNC_CLOUD_S3_PREFIX", &cfg.S3Prefix)
	flagx.EnvString("CLOSETSYNC_CLOUD_LOG_FILE", &cfg.LogFile)

	err := errors.Join(
		flagx.EnvDuration("CLOSETSYNC_CLOUD_ACCESS_TOKEN_TTL", &cfg.AccessTokenValidityDuration),
		flagx.EnvInt("CLOSETSYNC_CLOUD_MAX_SYNC_BYTES", &cfg.MaxSyncBytes),
	)
	if err != nil {
		panic(err)
	}
}
