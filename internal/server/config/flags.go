package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8081")
//	-r string   gRPC health bind address (e.g., ":50051")
//	-n string   database driver ("pgx" or "sqlite")
//	-d string   database DSN
//	-k string   asset backend ("fs" or "s3")
//	-f string   data directory of the fs backend
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   log file
//
// Only recognised flags are kept (flagx.FilterArgs), so -c/-config and
// unrelated arguments do not collide.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-r", "-n", "-d", "-k", "-f", "-s", "-t", "-u", "-p", "-b", "-g", "-e", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "address and port of the ingest API")
	fs.StringVar(&cfg.GRPCAddr, "r", cfg.GRPCAddr, "address and port of the gRPC health service")
	fs.StringVar(&cfg.DBDriver, "n", cfg.DBDriver, "database driver (pgx or sqlite)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.AssetBackend, "k", cfg.AssetBackend, "asset backend (fs or s3)")
	fs.StringVar(&cfg.DataDir, "f", cfg.DataDir, "data directory of the fs backend")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(cfg.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&cfg.S3RootUser, "u", cfg.S3RootUser, "S3 root user")
	fs.StringVar(&cfg.S3RootPassword, "p", cfg.S3RootPassword, "S3 root password")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file (empty for stdout)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
}
