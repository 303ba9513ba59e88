// Package config handles configuration for the local node: defaults, an
// optional .env file and environment, a JSON overlay and command-line flags,
// applied in that order.
package config

import "time"

// Config holds runtime settings for the local node.
//
// Fields:
//   - HTTPAddr: bind address of the capture API.
//   - DatabaseDSN: SQLite DSN of the local catalog.
//   - DataDir: root of the per-user image tree.
//   - CloudURL / CloudGRPCAddr: HTTP base URL and gRPC health address of the cloud node.
//   - SyncTimeout: upper bound for one export exchange.
//   - JobDelay: simulated post-capture processing time.
//   - Workers / QueueSize: background pool size and backlog.
//   - SecretKey / AccessTokenValidityDuration: HS256 signing of API tokens.
//   - FetchTimeout / MaxCaptureBytes: limits on captured images.
//   - TryOnURL: try-on inference endpoint; empty disables generation.
//   - LogFile: rotated log file; empty logs to stdout.
type Config struct {
	HTTPAddr                    string
	DatabaseDSN                 string
	DataDir                     string
	CloudURL                    string
	CloudGRPCAddr               string
	SyncTimeout                 time.Duration
	JobDelay                    time.Duration
	Workers                     int
	QueueSize                   int
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	FetchTimeout                time.Duration
	MaxCaptureBytes             int
	TryOnURL                    string
	LogFile                     string
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = "127.0.0.1:5000"
	c.DatabaseDSN = "file:closetsync.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	c.DataDir = "saved_images"
	c.CloudURL = "http://127.0.0.1:8081"
	c.CloudGRPCAddr = "127.0.0.1:50051"
	c.SyncTimeout = 5 * time.Minute
	c.JobDelay = 1 * time.Second
	c.Workers = 4
	c.QueueSize = 64
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.FetchTimeout = 10 * time.Second
	c.MaxCaptureBytes = 10 << 20
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, JSON (if present) and command-line flags (if present).
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
