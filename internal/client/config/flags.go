package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/closetsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   capture API bind address
//	-d string   catalog DSN
//	-s string   image data directory
//	-u string   cloud node base URL
//	-g string   cloud node gRPC address
//	-l string   log file
//
// Other arguments are filtered out with flagx.FilterArgs so they do not
// interfere with the JSON config flags.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-u", "-g", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "address and port of the capture API")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "catalog database DSN")
	fs.StringVar(&cfg.DataDir, "s", cfg.DataDir, "image data directory")
	fs.StringVar(&cfg.CloudURL, "u", cfg.CloudURL, "cloud node base URL")
	fs.StringVar(&cfg.CloudGRPCAddr, "g", cfg.CloudGRPCAddr, "cloud node gRPC address")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file (empty for stdout)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
