package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-r", "127.0.0.1:9091", "-n", "sqlite", "-d", "db", "-k", "s3", "-f", "/srv/data",
			"-s", "secret", "-t", "1", "-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1",
			"-e", "http://endpoint", "-l", "cloud.log",
		}, expectPanic: false,
			expected: &Config{
				HTTPAddr:                    "127.0.0.1:9090",
				GRPCAddr:                    "127.0.0.1:9091",
				DBDriver:                    "sqlite",
				DatabaseDSN:                 "db",
				AssetBackend:                "s3",
				DataDir:                     "/srv/data",
				SecretKey:                   "secret",
				AccessTokenValidityDuration: 1 * time.Minute,
				S3RootUser:                  "user",
				S3RootPassword:              "password",
				S3Bucket:                    "bucket",
				S3Region:                    "us-west-1",
				S3BaseEndpoint:              "http://endpoint",
				LogFile:                     "cloud.log",
			}},
		{name: "Test2 unrelated flags are ignored", args: []string{"cmd", "-c", "cfg.json", "-x", "1"}, expectPanic: false,
			expected: &Config{}},
		{name: "Test3 bad minutes", args: []string{"cmd", "-t", "soon"}, expectPanic: true, expected: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
