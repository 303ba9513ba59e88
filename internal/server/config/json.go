package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/flagx"
	"github.com/dmitrijs2005/closetsync/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. Durations accept strings such as "1s" or integer
// nanoseconds. Only keys present in the file override the Config.
type JsonConfig struct {
	HTTPAddr                    *string         `json:"http_addr"`
	GRPCAddr                    *string         `json:"grpc_addr"`
	DBDriver                    *string         `json:"db_driver"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	AssetBackend                *string         `json:"asset_backend"`
	DataDir                     *string         `json:"data_dir"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	S3Prefix                    *string         `json:"s3_prefix"`
	MaxSyncBytes                *int            `json:"max_sync_bytes"`
	LogFile                     *string         `json:"log_file"`
}

// parseJson loads configuration values from the JSON file named by -c or
// -config into cfg. Without either flag nothing is loaded. If the file
// cannot be read or contains invalid JSON, the function panics.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.HTTPAddr, jc.HTTPAddr)
	setString(&cfg.GRPCAddr, jc.GRPCAddr)
	setString(&cfg.DBDriver, jc.DBDriver)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.AssetBackend, jc.AssetBackend)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.SecretKey, jc.SecretKey)
	setString(&cfg.S3RootUser, jc.S3RootUser)
	setString(&cfg.S3RootPassword, jc.S3RootPassword)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3Prefix, jc.S3Prefix)
	setString(&cfg.LogFile, jc.LogFile)
	if jc.AccessTokenValidityDuration != nil {
		cfg.AccessTokenValidityDuration = time.Duration(jc.AccessTokenValidityDuration.Duration)
	}
	if jc.MaxSyncBytes != nil {
		cfg.MaxSyncBytes = *jc.MaxSyncBytes
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
