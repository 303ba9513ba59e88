package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/flagx"
	"github.com/dmitrijs2005/closetsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// accept strings like "5m" or integer nanoseconds. Only fields present in
// the file override the Config.
type JsonConfig struct {
	HTTPAddr                    *string         `json:"http_addr"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	DataDir                     *string         `json:"data_dir"`
	CloudURL                    *string         `json:"cloud_url"`
	CloudGRPCAddr               *string         `json:"cloud_grpc_addr"`
	SyncTimeout                 *timex.Duration `json:"sync_timeout"`
	JobDelay                    *timex.Duration `json:"job_delay"`
	Workers                     *int            `json:"workers"`
	QueueSize                   *int            `json:"queue_size"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	FetchTimeout                *timex.Duration `json:"fetch_timeout"`
	MaxCaptureBytes             *int            `json:"max_capture_bytes"`
	TryOnURL                    *string         `json:"tryon_url"`
	LogFile                     *string         `json:"log_file"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag nothing is loaded. Panics on read or
// unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.HTTPAddr, jc.HTTPAddr)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.CloudURL, jc.CloudURL)
	setString(&cfg.CloudGRPCAddr, jc.CloudGRPCAddr)
	setString(&cfg.SecretKey, jc.SecretKey)
	setString(&cfg.TryOnURL, jc.TryOnURL)
	setString(&cfg.LogFile, jc.LogFile)
	setDuration(&cfg.SyncTimeout, jc.SyncTimeout)
	setDuration(&cfg.JobDelay, jc.JobDelay)
	setDuration(&cfg.AccessTokenValidityDuration, jc.AccessTokenValidityDuration)
	setDuration(&cfg.FetchTimeout, jc.FetchTimeout)
	setInt(&cfg.Workers, jc.Workers)
	setInt(&cfg.QueueSize, jc.QueueSize)
	setInt(&cfg.MaxCaptureBytes, jc.MaxCaptureBytes)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
