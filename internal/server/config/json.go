package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/timecapsule/internal/flagx"
	"github.com/dmitrijs2005/timecapsule/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file. Interval
// fields use timex.Duration so "90s" and integer nanoseconds both work.
// Zero values leave the corresponding Config field unchanged.
type JsonConfig struct {
	HTTPAddr       string         `json:"http_addr"`
	GRPCAddr       string         `json:"grpc_addr"`
	DatabaseDSN    string         `json:"database_dsn"`
	SecretKey      string         `json:"secret_key"`
	StorageBackend string         `json:"storage_backend"`
	UploadsDir     string         `json:"uploads_dir"`
	MaxFileSize    int64          `json:"max_file_size"`
	MaxFiles       int            `json:"max_files"`
	S3AccessKey    string         `json:"s3_access_key"`
	S3SecretKey    string         `json:"s3_secret_key"`
	S3Bucket       string         `json:"s3_bucket"`
	S3Region       string         `json:"s3_region"`
	S3BaseEndpoint string         `json:"s3_base_endpoint"`
	SMTPHost       string         `json:"smtp_host"`
	SMTPPort       int            `json:"smtp_port"`
	SMTPUser       string         `json:"smtp_user"`
	SMTPPassword   string         `json:"smtp_password"`
	SMTPSecure     *bool          `json:"smtp_secure"`
	MailFrom       string         `json:"mail_from"`
	MailTimeout    timex.Duration `json:"mail_timeout"`
	FrontendURL    string         `json:"frontend_url"`
	SweepSchedule  string         `json:"sweep_schedule"`
	SweepOnStart   *bool          `json:"sweep_on_start"`
	SweepTimeout   timex.Duration `json:"sweep_timeout"`
	LogLevel       string         `json:"log_level"`
}

// parseJSON loads the file named by -c / -config, if any, and copies its
// non-zero values into cfg.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.HTTPAddr, c.HTTPAddr)
	setString(&cfg.GRPCAddr, c.GRPCAddr)
	setString(&cfg.DatabaseDSN, c.DatabaseDSN)
	setString(&cfg.SecretKey, c.SecretKey)
	setString(&cfg.StorageBackend, c.StorageBackend)
	setString(&cfg.UploadsDir, c.UploadsDir)
	if c.MaxFileSize > 0 {
		cfg.MaxFileSize = c.MaxFileSize
	}
	if c.MaxFiles > 0 {
		cfg.MaxFiles = c.MaxFiles
	}
	setString(&cfg.S3AccessKey, c.S3AccessKey)
	setString(&cfg.S3SecretKey, c.S3SecretKey)
	setString(&cfg.S3Bucket, c.S3Bucket)
	setString(&cfg.S3Region, c.S3Region)
	setString(&cfg.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&cfg.SMTPHost, c.SMTPHost)
	if c.SMTPPort > 0 {
		cfg.SMTPPort = c.SMTPPort
	}
	setString(&cfg.SMTPUser, c.SMTPUser)
	setString(&cfg.SMTPPassword, c.SMTPPassword)
	if c.SMTPSecure != nil {
		cfg.SMTPSecure = *c.SMTPSecure
	}
	setString(&cfg.MailFrom, c.MailFrom)
	if c.MailTimeout.Duration > 0 {
		cfg.MailTimeout = c.MailTimeout.Duration
	}
	setString(&cfg.FrontendURL, c.FrontendURL)
	setString(&cfg.SweepSchedule, c.SweepSchedule)
	if c.SweepOnStart != nil {
		cfg.SweepOnStart = *c.SweepOnStart
	}
	if c.SweepTimeout.Duration > 0 {
		cfg.SweepTimeout = c.SweepTimeout.Duration
	}
	setString(&cfg.LogLevel, c.LogLevel)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
