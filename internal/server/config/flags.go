package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/flagx"
)

// serverFlags lists the short flags handled by parseFlags.
var serverFlags = []string{"-a", "-g", "-d", "-s", "-b", "-u", "-f", "-m", "-l", "-w", "-t"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":5000")
//	-g string   gRPC health bind address
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-b string   storage backend: local | s3
//	-u string   uploads directory / S3 key prefix
//	-f string   frontend base URL used in emails
//	-m string   SMTP host (empty disables real delivery)
//	-l string   log level
//	-w string   sweep cron schedule
//	-t int      sweep timeout, minutes
//
// Arguments not in the list are ignored so the JSON -c flag can coexist.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "HTTP address and port")
	fs.StringVar(&cfg.GRPCAddr, "g", cfg.GRPCAddr, "gRPC health address and port")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "JWT secret key")
	fs.StringVar(&cfg.StorageBackend, "b", cfg.StorageBackend, "storage backend (local|s3)")
	fs.StringVar(&cfg.UploadsDir, "u", cfg.UploadsDir, "uploads directory")
	fs.StringVar(&cfg.FrontendURL, "f", cfg.FrontendURL, "frontend base URL")
	fs.StringVar(&cfg.SMTPHost, "m", cfg.SMTPHost, "SMTP host")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.SweepSchedule, "w", cfg.SweepSchedule, "sweep cron schedule")
	sweepTimeout := fs.Int("t", int(cfg.SweepTimeout.Minutes()), "sweep timeout (in minutes)")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg.SweepTimeout = time.Duration(*sweepTimeout) * time.Minute
	return nil
}
