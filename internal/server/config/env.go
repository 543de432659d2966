package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// dotEnvFiles are loaded, if present, before the environment is read.
// Variables already set in the process environment win.
var dotEnvFiles = []string{".env"}

// parseEnv overlays values from environment variables named in the struct
// tags. Unset variables leave the current value untouched.
func parseEnv(cfg *Config) error {
	for _, f := range dotEnvFiles {
		// a missing .env file is normal outside development
		_ = godotenv.Load(f)
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
