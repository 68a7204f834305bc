package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// cliConfig is read from VALUATOR_* environment variables.
type cliConfig struct {
	APIURL         string        `env:"VALUATOR_API_URL" envDefault:"http://localhost:8080"`
	Token          string        `env:"VALUATOR_TOKEN"`
	Timeout        time.Duration `env:"VALUATOR_TIMEOUT" envDefault:"30s"`
	Concurrency    int           `env:"VALUATOR_CONCURRENCY" envDefault:"4"`
	StrictOversell bool          `env:"VALUATOR_STRICT_OVERSELL"`
	PipelineAPIKey string        `env:"VALUATOR_PIPELINE_API_KEY"`
}

func loadConfig() (cliConfig, error) {
	_ = godotenv.Load()

	var cfg cliConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("reading VALUATOR_* environment: %w", err)
	}
	return cfg, nil
}
