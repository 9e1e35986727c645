package main

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/theimaginaryfoundation/browse-o-bot/browsing/provider"
)

type Config struct {
	provider.ModelFlags

	Site   string
	Intent string

	N                     int
	Temperature           float64
	TopP                  float64
	TopLogprobs           int
	StructuredTemperature float64

	OutPath  string
	Pretty   bool
	LogLevel string
}

func (c Config) Validate() error {
	if err := c.ModelFlags.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Site) == "" {
		return errors.New("missing -site")
	}
	if strings.TrimSpace(c.Intent) == "" {
		return errors.New("missing -intent")
	}
	if c.N < 0 {
		return errors.New("n must be >= 0")
	}
	if c.TopLogprobs < 0 || c.TopLogprobs > 20 {
		return errors.New("top-logprobs must be in 0..20")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		ModelFlags: provider.ModelFlags{
			Model:   "meta-llama/Llama-3.1-8B-Instruct",
			Retries: 2,
		},
		Site:                  "shopping admin",
		N:                     20,
		Temperature:           1.0,
		TopP:                  0.95,
		TopLogprobs:           5,
		StructuredTemperature: 0.6,
		LogLevel:              "info",
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	cfg.ModelFlags.Register(fs)
	fs.StringVar(&cfg.Site, "site", cfg.Site, "Kind of site the intent is carried out on")
	fs.StringVar(&cfg.Intent, "intent", cfg.Intent, "Objective to extract instructions for")
	fs.IntVar(&cfg.N, "n", cfg.N, "Free-form candidates to sample (0 skips the free-form run)")
	fs.Float64Var(&cfg.Temperature, "temperature", cfg.Temperature, "Free-form sampling temperature")
	fs.Float64Var(&cfg.TopP, "top-p", cfg.TopP, "Free-form nucleus sampling mass")
	fs.IntVar(&cfg.TopLogprobs, "top-logprobs", cfg.TopLogprobs, "Alternatives per token for confidence (0 disables scoring)")
	fs.Float64Var(&cfg.StructuredTemperature, "structured-temperature", cfg.StructuredTemperature, "Temperature of the structured extraction")
	fs.StringVar(&cfg.OutPath, "out", "", "Optional path to write the extracted instructions JSON")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print the output JSON")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.OutPath != "" {
		cfg.OutPath = filepath.Clean(cfg.OutPath)
	}
	return cfg, nil
}
