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

	Sites       string
	Intent      string
	Temperature float64

	SkipFreeform bool
	OutPath      string
	Pretty       bool
	LogLevel     string
}

func (c Config) Validate() error {
	if err := c.ModelFlags.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Sites) == "" {
		return errors.New("missing -sites")
	}
	if strings.TrimSpace(c.Intent) == "" {
		return errors.New("missing -intent")
	}
	if c.Temperature < 0 {
		return errors.New("temperature must be >= 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		ModelFlags: provider.ModelFlags{
			Model:   "meta-llama/Llama-3.1-8B-Instruct",
			Retries: 2,
		},
		Sites:       "shopping_admin",
		Temperature: 0.6,
		LogLevel:    "info",
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	cfg.ModelFlags.Register(fs)
	fs.StringVar(&cfg.Sites, "sites", cfg.Sites, "Site domains, comma separated (e.g. \"map, shopping\")")
	fs.StringVar(&cfg.Intent, "intent", cfg.Intent, "Objective to plan for")
	fs.Float64Var(&cfg.Temperature, "temperature", cfg.Temperature, "Sampling temperature")
	fs.BoolVar(&cfg.SkipFreeform, "skip-freeform", cfg.SkipFreeform, "Skip the unconstrained completion and only run the structured one")
	fs.StringVar(&cfg.OutPath, "out", "", "Optional path to write the validated plan JSON")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print the plan JSON")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.OutPath != "" {
		cfg.OutPath = filepath.Clean(cfg.OutPath)
	}
	return cfg, nil
}
