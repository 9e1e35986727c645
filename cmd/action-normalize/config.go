package main

import (
	"errors"
	"flag"
	"os"
)

type Config struct {
	BalanceQuotes bool
	JSONL         bool
	LogLevel      string
}

func (c Config) Validate() error {
	if c.LogLevel == "" {
		return errors.New("missing -log-level")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		LogLevel: "warn",
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, []string, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.BoolVar(&cfg.BalanceQuotes, "balance-quotes", cfg.BalanceQuotes, "On malformed input, escape the last unmatched quote and retry once")
	fs.BoolVar(&cfg.JSONL, "jsonl", cfg.JSONL, "Write one JSON result per input instead of the bare action")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")

	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}
	return cfg, fs.Args(), nil
}
