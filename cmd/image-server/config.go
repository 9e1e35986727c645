package main

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	Addr     string
	Dir      string
	CertPath string
	KeyPath  string

	ShutdownTimeout time.Duration
	LogLevel        string
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("missing -addr")
	}
	if c.Dir == "" {
		return errors.New("missing -dir")
	}
	if c.KeyPath != "" && c.CertPath == "" {
		return errors.New("-key requires -cert")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown-timeout must be > 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Addr:            ":8086",
		Dir:             "images",
		ShutdownTimeout: 5 * time.Second,
		LogLevel:        "info",
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	fs.StringVar(&cfg.Dir, "dir", cfg.Dir, "Directory of screenshots to serve")
	fs.StringVar(&cfg.CertPath, "cert", "", "PEM certificate; enables TLS")
	fs.StringVar(&cfg.KeyPath, "key", "", "PEM private key (defaults to -cert for a combined PEM)")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Grace period for in-flight requests on shutdown")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Dir = filepath.Clean(cfg.Dir)
	if cfg.CertPath != "" {
		cfg.CertPath = filepath.Clean(cfg.CertPath)
		if cfg.KeyPath == "" {
			cfg.KeyPath = cfg.CertPath
		}
	}
	if cfg.KeyPath != "" {
		cfg.KeyPath = filepath.Clean(cfg.KeyPath)
	}
	return cfg, nil
}
