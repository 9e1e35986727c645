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

	ImagesGlob string
	Subtask    string

	N           int
	Temperature float64
	TopLogprobs int
	Concurrency int

	JSONLPath string
	LogLevel  string
}

func (c Config) Validate() error {
	if err := c.ModelFlags.Validate(); err != nil {
		return err
	}
	if c.ImagesGlob == "" {
		return errors.New("missing -images")
	}
	if _, err := filepath.Match(c.ImagesGlob, ""); err != nil {
		return errors.New("invalid -images pattern")
	}
	if strings.TrimSpace(c.Subtask) == "" {
		return errors.New("missing -subtask")
	}
	if c.N <= 0 {
		return errors.New("n must be > 0")
	}
	if c.TopLogprobs < 0 || c.TopLogprobs > 20 {
		return errors.New("top-logprobs must be in 0..20")
	}
	if c.Concurrency < 0 {
		return errors.New("concurrency must be >= 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		ModelFlags: provider.ModelFlags{
			Model:   "openbmb/MiniCPM-o-2_6",
			Retries: 2,
		},
		N:           5,
		Temperature: 0.6,
		TopLogprobs: 5,
		Concurrency: 4,
		LogLevel:    "info",
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	cfg.ModelFlags.Register(fs)
	fs.StringVar(&cfg.ImagesGlob, "images", cfg.ImagesGlob, "Glob of screenshots to judge (e.g. 'runs/*/simulator/*_screenshot_som.png')")
	fs.StringVar(&cfg.Subtask, "subtask", cfg.Subtask, "Subtask whose progress is judged")
	fs.IntVar(&cfg.N, "n", cfg.N, "Judgements sampled per screenshot")
	fs.Float64Var(&cfg.Temperature, "temperature", cfg.Temperature, "Sampling temperature")
	fs.IntVar(&cfg.TopLogprobs, "top-logprobs", cfg.TopLogprobs, "Alternatives per token for confidence (0 disables scoring)")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Screenshots judged in parallel (0 = 1)")
	fs.StringVar(&cfg.JSONLPath, "jsonl", "", "Optional JSONL file of per-screenshot verdicts")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.JSONLPath != "" {
		cfg.JSONLPath = filepath.Clean(cfg.JSONLPath)
	}
	return cfg, nil
}
