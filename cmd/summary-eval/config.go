package main

import (
	"errors"
	"flag"
	"os"
	"path/filepath"

	"github.com/theimaginaryfoundation/browse-o-bot/browsing/provider"
)

type Config struct {
	provider.ModelFlags

	MetaModel  string
	JudgeModel string

	ArticlesPath string
	Sample       int
	Seed         uint64

	Concurrency int
	RPS         float64

	OutPath  string
	Pretty   bool
	LogLevel string
}

func (c Config) Validate() error {
	if err := c.ModelFlags.Validate(); err != nil {
		return err
	}
	if c.MetaModel == "" {
		return errors.New("missing -meta-model")
	}
	if c.JudgeModel == "" {
		return errors.New("missing -judge-model")
	}
	if c.ArticlesPath == "" {
		return errors.New("missing -articles")
	}
	if c.Sample < 0 {
		return errors.New("sample must be >= 0")
	}
	if c.Concurrency < 0 {
		return errors.New("concurrency must be >= 0")
	}
	if c.RPS < 0 {
		return errors.New("rps must be >= 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		ModelFlags: provider.ModelFlags{
			Model:   "gpt-4o-mini",
			Retries: 2,
		},
		MetaModel:   "o1-preview",
		JudgeModel:  "gpt-4o",
		Sample:      100,
		Seed:        1,
		Concurrency: 8,
		LogLevel:    "info",
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	cfg.ModelFlags.Register(fs)
	fs.StringVar(&cfg.MetaModel, "meta-model", cfg.MetaModel, "Model that rewrites the simple summary prompt")
	fs.StringVar(&cfg.JudgeModel, "judge-model", cfg.JudgeModel, "Model that scores summaries with a structured score card")
	fs.StringVar(&cfg.ArticlesPath, "articles", cfg.ArticlesPath, "JSONL file of articles: {\"id\",\"title\",\"content\"}")
	fs.IntVar(&cfg.Sample, "sample", cfg.Sample, "Evaluate a random sample of N articles (0 = all)")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Seed for -sample")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Articles processed in parallel (0 = 1)")
	fs.Float64Var(&cfg.RPS, "rps", cfg.RPS, "Max model requests per second across workers (0 = unlimited)")
	fs.StringVar(&cfg.OutPath, "out", "", "Optional JSON report path")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print the JSON report")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.ArticlesPath != "" {
		cfg.ArticlesPath = filepath.Clean(cfg.ArticlesPath)
	}
	if cfg.OutPath != "" {
		cfg.OutPath = filepath.Clean(cfg.OutPath)
	}
	return cfg, nil
}
