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

	Subtask            string
	ObservationPath    string
	HistoryPath        string
	InteractionLogPath string
	Previous           stringList

	N           int
	Temperature float64
	TopP        float64
	TopLogprobs int
	MaxTokens   int

	FrequencyPenalty float64
	PresencePenalty  float64

	OutPath       string
	JSONLPath     string
	BalanceQuotes bool
	LogLevel      string
}

func (c Config) Validate() error {
	if err := c.ModelFlags.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Subtask) == "" {
		return errors.New("missing -subtask")
	}
	if c.ObservationPath == "" {
		return errors.New("missing -observation")
	}
	if c.N <= 0 {
		return errors.New("n must be > 0")
	}
	if c.TopLogprobs <= 0 || c.TopLogprobs > 20 {
		return errors.New("top-logprobs must be in 1..20")
	}
	if c.Temperature < 0 || c.TopP < 0 || c.TopP > 1 {
		return errors.New("temperature must be >= 0 and top-p in 0..1")
	}
	if c.MaxTokens < 0 {
		return errors.New("max-tokens must be >= 0")
	}
	if c.FrequencyPenalty < -2 || c.FrequencyPenalty > 2 || c.PresencePenalty < -2 || c.PresencePenalty > 2 {
		return errors.New("frequency-penalty and presence-penalty must be in -2..2")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		ModelFlags: provider.ModelFlags{
			Model:   "meta-llama/Llama-3.1-8B-Instruct",
			Retries: 2,
		},
		N:           20,
		Temperature: 1.0,
		TopP:        0.95,
		TopLogprobs: 5,
		OutPath:     "out.txt",
		LogLevel:    "info",
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	cfg.ModelFlags.Register(fs)
	fs.StringVar(&cfg.Subtask, "subtask", cfg.Subtask, "Current assigned subtask")
	fs.StringVar(&cfg.ObservationPath, "observation", cfg.ObservationPath, "Path to the AXTree observation text")
	fs.StringVar(&cfg.HistoryPath, "history", cfg.HistoryPath, "Optional JSON file: [{\"action\":..., \"explanation\":...}]")
	fs.StringVar(&cfg.InteractionLogPath, "interaction-log", cfg.InteractionLogPath, "Optional page interaction log text file")
	fs.Var(&cfg.Previous, "previous", "Previous action counted as a repeat when a candidate contains it (repeatable; defaults to the history actions)")
	fs.IntVar(&cfg.N, "n", cfg.N, "Number of candidates sampled in one request")
	fs.Float64Var(&cfg.Temperature, "temperature", cfg.Temperature, "Sampling temperature")
	fs.Float64Var(&cfg.TopP, "top-p", cfg.TopP, "Nucleus sampling mass")
	fs.IntVar(&cfg.TopLogprobs, "top-logprobs", cfg.TopLogprobs, "Alternatives reported per token for confidence scoring")
	fs.IntVar(&cfg.MaxTokens, "max-tokens", cfg.MaxTokens, "Max tokens per candidate (0 = backend default)")
	fs.Float64Var(&cfg.FrequencyPenalty, "frequency-penalty", cfg.FrequencyPenalty, "Penalty on tokens by frequency so far (-2..2)")
	fs.Float64Var(&cfg.PresencePenalty, "presence-penalty", cfg.PresencePenalty, "Penalty on tokens already present (-2..2)")
	fs.StringVar(&cfg.OutPath, "out", cfg.OutPath, "Copy of the printed report (empty disables)")
	fs.StringVar(&cfg.JSONLPath, "jsonl", cfg.JSONLPath, "Optional JSONL file of ranked candidate records")
	fs.BoolVar(&cfg.BalanceQuotes, "balance-quotes", cfg.BalanceQuotes, "Retry malformed actions after escaping the last unmatched quote")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.ObservationPath = cleanOptional(cfg.ObservationPath)
	cfg.HistoryPath = cleanOptional(cfg.HistoryPath)
	cfg.InteractionLogPath = cleanOptional(cfg.InteractionLogPath)
	cfg.OutPath = cleanOptional(cfg.OutPath)
	cfg.JSONLPath = cleanOptional(cfg.JSONLPath)
	return cfg, nil
}

func cleanOptional(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, " | ") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}
