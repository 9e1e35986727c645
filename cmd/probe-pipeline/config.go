package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/theimaginaryfoundation/browse-o-bot/browsing/provider"
)

var stageNames = []string{"extract", "plan", "sample", "judge"}

type Config struct {
	provider.ModelFlags
	JudgeModel string

	Sites  string
	Intent string

	ObservationPath string
	ImagesGlob      string
	SubtaskID       int

	WorkDir string

	FromStage string
	OnlyStage string

	Pretty    bool
	Overwrite bool
	LogLevel  string
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
	if c.WorkDir == "" {
		return errors.New("missing -work-dir")
	}
	if c.SubtaskID < 0 {
		return errors.New("subtask-id must be >= 0")
	}
	if c.OnlyStage != "" && c.FromStage != "" {
		return errors.New("use only one of -only-stage or -from-stage")
	}
	for _, s := range []string{c.OnlyStage, c.FromStage} {
		if s != "" && !slices.Contains(stageNames, s) {
			return fmt.Errorf("unknown stage %q (want %s)", s, strings.Join(stageNames, "|"))
		}
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		ModelFlags: provider.ModelFlags{
			Model:   "meta-llama/Llama-3.1-8B-Instruct",
			Retries: 2,
		},
		Sites:    "shopping_admin",
		WorkDir:  filepath.FromSlash("runs/probe"),
		LogLevel: "info",
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	cfg.ModelFlags.Register(fs)
	fs.StringVar(&cfg.JudgeModel, "judge-model", cfg.JudgeModel, "Vision model for the judge stage (empty keeps progress-judge's default)")
	fs.StringVar(&cfg.Sites, "sites", cfg.Sites, "Site domains, comma separated")
	fs.StringVar(&cfg.Intent, "intent", cfg.Intent, "User intent to plan and act on")
	fs.StringVar(&cfg.ObservationPath, "observation", cfg.ObservationPath, "AXTree observation for the sample stage (stage skipped when empty)")
	fs.StringVar(&cfg.ImagesGlob, "images", cfg.ImagesGlob, "Screenshot glob for the judge stage (stage skipped when empty)")
	fs.IntVar(&cfg.SubtaskID, "subtask-id", cfg.SubtaskID, "Plan subtask to sample and judge (0 = first)")
	fs.StringVar(&cfg.WorkDir, "work-dir", cfg.WorkDir, "Directory for stage outputs")

	fs.StringVar(&cfg.FromStage, "from-stage", "", "Start at stage: "+strings.Join(stageNames, "|"))
	fs.StringVar(&cfg.OnlyStage, "only-stage", "", "Run only one stage: "+strings.Join(stageNames, "|"))

	fs.BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "Pretty-print JSON outputs where supported")
	fs.BoolVar(&cfg.Overwrite, "overwrite", cfg.Overwrite, "Rerun extract and plan even when their outputs exist")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.FromStage = strings.ToLower(strings.TrimSpace(cfg.FromStage))
	cfg.OnlyStage = strings.ToLower(strings.TrimSpace(cfg.OnlyStage))
	cfg.WorkDir = filepath.Clean(cfg.WorkDir)
	if cfg.ObservationPath != "" {
		cfg.ObservationPath = filepath.Clean(cfg.ObservationPath)
	}
	return cfg, nil
}
