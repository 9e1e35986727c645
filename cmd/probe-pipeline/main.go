package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing/fileutils"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing/logging"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	log, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline{cfg: cfg, run: runGo, log: log}
	if err := p.runStages(ctx, selectStages(cfg)); err != nil {
		log.WithError(err).Error("pipeline failed")
		os.Exit(1)
	}
}

// errSkip marks a stage that has nothing to do.
var errSkip = errors.New("skip")

type pipeline struct {
	cfg Config
	run func(ctx context.Context, args ...string) error
	log logrus.FieldLogger
}

func (p pipeline) instructionsPath() string { return filepath.Join(p.cfg.WorkDir, "instructions.json") }
func (p pipeline) planPath() string         { return filepath.Join(p.cfg.WorkDir, "plan.json") }

func selectStages(cfg Config) []string {
	if cfg.OnlyStage != "" {
		return []string{cfg.OnlyStage}
	}
	if cfg.FromStage != "" {
		return stagesFrom(stageNames, cfg.FromStage)
	}
	return stageNames
}

func (p pipeline) runStages(ctx context.Context, stages []string) error {
	for _, stage := range stages {
		args, err := p.stageArgs(stage)
		if errors.Is(err, errSkip) {
			p.log.WithField("stage", stage).Infof("skip %s: %s", stage, strings.TrimPrefix(err.Error(), "skip: "))
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", stage, err)
		}
		if err := p.run(ctx, args...); err != nil {
			return fmt.Errorf("%s: %w", stage, err)
		}
	}
	return nil
}

// stageArgs returns the go command line for stage, or an error wrapping errSkip.
func (p pipeline) stageArgs(stage string) ([]string, error) {
	cfg := p.cfg
	switch stage {
	case "extract":
		out := p.instructionsPath()
		if !cfg.Overwrite && fileutils.FileExists(out) {
			return nil, fmt.Errorf("%w: instructions already exist", errSkip)
		}
		args := []string{
			"run", "./cmd/instruction-extractor",
			"-site", cfg.Sites,
			"-intent", cfg.Intent,
			"-out", out,
		}
		args = append(args, p.modelArgs(cfg.Model)...)
		if cfg.Pretty {
			args = append(args, "-pretty")
		}
		return args, nil
	case "plan":
		out := p.planPath()
		if !cfg.Overwrite && fileutils.FileExists(out) {
			return nil, fmt.Errorf("%w: plan already exists", errSkip)
		}
		args := []string{
			"run", "./cmd/task-planner",
			"-sites", cfg.Sites,
			"-intent", cfg.Intent,
			"-out", out,
		}
		args = append(args, p.modelArgs(cfg.Model)...)
		if cfg.Pretty {
			args = append(args, "-pretty")
		}
		return args, nil
	case "sample":
		if cfg.ObservationPath == "" {
			return nil, fmt.Errorf("%w: no -observation", errSkip)
		}
		st, err := p.subtask()
		if err != nil {
			return nil, err
		}
		args := []string{
			"run", "./cmd/action-sampler",
			"-subtask", st.Description,
			"-observation", cfg.ObservationPath,
			"-out", filepath.Join(cfg.WorkDir, fmt.Sprintf("actions-%d.txt", st.ID)),
			"-jsonl", filepath.Join(cfg.WorkDir, fmt.Sprintf("actions-%d.jsonl", st.ID)),
			"-balance-quotes",
		}
		return append(args, p.modelArgs(cfg.Model)...), nil
	case "judge":
		if cfg.ImagesGlob == "" {
			return nil, fmt.Errorf("%w: no -images", errSkip)
		}
		st, err := p.subtask()
		if err != nil {
			return nil, err
		}
		args := []string{
			"run", "./cmd/progress-judge",
			"-images", cfg.ImagesGlob,
			"-subtask", st.Description,
			"-jsonl", filepath.Join(cfg.WorkDir, fmt.Sprintf("judge-%d.jsonl", st.ID)),
		}
		return append(args, p.modelArgs(cfg.JudgeModel)...), nil
	default:
		return nil, fmt.Errorf("unknown stage %q", stage)
	}
}

// modelArgs forwards the shared endpoint flags; an empty model keeps the stage's own default.
func (p pipeline) modelArgs(model string) []string {
	var args []string
	if model != "" {
		args = append(args, "-model", model)
	}
	if p.cfg.BaseURL != "" {
		args = append(args, "-base-url", p.cfg.BaseURL)
	}
	if p.cfg.APIKey != "" {
		args = append(args, "-api-key", p.cfg.APIKey)
	}
	if p.cfg.EndpointsPath != "" {
		args = append(args, "-endpoints", p.cfg.EndpointsPath)
	}
	return append(args, "-retries", strconv.Itoa(p.cfg.Retries))
}

// subtask picks -subtask-id (0 = first) from the plan stage's output. Without a plan, the
// extracted instructions stand in, one subtask per step.
func (p pipeline) subtask() (browsing.Subtask, error) {
	plan, src, err := p.loadPlan()
	if err != nil {
		return browsing.Subtask{}, err
	}
	if err := plan.Validate(); err != nil {
		return browsing.Subtask{}, fmt.Errorf("plan %s: %w", src, err)
	}
	if p.cfg.SubtaskID == 0 {
		return plan.Subtasks[0], nil
	}
	for _, st := range plan.Subtasks {
		if st.ID == p.cfg.SubtaskID {
			return st, nil
		}
	}
	return browsing.Subtask{}, fmt.Errorf("plan has no subtask %d", p.cfg.SubtaskID)
}

func (p pipeline) loadPlan() (browsing.Plan, string, error) {
	var plan browsing.Plan
	err := fileutils.ReadJSONFile(p.planPath(), &plan)
	if err == nil {
		return plan, p.planPath(), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return plan, "", fmt.Errorf("read plan: %w", err)
	}
	var in browsing.Instructions
	if ierr := fileutils.ReadJSONFile(p.instructionsPath(), &in); ierr != nil {
		return plan, "", fmt.Errorf("read plan (run the plan or extract stage first): %w", err)
	}
	in.Normalize()
	p.log.WithField("instructions", p.instructionsPath()).Info("no plan, using extracted steps as subtasks")
	return in.AsPlan(), p.instructionsPath(), nil
}

func runGo(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	line := "go " + strings.Join(redactKey(args), " ")
	start := time.Now()
	err := cmd.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "command failed:", line)
		return err
	}
	fmt.Fprintln(os.Stdout, "ok:", line, "(", time.Since(start).Round(time.Millisecond).String()+")")
	return nil
}

// redactKey masks the -api-key value for printing.
func redactKey(args []string) []string {
	out := slices.Clone(args)
	for i := 0; i+1 < len(out); i++ {
		if out[i] == "-api-key" {
			out[i+1] = "***"
		}
	}
	return out
}

func stagesFrom(stages []string, from string) []string {
	from = strings.ToLower(strings.TrimSpace(from))
	for i, s := range stages {
		if s == from {
			return stages[i:]
		}
	}
	return stages
}
