package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openai/openai-go"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing/fileutils"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing/logging"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing/provider"
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
	sampler, err := cfg.Sampler(os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	plan, err := runPlanner(ctx, sampler, cfg, os.Stdout)
	if err != nil {
		log.WithError(err).Error("planning failed")
		os.Exit(1)
	}
	if cfg.OutPath != "" {
		if err := fileutils.WriteJSONFileAtomic(cfg.OutPath, plan, cfg.Pretty); err != nil {
			log.WithError(err).Error("write -out")
			os.Exit(1)
		}
		log.WithField("path", cfg.OutPath).Info("wrote plan")
	}
}

type planner interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, p provider.SampleParams) (string, error)
	Structured(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, p provider.SampleParams, name string, schema map[string]interface{}, out any) error
}

// runPlanner prints an unconstrained completion (unless skipped) and then the structured plan,
// each with its elapsed time. The returned plan is normalized and validated.
func runPlanner(ctx context.Context, llm planner, cfg Config, w io.Writer) (browsing.Plan, error) {
	prompt, err := buildPlannerPrompt(browsing.PlannerInput{Sites: cfg.Sites, Intent: cfg.Intent})
	if err != nil {
		return browsing.Plan{}, err
	}
	msgs := provider.UserTexts(prompt)
	params := provider.SampleParams{Temperature: cfg.Temperature}

	if !cfg.SkipFreeform {
		start := time.Now()
		text, err := llm.Complete(ctx, msgs, params)
		if err != nil {
			return browsing.Plan{}, fmt.Errorf("free-form plan: %w", err)
		}
		fmt.Fprintf(w, "\nTime taken: %.2fs, response: %s\n", time.Since(start).Seconds(), text)
	}

	start := time.Now()
	var plan browsing.Plan
	if err := llm.Structured(ctx, msgs, params, "agent_plan", provider.GenerateSchema[browsing.Plan](), &plan); err != nil {
		return browsing.Plan{}, fmt.Errorf("structured plan: %w", err)
	}
	plan.Normalize()
	if err := plan.Validate(); err != nil {
		return plan, fmt.Errorf("invalid plan: %w", err)
	}
	b, err := json.Marshal(plan)
	if err != nil {
		return plan, err
	}
	fmt.Fprintf(w, "\nTime taken: %.2fs, response: %s\n", time.Since(start).Seconds(), b)
	return plan, nil
}
