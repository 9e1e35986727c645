package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/sirupsen/logrus"
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

	in, err := loadPromptInput(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	previous := []string(cfg.Previous)
	if len(previous) == 0 {
		for _, st := range in.History {
			previous = append(previous, st.Action)
		}
	}

	sampler, err := cfg.Sampler(os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, closeOut, err := fileutils.Tee(os.Stdout, cfg.OutPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("open -out: %w", err).Error())
		os.Exit(2)
	}
	defer closeOut()

	runID := uuid.NewString()
	log.WithFields(logrus.Fields{"run_id": runID, "model": cfg.Model, "n": cfg.N}).Info("sampling actions")

	cands, err := sampleActions(ctx, sampler, cfg, in, out)
	if err != nil {
		log.WithError(err).Error("sampling failed")
		closeOut()
		os.Exit(1)
	}
	repeated := writeReport(out, cands, previous)
	log.WithFields(logrus.Fields{"run_id": runID, "repeated": repeated, "total": len(cands)}).Info("done")

	if cfg.JSONLPath != "" {
		records := browsing.BuildCandidateRecords(runID, cands, previous, cfg.BalanceQuotes)
		if err := writeRecords(cfg.JSONLPath, records); err != nil {
			log.WithError(err).Error("write -jsonl")
			closeOut()
			os.Exit(1)
		}
		for _, r := range records {
			if r.NormalizeError != "" {
				log.WithFields(logrus.Fields{"sample": r.SampleIndex, "error": r.NormalizeError}).Warn("action not normalized")
			}
		}
	}
}

type candidateSampler interface {
	SampleScored(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, p provider.SampleParams) ([]browsing.Candidate, error)
}

func loadPromptInput(cfg Config) (actionPromptInput, error) {
	in := actionPromptInput{Subtask: cfg.Subtask}
	obs, err := fileutils.ReadText(cfg.ObservationPath)
	if err != nil {
		return in, fmt.Errorf("read -observation: %w", err)
	}
	in.Observation = obs
	if cfg.HistoryPath != "" {
		if err := fileutils.ReadJSONFile(cfg.HistoryPath, &in.History); err != nil {
			return in, fmt.Errorf("read -history: %w", err)
		}
	}
	if cfg.InteractionLogPath != "" {
		logText, err := fileutils.ReadText(cfg.InteractionLogPath)
		if err != nil {
			return in, fmt.Errorf("read -interaction-log: %w", err)
		}
		in.InteractionLog = logText
	}
	return in, nil
}

// sampleActions issues the single n-best request and prints how long it took.
func sampleActions(ctx context.Context, s candidateSampler, cfg Config, in actionPromptInput, w io.Writer) ([]browsing.Candidate, error) {
	start := time.Now()
	cands, err := s.SampleScored(ctx, provider.UserTexts(buildActionPrompt(in)), provider.SampleParams{
		Temperature:      cfg.Temperature,
		TopP:             cfg.TopP,
		N:                cfg.N,
		TopLogprobs:      cfg.TopLogprobs,
		MaxTokens:        cfg.MaxTokens,
		FrequencyPenalty: cfg.FrequencyPenalty,
		PresencePenalty:  cfg.PresencePenalty,
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "\nTime taken: %.2fs\n", time.Since(start).Seconds())
	return cands, nil
}

// writeReport prints every candidate in sample order with its confidence, then the number of
// candidates repeating a previous action. It returns that number.
func writeReport(w io.Writer, cands []browsing.Candidate, previous []string) int {
	texts := make([]string, 0, len(cands))
	for _, c := range cands {
		if c.ScoreErr != nil {
			fmt.Fprintf(w, "\nconfidence_score: n/a (%v), response:\n %s\n", c.ScoreErr, c.Text)
		} else {
			fmt.Fprintf(w, "\nconfidence_score: %.2f, response:\n %s\n", c.Confidence, c.Text)
		}
		texts = append(texts, c.Text)
	}
	repeated := browsing.CountRepeated(texts, previous)
	fmt.Fprintf(w, "\nRepeated action number: %d, total: %d\n", repeated, len(cands))
	return repeated
}

func writeRecords(path string, records []browsing.CandidateRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fileutils.WriteJSONL(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
