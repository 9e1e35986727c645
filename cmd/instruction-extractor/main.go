package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	sampler, err := cfg.Sampler(os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	msgs := provider.UserTexts(extractorRole, extractionRequest(cfg.Site, cfg.Intent))

	if cfg.N > 0 {
		mean, err := runFreeform(ctx, sampler, cfg, msgs, os.Stdout)
		switch {
		case err == nil:
			log.WithFields(logrus.Fields{"n": cfg.N, "mean_confidence": mean}).Info("free-form run scored")
		case cfg.TopLogprobs == 0 && errors.Is(err, browsing.ErrEmptySequence):
			log.Debug("free-form run not scored")
		default:
			log.WithError(err).Error("free-form run failed")
			os.Exit(1)
		}
	}

	in, err := runStructured(ctx, sampler, cfg, msgs, os.Stdout)
	if err != nil {
		log.WithError(err).Error("structured extraction failed")
		os.Exit(1)
	}
	if cfg.OutPath != "" {
		if err := fileutils.WriteJSONFileAtomic(cfg.OutPath, in, cfg.Pretty); err != nil {
			log.WithError(err).Error("write -out")
			os.Exit(1)
		}
	}
}

type extractor interface {
	SampleScored(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, p provider.SampleParams) ([]browsing.Candidate, error)
	Structured(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, p provider.SampleParams, name string, schema map[string]interface{}, out any) error
}

// runFreeform samples cfg.N unconstrained answers, prints the first and returns the mean
// confidence over all of them. The error wraps browsing.ErrEmptySequence when nothing was scored.
func runFreeform(ctx context.Context, x extractor, cfg Config, msgs []openai.ChatCompletionMessageParamUnion, w io.Writer) (float64, error) {
	start := time.Now()
	cands, err := x.SampleScored(ctx, msgs, provider.SampleParams{
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
		N:           cfg.N,
		TopLogprobs: cfg.TopLogprobs,
		Logprobs:    true,
	})
	if err != nil {
		return 0, err
	}
	first := ""
	if len(cands) > 0 {
		first = cands[0].Text
	}
	fmt.Fprintf(w, "\nTime taken: %.2fs, response: %s\n", time.Since(start).Seconds(), first)

	mean, err := browsing.MeanConfidence(cands)
	if err != nil {
		return 0, fmt.Errorf("score %d candidates: %w", len(cands), err)
	}
	fmt.Fprintf(w, "mean confidence_score over %d candidates: %.2f\n", len(cands), mean)
	return mean, nil
}

func runStructured(ctx context.Context, x extractor, cfg Config, msgs []openai.ChatCompletionMessageParamUnion, w io.Writer) (browsing.Instructions, error) {
	start := time.Now()
	var in browsing.Instructions
	if err := x.Structured(ctx, msgs, provider.SampleParams{Temperature: cfg.StructuredTemperature}, "instructions", provider.GenerateSchema[browsing.Instructions](), &in); err != nil {
		return in, err
	}
	in.Normalize()
	b, err := json.Marshal(in)
	if err != nil {
		return in, err
	}
	fmt.Fprintf(w, "\nTime taken: %.2fs, response: %s\n", time.Since(start).Seconds(), b)
	return in, nil
}
