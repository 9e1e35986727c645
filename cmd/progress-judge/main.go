package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/sirupsen/logrus"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing/fileutils"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing/logging"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing/provider"
	"golang.org/x/sync/errgroup"
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

	images, err := filepath.Glob(cfg.ImagesGlob)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if len(images) == 0 {
		fmt.Fprintln(os.Stderr, "no screenshots match -images")
		os.Exit(2)
	}
	sort.Strings(images)

	sampler, err := cfg.Sampler(os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	log.WithFields(logrus.Fields{"run_id": runID, "images": len(images), "model": cfg.Model}).Info("judging screenshots")

	verdicts, err := judgeAll(ctx, sampler, cfg, runID, images, log)
	if err != nil {
		log.WithError(err).Error("judging failed")
		os.Exit(1)
	}
	printVerdicts(os.Stdout, verdicts)

	if cfg.JSONLPath != "" {
		f, err := os.Create(cfg.JSONLPath)
		if err != nil {
			log.WithError(err).Error("create -jsonl")
			os.Exit(1)
		}
		if err := fileutils.WriteJSONL(f, verdicts); err != nil {
			_ = f.Close()
			log.WithError(err).Error("write -jsonl")
			os.Exit(1)
		}
		if err := f.Close(); err != nil {
			log.WithError(err).Error("close -jsonl")
			os.Exit(1)
		}
	}
}

type judge interface {
	SampleScored(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, p provider.SampleParams) ([]browsing.Candidate, error)
}

// verdict is the majority-voted status of one screenshot.
type verdict struct {
	RunID      string                 `json:"run_id"`
	Image      string                 `json:"image"`
	Found      bool                   `json:"found"`
	Status     browsing.SubtaskStatus `json:"status,omitempty"`
	Count      int                    `json:"count"`
	Text       string                 `json:"text,omitempty"`
	Tallies    []tally                `json:"tallies,omitempty"`
	Confidence float64                `json:"mean_confidence,omitempty"`
	Elapsed    float64                `json:"elapsed_seconds"`
}

type tally struct {
	Status browsing.SubtaskStatus `json:"status"`
	Count  int                    `json:"count"`
}

// judgeAll judges every image with at most cfg.Concurrency requests in flight. Results keep
// the order of images. The first failure cancels the remaining requests.
func judgeAll(ctx context.Context, j judge, cfg Config, runID string, images []string, log logrus.FieldLogger) ([]verdict, error) {
	limit := cfg.Concurrency
	if limit == 0 {
		limit = 1
	}
	prompt := buildJudgePrompt(cfg.Subtask)
	out := make([]verdict, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, img := range images {
		g.Go(func() error {
			v, err := judgeImage(gctx, j, cfg, prompt, img)
			if err != nil {
				return fmt.Errorf("judge %s: %w", img, err)
			}
			v.RunID = runID
			out[i] = v
			log.WithFields(logrus.Fields{"image": img, "status": v.Status, "count": v.Count}).Debug("judged")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func judgeImage(ctx context.Context, j judge, cfg Config, prompt, img string) (verdict, error) {
	url, err := fileutils.ImageDataURL(img)
	if err != nil {
		return verdict{}, err
	}
	msg := provider.UserTextWithImage(prompt, url)

	start := time.Now()
	cands, err := j.SampleScored(ctx, []openai.ChatCompletionMessageParamUnion{msg}, provider.SampleParams{
		Temperature: cfg.Temperature,
		N:           cfg.N,
		TopLogprobs: cfg.TopLogprobs,
	})
	if err != nil {
		return verdict{}, err
	}
	v := verdict{Image: img, Elapsed: time.Since(start).Seconds()}

	texts := make([]string, 0, len(cands))
	for _, c := range cands {
		texts = append(texts, c.Text)
	}
	winner, all, ok := browsing.TallyStatus(texts)
	if ok {
		v.Found = true
		v.Status = winner.Status
		v.Count = winner.Count
		v.Text = winner.Text
	}
	for _, t := range all {
		v.Tallies = append(v.Tallies, tally{Status: t.Status, Count: t.Count})
	}
	if mean, err := browsing.MeanConfidence(cands); err == nil {
		v.Confidence = mean
	}
	return v, nil
}

func printVerdicts(w io.Writer, verdicts []verdict) {
	for _, v := range verdicts {
		fmt.Fprintf(w, "Time taken: %.2fs\n", v.Elapsed)
		if !v.Found {
			fmt.Fprintf(w, "For %s, No options found.\n", v.Image)
			continue
		}
		fmt.Fprintf(w, "For %s, highest option: `%s` with count: %d and the text is: `%s`\n", v.Image, v.Status, v.Count, v.Text)
	}
}
