package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"text/tabwriter"

	"github.com/openai/openai-go"
	"github.com/sirupsen/logrus"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing/fileutils"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing/logging"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing/provider"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
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

	articles, err := loadArticles(cfg.ArticlesPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	articles = sampleArticles(articles, cfg.Sample, cfg.Seed)
	if len(articles) == 0 {
		fmt.Fprintln(os.Stderr, "no articles in -articles")
		os.Exit(2)
	}

	ev := evaluator{concurrency: cfg.Concurrency, limiter: newLimiter(cfg.RPS), log: log}
	for _, m := range []struct {
		model string
		dst   *llm
	}{
		{cfg.Model, &ev.gen},
		{cfg.MetaModel, &ev.meta},
		{cfg.JudgeModel, &ev.judge},
	} {
		s, err := cfg.SamplerFor(m.model, os.Getenv)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(2)
		}
		*m.dst = s
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := ev.run(ctx, articles)
	if err != nil {
		log.WithError(err).Error("evaluation failed")
		os.Exit(1)
	}
	fmt.Fprintln(os.Stdout, rep.ImprovedPrompt)
	fmt.Fprintln(os.Stdout)
	if err := printAverages(os.Stdout, rep.Averages); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if cfg.OutPath != "" {
		if err := fileutils.WriteJSONFileAtomic(cfg.OutPath, rep, cfg.Pretty); err != nil {
			log.WithError(err).Error("write -out")
			os.Exit(1)
		}
	}
}

type llm interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, p provider.SampleParams) (string, error)
	Structured(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, p provider.SampleParams, name string, schema map[string]interface{}, out any) error
}

type article struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type articleResult struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	SimpleSummary      string             `json:"simple_summary"`
	ImprovedSummary    string             `json:"improved_summary"`
	SimpleEvaluation   browsing.ScoreCard `json:"simple_evaluation"`
	ImprovedEvaluation browsing.ScoreCard `json:"improved_evaluation"`
}

type averages struct {
	Criteria []string  `json:"criteria"`
	Original []float64 `json:"original_prompt"`
	Improved []float64 `json:"improved_prompt"`
}

type report struct {
	ImprovedPrompt string          `json:"improved_prompt"`
	Articles       []articleResult `json:"articles"`
	Averages       averages        `json:"averages"`
}

type evaluator struct {
	meta, gen, judge llm
	concurrency      int
	limiter          *rate.Limiter
	log              logrus.FieldLogger
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// run writes the improved prompt, then summarizes and scores every article with both prompts.
func (e evaluator) run(ctx context.Context, articles []article) (report, error) {
	improved, err := e.complete(ctx, e.meta, metaPrompt())
	if err != nil {
		return report{}, fmt.Errorf("meta prompt: %w", err)
	}
	improved = strings.TrimSpace(improved)

	limit := e.concurrency
	if limit == 0 {
		limit = 1
	}
	results := make([]articleResult, len(articles))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, a := range articles {
		g.Go(func() error {
			r, err := e.evaluateArticle(gctx, improved, a)
			if err != nil {
				return fmt.Errorf("article %s: %w", a.ID, err)
			}
			results[i] = r
			e.log.WithFields(logrus.Fields{"done": done.Add(1), "total": len(articles)}).Info("evaluated article")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report{}, err
	}

	simple := make([]browsing.ScoreCard, len(results))
	better := make([]browsing.ScoreCard, len(results))
	for i, r := range results {
		simple[i] = r.SimpleEvaluation
		better[i] = r.ImprovedEvaluation
	}
	simpleAvg, err := browsing.AverageScores(simple)
	if err != nil {
		return report{}, err
	}
	betterAvg, err := browsing.AverageScores(better)
	if err != nil {
		return report{}, err
	}
	return report{
		ImprovedPrompt: improved,
		Articles:       results,
		Averages:       averages{Criteria: browsing.Criteria, Original: simpleAvg, Improved: betterAvg},
	}, nil
}

func (e evaluator) evaluateArticle(ctx context.Context, improved string, a article) (articleResult, error) {
	r := articleResult{ID: a.ID, Title: a.Title}
	var err error
	if r.SimpleSummary, err = e.complete(ctx, e.gen, simplePrompt(a.Content)); err != nil {
		return r, fmt.Errorf("simple summary: %w", err)
	}
	if r.ImprovedSummary, err = e.complete(ctx, e.gen, improvedPrompt(improved, a.Content)); err != nil {
		return r, fmt.Errorf("improved summary: %w", err)
	}
	if r.SimpleEvaluation, err = e.score(ctx, a.Content, r.SimpleSummary); err != nil {
		return r, fmt.Errorf("score simple summary: %w", err)
	}
	if r.ImprovedEvaluation, err = e.score(ctx, a.Content, r.ImprovedSummary); err != nil {
		return r, fmt.Errorf("score improved summary: %w", err)
	}
	return r, nil
}

func (e evaluator) complete(ctx context.Context, model llm, prompt string) (string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return model.Complete(ctx, provider.UserTexts(prompt), provider.SampleParams{Temperature: 1})
}

func (e evaluator) score(ctx context.Context, articleText, summary string) (browsing.ScoreCard, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return browsing.ScoreCard{}, err
	}
	var card browsing.ScoreCard
	err := e.judge.Structured(ctx, provider.UserTexts(evaluationPrompt(articleText, summary)), provider.SampleParams{Temperature: 1},
		"score_card", provider.GenerateSchema[browsing.ScoreCard](), &card)
	if err != nil {
		return card, err
	}
	return card, card.Validate()
}

func loadArticles(path string) ([]article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open -articles: %w", err)
	}
	defer f.Close()

	var out []article
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var a article
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if strings.TrimSpace(a.Content) == "" {
			continue
		}
		if a.ID == "" {
			a.ID = fmt.Sprintf("line-%d", line)
		}
		out = append(out, a)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read -articles: %w", err)
	}
	return out, nil
}

// sampleArticles returns n articles drawn without replacement using seed; the same seed and
// input always give the same sample. n <= 0 or n >= len keeps everything in input order.
func sampleArticles(in []article, n int, seed uint64) []article {
	if n <= 0 || n >= len(in) {
		return in
	}
	r := rand.New(rand.NewPCG(seed, seed))
	idx := r.Perm(len(in))[:n]
	out := make([]article, n)
	for i, j := range idx {
		out[i] = in[j]
	}
	return out
}

func printAverages(w io.Writer, avg averages) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Criteria\tOriginal Prompt\tImproved Prompt")
	for i, c := range avg.Criteria {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\n", c, avg.Original[i], avg.Improved[i])
	}
	return tw.Flush()
}
