// Command action-normalize cleans model-emitted action strings into parseable calls.
// Actions come from the arguments, or one per line on stdin when there are none.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing/fileutils"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing/logging"
)

func main() {
	cfg, inputs, err := parseFlags(flag.CommandLine, os.Args[1:])
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

	if len(inputs) == 0 {
		inputs, err = fileutils.ReadLines(os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("read stdin: %w", err).Error())
			os.Exit(2)
		}
	}

	results := normalizeAll(inputs, cfg.BalanceQuotes)
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
			log.WithField("input", r.Input).Warn(r.Error)
		} else if r.QuotesBalanced {
			log.WithField("input", r.Input).Info("recovered after escaping unbalanced quotes")
		}
	}

	if err := writeResults(os.Stdout, results, cfg.JSONL); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if failed > 0 {
		log.WithFields(logrus.Fields{"failed": failed, "total": len(results)}).Error("malformed actions")
		os.Exit(1)
	}
}

type result struct {
	Input          string `json:"input"`
	Action         string `json:"action,omitempty"`
	QuotesBalanced bool   `json:"quotes_balanced,omitempty"`
	Error          string `json:"error,omitempty"`
}

func normalizeAll(inputs []string, balanceQuotes bool) []result {
	out := make([]result, 0, len(inputs))
	for _, in := range inputs {
		r := result{Input: in}
		action, retried, err := browsing.NormalizeWithRetry(in, balanceQuotes)
		if err != nil {
			r.Error = err.Error()
		} else {
			r.Action = action
			r.QuotesBalanced = retried
		}
		out = append(out, r)
	}
	return out
}

// writeResults prints each action, or each result as JSON when jsonl is set. Failed inputs
// print nothing in plain mode.
func writeResults(w io.Writer, results []result, jsonl bool) error {
	if jsonl {
		return fileutils.WriteJSONL(w, results)
	}
	for _, r := range results {
		if r.Error != "" {
			continue
		}
		if _, err := fmt.Fprintln(w, r.Action); err != nil {
			return err
		}
	}
	return nil
}
