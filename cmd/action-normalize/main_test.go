package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"strings"
	"testing"
)

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("action-normalize", flag.ContinueOnError)
	cfg, rest, err := parseFlags(fs, []string{"-balance-quotes", "-jsonl", "click('1')"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if !cfg.BalanceQuotes || !cfg.JSONL {
		t.Fatalf("BalanceQuotes=%v JSONL=%v", cfg.BalanceQuotes, cfg.JSONL)
	}
	if len(rest) != 1 || rest[0] != "click('1')" {
		t.Fatalf("rest=%q", rest)
	}
}

func TestNormalizeAll(t *testing.T) {
	t.Parallel()

	got := normalizeAll([]string{
		"click('1') # go",
		"click('1'",
		"click('12')'",
	}, true)
	if got[0].Action != "click('1')" || got[0].Error != "" {
		t.Fatalf("got[0]=%+v", got[0])
	}
	if got[1].Error == "" {
		t.Fatalf("expected error for unclosed call: %+v", got[1])
	}
	if !got[2].QuotesBalanced || got[2].Action != `click('12')\'` {
		t.Fatalf("got[2]=%+v", got[2])
	}
}

func TestWriteResults(t *testing.T) {
	t.Parallel()

	results := normalizeAll([]string{"fill('1', 'a')", "oops('"}, false)

	var plain bytes.Buffer
	if err := writeResults(&plain, results, false); err != nil {
		t.Fatalf("writeResults: %v", err)
	}
	if plain.String() != "fill('1','a')\n" {
		t.Fatalf("plain=%q", plain.String())
	}

	var jsonl bytes.Buffer
	if err := writeResults(&jsonl, results, true); err != nil {
		t.Fatalf("writeResults: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(jsonl.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines=%d", len(lines))
	}
	var row result
	if err := json.Unmarshal([]byte(lines[1]), &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if row.Input != "oops('" || row.Error == "" {
		t.Fatalf("row=%+v", row)
	}
}
