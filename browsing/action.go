package browsing

import (
	"regexp"
	"strings"
)

var (
	escapedNewlineRun = regexp.MustCompile(`\\+n`)
	escapedTabRun     = regexp.MustCompile(`\\+t`)
)

// escapeIntroducers are the characters that keep a preceding backslash alive.
const escapeIntroducers = `ntrbfvauxo'"`

// NormalizeAction cleans a model-emitted action string into a single parseable call expression.
// Comments and insignificant line breaks are dropped, the remaining token text is concatenated,
// and escape sequences are normalized. String literal contents are kept verbatim by the
// tokenizer, so a "#" or "," inside quotes survives.
//
// Escapes outside literals can turn into spacing or line breaks that the tokenizer drops, so
// the passes repeat until the text stops changing. Every changing pass shortens the text.
//
// Errors wrap ErrMalformedInput when the text cannot be tokenized.
func NormalizeAction(raw string) (string, error) {
	out, err := normalizeOnce(raw)
	if err != nil {
		return "", err
	}
	for {
		next, err := normalizeOnce(out)
		if err != nil || next == out {
			return out, nil
		}
		out = next
	}
}

func normalizeOnce(raw string) (string, error) {
	tokens, err := TokenizeAction(raw)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, tok := range tokens {
		if tok.Kind == Comment || tok.Kind == NL {
			continue
		}
		b.WriteString(tok.Text)
	}
	return normalizeEscapes(b.String()), nil
}

// normalizeEscapes collapses backslash runs before n and t into the control character
// and drops any backslash that does not introduce a recognized escape.
func normalizeEscapes(s string) string {
	s = escapedNewlineRun.ReplaceAllLiteralString(s, "\n")
	s = escapedTabRun.ReplaceAllLiteralString(s, "\t")
	return dropStrayBackslashes(s)
}

func dropStrayBackslashes(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(s) && strings.IndexByte(escapeIntroducers, s[i+1]) >= 0 {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// EscapeUnbalancedQuotes escapes the last unmatched quote when the text holds an odd number
// of single quotes, and independently of double quotes. Callers may apply it before retrying
// NormalizeAction on ErrMalformedInput; NormalizeAction never applies it itself.
func EscapeUnbalancedQuotes(s string) string {
	s = escapeLastQuote(s, '\'')
	return escapeLastQuote(s, '"')
}

func escapeLastQuote(s string, q byte) string {
	if strings.Count(s, string(q))%2 == 0 {
		return s
	}
	i := strings.LastIndexByte(s, q)
	return s[:i] + `\` + s[i:]
}
