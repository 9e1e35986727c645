package browsing

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrMalformedInput reports action text that cannot be split into lexical tokens.
var ErrMalformedInput = errors.New("malformed action input")

// TokenKind classifies a lexical token of an action string.
type TokenKind int

const (
	Name TokenKind = iota
	Number
	String
	Op
	Comment
	// Newline ends a logical line outside of brackets.
	Newline
	// NL is a line break that carries no meaning: inside brackets or on a blank line.
	NL
	// ErrorToken is a character the grammar has no use for, such as a lone backslash
	// or a backslash-escaped quote outside any literal.
	ErrorToken
)

func (k TokenKind) String() string {
	switch k {
	case Name:
		return "NAME"
	case Number:
		return "NUMBER"
	case String:
		return "STRING"
	case Op:
		return "OP"
	case Comment:
		return "COMMENT"
	case Newline:
		return "NEWLINE"
	case NL:
		return "NL"
	case ErrorToken:
		return "ERRORTOKEN"
	default:
		return "UNKNOWN"
	}
}

// Token is one lexical unit; Text is the exact source slice.
type Token struct {
	Kind   TokenKind
	Text   string
	Line   int
	Column int
}

// SyntaxError locates the point where tokenizing stopped.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at line %d column %d", e.Msg, e.Line, e.Column)
}

func (e *SyntaxError) Unwrap() error { return ErrMalformedInput }

var closers = map[byte]byte{')': '(', ']': '[', '}': '{'}

// threeCharOps and twoCharOps are matched longest first.
var threeCharOps = []string{"**=", "//=", ">>=", "<<=", "..."}
var twoCharOps = []string{"**", "//", ">>", "<<", "<=", ">=", "==", "!=", "->", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=", ":="}

type lexer struct {
	src    string
	pos    int
	line   int
	col    int
	stack  []byte
	tokens []Token
}

// TokenizeAction splits an action string into tokens of the call-expression grammar actions are written in.
// Whitespace between tokens is not represented. Inter-token line continuations
// (backslash + newline) are consumed silently.
func TokenizeAction(src string) ([]Token, error) {
	lx := &lexer{src: src, line: 1}
	if err := lx.run(); err != nil {
		return nil, err
	}
	return lx.tokens, nil
}

func (lx *lexer) run() error {
	lineHasContent := false
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\f':
			lx.advance(1)
		case c == '\r' || c == '\n':
			width := 1
			if c == '\r' && lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '\n' {
				width = 2
			}
			kind := NL
			if len(lx.stack) == 0 && lineHasContent {
				kind = Newline
			}
			lx.emit(kind, width)
			lx.line++
			lx.col = 0
			lineHasContent = false
		case c == '#':
			end := strings.IndexAny(lx.src[lx.pos:], "\r\n")
			if end < 0 {
				end = len(lx.src) - lx.pos
			}
			lx.emit(Comment, end)
		case c == '\\':
			if n := lineBreakWidth(lx.src, lx.pos+1); n > 0 {
				lx.pos += 1 + n
				lx.line++
				lx.col = 0
				continue
			}
			// An escaped quote outside a literal stays a literal quote and opens nothing.
			if lx.pos+1 < len(lx.src) && isQuote(lx.src[lx.pos+1]) {
				lx.emit(ErrorToken, 2)
				lineHasContent = true
				continue
			}
			lx.emit(ErrorToken, 1)
			lineHasContent = true
		case isQuote(c):
			if err := lx.lexString(lx.pos); err != nil {
				return err
			}
			lineHasContent = true
		case isIdentStart(lx.src[lx.pos:]):
			start := lx.pos
			end := lx.scanIdent(start)
			if end < len(lx.src) && isQuote(lx.src[end]) && isStringPrefix(lx.src[start:end]) {
				if err := lx.lexString(start); err != nil {
					return err
				}
			} else {
				lx.emit(Name, end-start)
			}
			lineHasContent = true
		case isDigit(c) || (c == '.' && lx.pos+1 < len(lx.src) && isDigit(lx.src[lx.pos+1])):
			lx.emit(Number, lx.scanNumber()-lx.pos)
			lineHasContent = true
		default:
			if err := lx.lexOp(); err != nil {
				return err
			}
			lineHasContent = true
		}
	}
	if len(lx.stack) > 0 {
		return lx.errorf("unclosed %q before end of input", lx.stack[len(lx.stack)-1])
	}
	return nil
}

func (lx *lexer) emit(kind TokenKind, width int) {
	lx.tokens = append(lx.tokens, Token{
		Kind:   kind,
		Text:   lx.src[lx.pos : lx.pos+width],
		Line:   lx.line,
		Column: lx.col,
	})
	lx.advance(width)
}

func (lx *lexer) advance(width int) {
	lx.pos += width
	lx.col += width
}

func (lx *lexer) errorf(format string, args ...any) error {
	return &SyntaxError{Line: lx.line, Column: lx.col, Msg: fmt.Sprintf(format, args...)}
}

// lexString reads a string literal whose optional prefix starts at start.
// Raw line breaks are accepted inside single-quoted literals: model output routinely
// contains them and only the end of input counts as unterminated.
func (lx *lexer) lexString(start int) error {
	i := start
	for !isQuote(lx.src[i]) {
		i++
	}
	q := lx.src[i]
	delim := string(q)
	if strings.HasPrefix(lx.src[i:], strings.Repeat(delim, 3)) {
		delim = strings.Repeat(delim, 3)
	}
	i += len(delim)

	startLine, startCol := lx.line, lx.col
	lines := 0
	lastBreak := -1
	for {
		if i >= len(lx.src) {
			return &SyntaxError{Line: startLine, Column: startCol, Msg: "unterminated string literal"}
		}
		c := lx.src[i]
		if c == '\\' {
			if n := lineBreakWidth(lx.src, i+1); n > 0 {
				lines++
				lastBreak = i + n
				i += 1 + n
				continue
			}
			i += 2
			continue
		}
		if c == '\n' {
			lines++
			lastBreak = i
		}
		if strings.HasPrefix(lx.src[i:], delim) {
			i += len(delim)
			break
		}
		i++
	}

	lx.tokens = append(lx.tokens, Token{Kind: String, Text: lx.src[start:i], Line: startLine, Column: startCol})
	if lines > 0 {
		lx.line += lines
		lx.col = i - lastBreak - 1
	} else {
		lx.col += i - start
	}
	lx.pos = i
	return nil
}

func (lx *lexer) lexOp() error {
	rest := lx.src[lx.pos:]
	for _, ops := range [][]string{threeCharOps, twoCharOps} {
		for _, op := range ops {
			if strings.HasPrefix(rest, op) {
				lx.emit(Op, len(op))
				return nil
			}
		}
	}
	c := rest[0]
	switch c {
	case '(', '[', '{':
		lx.stack = append(lx.stack, c)
		lx.emit(Op, 1)
		return nil
	case ')', ']', '}':
		if len(lx.stack) == 0 || lx.stack[len(lx.stack)-1] != closers[c] {
			return lx.errorf("unmatched %q", c)
		}
		lx.stack = lx.stack[:len(lx.stack)-1]
		lx.emit(Op, 1)
		return nil
	}
	if strings.IndexByte("+-*/%@&|^~<>=.,:;!", c) >= 0 {
		lx.emit(Op, 1)
		return nil
	}
	_, width := utf8.DecodeRuneInString(rest)
	lx.emit(ErrorToken, width)
	return nil
}

func (lx *lexer) scanIdent(start int) int {
	i := start
	for i < len(lx.src) {
		r, width := utf8.DecodeRuneInString(lx.src[i:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		i += width
	}
	return i
}

func (lx *lexer) scanNumber() int {
	i := lx.pos
	for i < len(lx.src) {
		c := lx.src[i]
		switch {
		case isDigit(c) || c == '.' || c == '_' || isLetterASCII(c):
			i++
		case (c == '+' || c == '-') && i > lx.pos && (lx.src[i-1] == 'e' || lx.src[i-1] == 'E') && !isHexPrefixed(lx.src[lx.pos:i]):
			i++
		default:
			return i
		}
	}
	return i
}

func isHexPrefixed(s string) bool {
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func lineBreakWidth(s string, i int) int {
	if i >= len(s) {
		return 0
	}
	switch s[i] {
	case '\n':
		return 1
	case '\r':
		if i+1 < len(s) && s[i+1] == '\n' {
			return 2
		}
		return 1
	}
	return 0
}

func isQuote(c byte) bool { return c == '\'' || c == '"' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetterASCII(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isIdentStart(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || unicode.IsLetter(r)
}

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}
