package browsing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []TokenKind {
	out := make([]TokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func texts(toks []Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out
}

func TestTokenizeAction_Call(t *testing.T) {
	toks, err := TokenizeAction("click('a51', button='right')")
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{Name, Op, String, Op, Name, Op, String, Op}, kinds(toks))
	assert.Equal(t, []string{"click", "(", "'a51'", ",", "button", "=", "'right'", ")"}, texts(toks))
}

func TestTokenizeAction_CommentAfterCall(t *testing.T) {
	toks, err := TokenizeAction("fill('1', 'a, b # c')  # trailing")
	require.NoError(t, err)
	last := toks[len(toks)-1]
	assert.Equal(t, Comment, last.Kind)
	assert.Equal(t, "# trailing", last.Text)
	assert.Equal(t, "'a, b # c'", toks[4].Text)
}

func TestTokenizeAction_LineBreaks(t *testing.T) {
	toks, err := TokenizeAction("click(\n'1')")
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{Name, Op, NL, String, Op}, kinds(toks))

	toks, err = TokenizeAction("a\nb")
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{Name, Newline, Name}, kinds(toks))

	toks, err = TokenizeAction("\n# only\n")
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{NL, Comment, NL}, kinds(toks))
}

func TestTokenizeAction_LineContinuation(t *testing.T) {
	toks, err := TokenizeAction("a \\\nb")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, texts(toks))
	assert.Equal(t, 2, toks[1].Line)
}

func TestTokenizeAction_StringForms(t *testing.T) {
	toks, err := TokenizeAction(`fill('1', r'C:\path')`)
	require.NoError(t, err)
	assert.Equal(t, String, toks[4].Kind)
	assert.Equal(t, `r'C:\path'`, toks[4].Text)

	toks, err = TokenizeAction("send_msg_to_user(\"\"\"a\n\"b\"\n\"\"\")")
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{Name, Op, String, Op}, kinds(toks))

	toks, err = TokenizeAction(`fill('1', 'it\'s')`)
	require.NoError(t, err)
	assert.Equal(t, `'it\'s'`, toks[4].Text)
}

func TestTokenizeAction_PositionsAfterMultilineString(t *testing.T) {
	toks, err := TokenizeAction("x = '''a\nbc''' + y")
	require.NoError(t, err)
	require.Len(t, toks, 5)
	assert.Equal(t, 1, toks[2].Line)
	assert.Equal(t, 4, toks[2].Column)
	assert.Equal(t, "+", toks[3].Text)
	assert.Equal(t, 2, toks[3].Line)
	assert.Equal(t, 6, toks[3].Column)
}

func TestTokenizeAction_ContinuationCRLFInsideString(t *testing.T) {
	toks, err := TokenizeAction("x = 'a\\\r\nbc' + y")
	require.NoError(t, err)
	require.Len(t, toks, 5)
	assert.Equal(t, 2, toks[3].Line)
	assert.Equal(t, 4, toks[3].Column)

	_, err = TokenizeAction("f('a\\\r\nb'))")
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Line)
	assert.Equal(t, 3, se.Column)
}

func TestTokenizeAction_StrayBackslash(t *testing.T) {
	toks, err := TokenizeAction(`foo\qbar`)
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{Name, ErrorToken, Name}, kinds(toks))

	toks, err = TokenizeAction(`click('12')\'`)
	require.NoError(t, err)
	assert.Equal(t, `\'`, toks[len(toks)-1].Text)
}

func TestTokenizeAction_Operators(t *testing.T) {
	toks, err := TokenizeAction("a**=b != c...")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "**=", "b", "!=", "c", "..."}, texts(toks))
}

func TestTokenizeAction_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "unterminated string", in: "click('1)"},
		{name: "unclosed paren", in: "click('1'"},
		{name: "unmatched close", in: "click('1'))"},
		{name: "mismatched bracket", in: "f([1)]"},
		{name: "two actions glued by a quote", in: "click('768')'click('804')"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TokenizeAction(tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedInput))
			var se *SyntaxError
			assert.True(t, errors.As(err, &se))
		})
	}
}

func TestTokenizeAction_UnterminatedLocation(t *testing.T) {
	_, err := TokenizeAction("click('1)")
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1, se.Line)
	assert.Equal(t, 6, se.Column)
}
