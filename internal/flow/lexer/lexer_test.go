package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flow-lang/flow/internal/flow/lexer"
	"github.com/flow-lang/flow/internal/flow/token"
)

func types(toks []token.Token) []token.Type {
	out := make([]token.Type, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Type)
	}
	return out
}

func TestIndentDedent(t *testing.T) {
	src := "workflow:\n    set x to 1\n    if x is above 0:\n        log x\n    complete with r x\n"
	toks, err := lexer.New("t.flow", src).Scan()
	require.NoError(t, err)

	indents, dedents := 0, 0
	for _, ty := range types(toks) {
		if ty == token.INDENT {
			indents++
		}
		if ty == token.DEDENT {
			dedents++
		}
	}
	assert.Equal(t, indents, dedents, "every INDENT must be matched by exactly one DEDENT")
	assert.Equal(t, token.EOF, toks[len(toks)-1].Type)
}

func TestLongestMatchCompound(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []token.Type
	}{
		{"is not empty", "workflow:\n    log x is not empty\n", []token.Type{
			token.WORKFLOW, token.COLON, token.NEWLINE, token.INDENT,
			token.LOG, token.IDENTIFIER, token.IS_NOT_EMPTY, token.NEWLINE,
			token.DEDENT, token.EOF,
		}},
		{"is not valid", "workflow:\n    log x is not valid\n", []token.Type{
			token.WORKFLOW, token.COLON, token.NEWLINE, token.INDENT,
			token.LOG, token.IDENTIFIER, token.IS_NOT, token.IDENTIFIER, token.NEWLINE,
			token.DEDENT, token.EOF,
		}},
		{"is something", "workflow:\n    log x is something\n", []token.Type{
			token.WORKFLOW, token.COLON, token.NEWLINE, token.INDENT,
			token.LOG, token.IDENTIFIER, token.IS, token.IDENTIFIER, token.NEWLINE,
			token.DEDENT, token.EOF,
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			toks, err := lexer.New("t.flow", c.src).Scan()
			require.NoError(t, err)
			assert.Equal(t, c.want, types(toks))
		})
	}
}

func TestTabsRejected(t *testing.T) {
	_, err := lexer.New("t.flow", "workflow:\n\tlog 1\n").Scan()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Tabs")
}

func TestMisalignedIndentRejected(t *testing.T) {
	_, err := lexer.New("t.flow", "workflow:\n   log 1\n").Scan()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple of four")
}

func TestStringInterpolation(t *testing.T) {
	src := `workflow:` + "\n" + `    log "hello {name}!"` + "\n"
	toks, err := lexer.New("t.flow", src).Scan()
	require.NoError(t, err)
	assert.Equal(t, []token.Type{
		token.WORKFLOW, token.COLON, token.NEWLINE, token.INDENT,
		token.LOG, token.STRING_PART, token.INTERPOLATION_START, token.IDENTIFIER, token.INTERPOLATION_END, token.STRING_PART, token.NEWLINE,
		token.DEDENT, token.EOF,
	}, types(toks))
}

func TestEmptyInterpolationFails(t *testing.T) {
	_, err := lexer.New("t.flow", `workflow:`+"\n"+`    log "hi {}"`+"\n").Scan()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Empty interpolation")
}

func TestDotAccessInterpolationOnExpr(t *testing.T) {
	src := `workflow:` + "\n" + `    log "value {request.amount}"` + "\n"
	toks, err := lexer.New("t.flow", src).Scan()
	require.NoError(t, err)
	assert.Equal(t, []token.Type{
		token.WORKFLOW, token.COLON, token.NEWLINE, token.INDENT,
		token.LOG, token.STRING_PART, token.INTERPOLATION_START,
		token.IDENTIFIER, token.DOT, token.IDENTIFIER,
		token.INTERPOLATION_END, token.STRING_PART, token.NEWLINE,
		token.DEDENT, token.EOF,
	}, types(toks))
}

func TestNumberLiteral(t *testing.T) {
	toks, err := lexer.New("t.flow", "workflow:\n    set x to 3.14\n").Scan()
	require.NoError(t, err)
	var found bool
	for _, tk := range toks {
		if tk.Type == token.NUMBER {
			found = true
			assert.Equal(t, 3.14, tk.Literal)
		}
	}
	assert.True(t, found)
}

func TestHyphenatedIdentifier(t *testing.T) {
	toks, err := lexer.New("t.flow", "services:\n    order-service is a plugin \"x\"\n").Scan()
	require.NoError(t, err)
	assert.Equal(t, token.IDENTIFIER, toks[4].Type)
	assert.Equal(t, "order-service", toks[4].Lexeme)
}

func TestCommentStripped(t *testing.T) {
	toks, err := lexer.New("t.flow", "workflow:\n    # a comment\n    log 1 # trailing\n").Scan()
	require.NoError(t, err)
	assert.Equal(t, []token.Type{
		token.WORKFLOW, token.COLON, token.NEWLINE, token.INDENT,
		token.LOG, token.NUMBER, token.NEWLINE,
		token.DEDENT, token.EOF,
	}, types(toks))
}

func TestFuzzDedentToZeroAtEOF(t *testing.T) {
	toks, err := lexer.New("t.flow", "workflow:\n    if x is empty:\n        log 1\n").Scan()
	require.NoError(t, err)
	last := toks[len(toks)-1]
	assert.Equal(t, token.EOF, last.Type)
	assert.Equal(t, token.DEDENT, toks[len(toks)-2].Type)
	assert.Equal(t, token.DEDENT, toks[len(toks)-3].Type)
}
