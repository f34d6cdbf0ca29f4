package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flow-lang/flow/internal/flow/analyzer"
	"github.com/flow-lang/flow/internal/flow/lexer"
	"github.com/flow-lang/flow/internal/flow/parser"
)

func analyze(t *testing.T, src string) []*struct {
	Message    string
	Suggestion string
} {
	t.Helper()
	toks, err := lexer.New("t.flow", src).Scan()
	require.NoError(t, err)
	prog, perrs := parser.New("t.flow", toks).Parse()
	require.False(t, perrs.HasErrors(), "unexpected parse errors: %v", perrs)

	diags := analyzer.New("t.flow").Analyze(prog)
	out := make([]*struct {
		Message    string
		Suggestion string
	}, 0, len(diags))
	for _, d := range diags {
		out = append(out, &struct {
			Message    string
			Suggestion string
		}{Message: d.Message, Suggestion: d.Suggestion})
	}
	return out
}

func TestUnknownServiceSuggestsClosestName(t *testing.T) {
	src := "services:\n    EmailVerifier is an API at \"https://x/\"\n" +
		"workflow:\n    check address using EmailChecker at \"/v\"\n"
	diags := analyze(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "EmailChecker")
	assert.Equal(t, "EmailVerifier", diags[0].Suggestion)
}

func TestUnboundVariableSuggestsClosestName(t *testing.T) {
	src := "workflow:\n    set amount to 5\n    log amonut\n"
	diags := analyze(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "amonut")
	assert.Equal(t, "amount", diags[0].Suggestion)
}

func TestDuplicateStepNameIsError(t *testing.T) {
	src := "workflow:\n    step Send Email:\n        log \"a\"\n    step Send Email:\n        log \"b\"\n"
	diags := analyze(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "duplicate step")
}

func TestDuplicateConfigKeyIsError(t *testing.T) {
	src := "config:\n    name: \"x\"\n    name: \"y\"\nworkflow:\n    log 1\n"
	diags := analyze(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "duplicate config key")
}

func TestUnknownConfigKeyIsWarning(t *testing.T) {
	src := "config:\n    retries: \"3\"\nworkflow:\n    log 1\n"
	diags := analyze(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "unknown config key")
}

func TestDotAccessRootIsNeverFlagged(t *testing.T) {
	src := "workflow:\n    log request.customer.email\n"
	diags := analyze(t, src)
	assert.Empty(t, diags)
}

func TestForEachItemScopedToBody(t *testing.T) {
	src := "workflow:\n    for each item in request.items:\n        log item.name\n    log item\n"
	diags := analyze(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "item")
}

func TestDuplicateHeaderOnServiceWarns(t *testing.T) {
	src := "services:\n    Api is an API at \"https://x/\"\n" +
		"        with headers:\n            X-Key: \"a\"\n            X-Key: \"b\"\n" +
		"workflow:\n    log 1\n"
	diags := analyze(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "duplicate header")
}
