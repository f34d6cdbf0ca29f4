package runtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flow-lang/flow/internal/flow/analyzer"
	"github.com/flow-lang/flow/internal/flow/lexer"
	"github.com/flow-lang/flow/internal/flow/parser"
	"github.com/flow-lang/flow/internal/flow/runtime"
)

func run(t *testing.T, src string, trigger interface{}, reg runtime.Registry) runtime.Outcome {
	t.Helper()
	toks, err := lexer.New("t.flow", src).Scan()
	require.NoError(t, err)
	prog, perrs := parser.New("t.flow", toks).Parse()
	require.False(t, perrs.HasErrors(), "unexpected parse errors: %v", perrs)
	diags := analyzer.New("t.flow").Analyze(prog)
	require.False(t, diags.HasErrors(), "unexpected analysis errors: %v", diags)

	interp := runtime.New("t.flow", reg)
	return interp.Run(context.Background(), prog, runtime.FromGo(trigger), runtime.FromGo(map[string]interface{}{}))
}

func TestScenarioSetAndComplete(t *testing.T) {
	out := run(t, "workflow:\n    set x to 2 plus 3\n    complete with result x\n", map[string]interface{}{}, nil)
	require.Equal(t, runtime.StatusCompleted, out.Status)
	require.Len(t, out.Outputs, 1)
	assert.Equal(t, "result", out.Outputs[0].Name)
	assert.Equal(t, runtime.Number(5), out.Outputs[0].Value)
}

func TestScenarioIfOtherwise(t *testing.T) {
	src := "workflow:\n    if request.n is above 10:\n        complete with tier \"big\"\n    otherwise:\n        complete with tier \"small\"\n"

	out := run(t, src, map[string]interface{}{"request": map[string]interface{}{"n": 42.0}}, nil)
	require.Equal(t, runtime.StatusCompleted, out.Status)
	assert.Equal(t, runtime.Text("big"), out.Outputs[0].Value)

	out = run(t, src, map[string]interface{}{"request": map[string]interface{}{"n": 3.0}}, nil)
	require.Equal(t, runtime.StatusCompleted, out.Status)
	assert.Equal(t, runtime.Text("small"), out.Outputs[0].Value)
}

func TestScenarioForEachAccumulates(t *testing.T) {
	src := "workflow:\n    set s to 0\n    for each item in request.xs:\n        set s to s plus item\n    complete with sum s\n"
	trigger := map[string]interface{}{"request": map[string]interface{}{"xs": []interface{}{1.0, 2.0, 3.0, 4.0}}}
	out := run(t, src, trigger, nil)
	require.Equal(t, runtime.StatusCompleted, out.Status)
	assert.Equal(t, runtime.Number(10), out.Outputs[0].Value)
}

type mockAPIConnector struct {
	invocations int
	failUntil   int
}

func (m *mockAPIConnector) Invoke(ctx context.Context, verb, description string, params []runtime.Param, path runtime.Value) (runtime.InvokeResult, error) {
	m.invocations++
	if m.invocations <= m.failUntil {
		return runtime.InvokeResult{}, &runtime.ConnectorError{Message: "temporary failure", Retryable: true}
	}
	return runtime.InvokeResult{
		Result: runtime.Record{"value": runtime.Text("ok")},
		Status: runtime.Number(200),
	}, nil
}

func (m *mockAPIConnector) Ask(ctx context.Context, instruction string, askContext runtime.Value) (runtime.AskResult, error) {
	panic("not implemented")
}

func TestScenarioServiceCallSavesResult(t *testing.T) {
	src := "services:\n    Api is an API at \"https://x/\"\n" +
		"workflow:\n    get data using Api at \"/p\"\n        save the result as d\n    complete with got d.value\n"
	mock := &mockAPIConnector{}
	out := run(t, src, map[string]interface{}{}, runtime.Registry{"Api": mock})
	require.Equal(t, runtime.StatusCompleted, out.Status)
	assert.Equal(t, runtime.Text("ok"), out.Outputs[0].Value)
	assert.Equal(t, 1, mock.invocations)
}

func TestScenarioRetrySucceedsOnThirdAttempt(t *testing.T) {
	src := "services:\n    Api is an API at \"https://x/\"\n" +
		"workflow:\n    get data using Api at \"/p\"\n        save the result as d\n" +
		"        on failure:\n            retry 3 times waiting 0 seconds\n    complete with got d.value\n"
	mock := &mockAPIConnector{failUntil: 2}
	out := run(t, src, map[string]interface{}{}, runtime.Registry{"Api": mock})
	require.Equal(t, runtime.StatusCompleted, out.Status)
	assert.Equal(t, 3, mock.invocations)
}

func TestScenarioReject(t *testing.T) {
	out := run(t, "workflow:\n    reject with \"bad\"\n", map[string]interface{}{}, nil)
	require.Equal(t, runtime.StatusRejected, out.Status)
	assert.Equal(t, "bad", out.Message)
}

func TestDotAccessOnMissingFieldYieldsEmpty(t *testing.T) {
	src := "workflow:\n    if request.missing is empty:\n        complete with ok true\n    otherwise:\n        reject with \"nope\"\n"
	out := run(t, src, map[string]interface{}{"request": map[string]interface{}{}}, nil)
	require.Equal(t, runtime.StatusCompleted, out.Status)
	assert.Equal(t, runtime.Boolean(true), out.Outputs[0].Value)
}

func TestPlusConcatenatesWhenEitherSideIsText(t *testing.T) {
	out := run(t, "workflow:\n    set x to \"count: \" plus 3\n    complete with msg x\n", map[string]interface{}{}, nil)
	require.Equal(t, runtime.StatusCompleted, out.Status)
	assert.Equal(t, runtime.Text("count: 3"), out.Outputs[0].Value)
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	out := run(t, "workflow:\n    set x to 1 divided by 0\n    complete with x x\n", map[string]interface{}{}, nil)
	require.Equal(t, runtime.StatusError, out.Status)
	assert.Contains(t, out.Message, "division by zero")
}

func TestTimeoutExceededTerminatesWithError(t *testing.T) {
	mock := &mockAPIConnector{failUntil: 1000}
	src := "services:\n    Api is an API at \"https://x/\"\n" +
		"workflow:\n    get data using Api at \"/p\"\n        save the result as d\n" +
		"        on failure:\n            retry 5 times waiting 1 seconds\n    complete with got d.value\n"

	toks, err := lexer.New("t.flow", src).Scan()
	require.NoError(t, err)
	prog, perrs := parser.New("t.flow", toks).Parse()
	require.False(t, perrs.HasErrors())

	interp := runtime.New("t.flow", runtime.Registry{"Api": mock}, runtime.WithTimeout(10*time.Millisecond))
	out := interp.Run(context.Background(), prog, runtime.FromGo(map[string]interface{}{}), runtime.Empty)
	require.Equal(t, runtime.StatusError, out.Status)
	assert.Contains(t, out.Message, "timeout exceeded")
}
