// Package mock provides a scripted connector used by `flow run --mock`
// and by the test suites that exercise ServiceCall/AskStatement dispatch
// without a live dependency.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/flow-lang/flow/internal/flow/runtime"
)

// Response is one scripted reply for an Invoke call.
type Response struct {
	Result  runtime.Value
	Status  runtime.Value
	Headers runtime.Value
	Err     *runtime.ConnectorError
}

// AskResponse is one scripted reply for an Ask call.
type AskResponse struct {
	Result     runtime.Value
	Confidence float64
	Err        error
}

// Connector replays a fixed sequence of scripted responses, counting the
// Invoke calls it receives for test assertions.
type Connector struct {
	mu        sync.Mutex
	responses []Response
	askResp   []AskResponse
	calls     int
	askCalls  int
}

// New builds a Connector that returns responses in order, repeating the
// last one once exhausted. At least one response must be supplied.
func New(responses ...Response) *Connector {
	return &Connector{responses: responses}
}

// WithAskResponses adds scripted Ask replies, returning the receiver.
func (c *Connector) WithAskResponses(responses ...AskResponse) *Connector {
	c.askResp = responses
	return c
}

// Invoke returns the next scripted response, in the order added.
func (c *Connector) Invoke(ctx context.Context, verb, description string, params []runtime.Param, path runtime.Value) (runtime.InvokeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.responses) == 0 {
		return runtime.InvokeResult{}, &runtime.ConnectorError{Message: "mock connector has no scripted responses", Retryable: false}
	}
	idx := c.calls
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	c.calls++

	r := c.responses[idx]
	if r.Err != nil {
		return runtime.InvokeResult{}, r.Err
	}
	return runtime.InvokeResult{Result: r.Result, Status: r.Status, Headers: r.Headers}, nil
}

// Ask returns the next scripted Ask response.
func (c *Connector) Ask(ctx context.Context, instruction string, askContext runtime.Value) (runtime.AskResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.askResp) == 0 {
		return runtime.AskResult{}, fmt.Errorf("mock connector has no scripted ask responses")
	}
	idx := c.askCalls
	if idx >= len(c.askResp) {
		idx = len(c.askResp) - 1
	}
	c.askCalls++

	r := c.askResp[idx]
	if r.Err != nil {
		return runtime.AskResult{}, r.Err
	}
	return runtime.AskResult{Result: r.Result, Confidence: r.Confidence}, nil
}

// CallCount returns the number of Invoke calls observed so far.
func (c *Connector) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
