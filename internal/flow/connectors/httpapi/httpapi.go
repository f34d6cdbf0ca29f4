// Package httpapi implements the runtime.Connector contract for `api` and
// `webhook` services over net/http. No third-party HTTP client appears in
// the retrieved example pack, so the standard library is the grounded
// choice here rather than a gap (see DESIGN.md).
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/flow-lang/flow/internal/flow/runtime"
)

// HeaderPart is one piece of a declared header's value: either literal text
// or a reference to an env-lookup variable, resolved fresh on every dispatch
// rather than once at registry-build time.
type HeaderPart struct {
	Literal string
	EnvVar  string // non-empty means "look this up via Connector.Env instead of using Literal"
}

// Header is one declared `with headers:` entry. Its value is a sequence of
// parts re-interpolated against the live environment immediately before
// each call is dispatched, matching spec.md §4.2's "Header-Name:
// `<interpolated-value>`" grammar.
type Header struct {
	Name  string
	Parts []HeaderPart
}

// Connector dispatches ServiceCall invocations to a fixed base URL declared
// by a Flow `is an API at "..."` / `is a webhook at "..."` service.
type Connector struct {
	BaseURL string
	Headers []Header
	Env     func(name string) string
	Client  *http.Client
}

// New builds a Connector for the given base URL (the service's Target). env
// resolves the env-lookup variables a header's interpolated value may
// reference, called once per header per dispatch.
func New(baseURL string, headers []Header, env func(name string) string) *Connector {
	return &Connector{
		BaseURL: baseURL,
		Headers: headers,
		Env:     env,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// resolve renders a header's value against the current environment.
func (c *Connector) resolve(h Header) string {
	var b strings.Builder
	for _, part := range h.Parts {
		if part.EnvVar != "" {
			b.WriteString(c.Env(part.EnvVar))
			continue
		}
		b.WriteString(part.Literal)
	}
	return b.String()
}

// Invoke issues an HTTP request: verb becomes the method, the optional path
// is joined onto BaseURL, and `with` params are sent as a JSON body for
// any verb other than "get" and "delete".
func (c *Connector) Invoke(ctx context.Context, verb, description string, params []runtime.Param, path runtime.Value) (runtime.InvokeResult, error) {
	target := c.BaseURL
	if path != nil && !runtime.IsEmpty(path) {
		if text, ok := path.(runtime.Text); ok {
			target = joinURL(c.BaseURL, string(text))
		}
	}

	method := strings.ToUpper(verb)
	var body io.Reader
	if method != http.MethodGet && method != http.MethodDelete && len(params) > 0 {
		payload := map[string]interface{}{}
		for _, p := range params {
			payload[p.Name] = p.Value.ToJSON()
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			return runtime.InvokeResult{}, &runtime.ConnectorError{Message: fmt.Sprintf("encoding request body: %s", err), Retryable: false}
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return runtime.InvokeResult{}, &runtime.ConnectorError{Message: fmt.Sprintf("building request: %s", err), Retryable: false}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range c.Headers {
		req.Header.Set(h.Name, c.resolve(h))
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return runtime.InvokeResult{}, &runtime.ConnectorError{Message: fmt.Sprintf("%s %s: %s", method, target, err), Retryable: true}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return runtime.InvokeResult{}, &runtime.ConnectorError{Message: fmt.Sprintf("reading response body: %s", err), Retryable: true}
	}

	var decoded interface{}
	if len(raw) > 0 {
		if jsonErr := json.Unmarshal(raw, &decoded); jsonErr != nil {
			decoded = string(raw)
		}
	}

	result := runtime.InvokeResult{
		Result:  runtime.FromGo(decoded),
		Status:  runtime.Number(resp.StatusCode),
		Headers: headersToRecord(resp.Header),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, &runtime.ConnectorError{
			Message:   fmt.Sprintf("%s %s returned status %d", method, target, resp.StatusCode),
			Retryable: true,
		}
	}

	return result, nil
}

// Ask is not supported by an HTTP-backed API/webhook connector; only AI
// services use it.
func (c *Connector) Ask(ctx context.Context, instruction string, askContext runtime.Value) (runtime.AskResult, error) {
	return runtime.AskResult{}, &runtime.ConnectorError{Message: "ask is not supported by an API connector", Retryable: false}
}

func joinURL(base, path string) string {
	if strings.HasSuffix(base, "/") && strings.HasPrefix(path, "/") {
		return base + strings.TrimPrefix(path, "/")
	}
	if !strings.HasSuffix(base, "/") && !strings.HasPrefix(path, "/") {
		return base + "/" + path
	}
	return base + path
}

func headersToRecord(h http.Header) runtime.Record {
	rec := runtime.Record{}
	for k := range h {
		rec[k] = runtime.Text(h.Get(k))
	}
	return rec
}
