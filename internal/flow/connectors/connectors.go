// Package connectors builds a runtime.Registry from a Program's declared
// services, wiring each declaration to the concrete connector (httpapi,
// openai, mock) that matches its kind.
package connectors

import (
	"fmt"
	"os"

	"github.com/flow-lang/flow/internal/flow/ast"
	"github.com/flow-lang/flow/internal/flow/connectors/httpapi"
	"github.com/flow-lang/flow/internal/flow/connectors/mock"
	"github.com/flow-lang/flow/internal/flow/connectors/openai"
	"github.com/flow-lang/flow/internal/flow/runtime"
)

// EnvLookup resolves the env-map identifiers a header's interpolated value
// may reference (the `env` root bound at workflow start).
type EnvLookup func(name string) string

// BuildLive wires every declared service to a real connector: api/webhook
// services get an httpapi.Connector, ai services get an openai.Connector
// using the OPENAI_API_KEY environment variable. A plugin service makes
// BuildLive return an error, since no plugin transport exists.
func BuildLive(svcs *ast.Services, env EnvLookup) (runtime.Registry, error) {
	reg := runtime.Registry{}
	if svcs == nil {
		return reg, nil
	}

	for _, decl := range svcs.Declarations {
		switch decl.Kind {
		case ast.ServiceAPI, ast.ServiceWebhook:
			headers := make([]httpapi.Header, 0, len(decl.Headers))
			for _, h := range decl.Headers {
				headers = append(headers, httpapi.Header{Name: h.Name, Parts: headerParts(h)})
			}
			reg[decl.Name] = httpapi.New(decl.Target, headers, env)

		case ast.ServiceAI:
			apiKey := env("OPENAI_API_KEY")
			if apiKey == "" {
				apiKey = os.Getenv("OPENAI_API_KEY")
			}
			reg[decl.Name] = openai.New(apiKey, decl.Target)

		case ast.ServicePlugin:
			return nil, fmt.Errorf("service '%s': no transport is registered for plugin services", decl.Name)
		}
	}

	return reg, nil
}

// BuildMock wires every declared service to a mock.Connector, each
// returning the given default success response. Used by `flow run --mock`
// to exercise the pipeline end-to-end without a live dependency.
func BuildMock(svcs *ast.Services, success mock.Response) runtime.Registry {
	reg := runtime.Registry{}
	if svcs == nil {
		return reg
	}
	for _, decl := range svcs.Declarations {
		conn := mock.New(success)
		if decl.Kind == ast.ServiceAI {
			conn = conn.WithAskResponses(mock.AskResponse{Result: success.Result, Confidence: 0.75})
		}
		reg[decl.Name] = conn
	}
	return reg
}

// headerParts turns a declared header's value expression into the template
// httpapi re-interpolates on every dispatch: literal text interleaved with
// `env.X` references. A header referencing workflow-scoped variables is out
// of reach here since service declarations are resolved before any workflow
// scope exists; spec.md §4.2 headers may only reference `env`.
func headerParts(h *ast.Header) []httpapi.HeaderPart {
	switch v := h.Value.(type) {
	case *ast.StringLiteral:
		return []httpapi.HeaderPart{{Literal: v.Value}}
	case *ast.InterpolatedString:
		parts := make([]httpapi.HeaderPart, 0, len(v.Parts))
		for _, part := range v.Parts {
			if part.Expr == nil {
				parts = append(parts, httpapi.HeaderPart{Literal: part.Text})
				continue
			}
			if dot, ok := part.Expr.(*ast.DotAccess); ok {
				if obj, ok := dot.Object.(*ast.Identifier); ok && obj.Name == "env" {
					parts = append(parts, httpapi.HeaderPart{EnvVar: dot.Property})
					continue
				}
			}
		}
		return parts
	default:
		return nil
	}
}
