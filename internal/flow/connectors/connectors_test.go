package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flow-lang/flow/internal/flow/ast"
)

func TestBuildLiveResolvesEnvHeaderPerDispatch(t *testing.T) {
	var seenAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	svcs := &ast.Services{
		Declarations: []*ast.ServiceDecl{
			{
				Name:   "Inventory",
				Kind:   ast.ServiceAPI,
				Target: ts.URL,
				Headers: []*ast.Header{
					{
						Name: "Authorization",
						Value: &ast.InterpolatedString{
							Parts: []ast.InterpolationPart{
								{Text: "Bearer "},
								{Expr: &ast.DotAccess{
									Object:   &ast.Identifier{Name: "env"},
									Property: "INVENTORY_TOKEN",
								}},
							},
						},
					},
				},
			},
		},
	}

	env := map[string]string{"INVENTORY_TOKEN": "first-token"}
	lookup := func(name string) string { return env[name] }

	reg, err := BuildLive(svcs, lookup)
	require.NoError(t, err)
	conn, ok := reg["Inventory"]
	require.True(t, ok)

	_, err = conn.Invoke(context.Background(), "get", "check stock", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer first-token", seenAuth)

	// The token is re-resolved on every dispatch, not baked at build time.
	env["INVENTORY_TOKEN"] = "rotated-token"
	_, err = conn.Invoke(context.Background(), "get", "check stock", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer rotated-token", seenAuth)
}

func TestBuildLivePlainLiteralHeader(t *testing.T) {
	var seenAccept string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAccept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	svcs := &ast.Services{
		Declarations: []*ast.ServiceDecl{
			{
				Name:   "Webhook",
				Kind:   ast.ServiceWebhook,
				Target: ts.URL,
				Headers: []*ast.Header{
					{Name: "Accept", Value: &ast.StringLiteral{Value: "application/json"}},
				},
			},
		},
	}

	reg, err := BuildLive(svcs, func(string) string { return "" })
	require.NoError(t, err)

	_, err = reg["Webhook"].Invoke(context.Background(), "post", "notify", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/json", seenAccept)
}

func TestBuildLivePluginServiceErrors(t *testing.T) {
	svcs := &ast.Services{
		Declarations: []*ast.ServiceDecl{
			{Name: "Legacy", Kind: ast.ServicePlugin, Target: "legacy-plugin"},
		},
	}

	_, err := BuildLive(svcs, func(string) string { return "" })
	assert.Error(t, err)
}
