package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey int

const workflowKey ctxKey = iota

// Middleware validates the Authorization: Bearer header against the route's
// {name} path parameter, rejecting a token scoped to a different workflow.
func Middleware(tokens *TokenService, workflowParam func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				http.Error(w, "authorization required", http.StatusUnauthorized)
				return
			}

			workflow, err := tokens.ValidateToken(parts[1])
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			if requested := workflowParam(r); requested != "" && requested != workflow {
				http.Error(w, "token is not authorized for this workflow", http.StatusForbidden)
				return
			}

			r = r.WithContext(context.WithValue(r.Context(), workflowKey, workflow))
			next.ServeHTTP(w, r)
		})
	}
}

// WorkflowFromContext returns the workflow name a validated token was
// scoped to.
func WorkflowFromContext(ctx context.Context) string {
	name, _ := ctx.Value(workflowKey).(string)
	return name
}
