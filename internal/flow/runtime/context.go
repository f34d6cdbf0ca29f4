package runtime

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const (
	runIDKey ctxKey = iota
	stepNameKey
)

// NewRunID mints a fresh v4 run identifier for one workflow execution,
// attached to every log line and to the host's JSON outcome envelope.
func NewRunID() string {
	return uuid.New().String()
}

// WithRunID attaches a run identifier to ctx, read back by LogStatement
// when it emits to the LogSink.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

func runIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

func withStepName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, stepNameKey, name)
}

func stepNameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(stepNameKey).(string)
	return name
}
