package runtime

import "context"

// InvokeResult is what a connector's Invoke returns on success: the
// response payload, a status code, and response headers.
type InvokeResult struct {
	Result  Value
	Status  Value
	Headers Value
}

// AskResult is what a connector's Ask returns on success.
type AskResult struct {
	Result     Value
	Confidence float64
}

// ConnectorError is a structured failure from a connector call; Retryable
// tells the ServiceCall error handler whether another attempt is worthwhile.
type ConnectorError struct {
	Message   string
	Retryable bool
}

func (e *ConnectorError) Error() string { return e.Message }

// Connector is one named entry in the registry: a service can be invoked as
// an API/plugin/webhook call or asked as an AI agent, depending on its
// declared kind.
type Connector interface {
	// Invoke dispatches a ServiceCall. path is nil when the call has no
	// `at` clause. params is the evaluated `with` clause, in source order.
	Invoke(ctx context.Context, verb, description string, params []Param, path Value) (InvokeResult, error)

	// Ask dispatches an AskStatement.
	Ask(ctx context.Context, instruction string, askContext Value) (AskResult, error)
}

// Param is one evaluated `with`-clause parameter.
type Param struct {
	Name  string
	Value Value
}

// Registry maps a declared service name to its connector handle.
type Registry map[string]Connector
