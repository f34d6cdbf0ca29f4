package runtime

// Status is the terminal state of a workflow execution.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusError     Status = "error"
)

// Location points at the source position of a runtime error, when known.
type Location struct {
	Line   int
	Column int
}

// Outcome is the execution result described in spec.md §6: exactly one of
// a completed output map, a rejection message, or an error.
type Outcome struct {
	Status   Status
	Outputs  []Output // ordered, only set when Status == StatusCompleted
	Message  string   // rejection or error message
	Location *Location
}

// Output is one named value produced by a `complete` statement, in the
// order the statement listed it.
type Output struct {
	Name  string
	Value Value
}

func completed(outputs []Output) Outcome {
	return Outcome{Status: StatusCompleted, Outputs: outputs}
}

func rejected(message string) Outcome {
	return Outcome{Status: StatusRejected, Message: message}
}

func errored(message string, loc *Location) Outcome {
	return Outcome{Status: StatusError, Message: message, Location: loc}
}
