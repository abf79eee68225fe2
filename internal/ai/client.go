// Package ai wraps the external text-generation service: prompt construction,
// the single-turn gateway call, and best-effort decoding of the model reply
// into the structured analysis and reporting-document records.
package ai

import (
	"context"
	"fmt"
)

// TextModel is the gateway interface the engine uses for one model call.
// One prompt in, one raw reply out: single user-turn, synchronous, no
// retries, no streaming, no conversation state between calls.
//
// Implementations must be safe to call concurrently. Any transport or
// service failure — including a reply with no usable text segment — is
// returned as a *GatewayError; an empty reply is never silently returned.
type TextModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GatewayError marks a failed model invocation. The engine converts it into
// a deterministic error analysis and an audit entry with success=false.
type GatewayError struct {
	Provider string
	Err      error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("ai: %s gateway: %v", e.Provider, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// gatewayErr wraps a provider failure, formatting like fmt.Errorf.
func gatewayErr(provider, format string, args ...any) error {
	return &GatewayError{Provider: provider, Err: fmt.Errorf(format, args...)}
}

// modelRef resolves the model reference for a request: a configured
// inference-profile reference takes precedence over the plain model id.
func modelRef(model, inferenceProfile string) string {
	if inferenceProfile != "" {
		return inferenceProfile
	}
	return model
}
