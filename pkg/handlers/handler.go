package handlers

import (
	"context"

	"github.com/arthur-debert/phazr/pkg/types"
)

// Handler executes one attempt of an operation against an environment.
// Implementations must return promptly once ctx is done.
type Handler interface {
	Execute(ctx context.Context, op types.Operation, env types.Environment) types.ExecutionResult
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, op types.Operation, env types.Environment) types.ExecutionResult

// Execute calls f.
func (f HandlerFunc) Execute(ctx context.Context, op types.Operation, env types.Environment) types.ExecutionResult {
	return f(ctx, op, env)
}

func succeeded(op types.Operation, output string) types.ExecutionResult {
	return types.ExecutionResult{Operation: op, Success: true, Output: output}
}

func failed(op types.Operation, output string, err error) types.ExecutionResult {
	return types.ExecutionResult{Operation: op, Success: false, Output: output, Error: err}
}
