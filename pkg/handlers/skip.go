package handlers

import (
	"context"

	"github.com/arthur-debert/phazr/pkg/types"
)

// SkipHandler backs the skip operation type: a placeholder step that is
// reported as skipped and never has side effects.
type SkipHandler struct{}

func (SkipHandler) Execute(_ context.Context, op types.Operation, _ types.Environment) types.ExecutionResult {
	result := succeeded(op, "skipped: "+op.Label())
	result.Skipped = true
	return result
}
