package handlers

import (
	"context"

	"github.com/arthur-debert/phazr/pkg/shell"
	"github.com/arthur-debert/phazr/pkg/types"
)

// ScriptHandler runs the operation command through the shell with the
// environment exported as process variables. Exit status 0 is success.
type ScriptHandler struct {
	Runner *shell.Runner
}

// NewScriptHandler creates a script handler.
func NewScriptHandler(runner *shell.Runner) *ScriptHandler {
	if runner == nil {
		runner = shell.NewRunner()
	}
	return &ScriptHandler{Runner: runner}
}

func (h *ScriptHandler) Execute(ctx context.Context, op types.Operation, env types.Environment) types.ExecutionResult {
	res, err := h.Runner.Run(ctx, shell.Command{
		Script: op.Command,
		Env:    shell.Environ(env, op),
	})

	result := succeeded(op, res.Output)
	if err != nil {
		result = failed(op, res.Output, err)
	}
	result.Metadata = map[string]interface{}{"exit_code": res.ExitCode}
	return result
}
