package handlers

import (
	"context"
	"testing"

	"github.com/arthur-debert/phazr/pkg/errors"
	"github.com/arthur-debert/phazr/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestScriptHandler(t *testing.T) {
	h := NewScriptHandler(nil)
	env := types.Environment{
		Name:      "staging",
		Namespace: "apps",
		Variables: map[string]string{"REGION": "eu"},
	}

	t.Run("success", func(t *testing.T) {
		res := h.Execute(context.Background(), types.Operation{
			Type:    types.OperationScriptExec,
			Command: "echo $ENVIRONMENT $NAMESPACE $REGION $OP_OWNER",
			Metadata: map[string]string{"owner": "ops"},
		}, env)
		assert.True(t, res.Success)
		assert.NoError(t, res.Error)
		assert.Equal(t, "staging apps eu ops\n", res.Output)
		assert.Equal(t, 0, res.Metadata["exit_code"])
	})

	t.Run("namespace override", func(t *testing.T) {
		res := h.Execute(context.Background(), types.Operation{
			Command:   "printf %s $NAMESPACE",
			Namespace: "batch",
		}, env)
		assert.Equal(t, "batch", res.Output)
	})

	t.Run("failure", func(t *testing.T) {
		res := h.Execute(context.Background(), types.Operation{Command: "echo nope; exit 2"}, env)
		assert.False(t, res.Success)
		assert.True(t, errors.IsErrorCode(res.Error, errors.ErrOperationFailed))
		assert.Equal(t, 2, res.Metadata["exit_code"])
		assert.Contains(t, res.Output, "nope")
	})
}

func TestSkipHandler(t *testing.T) {
	res := SkipHandler{}.Execute(context.Background(), types.Operation{
		Type:        types.OperationSkip,
		Description: "placeholder",
	}, types.Environment{})
	assert.True(t, res.Success)
	assert.True(t, res.Skipped)
	assert.Contains(t, res.Output, "placeholder")
}
