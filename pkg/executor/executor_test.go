package executor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arthur-debert/phazr/pkg/errors"
	"github.com/arthur-debert/phazr/pkg/handlers"
	"github.com/arthur-debert/phazr/pkg/types"
)

const fakeType types.OperationType = "fake"

// fakeHandler records invocations and fails or succeeds per its script.
type fakeHandler struct {
	calls atomic.Int32

	mu    sync.Mutex
	order []string

	// outcome decides the result of the nth call (1-based).
	outcome func(n int, op types.Operation) (bool, string)
	delay   time.Duration

	// ignoreContext makes the handler sleep through cancellation.
	ignoreContext bool
}

func (f *fakeHandler) Execute(ctx context.Context, op types.Operation, _ types.Environment) types.ExecutionResult {
	n := int(f.calls.Add(1))
	f.mu.Lock()
	f.order = append(f.order, op.Command)
	f.mu.Unlock()

	if f.delay > 0 {
		if f.ignoreContext {
			time.Sleep(f.delay)
		} else {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return types.ExecutionResult{Operation: op, Error: ctx.Err()}
			}
		}
	}

	ok, out := true, "ok"
	if f.outcome != nil {
		ok, out = f.outcome(n, op)
	}
	res := types.ExecutionResult{Operation: op, Success: ok, Output: out}
	if !ok {
		res.Error = errors.New(errors.ErrOperationFailed, out)
	}
	return res
}

func (f *fakeHandler) Calls() int {
	return int(f.calls.Load())
}

func (f *fakeHandler) Order() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

func alwaysFail(int, types.Operation) (bool, string) { return false, "boom" }

// failCommand fails operations whose command is "fail".
func failCommand(_ int, op types.Operation) (bool, string) {
	if op.Command == "fail" {
		return false, "failed"
	}
	return true, op.Command
}

func newTestOptions(h handlers.Handler) *Options {
	reg := handlers.NewDefaultRegistry()
	_ = reg.Register(fakeType, h)
	return &Options{
		Registry:    reg,
		Environment: types.Environment{Name: "test", Namespace: "default"},
	}
}

func fakeOp(command string) types.Operation {
	return types.Operation{Type: fakeType, Command: command}
}
