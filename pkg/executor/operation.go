package executor

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/arthur-debert/phazr/pkg/errors"
	"github.com/arthur-debert/phazr/pkg/handlers"
	"github.com/arthur-debert/phazr/pkg/logging"
	"github.com/arthur-debert/phazr/pkg/shell"
	"github.com/arthur-debert/phazr/pkg/types"
	"github.com/rs/zerolog"
)

// Options configures the executors.
type Options struct {
	Registry    *handlers.Registry
	Environment types.Environment
	DryRun      bool

	// Runner evaluates skip_if and test_command; defaults to a shell runner.
	Runner *shell.Runner
	Logger *zerolog.Logger
}

// OperationExecutor runs single operations.
type OperationExecutor struct {
	logger   zerolog.Logger
	registry *handlers.Registry
	env      types.Environment
	dryRun   bool
	runner   *shell.Runner
}

// NewOperationExecutor creates an operation executor. A nil registry means
// the default built-in handlers.
func NewOperationExecutor(opts *Options) *OperationExecutor {
	if opts == nil {
		opts = &Options{}
	}
	e := &OperationExecutor{
		logger:   logging.GetLogger("executor.operation"),
		registry: opts.Registry,
		env:      opts.Environment,
		dryRun:   opts.DryRun,
		runner:   opts.Runner,
	}
	if opts.Logger != nil {
		e.logger = opts.Logger.With().Str("component", "executor.operation").Logger()
	}
	if e.registry == nil {
		e.registry = handlers.NewDefaultRegistry()
	}
	if e.runner == nil {
		e.runner = shell.NewRunner()
	}
	return e
}

// Execute runs op and returns its result. Failures are reported in the
// result, never as a panic or an error return.
func (e *OperationExecutor) Execute(ctx context.Context, op types.Operation) types.ExecutionResult {
	start := time.Now()
	logger := e.logger.With().
		Str("type", string(op.Type)).
		Str("operation", op.Label()).
		Logger()
	logger.Debug().Msg("Executing operation")

	result := e.execute(ctx, op, logger)
	result.Operation = op
	result.StartedAt = start
	result.Duration = time.Since(start)

	event := logger.Info()
	if !result.Success {
		event = logger.Warn().Err(result.Error)
	}
	event.
		Bool("success", result.Success).
		Bool("skipped", result.Skipped).
		Int("attempts", result.Attempts).
		Dur("duration", result.Duration).
		Msg("Operation finished")
	return result
}

func (e *OperationExecutor) execute(ctx context.Context, op types.Operation, logger zerolog.Logger) types.ExecutionResult {
	if e.dryRun {
		return types.ExecutionResult{
			Success: true,
			DryRun:  true,
			Output:  DryRunMessage(op, e.env),
		}
	}

	h, err := e.registry.Get(op.Type)
	if err != nil {
		return types.ExecutionResult{Error: err}
	}

	if e.skip(ctx, op, logger) {
		return types.ExecutionResult{
			Success: true,
			Skipped: true,
			Output:  fmt.Sprintf("skipped: condition %q succeeded", op.SkipIf),
		}
	}

	maxAttempts := op.MaxAttempts()
	var last types.ExecutionResult
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		last = e.attempt(ctx, h, op)
		last.Attempts = attempt
		if last.Success {
			return last
		}

		logger.Debug().
			Err(last.Error).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Msg("Attempt failed")

		if attempt == maxAttempts || ctx.Err() != nil {
			break
		}
		if err := wait(ctx, op.RetryDelay); err != nil {
			break
		}
	}
	return last
}

// skip evaluates skip_if under the operation timeout. A condition that
// fails or times out means the operation runs.
func (e *OperationExecutor) skip(ctx context.Context, op types.Operation, logger zerolog.Logger) bool {
	if op.SkipIf == "" {
		return false
	}
	if op.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, op.Timeout)
		defer cancel()
	}
	_, err := e.runner.Run(ctx, shell.Command{Script: op.SkipIf, Env: shell.Environ(e.env, op)})
	switch {
	case err == nil:
		logger.Info().Str("skip_if", op.SkipIf).Msg("Skip condition met")
		return true
	case errors.IsErrorCode(err, errors.ErrOperationTimeout):
		logger.Warn().Str("skip_if", op.SkipIf).Dur("timeout", op.Timeout).Msg("Skip condition timed out, running operation")
	}
	return false
}

// attempt invokes the handler once under the operation timeout. The handler
// runs in its own goroutine so a handler that ignores its context still
// times out.
func (e *OperationExecutor) attempt(ctx context.Context, h handlers.Handler, op types.Operation) types.ExecutionResult {
	var (
		attemptCtx context.Context
		cancel     context.CancelFunc
	)
	if op.Timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, op.Timeout)
	} else {
		attemptCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	done := make(chan types.ExecutionResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- types.ExecutionResult{
					Error: errors.Newf(errors.ErrOperationFailed, "handler panicked: %v", r),
				}
			}
		}()
		done <- h.Execute(attemptCtx, op, e.env)
	}()

	var result types.ExecutionResult
	select {
	case result = <-done:
	case <-attemptCtx.Done():
		result = types.ExecutionResult{Error: contextError(ctx, attemptCtx, op)}
	}

	if result.Success && !result.Skipped {
		if err := e.verify(attemptCtx, op, result.Output); err != nil {
			result.Success = false
			result.Error = err
		}
	}
	if !result.Success && result.Error == nil {
		result.Error = errors.Newf(errors.ErrOperationFailed, "%s operation failed", op.Type)
	}
	return result
}

// verify runs the post-attempt checks.
func (e *OperationExecutor) verify(ctx context.Context, op types.Operation, output string) error {
	if op.ExpectedOutput != "" {
		re, err := regexp.Compile(op.ExpectedOutput)
		if err != nil {
			return errors.Wrapf(err, errors.ErrInvalidInput, "invalid expected_output pattern %q", op.ExpectedOutput)
		}
		if !re.MatchString(output) {
			return errors.Newf(errors.ErrOperationFailed, "output does not match %q", op.ExpectedOutput)
		}
	}
	if op.TestCommand != "" {
		_, err := e.runner.Run(ctx, shell.Command{Script: op.TestCommand, Env: shell.Environ(e.env, op)})
		if err != nil {
			return errors.Wrapf(err, errors.ErrOperationFailed, "test command %q failed", op.TestCommand)
		}
	}
	return nil
}

func contextError(parent, attempt context.Context, op types.Operation) error {
	if parent.Err() != nil {
		return errors.Wrap(parent.Err(), errors.ErrCancelled, "operation cancelled")
	}
	return errors.Wrapf(attempt.Err(), errors.ErrOperationTimeout, "operation timed out after %s", op.Timeout).
		WithDetail("timeout", op.Timeout.String())
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DryRunMessage describes what executing op would do.
func DryRunMessage(op types.Operation, env types.Environment) string {
	return fmt.Sprintf("[DRY RUN] Would execute %s: %s (target: %s)", op.Type, op.Command, op.Target(env))
}
