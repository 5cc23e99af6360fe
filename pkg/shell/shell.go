package shell

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/arthur-debert/phazr/pkg/errors"
	"github.com/arthur-debert/phazr/pkg/logging"
	"github.com/rs/zerolog"
)

// DefaultShell is the interpreter used for script commands.
const DefaultShell = "/bin/sh"

// waitDelay bounds how long Wait blocks on inherited pipes after a kill.
const waitDelay = 2 * time.Second

// Command describes one process invocation. Either Script (run through the
// shell with -c) or Args (executed directly) must be set.
type Command struct {
	Script string
	Args   []string
	Env    []string
	Dir    string
	Stdin  io.Reader
}

// Result is the captured outcome of a command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string

	// Output interleaves stdout and stderr in arrival order.
	Output   string
	Duration time.Duration
}

// Runner starts processes.
type Runner struct {
	Shell  string
	Logger zerolog.Logger
}

// NewRunner creates a runner using DefaultShell.
func NewRunner() *Runner {
	return &Runner{
		Shell:  DefaultShell,
		Logger: logging.GetLogger("shell"),
	}
}

// Run executes cmd and waits for it. A nil error means exit status zero.
// A non-zero exit is returned as an ErrOperationFailed error with the exit
// code in its details; an expired context as ErrOperationTimeout; a
// cancelled context as ErrCancelled.
func (r *Runner) Run(ctx context.Context, cmd Command) (Result, error) {
	argv, err := r.argv(cmd)
	if err != nil {
		return Result{ExitCode: -1}, err
	}

	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Env = cmd.Env
	c.Dir = cmd.Dir
	c.Stdin = cmd.Stdin
	c.WaitDelay = waitDelay
	configureProcessGroup(c)

	var stdout, stderr bytes.Buffer
	combined := &lockedBuffer{}
	c.Stdout = io.MultiWriter(&stdout, combined)
	c.Stderr = io.MultiWriter(&stderr, combined)

	r.Logger.Trace().Strs("argv", argv).Str("dir", cmd.Dir).Msg("Starting process")

	start := time.Now()
	runErr := c.Run()
	res := Result{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Output:   combined.String(),
		Duration: time.Since(start),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		if stderrors.Is(ctxErr, context.DeadlineExceeded) {
			return res, errors.Wrap(ctxErr, errors.ErrOperationTimeout, "command timed out")
		}
		return res, errors.Wrap(ctxErr, errors.ErrCancelled, "command cancelled")
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if stderrors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, errors.Wrapf(runErr, errors.ErrOperationFailed, "command exited with status %d", res.ExitCode).
				WithDetail("exit_code", res.ExitCode).
				WithDetail("stderr", strings.TrimSpace(res.Stderr))
		}
		res.ExitCode = -1
		return res, errors.Wrapf(runErr, errors.ErrOperationFailed, "failed to start %s", argv[0])
	}

	r.Logger.Trace().Strs("argv", argv).Dur("duration", res.Duration).Msg("Process exited")
	return res, nil
}

func (r *Runner) argv(cmd Command) ([]string, error) {
	if len(cmd.Args) > 0 {
		return cmd.Args, nil
	}
	if strings.TrimSpace(cmd.Script) == "" {
		return nil, errors.New(errors.ErrInvalidInput, "empty command")
	}
	sh := r.Shell
	if sh == "" {
		sh = DefaultShell
	}
	return []string{sh, "-c", cmd.Script}, nil
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
