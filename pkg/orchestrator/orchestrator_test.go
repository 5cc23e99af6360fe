package orchestrator

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/arthur-debert/phazr/pkg/errors"
	"github.com/arthur-debert/phazr/pkg/handlers"
	"github.com/arthur-debert/phazr/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recordType types.OperationType = "record"

type span struct {
	start, end time.Time
}

// recorder is a handler that records when each command ran. Commands named
// "fail" fail; every command takes delay.
type recorder struct {
	mu    sync.Mutex
	spans map[string]span
	delay time.Duration
}

func newRecorder(delay time.Duration) *recorder {
	return &recorder{spans: make(map[string]span), delay: delay}
}

func (r *recorder) Execute(ctx context.Context, op types.Operation, _ types.Environment) types.ExecutionResult {
	start := time.Now()
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return types.ExecutionResult{Operation: op, Error: ctx.Err()}
	}
	r.mu.Lock()
	r.spans[op.Command] = span{start: start, end: time.Now()}
	r.mu.Unlock()

	if op.Command == "fail" || op.Description == "fail" {
		return types.ExecutionResult{Operation: op, Error: errors.New(errors.ErrOperationFailed, "failed")}
	}
	return types.ExecutionResult{Operation: op, Success: true, Output: op.Command}
}

func (r *recorder) ran(cmd string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.spans[cmd]
	return ok
}

func (r *recorder) span(cmd string) span {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.spans[cmd]
}

// plan builds a config where every phase has one group named after it
// holding one operation whose command is the phase name.
func plan(phases ...types.Phase) *types.Config {
	groups := make(map[string][]types.Operation)
	for i, p := range phases {
		if len(p.Groups) == 0 {
			phases[i].Groups = []string{p.Name}
		}
		groups[p.Name] = []types.Operation{{Type: recordType, Command: p.Name}}
	}
	return &types.Config{
		Phases:      phases,
		Versions:    map[string]types.Version{"v1": {Groups: groups}},
		Environment: types.Environment{Name: "test"},
	}
}

func phase(name string, deps ...string) types.Phase {
	return types.Phase{Name: name, DependsOn: deps, Enabled: true}
}

func newOrchestrator(t *testing.T, cfg *types.Config, rec *recorder, mutate ...func(*Options)) *Orchestrator {
	t.Helper()
	reg := handlers.NewDefaultRegistry()
	require.NoError(t, reg.Register(recordType, rec))
	opts := Options{Config: cfg, Registry: reg}
	for _, m := range mutate {
		m(&opts)
	}
	o, err := New(opts)
	require.NoError(t, err)
	return o
}

func TestRun_Diamond(t *testing.T) {
	rec := newRecorder(200 * time.Millisecond)
	o := newOrchestrator(t, plan(
		phase("setup"),
		phase("build-frontend", "setup"),
		phase("build-backend", "setup"),
		phase("deploy", "build-frontend", "build-backend"),
	), rec)

	assert.Equal(t, [][]string{{"setup"}, {"build-frontend", "build-backend"}, {"deploy"}}, o.Layers())

	summary, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Success())
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "v1", summary.Version)

	frontend, backend, deploy := rec.span("build-frontend"), rec.span("build-backend"), rec.span("deploy")
	assert.True(t, frontend.start.Before(backend.end) && backend.start.Before(frontend.end), "builds overlap")
	assert.False(t, deploy.start.Before(frontend.end))
	assert.False(t, deploy.start.Before(backend.end))
	assert.False(t, frontend.start.Before(rec.span("setup").end))

	for _, p := range summary.Phases {
		assert.Equal(t, types.PhaseSucceeded, p.Status, p.Name())
	}
}

func TestRun_FailureSkipsTransitiveDependents(t *testing.T) {
	rec := newRecorder(0)
	cfg := plan(
		phase("fail"),
		phase("child", "fail"),
		phase("grandchild", "child"),
		phase("sibling"),
		phase("after-sibling", "sibling"),
	)
	o := newOrchestrator(t, cfg, rec)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.Success())
	assert.Equal(t, []string{"fail"}, summary.Failed())

	status := func(name string) types.PhaseStatus {
		p, ok := summary.Phase(name)
		require.True(t, ok)
		return p.Status
	}
	assert.Equal(t, types.PhaseFailed, status("fail"))
	assert.Equal(t, types.PhaseSkippedUpstream, status("child"))
	assert.Equal(t, types.PhaseSkippedUpstream, status("grandchild"))
	assert.Equal(t, types.PhaseSucceeded, status("sibling"))
	assert.Equal(t, types.PhaseSucceeded, status("after-sibling"))

	assert.False(t, rec.ran("child"))
	assert.False(t, rec.ran("grandchild"))
	assert.True(t, rec.ran("after-sibling"))

	p, _ := summary.Phase("grandchild")
	assert.Contains(t, p.Reason, `"fail"`)
}

func TestRun_LogsBlockedDependents(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	o := newOrchestrator(t, plan(
		phase("fail"),
		phase("child", "fail"),
		phase("grandchild", "child"),
		phase("sibling"),
	), newRecorder(0), func(opts *Options) {
		opts.Logger = &logger
	})

	_, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"blocked":["child","grandchild"]`)
}

func TestRun_ContinueOnErrorLetsDependentsProceed(t *testing.T) {
	rec := newRecorder(0)
	flaky := phase("fail")
	flaky.ContinueOnError = true
	o := newOrchestrator(t, plan(flaky, phase("next", "fail")), rec)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Success())

	p, _ := summary.Phase("fail")
	assert.Equal(t, types.PhaseCompletedWithErrors, p.Status)
	assert.True(t, rec.ran("next"))
}

func TestRun_DisabledPhases(t *testing.T) {
	t.Run("disabled phase does not block dependents", func(t *testing.T) {
		rec := newRecorder(0)
		off := phase("optional")
		off.Enabled = false
		o := newOrchestrator(t, plan(off, phase("after", "optional")), rec)

		summary, err := o.Run(context.Background())
		require.NoError(t, err)
		assert.True(t, summary.Success())

		p, _ := summary.Phase("optional")
		assert.Equal(t, types.PhaseDisabled, p.Status)
		assert.False(t, rec.ran("optional"))
		assert.True(t, rec.ran("after"))
	})

	t.Run("upstream failure passes through a disabled phase", func(t *testing.T) {
		rec := newRecorder(0)
		off := phase("optional", "fail")
		off.Enabled = false
		o := newOrchestrator(t, plan(phase("fail"), off, phase("after", "optional")), rec)

		summary, err := o.Run(context.Background())
		require.NoError(t, err)

		p, _ := summary.Phase("after")
		assert.Equal(t, types.PhaseSkippedUpstream, p.Status)
		assert.False(t, rec.ran("after"))
	})

	t.Run("disabled phase may reference undefined groups", func(t *testing.T) {
		rec := newRecorder(0)
		cfg := plan(phase("a"))
		cfg.Phases = append(cfg.Phases, types.Phase{Name: "b", Groups: []string{"nowhere"}})
		o := newOrchestrator(t, cfg, rec)

		assert.NoError(t, o.Validate())
	})
}

func TestRun_FailsFastOnInvalidPlan(t *testing.T) {
	rec := newRecorder(0)
	cfg := plan(phase("a"), phase("b", "a"))
	cfg.Phases[1].Groups = []string{"missing"}
	o := newOrchestrator(t, cfg, rec)

	summary, err := o.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUndefinedGroup))
	assert.False(t, rec.ran("a"), "nothing executes when the plan is invalid")
	assert.False(t, summary.Success())
}

func TestValidate_UnregisteredType(t *testing.T) {
	rec := newRecorder(0)
	cfg := plan(phase("a"), phase("b"))
	v := cfg.Versions["v1"]
	v.Groups["a"] = []types.Operation{{Type: types.OperationCustom, Command: "x"}}
	v.Groups["b"] = []types.Operation{{Type: "teleport", Command: "y"}}
	o := newOrchestrator(t, cfg, rec)

	err := o.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigInvalid))
	assert.Len(t, o.Issues(), 2)
	for _, issue := range o.Issues() {
		assert.True(t, errors.IsErrorCode(issue, errors.ErrUnknownOperationType))
	}
}

func TestNew_Errors(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		_, err := New(Options{Config: plan(phase("A", "B"), phase("B", "A"))})
		assert.True(t, errors.IsErrorCode(err, errors.ErrDependencyCycle))
		assert.Contains(t, err.Error(), "A → B → A")
	})

	t.Run("unknown version", func(t *testing.T) {
		_, err := New(Options{Config: plan(phase("a")), Version: "v9"})
		assert.True(t, errors.IsErrorCode(err, errors.ErrVersionNotFound))
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := New(Options{})
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	})
}

func TestRun_DryRunNeverInvokesHandlers(t *testing.T) {
	rec := newRecorder(0)
	o := newOrchestrator(t, plan(phase("fail"), phase("next", "fail")), rec, func(opts *Options) {
		opts.DryRun = true
	})

	summary, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Success())
	assert.True(t, summary.DryRun)
	assert.False(t, rec.ran("fail"))
	assert.False(t, rec.ran("next"))

	for _, r := range summary.Phases[0].Results() {
		assert.True(t, r.DryRun)
		assert.Contains(t, r.Output, "[DRY RUN]")
	}
}

func TestRun_Cancellation(t *testing.T) {
	rec := newRecorder(5 * time.Second)
	o := newOrchestrator(t, plan(phase("slow"), phase("after", "slow")), rec)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	summary, err := o.Run(ctx)

	assert.Less(t, time.Since(start), 3*time.Second)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCancelled))
	require.NotNil(t, summary)
	assert.False(t, summary.Success())

	slow, _ := summary.Phase("slow")
	after, _ := summary.Phase("after")
	assert.Equal(t, types.PhaseCancelled, slow.Status)
	assert.Equal(t, types.PhaseCancelled, after.Status)
}

func TestRun_MaxParallel(t *testing.T) {
	rec := newRecorder(150 * time.Millisecond)
	o := newOrchestrator(t, plan(phase("a"), phase("b"), phase("c")), rec, func(opts *Options) {
		opts.MaxParallel = 1
	})

	start := time.Now()
	summary, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Success())
	assert.GreaterOrEqual(t, time.Since(start), 450*time.Millisecond)
}

func TestRunPhase(t *testing.T) {
	t.Run("precondition", func(t *testing.T) {
		rec := newRecorder(0)
		o := newOrchestrator(t, plan(phase("build"), phase("deploy", "build")), rec)

		_, err := o.RunPhase(context.Background(), "deploy")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrPrecondition))
		assert.Equal(t, []string{"build"}, errors.GetErrorDetails(err)["dependencies"])
		assert.False(t, rec.ran("deploy"))
		assert.False(t, rec.ran("build"), "ancestors are never run implicitly")
	})

	t.Run("dependencies satisfied earlier in the invocation", func(t *testing.T) {
		rec := newRecorder(0)
		o := newOrchestrator(t, plan(phase("build"), phase("deploy", "build")), rec)

		res, err := o.RunPhase(context.Background(), "build")
		require.NoError(t, err)
		assert.True(t, res.Success)

		res, err = o.RunPhase(context.Background(), "deploy")
		require.NoError(t, err)
		assert.Equal(t, types.PhaseSucceeded, res.Status)
		assert.True(t, rec.ran("deploy"))
	})

	t.Run("logs layer and dependents", func(t *testing.T) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf)
		o := newOrchestrator(t, plan(phase("build"), phase("deploy", "build")), newRecorder(0), func(opts *Options) {
			opts.Logger = &logger
		})

		_, err := o.RunPhase(context.Background(), "build")
		require.NoError(t, err)
		assert.Contains(t, buf.String(), `"layer":0`)
		assert.Contains(t, buf.String(), `"dependents":["deploy"]`)
	})

	t.Run("failed dependency", func(t *testing.T) {
		rec := newRecorder(0)
		o := newOrchestrator(t, plan(phase("fail"), phase("deploy", "fail")), rec)

		res, err := o.RunPhase(context.Background(), "fail")
		require.NoError(t, err)
		assert.False(t, res.Success)

		_, err = o.RunPhase(context.Background(), "deploy")
		assert.True(t, errors.IsErrorCode(err, errors.ErrPrecondition))
	})

	t.Run("ignore dependencies", func(t *testing.T) {
		rec := newRecorder(0)
		o := newOrchestrator(t, plan(phase("build"), phase("deploy", "build")), rec, func(opts *Options) {
			opts.IgnoreDependencies = true
		})

		res, err := o.RunPhase(context.Background(), "deploy")
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.False(t, rec.ran("build"))
	})

	t.Run("unknown phase", func(t *testing.T) {
		o := newOrchestrator(t, plan(phase("build")), newRecorder(0))
		_, err := o.RunPhase(context.Background(), "nope")
		assert.True(t, errors.IsErrorCode(err, errors.ErrPhaseNotFound))
	})

	t.Run("disabled", func(t *testing.T) {
		rec := newRecorder(0)
		off := phase("build")
		off.Enabled = false
		o := newOrchestrator(t, plan(off), rec)

		res, err := o.RunPhase(context.Background(), "build")
		require.NoError(t, err)
		assert.Equal(t, types.PhaseDisabled, res.Status)
		assert.False(t, rec.ran("build"))
	})
}
