package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/arthur-debert/phazr/pkg/dag"
	"github.com/arthur-debert/phazr/pkg/errors"
	"github.com/arthur-debert/phazr/pkg/executor"
	"github.com/arthur-debert/phazr/pkg/handlers"
	"github.com/arthur-debert/phazr/pkg/logging"
	"github.com/arthur-debert/phazr/pkg/shell"
	"github.com/arthur-debert/phazr/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Options configures an Orchestrator.
type Options struct {
	Config   *types.Config
	Registry *handlers.Registry

	// Version selects the version label; empty uses the configured default.
	Version string
	DryRun  bool

	// MaxParallel bounds concurrently running phases; 0 falls back to
	// execution.max_parallel, and 0 there means unbounded.
	MaxParallel int

	// IgnoreDependencies lets RunPhase run a phase whose dependencies have
	// not completed in this invocation.
	IgnoreDependencies bool

	Runner *shell.Runner
	Logger *zerolog.Logger
}

// Orchestrator runs the phases of one configuration.
type Orchestrator struct {
	logger      zerolog.Logger
	cfg         *types.Config
	registry    *handlers.Registry
	version     types.Version
	dryRun      bool
	maxParallel int
	ignoreDeps  bool

	graph  *dag.Graph
	groups *executor.GroupExecutor

	mu        sync.Mutex
	completed map[string]types.PhaseStatus
}

// New builds an orchestrator. It fails when no version can be selected or
// the dependency graph is invalid; group and handler checks are left to
// Validate.
func New(opts Options) (*Orchestrator, error) {
	if opts.Config == nil {
		return nil, errors.New(errors.ErrInvalidInput, "orchestrator requires a configuration")
	}

	o := &Orchestrator{
		logger:      logging.GetLogger("orchestrator"),
		cfg:         opts.Config,
		registry:    opts.Registry,
		dryRun:      opts.DryRun || opts.Config.Execution.DryRun,
		maxParallel: opts.MaxParallel,
		ignoreDeps:  opts.IgnoreDependencies,
		completed:   make(map[string]types.PhaseStatus),
	}
	if opts.Logger != nil {
		o.logger = opts.Logger.With().Str("component", "orchestrator").Logger()
	}
	if o.registry == nil {
		o.registry = handlers.NewDefaultRegistry()
	}
	if o.maxParallel <= 0 {
		o.maxParallel = opts.Config.Execution.MaxParallel
	}

	version, err := opts.Config.SelectVersion(opts.Version)
	if err != nil {
		return nil, err
	}
	o.version = version

	graph, err := dag.Build(opts.Config.Phases)
	if err != nil {
		return nil, err
	}
	o.graph = graph

	o.groups = executor.NewGroupExecutor(&executor.Options{
		Registry:    o.registry,
		Environment: opts.Config.Environment,
		DryRun:      o.dryRun,
		Runner:      opts.Runner,
		Logger:      opts.Logger,
	})
	return o, nil
}

// Layers returns the dependency layering.
func (o *Orchestrator) Layers() [][]string {
	return o.graph.Layers()
}

// Phases returns the configured phases in configuration order.
func (o *Orchestrator) Phases() []types.Phase {
	return o.graph.Phases()
}

// Version returns the selected version.
func (o *Orchestrator) Version() types.Version {
	return o.version
}

// Graph returns the dependency graph.
func (o *Orchestrator) Graph() *dag.Graph {
	return o.graph
}

// DryRun reports whether operations are intercepted.
func (o *Orchestrator) DryRun() bool {
	return o.dryRun
}

// Issues checks every enabled phase: each referenced group must exist in the
// selected version and each operation type must have a handler.
func (o *Orchestrator) Issues() []error {
	var issues []error
	for _, phase := range o.graph.Phases() {
		if !phase.Enabled {
			continue
		}
		for _, group := range phase.Groups {
			ops, ok := o.version.Group(group)
			if !ok {
				issues = append(issues, errors.Newf(errors.ErrUndefinedGroup,
					"phase %q references group %q which is not defined in version %q", phase.Name, group, o.version.Label).
					WithDetails(map[string]interface{}{"phase": phase.Name, "group": group, "version": o.version.Label}))
				continue
			}
			for i, op := range ops {
				if !o.registry.Has(op.Type) {
					issues = append(issues, errors.Newf(errors.ErrUnknownOperationType,
						"operation %d of group %q uses unregistered type %q", i+1, group, op.Type).
						WithDetails(map[string]interface{}{"phase": phase.Name, "group": group, "type": string(op.Type)}))
				}
			}
		}
	}
	return issues
}

// Validate returns nil when the plan can run. A single issue is returned as
// is; several are joined under a CONFIG_INVALID error.
func (o *Orchestrator) Validate() error {
	issues := o.Issues()
	switch len(issues) {
	case 0:
		return nil
	case 1:
		return issues[0]
	}
	messages := make([]string, len(issues))
	for i, issue := range issues {
		messages[i] = issue.Error()
	}
	return errors.Wrapf(stderrors.Join(issues...), errors.ErrConfigInvalid, "%d configuration issues", len(issues)).
		WithDetail("issues", messages)
}

// Run executes every phase layer by layer. The returned summary is never
// nil; on cancellation it holds the partial results and the error is the
// cancellation cause.
func (o *Orchestrator) Run(ctx context.Context) (*types.RunSummary, error) {
	summary := &types.RunSummary{
		RunID:     uuid.NewString(),
		Version:   o.version.Label,
		DryRun:    o.dryRun,
		Layers:    o.graph.Layers(),
		StartTime: time.Now(),
	}
	logger := o.logger.With().Str("run_id", summary.RunID).Logger()

	phases := o.graph.Phases()
	results := make([]types.PhaseResult, len(phases))
	for i, p := range phases {
		results[i] = types.PhaseResult{Phase: p, Version: o.version.Label, Status: types.PhasePending}
	}
	summary.Phases = results

	if err := o.Validate(); err != nil {
		summary.EndTime = time.Now()
		summary.Err = err
		return summary, err
	}

	logger.Info().
		Str("version", o.version.Label).
		Int("phases", o.graph.Len()).
		Int("layers", len(summary.Layers)).
		Bool("dry_run", o.dryRun).
		Msg("Starting run")

	// blocked names, per phase, the failed phase upstream of it.
	blocked := make([]string, len(phases))

	for l, layer := range summary.Layers {
		if ctx.Err() != nil {
			break
		}
		done := logging.LogOperationStart(logger.With().Strs("phases", layer).Logger(), fmt.Sprintf("layer %d", l))
		o.runLayer(ctx, layer, results, blocked)
		done()
	}

	for i := range results {
		if results[i].Status == types.PhasePending {
			results[i].Status = types.PhaseCancelled
			results[i].Reason = "run cancelled before the phase started"
		}
	}

	summary.EndTime = time.Now()
	if ctx.Err() != nil {
		summary.Err = errors.Wrap(ctx.Err(), errors.ErrCancelled, "run interrupted")
	}

	counts := summary.CountByStatus()
	logger.Info().
		Bool("success", summary.Success()).
		Int("succeeded", counts[types.PhaseSucceeded]+counts[types.PhaseCompletedWithErrors]).
		Int("failed", counts[types.PhaseFailed]).
		Int("skipped", counts[types.PhaseSkippedUpstream]).
		Dur("duration", summary.Duration()).
		Msg("Run finished")

	if summary.Err != nil {
		return summary, summary.Err
	}
	return summary, nil
}

// runLayer starts every runnable phase of layer and waits for all of them.
// Each goroutine writes only its own slot of results.
func (o *Orchestrator) runLayer(ctx context.Context, layer []string, results []types.PhaseResult, blocked []string) {
	var eg errgroup.Group
	var sem *semaphore.Weighted
	if o.maxParallel > 0 {
		sem = semaphore.NewWeighted(int64(o.maxParallel))
	}

	for _, name := range layer {
		i := o.graph.Index(name)
		phase := results[i].Phase

		upstream := o.failedUpstream(name, results, blocked)
		switch {
		case !phase.Enabled:
			results[i].Status = types.PhaseDisabled
			results[i].Reason = "phase is disabled"
			o.logger.Info().Str("phase", name).Msg("Phase disabled, not running")
			continue
		case upstream != "":
			results[i].Status = types.PhaseSkippedUpstream
			results[i].Reason = fmt.Sprintf("upstream phase %q did not succeed", upstream)
			o.logger.Warn().Str("phase", name).Str("upstream", upstream).Msg("Skipping phase due to upstream failure")
			continue
		}

		eg.Go(func() error {
			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					return nil
				}
				defer sem.Release(1)
			}
			if ctx.Err() != nil {
				return nil
			}
			results[i] = o.groups.RunPhase(ctx, phase, o.version)
			return nil
		})
	}
	_ = eg.Wait()

	for _, name := range layer {
		i := o.graph.Index(name)
		if results[i].Status == types.PhasePending {
			continue
		}
		if results[i].Status == types.PhaseFailed {
			o.block(name, blocked)
		}
		o.record(name, results[i].Status)
	}
}

// failedUpstream returns the phase whose failure blocks name, or "".
func (o *Orchestrator) failedUpstream(name string, results []types.PhaseResult, blocked []string) string {
	if upstream := blocked[o.graph.Index(name)]; upstream != "" {
		return upstream
	}
	for _, dep := range o.graph.Dependencies(name) {
		if !results[o.graph.Index(dep)].Status.Satisfies() {
			return dep
		}
	}
	return ""
}

// block marks every transitive dependent of the failed phase, including
// those behind disabled phases.
func (o *Orchestrator) block(failed string, blocked []string) {
	descendants := o.graph.Descendants(failed)
	for _, d := range descendants {
		if j := o.graph.Index(d); blocked[j] == "" {
			blocked[j] = failed
		}
	}
	if len(descendants) > 0 {
		o.logger.Warn().Str("phase", failed).Strs("blocked", descendants).Msg("Phase failed, dependents will be skipped")
	}
}

func (o *Orchestrator) record(name string, status types.PhaseStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed[name] = status
}

// RunPhase validates the whole plan and runs exactly one phase. Its enabled
// dependencies must have completed successfully earlier on this
// orchestrator unless IgnoreDependencies is set.
func (o *Orchestrator) RunPhase(ctx context.Context, name string) (*types.PhaseResult, error) {
	phase, ok := o.graph.Phase(name)
	if !ok {
		return nil, errors.Newf(errors.ErrPhaseNotFound, "phase %q not found", name).
			WithDetail("phase", name)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	if !phase.Enabled {
		o.logger.Info().Str("phase", name).Msg("Phase disabled, not running")
		return &types.PhaseResult{
			Phase:   phase,
			Version: o.version.Label,
			Status:  types.PhaseDisabled,
			Reason:  "phase is disabled",
		}, nil
	}

	if !o.ignoreDeps {
		if missing := o.unsatisfied(name); len(missing) > 0 {
			return nil, errors.Newf(errors.ErrPrecondition,
				"phase %q depends on %s, which did not complete in this invocation", name, strings.Join(missing, ", ")).
				WithDetails(map[string]interface{}{"phase": name, "dependencies": missing})
		}
	}

	o.logger.Info().Str("phase", name).Int("layer", o.graph.LayerOf(name)).Msg("Running single phase")
	result := o.groups.RunPhase(ctx, phase, o.version)
	o.record(name, result.Status)
	if result.Status.Satisfies() {
		if next := o.graph.Dependents(name); len(next) > 0 {
			o.logger.Info().Str("phase", name).Strs("dependents", next).Msg("Phase completed, dependents may run next")
		}
	}
	if ctx.Err() != nil {
		return &result, errors.Wrap(ctx.Err(), errors.ErrCancelled, "run interrupted")
	}
	return &result, nil
}

func (o *Orchestrator) unsatisfied(name string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	var missing []string
	for _, dep := range o.graph.Dependencies(name) {
		if p, _ := o.graph.Phase(dep); !p.Enabled {
			continue
		}
		if status, ok := o.completed[dep]; !ok || !status.Satisfies() {
			missing = append(missing, dep)
		}
	}
	return missing
}
