package executor

import (
	"context"
	"time"

	"github.com/arthur-debert/phazr/pkg/errors"
	"github.com/arthur-debert/phazr/pkg/logging"
	"github.com/arthur-debert/phazr/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// GroupExecutor runs the groups of one phase.
type GroupExecutor struct {
	logger     zerolog.Logger
	operations *OperationExecutor
}

// NewGroupExecutor creates a group executor sharing opts with its
// operation executor.
func NewGroupExecutor(opts *Options) *GroupExecutor {
	g := &GroupExecutor{
		logger:     logging.GetLogger("executor.group"),
		operations: NewOperationExecutor(opts),
	}
	if opts != nil && opts.Logger != nil {
		g.logger = opts.Logger.With().Str("component", "executor.group").Logger()
	}
	return g
}

// Operations returns the underlying operation executor.
func (g *GroupExecutor) Operations() *OperationExecutor {
	return g.operations
}

type resolvedGroup struct {
	name string
	ops  []types.Operation
}

// RunPhase runs every group of phase against version.
//
// Without continue_on_error a failing operation stops the rest of its group,
// and in sequential mode the remaining groups are not started. Parallel
// groups always run to completion. With continue_on_error everything runs and
// a failed phase is reported as completed_with_errors.
func (g *GroupExecutor) RunPhase(ctx context.Context, phase types.Phase, version types.Version) types.PhaseResult {
	start := time.Now()
	result := types.PhaseResult{
		Phase:   phase,
		Version: version.Label,
	}
	logger := g.logger.With().Str("phase", phase.Name).Logger()

	groups, err := resolveGroups(phase, version)
	if err != nil {
		result.Status = types.PhaseFailed
		result.Error = err
		result.Reason = err.Error()
		result.Duration = time.Since(start)
		return result
	}

	logger.Info().
		Int("groups", len(groups)).
		Bool("parallel", phase.ParallelGroups).
		Msg("Running phase")

	stopOnFailure := !phase.ContinueOnError
	if phase.ParallelGroups {
		result.Groups = g.runParallel(ctx, groups, stopOnFailure)
	} else {
		result.Groups = g.runSequential(ctx, groups, stopOnFailure)
	}

	allSucceeded := len(result.Groups) == len(groups)
	for _, gr := range result.Groups {
		allSucceeded = allSucceeded && gr.Success
	}

	switch {
	case ctx.Err() != nil:
		result.Status = types.PhaseCancelled
		result.Error = errors.Wrap(ctx.Err(), errors.ErrCancelled, "phase interrupted")
		result.Reason = "run cancelled"
	case allSucceeded:
		result.Status = types.PhaseSucceeded
		result.Success = true
	case phase.ContinueOnError:
		result.Status = types.PhaseCompletedWithErrors
		result.Success = true
		result.Reason = "operations failed under continue_on_error"
	default:
		result.Status = types.PhaseFailed
		result.Reason = "one or more operations failed"
	}
	result.Duration = time.Since(start)

	logger.Info().
		Str("status", string(result.Status)).
		Dur("duration", result.Duration).
		Msg("Phase finished")
	return result
}

func (g *GroupExecutor) runSequential(ctx context.Context, groups []resolvedGroup, stopOnFailure bool) []types.GroupResult {
	results := make([]types.GroupResult, 0, len(groups))
	for _, grp := range groups {
		if ctx.Err() != nil {
			break
		}
		gr := g.runGroup(ctx, grp, stopOnFailure)
		results = append(results, gr)
		if !gr.Success && stopOnFailure {
			g.logger.Debug().Str("group", grp.name).Msg("Group failed, skipping remaining groups")
			break
		}
	}
	return results
}

// runParallel never cancels siblings; each goroutine owns one result slot.
func (g *GroupExecutor) runParallel(ctx context.Context, groups []resolvedGroup, stopOnFailure bool) []types.GroupResult {
	results := make([]types.GroupResult, len(groups))
	var eg errgroup.Group
	for i, grp := range groups {
		eg.Go(func() error {
			results[i] = g.runGroup(ctx, grp, stopOnFailure)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (g *GroupExecutor) runGroup(ctx context.Context, grp resolvedGroup, stopOnFailure bool) types.GroupResult {
	start := time.Now()
	gr := types.GroupResult{
		Name:    grp.name,
		Results: make([]types.ExecutionResult, 0, len(grp.ops)),
		Success: true,
	}
	for _, op := range grp.ops {
		if ctx.Err() != nil {
			gr.Success = false
			break
		}
		res := g.operations.Execute(ctx, op)
		gr.Results = append(gr.Results, res)
		if res.Success || res.Tolerated() {
			continue
		}
		gr.Success = false
		if stopOnFailure {
			break
		}
	}
	gr.Duration = time.Since(start)
	return gr
}

func resolveGroups(phase types.Phase, version types.Version) ([]resolvedGroup, error) {
	groups := make([]resolvedGroup, 0, len(phase.Groups))
	for _, name := range phase.Groups {
		ops, ok := version.Group(name)
		if !ok {
			return nil, errors.Newf(errors.ErrUndefinedGroup,
				"phase %q references group %q which is not defined in version %q", phase.Name, name, version.Label).
				WithDetails(map[string]interface{}{"phase": phase.Name, "group": name, "version": version.Label})
		}
		groups = append(groups, resolvedGroup{name: name, ops: ops})
	}
	return groups, nil
}
