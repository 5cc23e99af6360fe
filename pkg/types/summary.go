package types

import (
	"time"
)

// RunSummary is the report of one orchestrator invocation.
type RunSummary struct {
	RunID   string
	Version string
	DryRun  bool

	// Layers is the dependency layering the run was scheduled with.
	Layers [][]string

	// Phases holds one result per phase, in configuration order.
	Phases    []PhaseResult
	StartTime time.Time
	EndTime   time.Time

	// Err is set when the run was interrupted.
	Err error
}

// Duration is the wall time of the run.
func (s *RunSummary) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Success is the conjunction of every executed phase's success. Skipped and
// disabled phases do not count as failures; an interrupted run never succeeds.
func (s *RunSummary) Success() bool {
	if s.Err != nil {
		return false
	}
	for _, p := range s.Phases {
		if p.Status == PhaseCancelled {
			return false
		}
		if p.Status.Executed() && !p.Success {
			return false
		}
	}
	return true
}

// Phase returns the result for the named phase.
func (s *RunSummary) Phase(name string) (PhaseResult, bool) {
	for _, p := range s.Phases {
		if p.Phase.Name == name {
			return p, true
		}
	}
	return PhaseResult{}, false
}

// CountByStatus returns the number of phases per status.
func (s *RunSummary) CountByStatus() map[PhaseStatus]int {
	counts := make(map[PhaseStatus]int)
	for _, p := range s.Phases {
		counts[p.Status]++
	}
	return counts
}

// Failed returns the names of executed phases that did not succeed.
func (s *RunSummary) Failed() []string {
	var names []string
	for _, p := range s.Phases {
		if p.Status.Executed() && !p.Success {
			names = append(names, p.Phase.Name)
		}
	}
	return names
}
