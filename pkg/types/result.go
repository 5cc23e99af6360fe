package types

import (
	"time"
)

// ExecutionResult is the outcome of one operation in one run.
type ExecutionResult struct {
	Operation Operation
	Success   bool
	Output    string
	Error     error

	// Attempts is the number of handler invocations actually made.
	Attempts int
	Duration time.Duration

	// Skipped is set when skip_if matched or the operation type is skip.
	Skipped   bool
	DryRun    bool
	StartedAt time.Time
	Metadata  map[string]interface{}
}

// ErrorMessage returns the error text or an empty string.
func (r ExecutionResult) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Error()
}

// Tolerated reports a failure that does not count against its group.
func (r ExecutionResult) Tolerated() bool {
	return !r.Success && r.Operation.IgnoreFailure
}

// GroupResult collects the results of one group of a phase.
type GroupResult struct {
	Name     string
	Results  []ExecutionResult
	Success  bool
	Duration time.Duration
}

// PhaseStatus is the reported outcome of a phase.
type PhaseStatus string

const (
	PhasePending             PhaseStatus = "pending"
	PhaseSucceeded           PhaseStatus = "succeeded"
	PhaseCompletedWithErrors PhaseStatus = "completed_with_errors"
	PhaseFailed              PhaseStatus = "failed"
	PhaseSkippedUpstream     PhaseStatus = "skipped_upstream"
	PhaseDisabled            PhaseStatus = "disabled"
	PhaseCancelled           PhaseStatus = "cancelled"
)

// Executed reports whether the phase ran its groups.
func (s PhaseStatus) Executed() bool {
	switch s {
	case PhaseSucceeded, PhaseCompletedWithErrors, PhaseFailed:
		return true
	}
	return false
}

// Satisfies reports whether a dependent phase may proceed after a
// dependency finished with this status.
func (s PhaseStatus) Satisfies() bool {
	switch s {
	case PhaseSucceeded, PhaseCompletedWithErrors, PhaseDisabled:
		return true
	}
	return false
}

// PhaseResult aggregates the results of one phase.
type PhaseResult struct {
	Phase   Phase
	Version string
	Status  PhaseStatus
	Success bool
	Groups  []GroupResult

	// Reason explains statuses other than succeeded, e.g. the failed
	// upstream phase for skipped_upstream.
	Reason   string
	Error    error
	Duration time.Duration
}

// Name returns the phase name.
func (p PhaseResult) Name() string {
	return p.Phase.Name
}

// Results returns the execution results of all groups in configuration order.
func (p PhaseResult) Results() []ExecutionResult {
	var out []ExecutionResult
	for _, g := range p.Groups {
		out = append(out, g.Results...)
	}
	return out
}

// Counts returns total, succeeded, failed and skipped operation counts.
// Skipped operations are also counted as succeeded.
func (p PhaseResult) Counts() (total, succeeded, failed, skipped int) {
	for _, r := range p.Results() {
		total++
		switch {
		case r.Skipped:
			skipped++
			succeeded++
		case r.Success:
			succeeded++
		default:
			failed++
		}
	}
	return total, succeeded, failed, skipped
}

// SuccessRate is the percentage of successful operations; 100 for an empty phase.
func (p PhaseResult) SuccessRate() float64 {
	total, succeeded, _, _ := p.Counts()
	if total == 0 {
		return 100.0
	}
	return float64(succeeded) / float64(total) * 100.0
}
