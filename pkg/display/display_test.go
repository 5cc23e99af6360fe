package display

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/arthur-debert/phazr/pkg/types"
	"github.com/arthur-debert/phazr/pkg/validators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plain(t *testing.T, verbose bool) (*Display, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewWithColor(&buf, verbose, false), &buf
}

func TestDetectColor(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, DetectColor(&buf), "non-file writers never get colour")

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, DetectColor(f), "regular files are not terminals")

	t.Setenv("NO_COLOR", "1")
	assert.False(t, DetectColor(os.Stdout))
}

func TestMessages(t *testing.T) {
	d, buf := plain(t, false)
	d.Info("loading %s", "orchestrator.yaml")
	d.Success("done")
	d.Warning("careful")
	d.Error("broken: %d", 3)

	assert.Equal(t,
		"ℹ Info: loading orchestrator.yaml\n"+
			"✓ Success: done\n"+
			"! Warning: careful\n"+
			"✗ Error: broken: 3\n",
		buf.String())
	assert.NotContains(t, buf.String(), "\x1b[", "plain output carries no escape codes")
}

func TestPhaseIcon(t *testing.T) {
	tests := []struct {
		phase types.Phase
		want  string
	}{
		{types.Phase{Name: "x", Icon: "⭐"}, "⭐"},
		{types.Phase{Name: "database_migrations"}, "💾"},
		{types.Phase{Name: "Run-Tests"}, "🧪"},
		{types.Phase{Name: "misc"}, defaultIcon},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PhaseIcon(tt.phase), tt.phase.Name)
	}
	assert.Equal(t, "📜", OperationIcon(types.OperationScriptExec))
	assert.Equal(t, defaultIcon, OperationIcon("plugin"))
}

func TestPhasesTable(t *testing.T) {
	d, _ := plain(t, false)
	out := d.PhasesTable([]types.Phase{
		{Name: "setup", Description: "Prepare", Groups: []string{"init"}, Enabled: true},
		{Name: "deploy", Groups: []string{"apply", "verify"}, DependsOn: []string{"setup"},
			ParallelGroups: true, ContinueOnError: true},
	})

	assert.Contains(t, out, "Configured Phases")
	assert.Contains(t, out, "Dependencies")
	assert.Contains(t, out, "apply, verify")
	assert.Contains(t, out, "continue-on-error, parallel, DISABLED")
}

func TestVersions(t *testing.T) {
	d, _ := plain(t, false)
	cfg := &types.Config{
		Versions: map[string]types.Version{
			"2.0": {Groups: map[string][]types.Operation{"a": {{}, {}}, "b": {{}}}},
			"1.2": {Groups: map[string][]types.Operation{"a": {{}}}},
		},
		Execution: types.ExecutionSettings{DefaultVersion: "2.0"},
	}
	assert.Equal(t,
		"Available versions:\n  - 1.2: 1 groups, 1 operations\n  - 2.0: 2 groups, 3 operations (default)",
		d.Versions(cfg))
}

func TestLayersAndIssues(t *testing.T) {
	d, _ := plain(t, false)
	assert.Equal(t, "Execution plan\n  layer 1: a, b\n  layer 2: c", d.Layers([][]string{{"a", "b"}, {"c"}}))
	assert.Equal(t, "✗ Configuration issues found:\n  - no versions", d.Issues([]string{"no versions"}))
}

func samplePhase() types.PhaseResult {
	return types.PhaseResult{
		Phase:    types.Phase{Name: "deploy", Description: "Ship it"},
		Status:   types.PhaseFailed,
		Duration: 1500 * time.Millisecond,
		Groups: []types.GroupResult{{
			Name: "apply",
			Results: []types.ExecutionResult{
				{Operation: types.Operation{Type: types.OperationScriptExec, Description: "build", Command: "make build"}, Success: true, Output: "built ok"},
				{Operation: types.Operation{Type: types.OperationSkip, Description: "noop"}, Success: true, Skipped: true},
				{Operation: types.Operation{Type: types.OperationScriptExec, Command: "false"}, Error: errors.New("exit status 1")},
			},
		}},
	}
}

func TestPhaseResult(t *testing.T) {
	d, _ := plain(t, false)
	out := d.PhaseResult(samplePhase())

	assert.Contains(t, out, "Phase: DEPLOY")
	assert.Contains(t, out, "Ship it (3 operations)")
	assert.Contains(t, out, "[ 1/ 3]")
	assert.Contains(t, out, "SUCCESS")
	assert.Contains(t, out, "SKIPPED")
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "→ exit status 1")
	assert.Contains(t, out, "deploy: failed | 2 passed, 1 failed, 1 skipped | 1.5s | 67%")
	assert.NotContains(t, out, "make build", "commands only show in verbose mode")

	d, _ = plain(t, true)
	out = d.PhaseResult(samplePhase())
	assert.Contains(t, out, "make build")
	assert.Contains(t, out, "→ built ok")
}

func TestOperation_Tolerated(t *testing.T) {
	d, _ := plain(t, false)
	out := d.Operation(types.ExecutionResult{
		Operation: types.Operation{Command: "flaky", IgnoreFailure: true},
		Error:     errors.New("boom"),
	}, 1, 1)
	assert.Contains(t, out, "IGNORED")
}

func TestRunSummary(t *testing.T) {
	start := time.Now()
	summary := &types.RunSummary{
		RunID:     "run-1",
		Version:   "1.2",
		StartTime: start,
		EndTime:   start.Add(2 * time.Second),
		Phases: []types.PhaseResult{
			{Phase: types.Phase{Name: "setup"}, Status: types.PhaseSucceeded, Success: true},
			{Phase: types.Phase{Name: "later"}, Status: types.PhaseSkippedUpstream, Reason: "upstream phase deploy failed"},
		},
	}

	t.Run("success", func(t *testing.T) {
		d, _ := plain(t, false)
		out := d.RunSummary(summary)
		assert.Contains(t, out, "run run-1, version 1.2")
		assert.Contains(t, out, "skipped_upstream")
		assert.Contains(t, out, "upstream phase deploy failed")
		assert.Contains(t, out, "Setup completed successfully!")
		assert.Contains(t, out, "Executed 0 operations in 2.0s")
	})

	t.Run("failure", func(t *testing.T) {
		failed := *summary
		failed.Phases = append([]types.PhaseResult{samplePhase()}, summary.Phases...)
		d, _ := plain(t, false)
		out := d.RunSummary(&failed)
		assert.Contains(t, out, "TOTAL ✓ 2 ✗ 1 → 1")
		assert.Contains(t, out, "Setup completed with 1 failures")
		assert.Contains(t, out, "Failed phases: deploy")
	})

	t.Run("interrupted", func(t *testing.T) {
		cancelled := *summary
		cancelled.Err = errors.New("interrupted")
		d, _ := plain(t, false)
		assert.Contains(t, d.RunSummary(&cancelled), "Run interrupted: interrupted")
	})

	t.Run("dry run", func(t *testing.T) {
		dry := *summary
		dry.DryRun = true
		d, _ := plain(t, false)
		assert.Contains(t, d.RunSummary(&dry), "Execution summary (dry run)")
	})
}

func TestValidation(t *testing.T) {
	d, _ := plain(t, false)
	assert.Equal(t, "No prerequisites configured", d.Validation(&validators.Report{AllPassed: true}))

	report := &validators.Report{
		AllPassed:   false,
		HasWarnings: true,
		Results: []validators.Result{
			{Validator: "tool:kubectl", Status: validators.StatusFailed, Checks: []validators.Check{
				{Name: "available", Message: "kubectl is not available"},
			}},
			{Validator: "filesystem", Status: validators.StatusWarning, Checks: []validators.Check{
				{Name: "/a", Passed: true, Message: "file"},
				{Name: "/b", Message: "path /b does not exist"},
			}},
			{Validator: "network", Status: validators.StatusPassed, Checks: []validators.Check{
				{Name: "http://x", Passed: true}, {Name: "http://y", Passed: true},
			}},
		},
	}
	out := d.Validation(report)
	assert.Contains(t, out, "Prerequisites Validation")
	assert.Contains(t, out, "kubectl is not available")
	assert.Contains(t, out, "path /b does not exist")
	assert.Contains(t, out, "all checks passed: http://x, http://y")
	assert.Contains(t, out, "1 prerequisites failed validation")
	assert.Contains(t, out, "Please fix the issues above")
}
