package display

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/phazr/pkg/types"
	"github.com/charmbracelet/lipgloss"
)

func (d *Display) statusStyle(status types.PhaseStatus) (lipgloss.Style, string) {
	switch status {
	case types.PhaseSucceeded:
		return d.styles.success, SuccessIcon
	case types.PhaseCompletedWithErrors:
		return d.styles.warning, WarningIcon
	case types.PhaseFailed, types.PhaseCancelled:
		return d.styles.err, ErrorIcon
	case types.PhaseSkippedUpstream, types.PhaseDisabled:
		return d.styles.muted, SkipIcon
	default:
		return d.styles.muted, PendingIcon
	}
}

// Operation renders one operation result line, with its error and, in
// verbose mode, the first lines of its output.
func (d *Display) Operation(r types.ExecutionResult, index, total int) string {
	var (
		status string
		style  lipgloss.Style
	)
	switch {
	case r.DryRun:
		status, style = "DRY RUN", d.styles.info
	case r.Skipped:
		status, style = "SKIPPED", d.styles.warning
	case r.Success:
		status, style = "SUCCESS", d.styles.success
	case r.Tolerated():
		status, style = "IGNORED", d.styles.warning
	default:
		status, style = "FAILED", d.styles.err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  %s %s %-48s %s %s",
		d.styles.info.Render(fmt.Sprintf("[%2d/%2d]", index, total)),
		OperationIcon(r.Operation.Type),
		truncate(r.Operation.Label(), 48),
		style.Render(status),
		d.styles.muted.Render("("+seconds(r.Duration)+")"))

	if d.verbose && r.Operation.Command != "" {
		for _, line := range firstLines(r.Operation.Command, 3) {
			b.WriteString("\n      " + d.styles.muted.Render(truncate(line, 72)))
		}
	}
	if !r.Success && r.Error != nil {
		for _, line := range firstLines(r.Error.Error(), 2) {
			b.WriteString("\n        " + d.styles.err.Render("→ "+truncate(line, 70)))
		}
	}
	if (d.verbose || r.DryRun) && r.Output != "" {
		for _, line := range firstLines(r.Output, 2) {
			b.WriteString("\n        " + d.styles.muted.Render("→ "+truncate(line, 70)))
		}
	}
	return b.String()
}

// PhaseResult renders a phase with its operations and a closing stats line.
func (d *Display) PhaseResult(r types.PhaseResult) string {
	var b strings.Builder

	total, succeeded, failed, skipped := r.Counts()
	title := fmt.Sprintf("%s Phase: %s", PhaseIcon(r.Phase), strings.ToUpper(r.Phase.Name))
	b.WriteString(d.styles.title.Render(title))
	subtitle := fmt.Sprintf("%d operations", total)
	if r.Phase.Description != "" {
		subtitle = fmt.Sprintf("%s (%d operations)", r.Phase.Description, total)
	}
	b.WriteString("\n" + d.styles.muted.Render(subtitle))

	i := 0
	for _, g := range r.Groups {
		for _, res := range g.Results {
			i++
			b.WriteString("\n" + d.Operation(res, i, total))
		}
	}

	style, icon := d.statusStyle(r.Status)
	stats := fmt.Sprintf("%s %s: %s | %d passed, %d failed, %d skipped | %s | %.0f%%",
		icon, r.Phase.Name, r.Status, succeeded, failed, skipped, seconds(r.Duration), r.SuccessRate())
	b.WriteString("\n" + style.Render(stats))
	if r.Reason != "" {
		b.WriteString("\n  " + d.styles.muted.Render(r.Reason))
	}
	return b.String()
}

// RunSummary renders the final report of a run.
func (d *Display) RunSummary(s *types.RunSummary) string {
	var b strings.Builder

	header := "Execution summary"
	if s.DryRun {
		header += " (dry run)"
	}
	b.WriteString(d.styles.title.Render(header))
	fmt.Fprintf(&b, "\n%s", d.styles.muted.Render(fmt.Sprintf("run %s, version %s", s.RunID, s.Version)))

	var totalOps, totalOK, totalFailed, totalSkipped int
	for _, p := range s.Phases {
		total, succeeded, failed, skipped := p.Counts()
		totalOps += total
		totalOK += succeeded
		totalFailed += failed
		totalSkipped += skipped

		style, icon := d.statusStyle(p.Status)
		line := fmt.Sprintf("%s %-24s %-22s %s %d %s %d %s %d | %s",
			icon, p.Phase.Name, p.Status,
			SuccessIcon, succeeded, ErrorIcon, failed, SkipIcon, skipped, seconds(p.Duration))
		b.WriteString("\n  " + style.Render(line))
		if p.Reason != "" && !p.Status.Executed() {
			b.WriteString("\n      " + d.styles.muted.Render(p.Reason))
		}
	}

	success := s.Success()
	totalStyle, totalIcon := d.styles.success, SuccessIcon
	if !success {
		totalStyle, totalIcon = d.styles.err, ErrorIcon
	}
	b.WriteString("\n" + totalStyle.Render(fmt.Sprintf("%s TOTAL %s %d %s %d %s %d | %s",
		totalIcon, SuccessIcon, totalOK, ErrorIcon, totalFailed, SkipIcon, totalSkipped, seconds(s.Duration()))))

	var final string
	switch {
	case success:
		final = d.styles.success.Render("Setup completed successfully!") + "\n" +
			d.styles.muted.Render(fmt.Sprintf("Executed %d operations in %s", totalOps, seconds(s.Duration())))
	case s.Err != nil:
		final = d.styles.err.Render("Run interrupted: "+s.Err.Error()) + "\n" +
			d.styles.muted.Render("Phases that had not finished are marked cancelled")
	default:
		final = d.styles.err.Render(fmt.Sprintf("Setup completed with %d failures", totalFailed)) + "\n" +
			d.styles.muted.Render("Failed phases: "+strings.Join(s.Failed(), ", "))
	}
	b.WriteString("\n" + d.styles.box.Render(final))
	return b.String()
}

func firstLines(s string, n int) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	return out
}
