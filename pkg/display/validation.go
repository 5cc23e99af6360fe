package display

import (
	"strings"

	"github.com/arthur-debert/phazr/pkg/validators"
	"github.com/pterm/pterm"
)

// Validation renders a prerequisite report as a table followed by its
// summary.
func (d *Display) Validation(report *validators.Report) string {
	if len(report.Results) == 0 {
		return d.styles.muted.Render("No prerequisites configured")
	}

	data := pterm.TableData{{"Status", "Component", "Details"}}
	for _, res := range report.Results {
		data = append(data, []string{d.validationStatus(res.Status), res.Validator, details(res)})
	}

	summary := report.Summary()
	switch {
	case !report.AllPassed:
		summary = d.styles.err.Render(ErrorIcon+" "+summary) + "\n" +
			d.styles.muted.Render("Please fix the issues above before proceeding.")
	case report.HasWarnings:
		summary = d.styles.warning.Render(WarningIcon + " " + summary)
	default:
		summary = d.styles.success.Render(SuccessIcon + " " + summary)
	}
	return d.styles.title.Render("Prerequisites Validation") + "\n" + d.table(data) + "\n" + summary
}

func (d *Display) validationStatus(s validators.Status) string {
	switch s {
	case validators.StatusPassed:
		return d.styles.success.Render(SuccessIcon + " passed")
	case validators.StatusFailed:
		return d.styles.err.Render(ErrorIcon + " failed")
	default:
		return d.styles.warning.Render(WarningIcon + " warning")
	}
}

// details shows the first failing check, or the only check, or a count.
func details(res validators.Result) string {
	for _, c := range res.Checks {
		if !c.Passed {
			return c.Message
		}
	}
	if len(res.Checks) == 1 {
		return res.Checks[0].Message
	}
	var names []string
	for _, c := range res.Checks {
		names = append(names, c.Name)
	}
	return "all checks passed: " + strings.Join(names, ", ")
}
