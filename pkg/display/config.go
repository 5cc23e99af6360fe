package display

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/phazr/pkg/types"
	"github.com/pterm/pterm"
)

// PhasesTable renders the configured phases with their groups,
// dependencies and options.
func (d *Display) PhasesTable(phases []types.Phase) string {
	data := pterm.TableData{{"Phase", "Description", "Groups", "Dependencies", "Options"}}
	for _, p := range phases {
		var options []string
		if p.ContinueOnError {
			options = append(options, "continue-on-error")
		}
		if p.ParallelGroups {
			options = append(options, "parallel")
		}
		if !p.Enabled {
			options = append(options, "DISABLED")
		}
		data = append(data, []string{
			p.Name,
			orDash(p.Description),
			joinOrDash(p.Groups),
			joinOrDash(p.DependsOn),
			joinOrDash(options),
		})
	}
	return d.styles.title.Render("Configured Phases") + "\n" + d.table(data)
}

// Versions lists version labels with their group and operation counts.
func (d *Display) Versions(cfg *types.Config) string {
	var b strings.Builder
	b.WriteString("Available versions:")
	for _, label := range cfg.VersionLabels() {
		v := cfg.Versions[label]
		marker := ""
		if label == cfg.Execution.DefaultVersion {
			marker = d.styles.muted.Render(" (default)")
		}
		fmt.Fprintf(&b, "\n  - %s: %d groups, %d operations%s",
			label, len(v.Groups), v.OperationCount(), marker)
	}
	return b.String()
}

// Layers renders the execution plan, one dependency layer per line.
func (d *Display) Layers(layers [][]string) string {
	var b strings.Builder
	b.WriteString(d.styles.title.Render("Execution plan"))
	for i, layer := range layers {
		fmt.Fprintf(&b, "\n  %s %s", d.styles.muted.Render(fmt.Sprintf("layer %d:", i+1)), strings.Join(layer, ", "))
	}
	return b.String()
}

// Issues renders configuration issues as a bulleted list.
func (d *Display) Issues(issues []string) string {
	var b strings.Builder
	b.WriteString(d.styles.err.Render(ErrorIcon + " Configuration issues found:"))
	for _, issue := range issues {
		b.WriteString("\n  - " + issue)
	}
	return b.String()
}
