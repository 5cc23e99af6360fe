package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/arthur-debert/phazr/pkg/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// Display writes user-facing output. Logging goes elsewhere.
type Display struct {
	out     io.Writer
	color   bool
	verbose bool
	styles  styles
}

// New creates a display writing to out. Colour is detected from out.
func New(out io.Writer, verbose bool) *Display {
	return NewWithColor(out, verbose, DetectColor(out))
}

// NewWithColor creates a display with colour forced on or off.
func NewWithColor(out io.Writer, verbose, color bool) *Display {
	return &Display{
		out:     out,
		color:   color,
		verbose: verbose,
		styles:  newStyles(lipgloss.NewRenderer(out), color),
	}
}

// DetectColor reports whether w is a terminal that should receive colour.
func DetectColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Verbose reports whether operation commands and output are shown.
func (d *Display) Verbose() bool {
	return d.verbose
}

// Print writes s followed by a newline.
func (d *Display) Print(s string) {
	fmt.Fprintln(d.out, s)
}

// Header renders the application banner.
func (d *Display) Header() string {
	return d.styles.box.Render(
		d.styles.title.Render("phazr") + "\n" +
			d.styles.muted.Render("DAG-based workflow orchestration"))
}

func (d *Display) Info(format string, args ...interface{}) {
	d.Print(d.styles.info.Render("ℹ Info:") + " " + fmt.Sprintf(format, args...))
}

func (d *Display) Success(format string, args ...interface{}) {
	d.Print(d.styles.success.Render(SuccessIcon+" Success:") + " " + fmt.Sprintf(format, args...))
}

func (d *Display) Warning(format string, args ...interface{}) {
	d.Print(d.styles.warning.Render(WarningIcon+" Warning:") + " " + fmt.Sprintf(format, args...))
}

func (d *Display) Error(format string, args ...interface{}) {
	d.Print(d.styles.err.Render(ErrorIcon+" Error:") + " " + fmt.Sprintf(format, args...))
}

// PhaseIcon returns the phase's own icon or one derived from its name.
func PhaseIcon(p types.Phase) string {
	if p.Icon != "" {
		return p.Icon
	}
	name := strings.ToLower(p.Name)
	for _, candidate := range phaseIcons {
		if strings.Contains(name, candidate.keyword) {
			return candidate.icon
		}
	}
	return defaultIcon
}

// OperationIcon returns the icon for an operation type.
func OperationIcon(t types.OperationType) string {
	if icon, ok := operationIcons[string(t)]; ok {
		return icon
	}
	return defaultIcon
}

// table renders rows with pterm. The first row is the header.
func (d *Display) table(data pterm.TableData) string {
	t := pterm.DefaultTable.
		WithHasHeader().
		WithHeaderRowSeparator("-").
		WithData(data)
	if !d.color {
		plain := pterm.NewStyle()
		t = t.WithStyle(plain).
			WithHeaderStyle(plain).
			WithSeparatorStyle(plain).
			WithHeaderRowSeparatorStyle(plain)
	}
	out, err := t.Srender()
	if err != nil {
		// Srender only fails on malformed data; fall back to tab separated rows.
		var b strings.Builder
		for _, row := range data {
			b.WriteString(strings.Join(row, "\t") + "\n")
		}
		return b.String()
	}
	return strings.TrimRight(out, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func joinOrDash(items []string) string {
	return orDash(strings.Join(items, ", "))
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
