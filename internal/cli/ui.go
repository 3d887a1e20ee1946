package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cadseer/cadseer/pkg/dag"
	"github.com/cadseer/cadseer/pkg/feature"
	"github.com/cadseer/cadseer/pkg/stableid"
	"github.com/cadseer/cadseer/pkg/update"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for failed features.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints an indented dim line.
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Feature Tables
// =============================================================================

// stateLabel is the short state shown in tables.
func stateLabel(st feature.State) string {
	var parts []string
	switch {
	case st.Has(feature.Failure):
		parts = append(parts, "failed")
	case st.Has(feature.Success):
		parts = append(parts, "ok")
	default:
		parts = append(parts, "pending")
	}
	if st.Has(feature.ModelDirty) {
		parts = append(parts, "dirty")
	}
	if st.Has(feature.Skipped) {
		parts = append(parts, "skipped")
	}
	if st.Has(feature.Inactive) {
		parts = append(parts, "inactive")
	}
	if !st.Has(feature.NonLeaf) {
		parts = append(parts, "leaf")
	}
	return strings.Join(parts, " ")
}

func stateStyle(st feature.State) lipgloss.Style {
	switch {
	case st.Has(feature.Failure):
		return StyleError
	case st.Has(feature.Inactive), st.Has(feature.Skipped):
		return StyleDim
	case st.Has(feature.Success):
		return StyleSuccess
	default:
		return StyleWarning
	}
}

// featureTable renders one row per vertex: position, name, type, short id,
// state and the first log line.
func featureTable(g *dag.Graph, vs []dag.Vertex) string {
	rows := make([][]string, len(vs))
	states := make([]feature.State, len(vs))
	for i, v := range vs {
		f := g.Feature(v)
		st := g.State(v)
		states[i] = st
		msg := ""
		if lines := g.Log(v); len(lines) > 0 {
			msg = lines[0]
		}
		rows[i] = []string{strconv.Itoa(i + 1), f.Name(), f.Descriptor(), f.ID().Short(), stateLabel(st), msg}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Feature", "Type", "ID", "State", "Log").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			switch col {
			case 0, 3:
				return StyleDim
			case 4, 5:
				return stateStyle(states[row])
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

// verticesOf maps the ids of a pass back to vertices, dropping ids that no
// longer name a live feature.
func verticesOf(g *dag.Graph, ids []stableid.ID) []dag.Vertex {
	vs := make([]dag.Vertex, 0, len(ids))
	for _, id := range ids {
		if v, ok := g.Vertex(id); ok {
			vs = append(vs, v)
		}
	}
	return vs
}

// printResult prints the table of the features a pass visited and a summary.
func printResult(g *dag.Graph, res *update.Result) {
	if len(res.Order) == 0 {
		printInfo("Nothing to recompute")
		return
	}
	fmt.Println(featureTable(g, verticesOf(g, res.Order)))

	summary := fmt.Sprintf("%s updated", StyleNumber.Render(strconv.Itoa(len(res.Updated))))
	if n := len(res.Skipped); n > 0 {
		summary += StyleDim.Render(" · ") + fmt.Sprintf("%d skipped", n)
	}
	if n := len(res.Failed); n > 0 {
		summary += StyleDim.Render(" · ") + StyleError.Render(fmt.Sprintf("%d failed", n))
		printWarning("Recomputed with failures")
		printDetail("%s", summary)
		return
	}
	printSuccess("Recomputed %s", summary)
}

// =============================================================================
// Metrics
// =============================================================================

// metricRows flattens the gathered families into name, labels and value
// rows. Histograms show their sample count and sum.
func metricRows(reg prometheus.Gatherer) ([][]string, error) {
	mfs, err := reg.Gather()
	if err != nil {
		return nil, err
	}
	var rows [][]string
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			var value string
			switch {
			case m.GetCounter() != nil:
				value = strconv.FormatFloat(m.GetCounter().GetValue(), 'g', -1, 64)
			case m.GetGauge() != nil:
				value = strconv.FormatFloat(m.GetGauge().GetValue(), 'g', -1, 64)
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				value = fmt.Sprintf("n=%d sum=%.4fs", h.GetSampleCount(), h.GetSampleSum())
			default:
				continue
			}
			rows = append(rows, []string{mf.GetName(), strings.Join(labels, ","), value})
		}
	}
	return rows, nil
}

func printMetrics(reg prometheus.Gatherer) error {
	rows, err := metricRows(reg)
	if err != nil {
		return err
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Metric", "Labels", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 2 {
				return StyleNumber
			}
			return StyleDim
		})
	fmt.Println(t.Render())
	return nil
}
