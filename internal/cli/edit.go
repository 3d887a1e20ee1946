package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/cadseer/cadseer/pkg/dag"
	"github.com/cadseer/cadseer/pkg/feature"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

func (c *CLI) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <model>",
		Short: "Toggle feature flags interactively and recompute",
		Long: `Open a model in an interactive table. Features can be deactivated, skipped
or marked dirty, and the model recomputed in place. Writing saves the model
back to its file with pinned feature ids.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.open(ctx, args[0])
			if err != nil {
				return err
			}
			if _, err := ws.engine.Recompute(ctx); err != nil {
				return err
			}
			m := newEditModel(ctx, ws)
			if _, err := tea.NewProgram(m, tea.WithContext(ctx)).Run(); err != nil {
				return err
			}
			return nil
		},
	}
}

// =============================================================================
// EditModel - Interactive feature table
// =============================================================================

// EditModel is the bubbletea model of the edit command.
type EditModel struct {
	ctx    context.Context
	ws     *workspace
	vs     []dag.Vertex
	Cursor int
	Height int
	Offset int
	Status string
}

func newEditModel(ctx context.Context, ws *workspace) EditModel {
	return EditModel{
		ctx:    ctx,
		ws:     ws,
		vs:     ws.graph().Vertices(),
		Height: 15,
		Status: "ready",
	}
}

func (m EditModel) Init() tea.Cmd {
	return nil
}

func (m EditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.vs)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "a":
			m.Status = m.toggleActive()
		case "s":
			m.Status = m.toggleSkipped()
		case "d":
			m.Status = m.markDirty()
		case "r":
			m.Status = m.recompute()
		case "w":
			m.Status = m.write()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m EditModel) current() (dag.Vertex, feature.Feature, bool) {
	if len(m.vs) == 0 {
		return dag.Vertex{}, nil, false
	}
	v := m.vs[m.Cursor]
	return v, m.ws.graph().Feature(v), true
}

func (m EditModel) toggleActive() string {
	v, f, ok := m.current()
	if !ok {
		return ""
	}
	g := m.ws.graph()
	if g.IsActive(v) {
		_ = g.SetInactive(v)
		return f.Name() + " deactivated"
	}
	_ = g.SetActive(v)
	if err := m.ws.engine.MarkDirty(v); err != nil {
		return err.Error()
	}
	return f.Name() + " activated"
}

func (m EditModel) toggleSkipped() string {
	v, f, ok := m.current()
	if !ok {
		return ""
	}
	g := m.ws.graph()
	skipped := !g.State(v).Has(feature.Skipped)
	if err := g.SetSkipped(v, skipped); err != nil {
		return err.Error()
	}
	if skipped {
		return f.Name() + " skipped"
	}
	return f.Name() + " restored"
}

func (m EditModel) markDirty() string {
	v, f, ok := m.current()
	if !ok {
		return ""
	}
	if err := m.ws.engine.MarkDirty(v); err != nil {
		return err.Error()
	}
	return f.Name() + " marked dirty"
}

func (m EditModel) recompute() string {
	res, err := m.ws.engine.Recompute(m.ctx)
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("recomputed %d: %d ok, %d failed", len(res.Order), len(res.Updated), len(res.Failed))
}

func (m EditModel) write() string {
	if err := m.ws.save(m.ws.path); err != nil {
		return err.Error()
	}
	return "saved " + m.ws.path
}

func (m EditModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.ws.path))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space activate  s skip  d dirty  r recompute  w write  q quit"))
	b.WriteString("\n\n")

	g := m.ws.graph()
	end := min(m.Offset+m.Height, len(m.vs))
	rows := [][]string{}
	states := []feature.State{}
	for i := m.Offset; i < end; i++ {
		v := m.vs[i]
		f := g.Feature(v)
		st := g.State(v)
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		msg := ""
		if lines := g.Log(v); len(lines) > 0 {
			msg = lines[0]
		}
		rows = append(rows, []string{cursor, f.Name(), f.Descriptor(), stateLabel(st), msg})
		states = append(states, st)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Feature", "Type", "State", "Log").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if m.Offset+row == m.Cursor && col < 3 {
				return listSelectedStyle
			}
			if col >= 3 {
				return stateStyle(states[row])
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %s", m.Cursor+1, len(m.vs), m.Status)))

	return b.String()
}
