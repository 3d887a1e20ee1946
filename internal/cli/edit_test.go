package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cadseer/cadseer/pkg/feature"
	"github.com/cadseer/cadseer/pkg/model"
)

func newTestEditModel(t *testing.T) EditModel {
	t.Helper()
	src, err := os.ReadFile(bracketModel)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "bracket.toml")
	if err := os.WriteFile(path, src, 0o644); err != nil {
		t.Fatal(err)
	}

	var logs bytes.Buffer
	c := New(&logs, LogInfo)
	ctx := withLogger(context.Background(), c.Logger)
	ws, err := c.open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := ws.engine.Recompute(ctx); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	return newEditModel(ctx, ws)
}

func press(t *testing.T, m EditModel, keys ...string) (EditModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(EditModel)
	}
	return m, cmd
}

func TestEditNavigation(t *testing.T) {
	m := newTestEditModel(t)

	m, _ = press(t, m, "down", "j", "down")
	if m.Cursor != 3 {
		t.Errorf("Cursor = %d, want 3", m.Cursor)
	}
	m, _ = press(t, m, "up", "k", "k", "k", "k")
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d, want 0 (clamped)", m.Cursor)
	}
	m, _ = press(t, m, "j", "j", "j", "j", "j", "j")
	if m.Cursor != 4 {
		t.Errorf("Cursor = %d, want 4 (clamped)", m.Cursor)
	}
}

func TestEditToggleAndRecompute(t *testing.T) {
	m := newTestEditModel(t)
	g := m.ws.graph()

	// boss is the second feature.
	m, _ = press(t, m, "j", "s")
	boss := m.vs[1]
	if !g.State(boss).Has(feature.Skipped | feature.ModelDirty) {
		t.Errorf("boss state = %s, want Skipped and ModelDirty", g.State(boss))
	}
	if m.Status != "boss skipped" {
		t.Errorf("Status = %q", m.Status)
	}

	m, _ = press(t, m, "r")
	if !strings.HasPrefix(m.Status, "recomputed 3:") {
		t.Errorf("Status = %q, want recompute of boss, fuse and grid", m.Status)
	}

	// draft starts inactive; activating it makes it run.
	m, _ = press(t, m, "j", "j", "j", " ")
	draft := m.vs[4]
	if !g.IsActive(draft) {
		t.Fatal("draft should be active")
	}
	m, _ = press(t, m, "r")
	if !strings.HasPrefix(m.Status, "recomputed 1:") {
		t.Errorf("Status = %q, want recompute of draft only", m.Status)
	}
	if !g.IsLeaf(draft) || g.IsLeaf(m.vs[3]) {
		t.Error("draft should now be the only leaf below grid")
	}

	view := m.View()
	for _, name := range []string{"base", "boss", "fuse", "grid", "draft"} {
		if !strings.Contains(view, name) {
			t.Errorf("view does not list %s", name)
		}
	}
}

func TestEditWriteAndQuit(t *testing.T) {
	m := newTestEditModel(t)

	m, _ = press(t, m, "d", "w")
	if !strings.HasPrefix(m.Status, "saved ") {
		t.Fatalf("Status = %q, want saved", m.Status)
	}
	saved, err := model.Load(m.ws.path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.Features[0].ID == "" {
		t.Error("write should pin feature ids")
	}

	_, cmd := press(t, m, "q")
	if cmd == nil {
		t.Error("q should return a quit command")
	}
}
