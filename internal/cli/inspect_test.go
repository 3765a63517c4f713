package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mbertrand/alluvial/pkg/chart"
	"github.com/mbertrand/alluvial/pkg/chart/layout"
	"github.com/mbertrand/alluvial/pkg/flow"
)

// inspectLayout builds a two-wave layout whose first time point has 3 of 15
// subjects with no onward link.
func inspectLayout(t *testing.T) layout.Layout {
	t.Helper()
	ds := flow.Dataset{
		Nodes: []flow.Node{
			{Time: 1, Category: 1, Size: 10, TimeLabel: "Baseline", CategoryLabel: "Employed"},
			{Time: 1, Category: 2, Size: 5, CategoryLabel: "Unemployed"},
			{Time: 2, Category: 1, Size: 8, TimeLabel: "Year 1"},
			{Time: 2, Category: 2, Size: 7},
		},
		Links: []flow.Link{
			{Time1: 1, Category1: 1, Time2: 2, Category2: 1, Thickness: 8},
			{Time1: 1, Category1: 2, Time2: 2, Category2: 2, Thickness: 4},
		},
	}
	l, err := layout.Build(ds, chart.Default())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return l
}

func keyMsg(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func TestInspectModelNavigation(t *testing.T) {
	m := newInspectModel(inspectLayout(t))

	if view := m.View(); !strings.Contains(view, "Baseline") {
		t.Errorf("initial view missing first time label:\n%s", view)
	}

	next, _ := m.Update(keyMsg(tea.KeyRight))
	m = next.(InspectModel)
	if m.Cursor != 1 {
		t.Fatalf("cursor after right = %d, want 1", m.Cursor)
	}
	if view := m.View(); !strings.Contains(view, "Year 1") {
		t.Errorf("second view missing time label:\n%s", view)
	}

	// Right at the last time point stays put; left walks back.
	next, _ = m.Update(keyMsg(tea.KeyRight))
	m = next.(InspectModel)
	if m.Cursor != 1 {
		t.Errorf("cursor ran past the last time point: %d", m.Cursor)
	}
	next, _ = m.Update(keyMsg(tea.KeyLeft))
	m = next.(InspectModel)
	if m.Cursor != 0 {
		t.Errorf("cursor after left = %d, want 0", m.Cursor)
	}
}

func TestInspectModelQuit(t *testing.T) {
	m := newInspectModel(inspectLayout(t))
	_, cmd := m.Update(keyMsg(tea.KeyEsc))
	if cmd == nil {
		t.Fatal("esc should quit")
	}
}

func TestInspectModelTransitions(t *testing.T) {
	m := newInspectModel(inspectLayout(t))

	view := m.View()
	if !strings.Contains(view, "Employed") {
		t.Errorf("view missing category label:\n%s", view)
	}
	if !strings.Contains(view, "8 (53.3%)") {
		t.Errorf("view missing transition size:\n%s", view)
	}
	// 12 of 15 subjects flow onward; the remainder is flagged.
	if !strings.Contains(view, "3 (20.0%) unlinked") {
		t.Errorf("view missing unlinked remainder:\n%s", view)
	}

	// The last time point has no outgoing links and no remainder warning.
	next, _ := m.Update(keyMsg(tea.KeyRight))
	m = next.(InspectModel)
	view = m.View()
	if !strings.Contains(view, "none") {
		t.Errorf("final view should report no transitions:\n%s", view)
	}
	if strings.Contains(view, "unlinked") {
		t.Errorf("final view should not flag a remainder:\n%s", view)
	}
}
