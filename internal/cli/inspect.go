package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/mbertrand/alluvial/pkg/chart/layout"
	"github.com/mbertrand/alluvial/pkg/pipeline"
)

// gapTol is the float tolerance below which an unlinked remainder is noise.
const gapTol = 1e-9

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// newInspectCmd creates the inspect command, an interactive terminal browser
// for a dataset's segments and transitions.
func newInspectCmd() *cobra.Command {
	var nodesPath, linksPath, configPath string

	cmd := &cobra.Command{
		Use:   "inspect [dataset.json]",
		Short: "Browse a flow dataset interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return runInspect(cmd, input, nodesPath, linksPath, configPath)
		},
	}

	cmd.Flags().StringVar(&nodesPath, "nodes", "", "CSV node table (requires --links)")
	cmd.Flags().StringVar(&linksPath, "links", "", "CSV link table (requires --nodes)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML chart configuration file")

	return cmd
}

func runInspect(cmd *cobra.Command, input, nodesPath, linksPath, configPath string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	opts := pipeline.Options{
		Input:      input,
		NodesPath:  nodesPath,
		LinksPath:  linksPath,
		ConfigPath: configPath,
		Logger:     logger,
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner := pipeline.NewRunner(nil, logger)
	ds, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	cfg, err := opts.ChartConfig()
	if err != nil {
		return err
	}
	l, err := layout.Build(ds, cfg)
	if err != nil {
		return err
	}

	model := newInspectModel(l)
	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return err
	}
	return nil
}

// =============================================================================
// InspectModel - Interactive time-point browser
// =============================================================================

// InspectModel is the bubbletea model for browsing a computed layout one time
// point at a time.
type InspectModel struct {
	Layout layout.Layout
	Cursor int // index into Layout.Times
}

// newInspectModel creates an inspect model positioned at the first time point.
func newInspectModel(l layout.Layout) InspectModel {
	return InspectModel{Layout: l}
}

func (m InspectModel) Init() tea.Cmd {
	return nil
}

func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h", "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "right", "l", "down", "j":
			if m.Cursor < len(m.Layout.Times)-1 {
				m.Cursor++
			}
		}
	}
	return m, nil
}

func (m InspectModel) View() string {
	var b strings.Builder

	t := m.Layout.Times[m.Cursor]

	b.WriteString(StyleTitle.Render("Inspect Dataset"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ switch time point  q quit"))
	b.WriteString("\n\n")

	header := fmt.Sprintf("%s  (n=%s)", m.Layout.TimeLabels[t], formatCount(m.Layout.N))
	b.WriteString(listSelectedStyle.Render(header))
	b.WriteString("\n\n")

	b.WriteString(m.segmentTable(t))
	b.WriteString("\n\n")
	b.WriteString(m.transitionView(t))

	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Layout.Times))))
	b.WriteString("\n")

	return b.String()
}

// segmentTable renders the stacked segments at time t, top of the stack first.
func (m InspectModel) segmentTable(t int) string {
	rows := [][]string{}
	for i := len(m.Layout.Segments) - 1; i >= 0; i-- {
		s := m.Layout.Segments[i]
		if s.Time != t {
			continue
		}
		rows = append(rows, []string{
			swatch(s.Color),
			s.Label,
			formatCount(s.HighCount - s.LowCount),
			fmt.Sprintf("%.1f%%", s.Share()*100),
			fmt.Sprintf("%.3f to %.3f", s.LowFrac, s.HighFrac),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Category", "Size", "Share", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 4 {
				return listDimStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

// transitionView lists the outgoing links from time t in layout order.
func (m InspectModel) transitionView(t int) string {
	var b strings.Builder
	b.WriteString(StyleHighlight.Render("Outgoing transitions"))
	b.WriteString("\n")

	count := 0
	outgoing := 0.0
	for _, l := range m.Layout.Links {
		if l.Time1 != t {
			continue
		}
		count++
		outgoing += l.Thickness
		from, _ := m.Layout.SegmentAt(l.Time1, l.Category1)
		to, _ := m.Layout.SegmentAt(l.Time2, l.Category2)
		share := l.Thickness / m.Layout.N
		b.WriteString(fmt.Sprintf("  %s %s %s  %s",
			StyleValue.Render(from.Label),
			listDimStyle.Render(iconArrow),
			StyleValue.Render(to.Label),
			listDimStyle.Render(fmt.Sprintf("%s (%.1f%%)", formatCount(l.Thickness), share*100))))
		b.WriteString("\n")
	}
	if count == 0 {
		b.WriteString(listDimStyle.Render("  none"))
		b.WriteString("\n")
	} else if gap := m.Layout.N - outgoing; gap > gapTol {
		// Population with no onward link leaves the study between time points
		// and renders as an implicit gap.
		b.WriteString(StyleWarning.Render(fmt.Sprintf("  %s (%.1f%%) unlinked",
			formatCount(gap), gap/m.Layout.N*100)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// swatch renders a colored block for a hex color.
func swatch(hex string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("██")
}

// formatCount renders a count without a trailing ".0" for whole numbers.
func formatCount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
