package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/quadmap/quadmap/pkg/config"
	"github.com/quadmap/quadmap/pkg/dataset"
	"github.com/quadmap/quadmap/pkg/normalize"
	"github.com/quadmap/quadmap/pkg/scoring"
	"github.com/quadmap/quadmap/pkg/solver"
	"github.com/quadmap/quadmap/pkg/transition"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// watchCommand creates the watch command: an interactive terminal view of a
// settling layout.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		configPath string
		mode       string
	)

	cmd := &cobra.Command{
		Use:   "watch <dataset.json>",
		Short: "Watch a layout settle interactively",
		Long:  `Watch opens a terminal view of the layout simulation. Select a weight preset to re-settle the layout live; toggle the collision force to compare raw and resolved positions.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if mode == "" {
				mode = cfg.Normalize.DefaultMode
			}
			m, err := normalize.ParseMode(mode)
			if err != nil {
				return err
			}
			solverCfg, err := cfg.SolverOptions()
			if err != nil {
				return err
			}

			ds, _, err := dataset.Load(args[0])
			if err != nil {
				return err
			}
			coord, err := transition.New(scoring.NewEngine(nil, nil), solverCfg,
				ds.Items, ds.Links, cfg.Scoring.DefaultPreset, m)
			if err != nil {
				return err
			}

			model := newWatchModel(coord, m)
			p := tea.NewProgram(model, tea.WithContext(cmd.Context()))
			final, err := p.Run()
			if err != nil {
				return err
			}
			if wm, ok := final.(watchModel); ok && wm.err != nil {
				return wm.err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "normalization mode")

	return cmd
}

// =============================================================================
// watchModel - Live settle view
// =============================================================================

// watchTick paces the simulation inside the TUI event loop.
type watchTick time.Time

// watchModel is the bubbletea model for the live layout view. The model is
// the coordinator's single owner while the program runs.
type watchModel struct {
	coord     *transition.Coordinator
	presets   []string
	cursor    int
	mode      normalize.Mode
	collision bool
	snapshot  transition.Snapshot
	err       error
}

func newWatchModel(coord *transition.Coordinator, mode normalize.Mode) watchModel {
	return watchModel{
		coord:     coord,
		presets:   scoring.PresetNames(scoring.DefaultPresets),
		mode:      mode,
		collision: true,
		snapshot:  coord.Snapshot(),
	}
}

func scheduleTick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return watchTick(t)
	})
}

func (m watchModel) Init() tea.Cmd {
	return scheduleTick()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case watchTick:
		if !m.snapshot.Stable() {
			m.snapshot = m.coord.Tick()
		}
		return m, scheduleTick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.presets)-1 {
				m.cursor++
			}
		case "c":
			m.collision = !m.collision
			m.coord.SetCollisionEnabled(m.collision)
			m.snapshot = m.coord.Snapshot()
		case "enter":
			req := transition.Request{Preset: m.presets[m.cursor], Normalization: m.mode}
			if _, err := m.coord.Apply(req, nil); err != nil {
				m.err = err
				return m, tea.Quit
			}
			m.snapshot = m.coord.Snapshot()
		}
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Quadmap Layout"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ preset  ⏎ apply  c collision  q quit"))
	b.WriteString("\n\n")

	current := m.coord.Current()
	for i, name := range m.presets {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		line := cursor + name
		if name == current.Preset {
			line += listDimStyle.Render("  (active)")
		}
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	snap := m.snapshot
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s %s  %s %s  %s %d  %s %.2e\n",
		listDimStyle.Render("phase"), phaseLabel(snap.Phase),
		listDimStyle.Render("mode"), string(snap.Normalization),
		listDimStyle.Render("tick"), snap.Tick,
		listDimStyle.Render("energy"), snap.Energy))
	if !m.collision {
		b.WriteString("  " + StyleWarning.Render("collision force off") + "\n")
	}
	if overlaps := m.coord.Overlaps(); len(overlaps) > 0 {
		b.WriteString("  " + StyleWarning.Render(fmt.Sprintf("%d overlapping pairs", len(overlaps))) + "\n")
	}
	b.WriteString("\n")

	rows := make([][]string, 0, len(snap.Items))
	for _, item := range snap.Items {
		rows = append(rows, []string{
			item.ID,
			fmt.Sprintf("%+.3f", item.Pos.X),
			fmt.Sprintf("%+.3f", item.Pos.Y),
			fmt.Sprintf("%+.3f", item.Target.X),
			fmt.Sprintf("%+.3f", item.Target.Y),
		})
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Item", "X", "Y", "Target X", "Target Y").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return listNormalStyle
			}
			return lipgloss.NewStyle().Foreground(colorCyan)
		})
	b.WriteString(t.Render())
	b.WriteString("\n")

	return b.String()
}

// phaseLabel colors the phase for the status line.
func phaseLabel(p solver.Phase) string {
	switch p {
	case solver.PhaseStable:
		return StyleSuccess.Render(string(p))
	case solver.PhaseSettling:
		return StyleWarning.Render(string(p))
	default:
		return StyleDim.Render(string(p))
	}
}
