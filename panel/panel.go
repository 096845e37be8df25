// Package panel is an interactive operator panel for a simulated axis:
// it renders the register window and lets the keyboard stand in for both
// the HMI (mode and index commands) and the master encoder (jogging the
// simulated counter).

package panel

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"rotor/hal"
	"rotor/motion"
	"rotor/regs"
)

type refreshMsg struct{}

// refreshEvery paces the view while the engine runs in the background.
const refreshEvery = 50 * time.Millisecond

type model struct {
	eng    *motion.Engine
	master *hal.SimCounter

	// master counts applied per jog keypress
	jog int32
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(time.Time) tea.Msg { return refreshMsg{} })
}

// Init is the first function that will be called. The first refresh is
// scheduled here; each refresh then schedules the next.
func (m model) Init() tea.Cmd {
	return tick()
}

// Update reacts to keypresses by poking the register window the same way
// the fieldbus would, and to refresh ticks by re-rendering.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		return m, tick()

	case tea.KeyMsg:
		w := m.eng.Regs
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "j":
			m.master.Move(-m.jog)
		case "k":
			m.master.Move(m.jog)

		case "s":
			w.SetMode(regs.ModeSynchroInit)
		case "h":
			w.SetMode(regs.ModeHalt)

		case "i":
			w.SetIndexDeltaSteps(100)
		case "I":
			w.SetIndexDeltaSteps(-100)

		case "e":
			w.SetEncoderPresetIndex(w.SynScaleIndex())
			w.SetEncoderPresetValue(0)
			w.SetMode(regs.ModeSetEncoder)
		}
	}
	return m, nil
}

func (m model) registers() string {
	s := m.eng.Regs.Snapshot()
	out := fmt.Sprintf(`mode:       %v
current:    %d
final:      %d
idxDelta:   %d
speed:      %.1f [%.1f..%.1f] +%.1f
stepRatio:  %d/%d
synRatio:   %d/%d
synScale:   %d
`,
		s.Mode,
		s.CurrentPosition,
		s.FinalPosition,
		s.IndexDeltaSteps,
		s.CurrentSpeed, s.MinSpeed, s.MaxSpeed, s.Acceleration,
		s.StepRatioNum, s.StepRatioDen,
		s.SynRatioNum, s.SynRatioDen,
		s.SynScaleIndex,
	)
	for i, p := range s.ScalesPosition {
		out += fmt.Sprintf("scale %d:    %d\n", i, p)
	}
	return out
}

func (m model) help() string {
	return `
j/k  jog master   s  synchro init
i/I  index ±100   e  zero encoder
h    halt         q  quit
`
}

// View renders the panel: live registers beside the key map, with a
// spew dump of the full window snapshot below for anything the summary
// leaves out.
func (m model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.registers(),
			m.help(),
		),
		"",
		spew.Sdump(m.eng.Regs.Snapshot()),
	)
}

// Run starts the panel over an engine that is already ticking in the
// background. Blocks until the operator quits.
func Run(eng *motion.Engine, master *hal.SimCounter, jog int32) error {
	if jog == 0 {
		jog = 10
	}
	_, err := tea.NewProgram(model{
		eng:    eng,
		master: master,
		jog:    jog,
	}).Run()
	return err
}
