package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/charlie0129/battmoji/pkg/animation"
	"github.com/charlie0129/battmoji/pkg/powerinfo"
)

const statusPollInterval = 10 * time.Second

var errStreamClosed = errors.New("animation stream closed")

// daemonAPI is the part of the daemon client the model calls.
type daemonAPI interface {
	GetStatus() (string, error)
	GetPowerState() (*powerinfo.PowerState, error)
	StartAnimation() (bool, error)
}

// Model shows the status line and renders animation frames as they arrive.
type Model struct {
	api daemonAPI

	width, height    int
	screenW, screenH float64

	frame  animation.Frame
	status string
	state  *powerinfo.PowerState
	note   string
	err    error
}

// NewModel creates the initial model. Frames are scaled from a screen of
// screenW x screenH to the terminal.
func NewModel(api daemonAPI, screenW, screenH float64) Model {
	if screenW <= 0 {
		screenW = animation.DefaultScreenWidth
	}
	if screenH <= 0 {
		screenH = animation.DefaultScreenHeight
	}
	return Model{
		api:     api,
		screenW: screenW,
		screenH: screenH,
		status:  "...",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchStatusCmd(m.api), tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "a", " ":
			return m, startAnimationCmd(m.api)
		case "r":
			return m, fetchStatusCmd(m.api)
		}
		return m, nil

	case FrameMsg:
		m.frame = msg.Frame
		return m, nil

	case StatusMsg:
		m.status = msg.Status
		m.state = msg.State
		if !errors.Is(m.err, errStreamClosed) {
			m.err = nil
		}
		return m, nil

	case AnimationStartedMsg:
		if msg.Started {
			m.note = "animation started"
		} else {
			m.note = "animation already running"
		}
		return m, nil

	case StreamEndedMsg:
		m.err = errStreamClosed
		m.frame.Running = false
		m.frame.Particles = nil
		return m, nil

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case TickMsg:
		return m, tea.Batch(fetchStatusCmd(m.api), tickCmd())
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(m.status))
	if m.state != nil {
		fmt.Fprintf(&b, "  %d%% · %s", m.state.Percentage, powerinfo.StatusText(*m.state))
	}
	if m.frame.Running {
		b.WriteString("  " + runningStyle.Render(fmt.Sprintf("● playing (tick %d)", m.frame.Tick)))
	}
	b.WriteString("\n")

	// Header, help line and the canvas border.
	cols, rows := m.width-2, m.height-4
	if cols > 0 && rows > 0 {
		canvas := renderCanvas(m.frame.Glyph, m.frame.Particles, m.screenW, m.screenH, cols, rows)
		b.WriteString(canvasStyle.Width(cols).Height(rows).Render(canvas))
		b.WriteString("\n")
	}

	help := helpStyle.Render("a play · r refresh · q quit")
	switch {
	case m.err != nil:
		help = lipgloss.JoinHorizontal(lipgloss.Top, errorStyle.Render("error: "+m.err.Error()), "  ", help)
	case m.note != "":
		help = lipgloss.JoinHorizontal(lipgloss.Top, helpStyle.Render(m.note), "  ", help)
	}
	b.WriteString(help)
	return b.String()
}

func tickCmd() tea.Cmd {
	return tea.Tick(statusPollInterval, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

func fetchStatusCmd(api daemonAPI) tea.Cmd {
	return func() tea.Msg {
		return fetchStatus(api)
	}
}

func fetchStatus(api daemonAPI) tea.Msg {
	status, err := api.GetStatus()
	if err != nil {
		return ErrorMsg{Err: err}
	}
	state, err := api.GetPowerState()
	if err != nil {
		return ErrorMsg{Err: err}
	}
	return StatusMsg{Status: status, State: state}
}

func startAnimationCmd(api daemonAPI) tea.Cmd {
	return func() tea.Msg {
		started, err := api.StartAnimation()
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return AnimationStartedMsg{Started: started}
	}
}
