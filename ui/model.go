package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yllada/vpn-toggle/common"
	"github.com/yllada/vpn-toggle/retry"
	"github.com/yllada/vpn-toggle/vpn"
)

// Controller is the part of the supervisor the interface drives.
type Controller interface {
	Connect()
	Disconnect()
	Status() vpn.Event
}

// Config wires the model to its event sources. Only Controller and
// Events are required.
type Config struct {
	Controller Controller
	Events     <-chan vpn.Event
	// Output carries raw OpenVPN output chunks.
	Output <-chan string
	// Retry observes every event when set.
	Retry *retry.Scheduler
	// Notices carries retry announcements.
	Notices    <-chan string
	ConfigPath string
	Version    string
}

// EventMsg carries a supervisor event.
type EventMsg vpn.Event

// StatusMsg carries the result of a status request.
type StatusMsg vpn.Event

// OutputMsg carries a chunk of OpenVPN output.
type OutputMsg string

// NoticeMsg carries a retry announcement.
type NoticeMsg string

// ClosedMsg reports that the event stream ended.
type ClosedMsg struct{}

// Model is the root Bubble Tea model.
type Model struct {
	cfg     Config
	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	width   int

	state   vpn.Event
	display Display
	notice  string
	output  []string

	quitting bool
}

// New creates the root model.
func New(cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorConnecting)

	initial := vpn.Event{Status: vpn.StatusDisconnected}
	return Model{
		cfg:     cfg,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: s,
		state:   initial,
		display: Describe(initial),
	}
}

// Run starts the program on the alternate screen and blocks until the
// user quits or ctx is done.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init requests the current status and starts reading the event sources.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		requestStatus(m.cfg.Controller),
		waitForEvent(m.cfg.Events),
	}
	if m.cfg.Output != nil {
		cmds = append(cmds, waitForOutput(m.cfg.Output))
	}
	if m.cfg.Notices != nil {
		cmds = append(cmds, waitForNotice(m.cfg.Notices))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		ev := vpn.Event(msg)
		m.setState(ev)
		if m.cfg.Retry != nil {
			m.cfg.Retry.Observe(ev)
		}
		return m, waitForEvent(m.cfg.Events)

	case StatusMsg:
		m.setState(vpn.Event(msg))
		return m, nil

	case OutputMsg:
		m.appendOutput(string(msg))
		return m, waitForOutput(m.cfg.Output)

	case NoticeMsg:
		if !m.display.Connected && !m.display.Busy {
			m.notice = string(msg)
		}
		return m, waitForNotice(m.cfg.Notices)

	case ClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		if !m.display.Enabled {
			common.LogDebug("UI: Connection in progress, ignoring key")
			return m, nil
		}
		m.cfg.Controller.Connect()
		return m, nil

	case key.Matches(msg, m.keys.Disconnect):
		if m.display.Connected {
			m.cfg.Controller.Disconnect()
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, requestStatus(m.cfg.Controller)
	}

	return m, nil
}

// setState records ev as the displayed state.
func (m *Model) setState(ev vpn.Event) {
	m.state = ev
	m.display = Describe(ev)
	m.notice = ""
}

// appendOutput keeps the last lines of process output.
func (m *Model) appendOutput(chunk string) {
	for _, line := range strings.Split(chunk, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		m.output = append(m.output, line)
	}
	m.output = common.LastN(m.output, common.OutputLines)
}

// View renders the screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := common.AppName
	if m.cfg.ConfigPath != "" {
		title += "  " + detailsStyle.Render(filepath.Base(m.cfg.ConfigPath))
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	dot := lipgloss.NewStyle().Foreground(indicatorColor(m.display.Indicator)).Render("●")
	b.WriteString(fmt.Sprintf("%s %s\n", dot, titleStyle.Render(m.display.Headline)))

	details := m.display.Details
	if m.notice != "" {
		details = m.notice
	}
	b.WriteString(detailsStyle.Render(details))
	b.WriteString("\n\n")

	b.WriteString(m.renderButton())
	b.WriteString("\n")

	if len(m.output) > 0 {
		width := m.width - 8
		if width < 40 {
			width = 40
		}
		lines := make([]string, len(m.output))
		for i, line := range m.output {
			lines[i] = common.Truncate(line, width)
		}
		b.WriteString("\n")
		b.WriteString(outputStyle.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return panelStyle.Render(b.String())
}

func (m Model) renderButton() string {
	switch {
	case m.display.Busy:
		return disabledButtonStyle.Render(m.display.Button + " " + m.spinner.View())
	case m.display.Connected:
		return disconnectButtonStyle.Render(m.display.Button)
	default:
		return buttonStyle.Render(m.display.Button)
	}
}

// requestStatus reads the current status.
func requestStatus(c Controller) tea.Cmd {
	return func() tea.Msg {
		return StatusMsg(c.Status())
	}
}

// waitForEvent reads one event.
func waitForEvent(events <-chan vpn.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return ClosedMsg{}
		}
		return EventMsg(ev)
	}
}

// waitForOutput reads one output chunk.
func waitForOutput(output <-chan string) tea.Cmd {
	return func() tea.Msg {
		chunk, ok := <-output
		if !ok {
			return nil
		}
		return OutputMsg(chunk)
	}
}

// waitForNotice reads one retry announcement.
func waitForNotice(notices <-chan string) tea.Cmd {
	return func() tea.Msg {
		notice, ok := <-notices
		if !ok {
			return nil
		}
		return NoticeMsg(notice)
	}
}
