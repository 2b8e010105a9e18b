package ui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yllada/vpn-toggle/common"
	"github.com/yllada/vpn-toggle/retry"
	"github.com/yllada/vpn-toggle/vpn"
)

type fakeController struct {
	connects    int
	disconnects int
	status      vpn.Event
}

func (f *fakeController) Connect()          { f.connects++ }
func (f *fakeController) Disconnect()       { f.disconnects++ }
func (f *fakeController) Status() vpn.Event { return f.status }

func newTestModel(t *testing.T) (Model, *fakeController) {
	t.Helper()

	ctrl := &fakeController{status: vpn.Event{Status: vpn.StatusDisconnected}}
	m := New(Config{
		Controller: ctrl,
		Events:     make(chan vpn.Event),
		ConfigPath: "/etc/openvpn/office.ovpn",
	})
	m.width = 80
	return m, ctrl
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()

	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T, want Model", next)
	}
	return model, cmd
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name    string
		event   vpn.Event
		button  string
		details string
		enabled bool
	}{
		{"disconnected", vpn.Event{Status: vpn.StatusDisconnected}, "Connect VPN", "Click the button below to connect to VPN", true},
		{"connecting", vpn.Event{Status: vpn.StatusConnecting}, "Connecting", "Please wait while establishing VPN connection...", false},
		{"authenticating", vpn.Event{Status: vpn.StatusAuthenticating}, "Connecting", "Please wait while establishing VPN connection...", false},
		{"connected", vpn.Event{Status: vpn.StatusConnected}, "Disconnect VPN", "VPN connection established. Your IP is now masked.", true},
		{"error", vpn.NewErrorEvent(common.ErrConnectionRefused), "Retry Connection", "Error: Connection refused", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Describe(tt.event)
			if d.Button != tt.button {
				t.Errorf("Button = %q, want %q", d.Button, tt.button)
			}
			if d.Details != tt.details {
				t.Errorf("Details = %q, want %q", d.Details, tt.details)
			}
			if d.Enabled != tt.enabled {
				t.Errorf("Enabled = %v, want %v", d.Enabled, tt.enabled)
			}
		})
	}

	if got := Describe(vpn.Event{Status: vpn.StatusAuthenticating}).Headline; got != "Authenticating..." {
		t.Errorf("Headline = %q, want %q", got, "Authenticating...")
	}
}

func TestModel_InitialView(t *testing.T) {
	m, _ := newTestModel(t)

	view := m.View()
	for _, want := range []string{"VPN Toggle", "office.ovpn", "Disconnected", "Connect VPN", DetailsDisconnected} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestModel_ToggleKeys(t *testing.T) {
	m, ctrl := newTestModel(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if ctrl.connects != 2 {
		t.Errorf("Connect() called %d times, want 2", ctrl.connects)
	}

	// Escape only disconnects while connected.
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if ctrl.disconnects != 0 {
		t.Errorf("Disconnect() called %d times while disconnected, want 0", ctrl.disconnects)
	}

	m, _ = update(t, m, EventMsg{Status: vpn.StatusConnected})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if ctrl.disconnects != 1 {
		t.Errorf("Disconnect() called %d times, want 1", ctrl.disconnects)
	}
}

func TestModel_ButtonDisabledWhileConnecting(t *testing.T) {
	m, ctrl := newTestModel(t)

	for _, status := range []vpn.Status{vpn.StatusConnecting, vpn.StatusAuthenticating} {
		m, _ = update(t, m, EventMsg{Status: status})
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		m, _ = update(t, m, keyRune(' '))
	}

	if ctrl.connects != 0 {
		t.Errorf("Connect() called %d times while connecting, want 0", ctrl.connects)
	}
	if !strings.Contains(m.View(), "Authenticating...") {
		t.Error("View() should show the authenticating status")
	}
}

func TestModel_ConnectedView(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := update(t, m, EventMsg{Status: vpn.StatusConnected})
	if cmd == nil {
		t.Error("an event should schedule the next read")
	}

	view := m.View()
	for _, want := range []string{"Connected", "Disconnect VPN", DetailsConnected} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestModel_ErrorAndRetryNotice(t *testing.T) {
	m, ctrl := newTestModel(t)
	scheduler := retry.New(ctrl.Connect, retry.WithNotice(time.Hour))
	t.Cleanup(scheduler.Stop)
	m.cfg.Retry = scheduler
	m.cfg.Notices = make(chan string)

	m, _ = update(t, m, EventMsg(vpn.NewErrorEvent(common.ErrHostUnreachable)))

	view := m.View()
	for _, want := range []string{"Error: Cannot reach server", "Retry Connection"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if !scheduler.Pending() {
		t.Error("a transient error should schedule a retry")
	}

	m, _ = update(t, m, NoticeMsg(retry.NoticeMessage))
	if !strings.Contains(m.View(), "Auto-retrying connection...") {
		t.Error("View() should show the retry notice")
	}

	m, _ = update(t, m, EventMsg{Status: vpn.StatusConnecting})
	if strings.Contains(m.View(), "Auto-retrying connection...") {
		t.Error("a new state should replace the retry notice")
	}
	if scheduler.Pending() {
		t.Error("Connecting should cancel the pending retry")
	}
}

func TestModel_NoticeIgnoredWhileConnected(t *testing.T) {
	m, _ := newTestModel(t)
	m.cfg.Notices = make(chan string)

	m, _ = update(t, m, EventMsg{Status: vpn.StatusConnected})
	m, _ = update(t, m, NoticeMsg(retry.NoticeMessage))

	if strings.Contains(m.View(), "Auto-retrying") {
		t.Error("retry notice should not be shown while connected")
	}
}

func TestModel_RefreshStatus(t *testing.T) {
	m, ctrl := newTestModel(t)
	ctrl.status = vpn.Event{Status: vpn.StatusConnected}

	m, cmd := update(t, m, keyRune('r'))
	if cmd == nil {
		t.Fatal("refresh should return a command")
	}
	msg := cmd()
	if _, ok := msg.(StatusMsg); !ok {
		t.Fatalf("refresh command returned %T, want StatusMsg", msg)
	}

	m, _ = update(t, m, msg)
	if !strings.Contains(m.View(), "Disconnect VPN") {
		t.Error("View() should reflect the refreshed status")
	}
}

func TestModel_Output(t *testing.T) {
	m, _ := newTestModel(t)
	m.cfg.Output = make(chan string)

	var chunk strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&chunk, "line %d\r\n", i)
	}
	m, cmd := update(t, m, OutputMsg(chunk.String()))
	if cmd == nil {
		t.Error("output should schedule the next read")
	}

	if len(m.output) != common.OutputLines {
		t.Fatalf("kept %d lines, want %d", len(m.output), common.OutputLines)
	}
	if m.output[0] != "line 4" || m.output[len(m.output)-1] != "line 11" {
		t.Errorf("output = %q, want lines 4 to 11", m.output)
	}

	view := m.View()
	if !strings.Contains(view, "line 11") || strings.Contains(view, "line 3") {
		t.Error("View() should show only the last output lines")
	}
}

func TestModel_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
	}{
		{"q", keyRune('q')},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
		{"stream closed", ClosedMsg{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t)

			m, cmd := update(t, m, tt.msg)
			if cmd == nil {
				t.Fatal("expected a quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("command should quit the program")
			}
			if m.View() != "" {
				t.Error("View() should be empty after quitting")
			}
		})
	}
}

func TestWaitForEvent(t *testing.T) {
	events := make(chan vpn.Event, 1)
	events <- vpn.Event{Status: vpn.StatusConnected}

	msg := waitForEvent(events)()
	if ev, ok := msg.(EventMsg); !ok || ev.Status != vpn.StatusConnected {
		t.Errorf("waitForEvent() = %#v, want Connected", msg)
	}

	close(events)
	if _, ok := waitForEvent(events)().(ClosedMsg); !ok {
		t.Error("waitForEvent() on a closed channel should return ClosedMsg")
	}
}
