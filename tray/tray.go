// Package tray provides the system tray indicator.
// This file contains the menu and its wiring to the supervisor.
package tray

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fyne.io/systray"
	"github.com/yllada/vpn-toggle/common"
	"github.com/yllada/vpn-toggle/ui"
	"github.com/yllada/vpn-toggle/vpn"
)

// Controller is the part of the supervisor the tray drives.
type Controller interface {
	Connect()
	Disconnect()
	Status() vpn.Event
	Uptime() time.Duration
}

// MenuState is what the tray shows for one connection state.
type MenuState struct {
	Status        vpn.Status
	Tooltip       string
	StatusTitle   string
	ToggleTitle   string
	ToggleEnabled bool
	ShowUptime    bool
}

// StateFor returns the tray state for ev.
func StateFor(ev vpn.Event, name string) MenuState {
	d := ui.Describe(ev)

	state := MenuState{
		Status:        ev.Status,
		ToggleTitle:   d.Button,
		ToggleEnabled: d.Enabled,
		ShowUptime:    d.Connected,
	}

	switch {
	case d.Connected:
		state.Tooltip = fmt.Sprintf("%s - Connected to %s", common.AppName, name)
		state.StatusTitle = fmt.Sprintf("●  Connected: %s", name)
	case d.Busy:
		state.Tooltip = fmt.Sprintf("%s - %s %s", common.AppName, ev.String(), name)
		state.StatusTitle = fmt.Sprintf("⟳ %s %s", ev.String(), name)
	case ev.Status == vpn.StatusError:
		state.Tooltip = fmt.Sprintf("%s - %s", common.AppName, ev.String())
		state.StatusTitle = "✕  " + ev.String()
	default:
		state.Tooltip = fmt.Sprintf("%s - Disconnected", common.AppName)
		state.StatusTitle = "○  Not Connected"
	}

	return state
}

// Indicator manages the system tray icon and menu.
type Indicator struct {
	ctrl   Controller
	name   string
	onQuit func()

	mu         sync.Mutex
	statusItem *systray.MenuItem
	uptimeItem *systray.MenuItem
	toggleItem *systray.MenuItem
	ready      bool
	pending    *vpn.Event
	uptimeStop chan struct{}
}

// New creates a tray indicator for the configuration at configPath.
// onQuit runs when the user picks Quit.
func New(ctrl Controller, configPath string, onQuit func()) *Indicator {
	base := filepath.Base(configPath)
	return &Indicator{
		ctrl:   ctrl,
		name:   strings.TrimSuffix(base, filepath.Ext(base)),
		onQuit: onQuit,
	}
}

// Run starts the tray and blocks until Quit is called.
func (t *Indicator) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Watch applies every event until events is closed.
func (t *Indicator) Watch(events <-chan vpn.Event) {
	for ev := range events {
		t.Apply(ev)
	}
}

// Quit removes the tray icon.
func (t *Indicator) Quit() {
	systray.Quit()
}

// onReady is called when the systray is ready.
func (t *Indicator) onReady() {
	systray.SetTitle(common.AppName)

	t.mu.Lock()
	t.statusItem = systray.AddMenuItem("○  Not Connected", "Current VPN status")
	t.statusItem.Disable()

	t.uptimeItem = systray.AddMenuItem("    ⏱ Uptime: --:--:--", "Connection duration")
	t.uptimeItem.Disable()
	t.uptimeItem.Hide()

	systray.AddSeparator()

	t.toggleItem = systray.AddMenuItem(ui.ButtonConnect, "Connect or disconnect the VPN")
	go func() {
		for range t.toggleItem.ClickedCh {
			t.ctrl.Connect()
		}
	}()

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Disconnect and close "+common.AppName)
	go func() {
		for range quitItem.ClickedCh {
			if t.onQuit != nil {
				t.onQuit()
			}
			systray.Quit()
		}
	}()

	t.ready = true
	ev := t.ctrl.Status()
	if t.pending != nil {
		ev = *t.pending
		t.pending = nil
	}
	t.mu.Unlock()

	t.Apply(ev)
}

// onExit is called when the systray is about to exit.
func (t *Indicator) onExit() {
	t.mu.Lock()
	t.stopUptimeCounterLocked()
	t.mu.Unlock()
	common.LogInfo("Tray indicator cleanup completed")
}

// Apply updates the tray for ev.
func (t *Indicator) Apply(ev vpn.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.ready {
		t.pending = &ev
		return
	}

	state := StateFor(ev, t.name)
	systray.SetIcon(IconFor(state.Status))
	systray.SetTooltip(state.Tooltip)
	t.statusItem.SetTitle(state.StatusTitle)

	t.toggleItem.SetTitle(state.ToggleTitle)
	if state.ToggleEnabled {
		t.toggleItem.Enable()
	} else {
		t.toggleItem.Disable()
	}

	if state.ShowUptime {
		t.uptimeItem.SetTitle("    ⏱ Uptime: " + formatUptime(t.ctrl.Uptime()))
		t.uptimeItem.Show()
		t.startUptimeCounterLocked()
	} else {
		t.uptimeItem.Hide()
		t.stopUptimeCounterLocked()
	}
}

// startUptimeCounterLocked refreshes the uptime item every second.
func (t *Indicator) startUptimeCounterLocked() {
	if t.uptimeStop != nil {
		return
	}

	stop := make(chan struct{})
	t.uptimeStop = stop
	item := t.uptimeItem

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				item.SetTitle("    ⏱ Uptime: " + formatUptime(t.ctrl.Uptime()))
			case <-stop:
				return
			}
		}
	}()
}

func (t *Indicator) stopUptimeCounterLocked() {
	if t.uptimeStop != nil {
		close(t.uptimeStop)
		t.uptimeStop = nil
	}
}

// formatUptime renders d as hh:mm:ss.
func formatUptime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
