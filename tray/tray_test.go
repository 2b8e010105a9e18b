package tray

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/yllada/vpn-toggle/common"
	"github.com/yllada/vpn-toggle/vpn"
)

func TestStateFor(t *testing.T) {
	tests := []struct {
		name        string
		event       vpn.Event
		statusTitle string
		toggle      string
		enabled     bool
		uptime      bool
	}{
		{"disconnected", vpn.Event{Status: vpn.StatusDisconnected}, "○  Not Connected", "Connect VPN", true, false},
		{"connecting", vpn.Event{Status: vpn.StatusConnecting}, "⟳ Connecting... office", "Connecting", false, false},
		{"connected", vpn.Event{Status: vpn.StatusConnected}, "●  Connected: office", "Disconnect VPN", true, true},
		{"error", vpn.NewErrorEvent(common.ErrAuthFailed), "✕  Error: Authentication failed", "Retry Connection", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := StateFor(tt.event, "office")
			if state.StatusTitle != tt.statusTitle {
				t.Errorf("StatusTitle = %q, want %q", state.StatusTitle, tt.statusTitle)
			}
			if state.ToggleTitle != tt.toggle {
				t.Errorf("ToggleTitle = %q, want %q", state.ToggleTitle, tt.toggle)
			}
			if state.ToggleEnabled != tt.enabled {
				t.Errorf("ToggleEnabled = %v, want %v", state.ToggleEnabled, tt.enabled)
			}
			if state.ShowUptime != tt.uptime {
				t.Errorf("ShowUptime = %v, want %v", state.ShowUptime, tt.uptime)
			}
		})
	}
}

func TestIconFor(t *testing.T) {
	statuses := []vpn.Status{
		vpn.StatusDisconnected,
		vpn.StatusConnecting,
		vpn.StatusAuthenticating,
		vpn.StatusConnected,
		vpn.StatusError,
	}

	for _, status := range statuses {
		data := IconFor(status)
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("IconFor(%v) is not a PNG: %v", status, err)
		}
		if b := img.Bounds(); b.Dx() != common.TrayIconSize || b.Dy() != common.TrayIconSize {
			t.Errorf("IconFor(%v) size = %dx%d, want %dx%d", status, b.Dx(), b.Dy(), common.TrayIconSize, common.TrayIconSize)
		}
	}

	if !bytes.Equal(IconFor(vpn.Status(42)), IconFor(vpn.StatusDisconnected)) {
		t.Error("unknown states should use the disconnected icon")
	}
	if bytes.Equal(IconFor(vpn.StatusConnected), IconFor(vpn.StatusError)) {
		t.Error("connected and error icons should differ")
	}
}

func TestIconGenerator_Colors(t *testing.T) {
	cfg := IconConfigFor(vpn.StatusConnected)
	img := NewIconGenerator(cfg).Image()

	// Center of the shield, below the accent band and away from the symbol.
	got := img.RGBAAt(cfg.Size/2, cfg.Size-6)
	if got != cfg.FillColor {
		t.Errorf("fill pixel = %v, want %v", got, cfg.FillColor)
	}

	if corner := img.RGBAAt(0, 0); corner.A != 0 {
		t.Errorf("corner pixel = %v, want transparent", corner)
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{59 * time.Second, "00:00:59"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
		{26 * time.Hour, "26:00:00"},
	}

	for _, tt := range tests {
		if got := formatUptime(tt.d); got != tt.want {
			t.Errorf("formatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
