package ui

import (
	"github.com/yllada/vpn-toggle/vpn"
)

// Details texts.
const (
	DetailsConnected    = "VPN connection established. Your IP is now masked."
	DetailsDisconnected = "Click the button below to connect to VPN"
	DetailsConnecting   = "Please wait while establishing VPN connection..."
)

// Button labels.
const (
	ButtonConnect    = "Connect VPN"
	ButtonDisconnect = "Disconnect VPN"
	ButtonConnecting = "Connecting"
	ButtonRetry      = "Retry Connection"
)

// Indicator is the colored dot next to the status.
type Indicator int

const (
	IndicatorDisconnected Indicator = iota
	IndicatorConnecting
	IndicatorConnected
	IndicatorError
)

// Display is what the interface shows for one connection state.
type Display struct {
	Indicator Indicator
	Headline  string
	Details   string
	Button    string
	// Enabled is false while the button must not be pressed.
	Enabled   bool
	Connected bool
	Busy      bool
}

// Describe returns the display for ev.
func Describe(ev vpn.Event) Display {
	switch ev.Status {
	case vpn.StatusConnected:
		return Display{
			Indicator: IndicatorConnected,
			Headline:  "Connected",
			Details:   DetailsConnected,
			Button:    ButtonDisconnect,
			Enabled:   true,
			Connected: true,
		}
	case vpn.StatusConnecting, vpn.StatusAuthenticating:
		return Display{
			Indicator: IndicatorConnecting,
			Headline:  ev.String(),
			Details:   DetailsConnecting,
			Button:    ButtonConnecting,
			Busy:      true,
		}
	case vpn.StatusError:
		return Display{
			Indicator: IndicatorError,
			Headline:  "Error",
			Details:   ev.String(),
			Button:    ButtonRetry,
			Enabled:   true,
		}
	default:
		return Display{
			Indicator: IndicatorDisconnected,
			Headline:  "Disconnected",
			Details:   DetailsDisconnected,
			Button:    ButtonConnect,
			Enabled:   true,
		}
	}
}
