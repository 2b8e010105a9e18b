package ui

import "github.com/charmbracelet/lipgloss"

// State colors.
var (
	ColorConnected    = lipgloss.Color("#2ec27e")
	ColorConnecting   = lipgloss.Color("#e5a50a")
	ColorError        = lipgloss.Color("#e01b24")
	ColorDisconnected = lipgloss.Color("#9a9996")
)

// UI chrome colors.
var (
	ColorBorder = lipgloss.Color("#4b5563")
	ColorDimmed = lipgloss.Color("#6b7280")
	ColorBright = lipgloss.Color("#f9fafb")
	ColorAccent = lipgloss.Color("#3584e4")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	detailsStyle = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 2).
			Foreground(ColorBright).
			Background(ColorAccent)

	disconnectButtonStyle = buttonStyle.
				Background(ColorError)

	disabledButtonStyle = buttonStyle.
				Foreground(ColorDimmed).
				Background(ColorBorder)

	outputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Foreground(ColorDimmed).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Padding(1, 2)
)

// indicatorColor returns the color of the status dot.
func indicatorColor(i Indicator) lipgloss.Color {
	switch i {
	case IndicatorConnected:
		return ColorConnected
	case IndicatorConnecting:
		return ColorConnecting
	case IndicatorError:
		return ColorError
	default:
		return ColorDisconnected
	}
}
