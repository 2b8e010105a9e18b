// Package ui provides the terminal user interface for VPN Toggle.
//
// The interface is a single screen built on Bubble Tea:
//
//   - a status line with a colored indicator
//   - a details line explaining the current state
//   - the toggle button ("Connect VPN", "Disconnect VPN", "Retry Connection")
//   - the last lines of OpenVPN output
//   - key help
//
// # Keys
//
// Space or Enter presses the button unless a connection attempt is in
// progress. Escape disconnects while connected. "r" refreshes the status
// and "q" or Ctrl+C quits.
//
// # Events
//
// The model never blocks. Supervisor events, process output and retry
// notices arrive on channels that are read by tea.Cmd functions, one
// message at a time, the same way a network read loop feeds a model.
//
// # File Organization
//
//   - display.go: mapping from events to what is shown
//   - keys.go: key bindings
//   - styles.go: Lip Gloss colors and styles
//   - model.go: the Bubble Tea model
package ui
