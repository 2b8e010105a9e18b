// Package cli provides command-line interface functionality for VPN Toggle.
// It runs the supervisor without the terminal UI, lists the connection
// history and manages stored credentials.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/yllada/vpn-toggle/common"
	"github.com/yllada/vpn-toggle/history"
	"github.com/yllada/vpn-toggle/vpn"
	"golang.org/x/term"
)

// SessionLister returns recent sessions.
type SessionLister interface {
	Sessions(ctx context.Context, limit int) ([]history.Session, error)
}

// CLI represents the command-line interface.
type CLI struct {
	out io.Writer
	in  *bufio.Reader

	// readPassword reads a password without echo.
	readPassword func() ([]byte, error)
}

// New creates a CLI on the process's standard streams.
func New() *CLI {
	return &CLI{
		out:          os.Stdout,
		in:           bufio.NewReader(os.Stdin),
		readPassword: readTerminalPassword,
	}
}

// Watch prints every event as a line until events is closed or ctx is
// done. observe, when set, sees every event first.
func (c *CLI) Watch(ctx context.Context, events <-chan vpn.Event, observe func(vpn.Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if observe != nil {
				observe(ev)
			}
			c.PrintEvent(ev)
		}
	}
}

// PrintEvent prints ev with its time.
func (c *CLI) PrintEvent(ev vpn.Event) {
	at := ev.Time
	if at.IsZero() {
		at = time.Now()
	}

	mark := " "
	switch ev.Status {
	case vpn.StatusConnected:
		mark = "✓"
	case vpn.StatusError:
		mark = "✗"
	}
	fmt.Fprintf(c.out, "%s %s %s\n", at.Format("15:04:05"), mark, ev.String())
}

// Notice prints a retry announcement.
func (c *CLI) Notice(message string) {
	fmt.Fprintf(c.out, "%s   %s\n", time.Now().Format("15:04:05"), message)
}

// History lists the most recent sessions.
func (c *CLI) History(ctx context.Context, journal SessionLister, limit int) error {
	sessions, err := journal.Sessions(ctx, limit)
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Fprintln(c.out, "No connection history.")
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tCONNECTED FOR\tLAST STATUS\tSESSION")
	fmt.Fprintln(w, "-------\t-------------\t-----------\t-------")

	for _, s := range sessions {
		connected := "-"
		if !s.Connected.IsZero() {
			connected = formatDuration(s.Duration())
		}

		status := s.Status
		if s.Message != "" {
			status += ": " + s.Message
		}

		// Truncate ID for display
		shortID := s.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			s.Started.Format("2006-01-02 15:04:05"), connected, status, shortID)
	}

	return w.Flush()
}

// SetCredentials prompts for a username and password and stores them for
// configPath.
func (c *CLI) SetCredentials(store common.CredentialStore, configPath string) error {
	fmt.Fprint(c.out, "Username: ")
	username, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading username: %w", err)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username cannot be empty")
	}

	fmt.Fprint(c.out, "Password: ")
	password, err := c.readPassword()
	fmt.Fprintln(c.out)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	creds := common.Credentials{Username: username, Password: string(password)}
	if err := store.Store(configPath, creds); err != nil {
		return fmt.Errorf("%w: %w", common.ErrCredentialStorage, err)
	}

	fmt.Fprintf(c.out, "✓ Credentials saved for %s\n", configPath)
	return nil
}

// ClearCredentials removes stored credentials for configPath.
func (c *CLI) ClearCredentials(store common.CredentialStore, configPath string) error {
	if err := store.Delete(configPath); err != nil {
		return fmt.Errorf("%w: %w", common.ErrCredentialStorage, err)
	}
	fmt.Fprintf(c.out, "✓ Credentials removed for %s\n", configPath)
	return nil
}

// readTerminalPassword reads from the terminal with echo disabled.
func readTerminalPassword() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("no terminal available for interactive password prompt")
	}
	return term.ReadPassword(fd)
}

// formatDuration formats a duration in a human-readable format.
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// PrintHelp prints usage help.
func PrintHelp() {
	fmt.Println(`VPN Toggle - one-button OpenVPN client

Usage:
  vpn-toggle [OPTIONS]

Options:
  -c, --config PATH        OpenVPN configuration file
      --binary PATH        OpenVPN executable (default "openvpn")
      --helper NAME        Run OpenVPN through a helper such as pkexec
      --headless           Connect immediately and print status lines
      --tray               Show a system tray indicator
      --no-retry           Do not reconnect after network errors
      --history [N]        Show the last N sessions (default 10)
      --set-credentials    Store a username and password for the config
      --clear-credentials  Remove stored credentials for the config
  -v, --verbose            Enable verbose logging
      --version            Show version and exit
  -h, --help               Show this help message

Keys (terminal UI):
  space/enter  connect, disconnect or retry
  esc          disconnect
  r            refresh status
  q            quit (disconnects first)

Files:
  ~/.config/vpn-toggle/config.yaml   settings
  ~/.config/vpn-toggle/logs/         log files
  ~/.local/share/vpn-toggle/         connection history`)
}
