// Package main provides the entry point for the VPN Toggle application.
// VPN Toggle is a one-button OpenVPN client: it supervises a single
// OpenVPN process and shows its state in a terminal UI.
//
// Features:
//   - Connect/disconnect toggle for one OpenVPN configuration
//   - Live status from OpenVPN output (connecting, authenticating, connected)
//   - Automatic retry after network errors
//   - Secure credential storage using the system keyring
//   - Desktop notifications, tray indicator and connection history
//   - Headless mode for scripts and services
//
// Usage:
//
//	vpn-toggle [options]
//
// Environment:
//
//	The application requires OpenVPN to be installed on the system.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/yllada/vpn-toggle/cli"
	"github.com/yllada/vpn-toggle/common"
	"github.com/yllada/vpn-toggle/config"
	"github.com/yllada/vpn-toggle/history"
	"github.com/yllada/vpn-toggle/keyring"
	"github.com/yllada/vpn-toggle/notify"
	"github.com/yllada/vpn-toggle/retry"
	"github.com/yllada/vpn-toggle/tray"
	"github.com/yllada/vpn-toggle/ui"
	"github.com/yllada/vpn-toggle/vpn"
	"golang.org/x/term"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
// Default values are used for local development builds
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

// shutdownTimeout bounds how long exit waits for OpenVPN to stop.
const shutdownTimeout = 5 * time.Second

var (
	// General flags
	showVersion = pflag.Bool("version", false, "Show version and exit")
	verbose     = pflag.BoolP("verbose", "v", false, "Enable verbose logging")
	showHelp    = pflag.BoolP("help", "h", false, "Show help message")

	// Connection flags
	configPath = pflag.StringP("config", "c", "", "OpenVPN configuration file")
	binary     = pflag.String("binary", "", "OpenVPN executable")
	helper     = pflag.String("helper", "", "Run OpenVPN through a helper such as pkexec")
	noRetry    = pflag.Bool("no-retry", false, "Do not reconnect after network errors")

	// Mode flags
	headless         = pflag.Bool("headless", false, "Connect immediately and print status lines")
	showTray         = pflag.Bool("tray", false, "Show a system tray indicator")
	historyLimit     = pflag.Int("history", 0, "Show the last N sessions")
	setCredentials   = pflag.Bool("set-credentials", false, "Store a username and password for the config")
	clearCredentials = pflag.Bool("clear-credentials", false, "Remove stored credentials for the config")
)

func main() {
	pflag.CommandLine.Lookup("history").NoOptDefVal = "10"
	pflag.Usage = cli.PrintHelp
	pflag.Parse()

	os.Exit(run())
}

func run() int {
	// Handle help flag
	if *showHelp {
		cli.PrintHelp()
		return 0
	}

	// Handle version flag
	if *showVersion {
		fmt.Printf("%s v%s\n", common.AppName, appVersion)
		if buildTime != "unknown" {
			fmt.Printf("  Build:  %s\n", buildTime)
			fmt.Printf("  Commit: %s\n", commitSHA)
		}
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	interactive := !*headless && term.IsTerminal(int(os.Stdout.Fd()))
	tuiMode := interactive && *historyLimit == 0 && !*setCredentials && !*clearCredentials

	// Initialize logger with structured logging and file output.
	// The terminal UI owns the screen, so it logs to the file only.
	logLevel := common.ParseLogLevel(cfg.LogLevel)
	if *verbose {
		logLevel = common.LevelDebug
	}
	if err := common.InitLogger(common.LogConfig{
		Level:       logLevel,
		EnableFile:  true,
		Console:     !tuiMode,
		MaxFileSize: 5 * 1024 * 1024, // 5MB
		MaxBackups:  5,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not initialize file logging: %v\n", err)
	}
	defer common.CloseLogger()

	store := keyring.New()
	c := cli.New()

	// Setup graceful shutdown context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals (SIGINT, SIGTERM)
	setupSignalHandler(cancel)

	switch {
	case *setCredentials:
		return exitCode(c.SetCredentials(store, absPath(cfg.ConfigPath)))
	case *clearCredentials:
		return exitCode(c.ClearCredentials(store, absPath(cfg.ConfigPath)))
	case *historyLimit > 0:
		return exitCode(showHistory(ctx, c, *historyLimit))
	}

	if !checkOpenVPNInstalled(cfg.Binary) {
		common.LogWarn("OpenVPN (%s) was not found in PATH", cfg.Binary)
	}

	output := make(chan string, common.EventBuffer)
	sup := vpn.New(cfg.ConfigPath,
		vpn.WithBinary(cfg.Binary),
		vpn.WithPrivilegeHelper(cfg.PrivilegeHelper),
		vpn.WithExtraArgs(cfg.ExtraArgs...),
		vpn.WithCredentials(store),
		vpn.WithOutputHandler(func(stream vpn.Stream, chunk string) {
			if !tuiMode {
				return
			}
			select {
			case output <- chunk:
			default:
			}
		}),
	)
	var journalDone <-chan struct{}
	defer func() { shutdown(sup, journalDone) }()

	common.LogInfo("Starting %s v%s with %s", common.AppName, appVersion, sup.ConfigPath())

	journalDone = startCollaborators(ctx, cancel, cfg, sup)

	notices := make(chan string, 1)
	var scheduler *retry.Scheduler
	if cfg.AutoRetry {
		scheduler = retry.New(sup.Connect,
			retry.WithNotice(cfg.RetryNotice),
			retry.WithDelay(cfg.RetryDelay),
			retry.WithNoticeHandler(func(message string) {
				if !tuiMode {
					c.Notice(message)
					return
				}
				select {
				case notices <- message:
				default:
				}
			}),
		)
		defer scheduler.Stop()
	}

	events, unsubscribe := sup.Subscribe()
	defer unsubscribe()

	if !tuiMode {
		if !*headless {
			common.LogInfo("No terminal attached, running headless")
		}
		var observe func(vpn.Event)
		if scheduler != nil {
			observe = scheduler.Observe
		}
		sup.Connect()
		c.Watch(ctx, events, observe)
		return 0
	}

	m := ui.New(ui.Config{
		Controller: sup,
		Events:     events,
		Output:     output,
		Retry:      scheduler,
		Notices:    notices,
		ConfigPath: sup.ConfigPath(),
		Version:    appVersion,
	})
	if err := ui.Run(ctx, m); err != nil {
		common.LogError("Terminal UI failed: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// startCollaborators starts the optional event consumers. The returned
// channel is closed once the history journal has recorded the last event
// and closed its database; it is nil when history is disabled.
func startCollaborators(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, sup *vpn.Supervisor) <-chan struct{} {
	var journalDone chan struct{}
	if cfg.History {
		if journal, err := openHistory(); err != nil {
			common.LogWarn("History disabled: %v", err)
		} else {
			events, _ := sup.Subscribe()
			journalDone = make(chan struct{})
			go func() {
				defer close(journalDone)
				defer journal.Close()
				journal.Run(context.Background(), events, sup.ConfigPath())
			}()
		}
	}

	if cfg.ShowNotifications {
		if notifier, err := notify.New(); err != nil {
			common.LogWarn("Notifications disabled: %v", err)
		} else {
			events, _ := sup.Subscribe()
			go func() {
				defer notifier.Close()
				notifier.Run(ctx, events, sup.ConfigPath())
			}()
		}
	}

	if cfg.Tray {
		indicator := tray.New(sup, sup.ConfigPath(), cancel)
		events, _ := sup.Subscribe()
		go indicator.Watch(events)
		go indicator.Run()
		go func() {
			<-ctx.Done()
			indicator.Quit()
		}()
	}
	return journalDone
}

// shutdown stops OpenVPN, then waits for the history journal to record
// the final events, both bounded by shutdownTimeout.
func shutdown(sup *vpn.Supervisor, journalDone <-chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	sup.Shutdown(ctx)
	if journalDone == nil {
		return
	}
	select {
	case <-journalDone:
	case <-ctx.Done():
		common.LogWarn("History: journal did not finish before exit")
	}
}

// applyFlags overrides file settings with command-line flags.
func applyFlags(cfg *config.Config) {
	if pflag.CommandLine.Changed("config") {
		cfg.ConfigPath = *configPath
	}
	if pflag.CommandLine.Changed("binary") {
		cfg.Binary = *binary
	}
	if pflag.CommandLine.Changed("helper") {
		cfg.PrivilegeHelper = *helper
	}
	if *noRetry {
		cfg.AutoRetry = false
	}
	if *showTray {
		cfg.Tray = true
	}
}

func openHistory() (*history.Journal, error) {
	path, err := history.DefaultPath()
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}

func showHistory(ctx context.Context, c *cli.CLI, limit int) error {
	journal, err := openHistory()
	if err != nil {
		return err
	}
	defer journal.Close()
	return c.History(ctx, journal, limit)
}

// absPath resolves path the same way the supervisor keys credentials.
func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func exitCode(err error) int {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// setupSignalHandler configures graceful shutdown on SIGINT/SIGTERM.
// When a signal is received, it cancels the context so every mode
// returns and the supervisor is shut down.
func setupSignalHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		sig := <-sigChan
		common.LogInfo("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	}()
}

// checkOpenVPNInstalled verifies that the OpenVPN executable is available.
func checkOpenVPNInstalled(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}
