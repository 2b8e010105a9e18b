// Package vpn provides VPN connection management functionality.
// This file contains the Supervisor type which owns the OpenVPN process.
package vpn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/yllada/vpn-toggle/common"
)

// OutputHandler receives raw output chunks of the current process.
type OutputHandler func(stream Stream, chunk string)

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithBinary sets the OpenVPN executable. Defaults to "openvpn" looked up
// in PATH.
func WithBinary(binary string) Option {
	return func(s *Supervisor) {
		if binary != "" {
			s.binary = binary
		}
	}
}

// WithPrivilegeHelper runs OpenVPN through a helper such as pkexec.
func WithPrivilegeHelper(helper string) Option {
	return func(s *Supervisor) {
		s.helper = helper
	}
}

// WithExtraArgs appends arguments after --config.
func WithExtraArgs(args ...string) Option {
	return func(s *Supervisor) {
		s.extraArgs = append(s.extraArgs, args...)
	}
}

// WithCredentials enables --auth-user-pass when store holds credentials
// for the configuration.
func WithCredentials(store common.CredentialStore) Option {
	return func(s *Supervisor) {
		s.creds = store
	}
}

// WithOutputHandler sets a handler for process output.
func WithOutputHandler(handler OutputHandler) Option {
	return func(s *Supervisor) {
		s.outputHandler = handler
	}
}

// Supervisor owns at most one OpenVPN process.
//
// Every process gets a generation number. Output and exit callbacks from
// a generation that is no longer owned are dropped, so a process that was
// told to stop can never publish events over its replacement.
//
// Supervisor is safe for concurrent use.
type Supervisor struct {
	mu sync.Mutex

	configPath    string
	binary        string
	helper        string
	extraArgs     []string
	creds         common.CredentialStore
	outputHandler OutputHandler

	events     *Broadcaster
	current    *session
	live       map[uint64]*session
	generation uint64
	state      Event
	closed     bool
}

// session is one spawned OpenVPN process.
type session struct {
	id         string
	generation uint64
	cmd        *exec.Cmd
	started    time.Time
	authFile   string
	done       chan struct{}
	cleanOnce  sync.Once
}

// cleanup removes the credentials file of the session.
func (sess *session) cleanup() {
	sess.cleanOnce.Do(func() {
		if sess.authFile != "" {
			os.Remove(sess.authFile)
			common.LogDebug("Credentials file deleted")
		}
	})
}

// New creates a supervisor for the OpenVPN configuration at configPath.
func New(configPath string, opts ...Option) *Supervisor {
	if abs, err := filepath.Abs(configPath); err == nil {
		configPath = abs
	}

	s := &Supervisor{
		configPath: configPath,
		binary:     common.DefaultBinary,
		events:     NewBroadcaster(),
		live:       make(map[uint64]*session),
		state:      Event{Status: StatusDisconnected, Time: time.Now()},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ConfigPath returns the absolute path of the OpenVPN configuration.
func (s *Supervisor) ConfigPath() string {
	return s.configPath
}

// Subscribe registers for status events. See Broadcaster.Subscribe.
func (s *Supervisor) Subscribe() (<-chan Event, func()) {
	return s.events.Subscribe()
}

// Connect starts OpenVPN. When a process is already owned it is stopped
// instead, so Connect doubles as the connect/disconnect toggle.
//
// Connect never waits for the process; all outcomes arrive as events.
func (s *Supervisor) Connect() {
	// The keyring may block on D-Bus, so it is read before taking the lock.
	var creds *common.Credentials
	lookedUp := false
	if !s.Running() {
		creds, lookedUp = s.lookupCredentials(), true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		common.LogWarn("Connect ignored: %v", common.ErrShutdown)
		return
	}

	if s.current != nil {
		common.LogInfo("VPN: Disconnecting (toggle)")
		s.stopLocked()
		return
	}

	if !common.FileExists(s.configPath) {
		common.LogError("VPN: OpenVPN config file not found: %s", s.configPath)
		s.emitLocked(NewErrorEvent(common.ErrConfigMissing))
		return
	}

	s.generation++
	sess := &session{
		id:         uuid.NewString(),
		generation: s.generation,
		done:       make(chan struct{}),
	}

	common.LogInfo("VPN: Starting connection with %s", s.configPath)
	s.emitLocked(Event{Status: StatusConnecting, SessionID: sess.id})

	if !lookedUp {
		creds = s.lookupCredentials()
	}
	if err := s.spawnLocked(sess, creds); err != nil {
		common.LogError("VPN: Failed to start OpenVPN: %v", err)
		sess.cleanup()
		ev := NewErrorEvent(spawnError(err))
		ev.SessionID = sess.id
		s.emitLocked(ev)
		return
	}

	s.current = sess
	s.live[sess.generation] = sess
	common.LogInfo("VPN: OpenVPN process started with PID %d (session %s)", sess.cmd.Process.Pid, sess.id)
}

// Disconnect stops the owned process. It is a no-op when idle.
func (s *Supervisor) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		common.LogDebug("VPN: Disconnect ignored, no process running")
		return
	}
	s.stopLocked()
}

// Status returns the most recent event.
func (s *Supervisor) Status() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Running reports whether a process is owned.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Uptime returns how long the owned process has been running.
func (s *Supervisor) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.state.Status != StatusConnected {
		return 0
	}
	return time.Since(s.current.started)
}

// SessionID returns the ID of the owned process, or "".
func (s *Supervisor) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.id
}

// Shutdown stops any owned process and closes the event stream. It waits
// for stopped processes to exit until ctx is done; it never kills them.
// Connect is ignored afterwards.
func (s *Supervisor) Shutdown(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.current != nil {
		common.LogInfo("VPN: Stopping OpenVPN before exit")
		s.stopLocked()
	}
	pending := make([]*session, 0, len(s.live))
	for _, sess := range s.live {
		pending = append(pending, sess)
	}
	s.mu.Unlock()

	s.events.Close()

	for _, sess := range pending {
		select {
		case <-sess.done:
		case <-ctx.Done():
			common.LogWarn("VPN: Session %s still running at exit", sess.id)
			sess.cleanup()
		}
	}
}

// stopLocked sends SIGTERM to the owned process and releases it.
func (s *Supervisor) stopLocked() {
	sess := s.current
	s.current = nil

	err := sess.cmd.Process.Signal(syscall.SIGTERM)
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		common.LogError("VPN: Could not signal OpenVPN (PID %d): %v", sess.cmd.Process.Pid, err)
		ev := NewErrorEvent(err)
		ev.Message = "Failed to stop OpenVPN: " + err.Error()
		ev.SessionID = sess.id
		s.emitLocked(ev)
		return
	}

	s.emitLocked(Event{Status: StatusDisconnected, SessionID: sess.id})
}

// lookupCredentials returns the stored credentials for the config, or
// nil when there are none.
func (s *Supervisor) lookupCredentials() *common.Credentials {
	if s.creds == nil {
		return nil
	}
	creds, err := s.creds.Get(s.configPath)
	if err != nil {
		if !errors.Is(err, common.ErrCredentialsNotFound) {
			common.LogWarn("VPN: Could not read stored credentials: %v", err)
		}
		return nil
	}
	return &creds
}

// spawnLocked starts the process for sess.
func (s *Supervisor) spawnLocked(sess *session, creds *common.Credentials) error {
	args := []string{common.ConfigFlag, s.configPath}

	if creds != nil {
		authFile, err := createCredentialsFile(*creds)
		if err != nil {
			return &SpawnError{Err: common.WrapError(err, "failed to create credentials file")}
		}
		sess.authFile = authFile
		args = append(args, common.AuthUserPassFlag, authFile)
	}

	args = append(args, s.extraArgs...)

	name := s.binary
	if s.helper != "" {
		if _, err := exec.LookPath(s.helper); err != nil {
			common.LogError("VPN: Privilege helper %s not found: %v", s.helper, err)
			return &SpawnError{Err: fmt.Errorf("%w: %s", common.ErrHelperMissing, s.helper)}
		}
		args = append([]string{s.binary}, args...)
		name = s.helper
	}

	cmd := exec.Command(name, args...)
	common.LogDebug("VPN: Command: %s %s", name, strings.Join(args, " "))

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	sess.cmd = cmd
	sess.started = time.Now()

	go s.supervise(sess, stdout, stderr)
	return nil
}

// supervise reads both pipes until EOF, then reaps the process.
// Wait must not run before the pipes are drained.
func (s *Supervisor) supervise(sess *session, stdout, stderr io.Reader) {
	defer close(sess.done)

	classifier := NewClassifier(func(ev Event) {
		s.deliver(sess, ev)
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.pump(sess, StreamStdout, stdout, classifier)
	}()
	go func() {
		defer wg.Done()
		s.pump(sess, StreamStderr, stderr, classifier)
	}()
	wg.Wait()

	s.exited(sess, exitCode(sess.cmd.Wait()))
}

// pump forwards raw chunks from r to the classifier.
func (s *Supervisor) pump(sess *session, stream Stream, r io.Reader, classifier *Classifier) {
	buf := make([]byte, common.OutputChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			common.LogDebug("OpenVPN %s: %s", stream, strings.TrimRight(chunk, "\r\n"))
			s.output(sess, stream, chunk)
			classifier.Feed(stream, chunk)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, fs.ErrClosed) {
				common.LogDebug("VPN: %s read ended: %v", stream, err)
			}
			return
		}
	}
}

// isCurrentLocked reports whether sess is the owned process.
func (s *Supervisor) isCurrentLocked(sess *session) bool {
	return s.current != nil && s.current.generation == sess.generation
}

// output passes a chunk to the output handler if sess is still owned.
func (s *Supervisor) output(sess *session, stream Stream, chunk string) {
	s.mu.Lock()
	handler := s.outputHandler
	current := s.isCurrentLocked(sess)
	s.mu.Unlock()

	if handler != nil && current {
		handler(stream, chunk)
	}
}

// deliver publishes a classifier event if sess is still owned.
func (s *Supervisor) deliver(sess *session, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrentLocked(sess) {
		common.LogDebug("VPN: Dropped %q from superseded session %s", ev.String(), sess.id)
		return
	}
	ev.SessionID = sess.id
	s.emitLocked(ev)
}

// exited handles the end of a process.
func (s *Supervisor) exited(sess *session, code int) {
	sess.cleanup()

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.live, sess.generation)
	common.LogInfo("VPN: Process exited with code %d (session %s)", code, sess.id)

	if !s.isCurrentLocked(sess) {
		return
	}
	s.current = nil

	if code == 0 {
		s.emitLocked(Event{Status: StatusDisconnected, SessionID: sess.id})
		return
	}
	ev := NewErrorEvent(&ExitError{Code: code})
	ev.SessionID = sess.id
	s.emitLocked(ev)
}

// emitLocked records ev as the current state and publishes it.
func (s *Supervisor) emitLocked(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	s.state = ev
	common.LogInfo("VPN: Status %s", ev.String())
	s.events.Publish(ev)
}

// spawnError classifies a start failure.
func spawnError(err error) error {
	var spawnErr *SpawnError
	switch {
	case errors.As(err, &spawnErr):
		return err
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", common.ErrNotInstalled, err)
	default:
		return &SpawnError{Err: err}
	}
}

// exitCode extracts the exit status from a Wait error.
// A process killed by a signal reports -1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
