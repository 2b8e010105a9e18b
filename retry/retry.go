// Package retry implements the automatic reconnect policy applied after
// transient connection errors.
//
// The policy lives with the consumer of supervisor events, not in the
// supervisor: a Scheduler observes events and decides when to call
// Connect again.
package retry

import (
	"errors"
	"sync"
	"time"

	"github.com/yllada/vpn-toggle/common"
	"github.com/yllada/vpn-toggle/vpn"
)

// NoticeMessage is reported when a retry is about to happen.
const NoticeMessage = "Auto-retrying connection..."

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithNotice sets the wait before the retry is announced.
func WithNotice(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.notice = d
		}
	}
}

// WithDelay sets the wait between the announcement and the reconnect.
func WithDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithNoticeHandler sets a function called with NoticeMessage when a
// retry is announced.
func WithNoticeHandler(fn func(message string)) Option {
	return func(s *Scheduler) {
		s.onNotice = fn
	}
}

// Scheduler schedules at most one reconnect per transient error.
// A Connected or Connecting event cancels a pending retry.
type Scheduler struct {
	mu       sync.Mutex
	notice   time.Duration
	delay    time.Duration
	connect  func()
	onNotice func(message string)

	timer   *time.Timer
	token   uint64
	pending bool
	last    vpn.Status
	stopped bool
}

// New creates a scheduler that calls connect to retry.
func New(connect func(), opts ...Option) *Scheduler {
	s := &Scheduler{
		notice:  common.RetryNotice,
		delay:   common.RetryDelay,
		connect: connect,
		last:    vpn.StatusDisconnected,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsTransient reports whether ev is a network error worth retrying.
func IsTransient(ev vpn.Event) bool {
	if ev.Status != vpn.StatusError {
		return false
	}
	return errors.Is(ev.Err, common.ErrHostUnreachable) ||
		errors.Is(ev.Err, common.ErrConnectionRefused)
}

// Observe feeds one supervisor event to the scheduler.
func (s *Scheduler) Observe(ev vpn.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.last = ev.Status

	switch {
	case busy(ev.Status):
		if s.pending {
			common.LogDebug("Retry: cancelled by %s", ev.Status)
			s.cancelLocked()
		}
	case IsTransient(ev):
		if s.pending {
			return
		}
		common.LogInfo("Retry: %s, reconnecting in %v", ev.Message, s.notice+s.delay)
		s.pending = true
		s.token++
		token := s.token
		s.timer = time.AfterFunc(s.notice, func() {
			s.announce(token)
		})
	}
}

// Pending reports whether a retry is scheduled.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Cancel drops a scheduled retry.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// Stop cancels any scheduled retry and ignores later events.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.stopped = true
}

func (s *Scheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
	s.token++
}

// announce runs after the notice delay.
func (s *Scheduler) announce(token uint64) {
	s.mu.Lock()
	if !s.validLocked(token) {
		s.mu.Unlock()
		return
	}
	onNotice := s.onNotice
	s.timer = time.AfterFunc(s.delay, func() {
		s.fire(token)
	})
	s.mu.Unlock()

	common.LogInfo("Retry: %s", NoticeMessage)
	if onNotice != nil {
		onNotice(NoticeMessage)
	}
}

// fire reconnects after the retry delay.
func (s *Scheduler) fire(token uint64) {
	s.mu.Lock()
	if !s.validLocked(token) {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.timer = nil
	connect := s.connect
	s.mu.Unlock()

	connect()
}

// validLocked reports whether the retry identified by token should still run.
func (s *Scheduler) validLocked(token uint64) bool {
	if s.stopped || token != s.token {
		return false
	}
	if busy(s.last) {
		s.pending = false
		s.timer = nil
		return false
	}
	return true
}

func busy(status vpn.Status) bool {
	return status == vpn.StatusConnected || status == vpn.StatusConnecting
}
