// Package vpn provides VPN connection management functionality.
// This file contains the Classifier that turns OpenVPN output into events.
package vpn

import (
	"strings"

	"github.com/yllada/vpn-toggle/common"
)

// Markers searched for in OpenVPN output.
const (
	markerInitComplete     = "Initialization Sequence Completed"
	markerConnectedSuccess = "CONNECTED,SUCCESS"
	markerAuthControl      = "AUTH: Received control message"
	markerAuthFailed       = "AUTH_FAILED"
	markerResolveFailed    = "RESOLVE: Cannot resolve host"
	markerRefused          = "Connection refused"
)

// Stream identifies one of the two output pipes of the process.
type Stream int

const (
	StreamStdout Stream = iota
	StreamStderr
)

// String returns the pipe name.
func (s Stream) String() string {
	if s == StreamStderr {
		return "stderr"
	}
	return "stdout"
}

// ClassifyStdout inspects a stdout chunk. It returns false when the chunk
// does not change the connection state.
func ClassifyStdout(chunk string) (Status, bool) {
	switch {
	case strings.Contains(chunk, markerInitComplete),
		strings.Contains(chunk, markerConnectedSuccess):
		return StatusConnected, true
	case strings.Contains(chunk, markerAuthControl):
		return StatusAuthenticating, true
	default:
		return StatusDisconnected, false
	}
}

// ClassifyStderr maps a stderr chunk to an error. Every stderr chunk is an
// error; unrecognized ones carry their first characters.
func ClassifyStderr(chunk string) error {
	switch {
	case strings.Contains(chunk, markerAuthFailed):
		return common.ErrAuthFailed
	case strings.Contains(chunk, markerResolveFailed):
		return common.ErrHostUnreachable
	case strings.Contains(chunk, markerRefused):
		return common.ErrConnectionRefused
	default:
		return &OutputError{Snippet: common.Truncate(chunk, common.MaxErrorSnippet)}
	}
}

// Classifier consumes output chunks and emits status events.
//
// Matching is done per chunk exactly as the pipe delivered it. A marker
// split across two reads is not detected.
type Classifier struct {
	emit func(Event)
}

// NewClassifier creates a classifier that reports events to emit.
func NewClassifier(emit func(Event)) *Classifier {
	return &Classifier{emit: emit}
}

// Feed classifies one chunk read from stream.
func (c *Classifier) Feed(stream Stream, chunk string) {
	if chunk == "" {
		return
	}

	switch stream {
	case StreamStdout:
		if status, ok := ClassifyStdout(chunk); ok {
			c.emit(Event{Status: status})
		}
	case StreamStderr:
		c.emit(NewErrorEvent(ClassifyStderr(chunk)))
	}
}
