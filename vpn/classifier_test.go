package vpn

import (
	"errors"
	"strings"
	"testing"

	"github.com/yllada/vpn-toggle/common"
)

func TestClassifyStdout(t *testing.T) {
	tests := []struct {
		name   string
		chunk  string
		want   Status
		wantOK bool
	}{
		{"init complete", "Mon Oct 19 10:00:00 2026 Initialization Sequence Completed\n", StatusConnected, true},
		{"management state", ">STATE:1760868000,CONNECTED,SUCCESS,10.8.0.2,1.2.3.4", StatusConnected, true},
		{"auth control", "AUTH: Received control message: AUTH_PENDING", StatusAuthenticating, true},
		{"connected wins over auth", "AUTH: Received control message\nInitialization Sequence Completed", StatusConnected, true},
		{"case sensitive", "initialization sequence completed", StatusDisconnected, false},
		{"plain log", "TCP/UDP: Preserving recently used remote address", StatusDisconnected, false},
		{"empty", "", StatusDisconnected, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClassifyStdout(tt.chunk)
			if ok != tt.wantOK {
				t.Fatalf("ClassifyStdout(%q) ok = %v, want %v", tt.chunk, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ClassifyStdout(%q) = %v, want %v", tt.chunk, got, tt.want)
			}
		})
	}
}

func TestClassifyStderr(t *testing.T) {
	tests := []struct {
		name    string
		chunk   string
		want    error
		message string
	}{
		{"auth failed", "AUTH: Received control message: AUTH_FAILED", common.ErrAuthFailed, "Authentication failed"},
		{"auth failed wins", "Connection refused ... AUTH_FAILED ... RESOLVE: Cannot resolve host", common.ErrAuthFailed, "Authentication failed"},
		{"resolve", "RESOLVE: Cannot resolve host: example.com", common.ErrHostUnreachable, "Cannot reach server"},
		{"resolve before refused", "RESOLVE: Cannot resolve host; Connection refused", common.ErrHostUnreachable, "Cannot reach server"},
		{"refused", "TCP: connect to [AF_INET]1.2.3.4:1194 failed: Connection refused", common.ErrConnectionRefused, "Connection refused"},
		{"unclassified", "Options error: --ca fails with 'ca.crt'", common.ErrUnclassified, "Options error: --ca fails with 'ca.crt'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyStderr(tt.chunk)
			if !errors.Is(err, tt.want) {
				t.Errorf("ClassifyStderr(%q) = %v, want %v", tt.chunk, err, tt.want)
			}
			if got := ErrorMessage(err); got != tt.message {
				t.Errorf("message = %q, want %q", got, tt.message)
			}
		})
	}
}

func TestClassifyStderr_AuthFailedAnywhere(t *testing.T) {
	surroundings := []struct{ before, after string }{
		{"", ""},
		{"prefix ", ""},
		{"", " suffix"},
		{strings.Repeat("x", 500), strings.Repeat("y", 500)},
		{"Connection refused\n", "\nRESOLVE: Cannot resolve host"},
	}

	for _, s := range surroundings {
		ev := NewErrorEvent(ClassifyStderr(s.before + "AUTH_FAILED" + s.after))
		if ev.Message != "Authentication failed" {
			t.Errorf("message = %q, want %q", ev.Message, "Authentication failed")
		}
	}
}

func TestClassifyStderr_SnippetIsFirst100Characters(t *testing.T) {
	chunks := []string{
		"short warning",
		strings.Repeat("0123456789", 10),
		strings.Repeat("abcdefghij", 25),
		"WARNING: file 'client.key' is group or others accessible\n" + strings.Repeat("-", 80),
	}

	for _, chunk := range chunks {
		got := ErrorMessage(ClassifyStderr(chunk))
		want := chunk
		if len(want) > 100 {
			want = want[:100]
		}
		if got != want {
			t.Errorf("snippet = %q, want %q", got, want)
		}
	}
}

func TestClassifier_Feed(t *testing.T) {
	var events []Event
	c := NewClassifier(func(ev Event) {
		events = append(events, ev)
	})

	c.Feed(StreamStdout, "OpenVPN 2.6.12 x86_64-pc-linux-gnu")
	c.Feed(StreamStdout, "AUTH: Received control message")
	c.Feed(StreamStdout, "Initialization Sequence Completed")
	c.Feed(StreamStderr, "")
	c.Feed(StreamStderr, "Connection refused")

	want := []Status{StatusAuthenticating, StatusConnected, StatusError}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %v", len(events), len(want), events)
	}
	for i, status := range want {
		if events[i].Status != status {
			t.Errorf("events[%d] = %v, want %v", i, events[i].Status, status)
		}
	}
	if events[2].Message != "Connection refused" {
		t.Errorf("error message = %q, want %q", events[2].Message, "Connection refused")
	}
}

func TestClassifier_SplitMarkerIsNotDetected(t *testing.T) {
	var events []Event
	c := NewClassifier(func(ev Event) {
		events = append(events, ev)
	})

	c.Feed(StreamStdout, "Initialization Seq")
	c.Feed(StreamStdout, "uence Completed")

	if len(events) != 0 {
		t.Errorf("markers split across chunks should not match, got %v", events)
	}
}

func TestStream_String(t *testing.T) {
	if StreamStdout.String() != "stdout" || StreamStderr.String() != "stderr" {
		t.Errorf("Stream names = %q/%q, want stdout/stderr", StreamStdout, StreamStderr)
	}
}
