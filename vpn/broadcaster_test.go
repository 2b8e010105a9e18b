package vpn

import (
	"testing"

	"github.com/yllada/vpn-toggle/common"
)

func TestBroadcaster_PublishReachesAllSubscribers(t *testing.T) {
	b := NewBroadcaster()
	first, cancelFirst := b.Subscribe()
	defer cancelFirst()
	second, cancelSecond := b.Subscribe()
	defer cancelSecond()

	b.Publish(Event{Status: StatusConnecting})
	b.Publish(Event{Status: StatusConnected})

	for _, ch := range []<-chan Event{first, second} {
		for _, want := range []Status{StatusConnecting, StatusConnected} {
			ev := <-ch
			if ev.Status != want {
				t.Errorf("event = %v, want %v", ev.Status, want)
			}
		}
	}
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()

	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}

	b.Publish(Event{Status: StatusConnected})
}

func TestBroadcaster_DropsWhenFull(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	for i := 0; i < common.EventBuffer+10; i++ {
		b.Publish(Event{Status: StatusConnecting})
	}

	if len(ch) != common.EventBuffer {
		t.Errorf("buffered events = %d, want %d", len(ch), common.EventBuffer)
	}
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Close()
	b.Close()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Close")
	}

	late, lateCancel := b.Subscribe()
	defer lateCancel()
	if _, ok := <-late; ok {
		t.Error("subscribing after Close should return a closed channel")
	}

	b.Publish(Event{Status: StatusConnected})
}
