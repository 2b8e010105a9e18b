// Package notify shows desktop notifications for connection events.
// Notifications are sent over the session D-Bus to
// org.freedesktop.Notifications.
package notify

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/yllada/vpn-toggle/common"
	"github.com/yllada/vpn-toggle/vpn"
)

const (
	busName    = "org.freedesktop.Notifications"
	objectPath = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyCall = busName + ".Notify"

	// expireMillis is how long a notification stays on screen.
	expireMillis = 5000
)

// NotificationType represents the type of notification
type NotificationType int

const (
	NotificationInfo NotificationType = iota
	NotificationSuccess
	NotificationWarning
	NotificationError
)

// urgency returns the freedesktop urgency level.
func (t NotificationType) urgency() byte {
	switch t {
	case NotificationError:
		return 2
	case NotificationWarning:
		return 1
	default:
		return 0
	}
}

// Notification represents a system notification
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
	Icon    string
}

// icon returns the icon name, chosen by type when unset.
func (n Notification) icon() string {
	if n.Icon != "" {
		return n.Icon
	}
	switch n.Type {
	case NotificationWarning:
		return "dialog-warning"
	case NotificationError:
		return "dialog-error"
	default:
		return "network-vpn"
	}
}

// sendFunc delivers n, replacing the notification with id replaces when
// it is non-zero, and returns the new notification id.
type sendFunc func(ctx context.Context, n Notification, replaces uint32) (uint32, error)

// Notifier sends desktop notifications. Each notification replaces the
// previous one so the desktop shows only the latest connection state.
// It implements common.Notifier.
type Notifier struct {
	send    sendFunc
	timeout time.Duration
	conn    *dbus.Conn

	mu     sync.Mutex
	lastID uint32
}

// New connects to the session bus.
func New() (*Notifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}

	n := &Notifier{
		timeout: common.NotificationTimeout,
		conn:    conn,
	}
	n.send = n.dbusSend
	return n, nil
}

// Close closes the bus connection.
func (n *Notifier) Close() {
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
}

func (n *Notifier) dbusSend(ctx context.Context, notification Notification, replaces uint32) (uint32, error) {
	if n.conn == nil {
		return 0, errors.New("notifier is closed")
	}

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(notification.Type.urgency()),
	}

	obj := n.conn.Object(busName, objectPath)
	call := obj.CallWithContext(ctx, notifyCall, 0,
		common.AppName,
		replaces,
		notification.icon(),
		notification.Title,
		notification.Message,
		[]string{},
		hints,
		int32(expireMillis),
	)
	if call.Err != nil {
		return 0, call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// Show displays n.
func (n *Notifier) Show(notification Notification) error {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	n.mu.Lock()
	defer n.mu.Unlock()

	id, err := n.send(ctx, notification, n.lastID)
	if err != nil {
		return err
	}
	n.lastID = id
	return nil
}

// Notify sends an informational notification.
func (n *Notifier) Notify(title, message string) error {
	return n.Show(Notification{Title: title, Message: message, Type: NotificationInfo})
}

// NotifyWithIcon sends a notification with a custom icon.
func (n *Notifier) NotifyWithIcon(title, message, icon string) error {
	return n.Show(Notification{Title: title, Message: message, Type: NotificationInfo, Icon: icon})
}

// Run shows a notification for every event until events is closed or
// ctx is done.
func (n *Notifier) Run(ctx context.Context, events <-chan vpn.Event, configPath string) {
	name := profileName(configPath)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			notification, show := ForEvent(ev, name)
			if !show {
				continue
			}
			if err := n.Show(notification); err != nil {
				common.LogWarn("Error showing notification: %v", err)
			}
		}
	}
}

// ForEvent builds the notification for ev. It returns false for events
// that are not announced.
func ForEvent(ev vpn.Event, name string) (Notification, bool) {
	switch ev.Status {
	case vpn.StatusConnected:
		return Notification{
			Title:   "VPN Connected",
			Message: "VPN connection established. Your IP is now masked.",
			Type:    NotificationSuccess,
			Icon:    "network-vpn",
		}, true
	case vpn.StatusDisconnected:
		return Notification{
			Title:   "VPN Disconnected",
			Message: "Disconnected from " + name,
			Type:    NotificationInfo,
			Icon:    "network-vpn-disconnected",
		}, true
	case vpn.StatusConnecting:
		return Notification{
			Title:   "Connecting VPN",
			Message: "Connecting to " + name + "...",
			Type:    NotificationInfo,
			Icon:    "network-vpn-acquiring",
		}, true
	case vpn.StatusError:
		return Notification{
			Title:   "Connection Error",
			Message: name + ": " + ev.Message,
			Type:    NotificationError,
			Icon:    "network-vpn-error",
		}, true
	default:
		return Notification{}, false
	}
}

// profileName returns the config file name without its extension.
func profileName(configPath string) string {
	base := filepath.Base(configPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
