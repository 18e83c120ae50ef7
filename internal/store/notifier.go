package store

import (
	"time"

	"github.com/kickpool/kickpool-go/internal/domain/notification"
	"github.com/kickpool/kickpool-go/internal/platform/id"
	"github.com/kickpool/kickpool-go/internal/platform/logging"
)

// Notifier feeds the notification queue. Every entry schedules its
// own removal; dismissal before the timer fires is harmless because
// removal is idempotent.
type Notifier struct {
	store  *Store
	ids    id.Generator
	logger *logging.Logger

	// after is swappable so tests don't wait on real timers.
	after func(time.Duration, func()) *time.Timer
}

func NewNotifier(st *Store, ids id.Generator, logger *logging.Logger) *Notifier {
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Notifier{
		store:  st,
		ids:    ids,
		logger: logger,
		after:  time.AfterFunc,
	}
}

// Notify pushes a message with the type's default timeout and returns
// the generated notification ID.
func (n *Notifier) Notify(typ notification.Type, message string) string {
	return n.NotifyFor(typ, message, notification.DefaultTimeout(typ))
}

func (n *Notifier) NotifyFor(typ notification.Type, message string, timeout time.Duration) string {
	nid, err := n.ids.NewID()
	if err != nil {
		// Notifications are best-effort; an entropy failure should
		// never take an effect down.
		n.logger.Warn("generate notification id failed", "error", err)
		return ""
	}

	n.store.Dispatch(PushNotification{Item: notification.Notification{
		ID:      nid,
		Type:    typ,
		Message: message,
		Timeout: timeout,
	}})

	if timeout > 0 {
		n.after(timeout, func() {
			n.store.Dispatch(RemoveNotification{ID: nid})
		})
	}

	return nid
}

// Dismiss removes a notification ahead of its timer.
func (n *Notifier) Dismiss(nid string) {
	n.store.Dispatch(RemoveNotification{ID: nid})
}

func (n *Notifier) Success(message string) string {
	return n.Notify(notification.TypeSuccess, message)
}

func (n *Notifier) Error(message string) string {
	return n.Notify(notification.TypeError, message)
}

func (n *Notifier) Warning(message string) string {
	return n.Notify(notification.TypeWarning, message)
}

func (n *Notifier) Info(message string) string {
	return n.Notify(notification.TypeInfo, message)
}
