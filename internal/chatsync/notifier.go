package chatsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/service"
)

// NotificationTracker remembers, per chat, the last message timestamp a
// notification was raised for. Sharing one tracker between lists of the
// same user keeps resubscribes and parallel sessions from alerting twice.
type NotificationTracker struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewNotificationTracker() *NotificationTracker {
	return &NotificationTracker{seen: make(map[string]time.Time)}
}

// Claim records ts for chatID and reports whether it was new.
func (t *NotificationTracker) Claim(chatID string, ts time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if last, ok := t.seen[chatID]; ok && last.Equal(ts) {
		return false
	}
	t.seen[chatID] = ts
	return true
}

// shouldNotify is true when the last message of c came from the other
// participant and is still unread for uid.
func shouldNotify(c *entity.Chat, uid string) bool {
	return c.LastMessageSender != "" &&
		c.LastMessageSender != uid &&
		c.IsUnreadFor(uid)
}

// Notifiers fans one notification out to several channels.
type Notifiers []service.Notifier

func (ns Notifiers) Notify(ctx context.Context, n entity.Notification) error {
	var errs []error
	for _, notifier := range ns {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifierFunc adapts a function to service.Notifier.
type NotifierFunc func(ctx context.Context, n entity.Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n entity.Notification) error {
	return f(ctx, n)
}
