package chatsync

import (
	"context"
	"sync"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/internal/domain/service"
	"servicemarket/pkg/logger"
)

// ConversationList mirrors the chats a user participates in, ordered by the
// newest message first, and raises a notification whenever a chat gains a
// new unread message from the other participant.
type ConversationList struct {
	store    Store
	notifier service.Notifier
	tracker  *NotificationTracker
	userID   string
	onChange func([]*entity.Chat)

	mu    sync.RWMutex
	chats []*entity.Chat
	sub   repository.Subscription
	bgCtx context.Context

	pending sync.WaitGroup
}

type ListOption func(*ConversationList)

// WithTracker shares a notification tracker between lists.
func WithTracker(t *NotificationTracker) ListOption {
	return func(l *ConversationList) {
		l.tracker = t
	}
}

// WithChatsListener registers fn to receive every accepted snapshot.
func WithChatsListener(fn func([]*entity.Chat)) ListOption {
	return func(l *ConversationList) {
		l.onChange = fn
	}
}

func NewConversationList(store Store, notifier service.Notifier, userID string, opts ...ListOption) *ConversationList {
	l := &ConversationList{
		store:    store,
		notifier: notifier,
		userID:   userID,
		bgCtx:    context.Background(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.tracker == nil {
		l.tracker = NewNotificationTracker()
	}
	return l
}

func (l *ConversationList) UserID() string {
	return l.userID
}

// Start opens the live subscription. Without a user there is nothing to
// follow and the list stays empty. Starting a running list is a no-op.
func (l *ConversationList) Start(ctx context.Context) error {
	if l.userID == "" {
		return nil
	}

	l.mu.Lock()
	if l.sub != nil {
		l.mu.Unlock()
		return nil
	}
	l.bgCtx = context.WithoutCancel(ctx)
	l.mu.Unlock()

	sub, err := l.store.ListenByUserID(ctx, l.userID, l.handleSnapshot)
	if err != nil {
		logger.Error("Failed to subscribe to chats of %s: %v", l.userID, err)
		return err
	}

	l.mu.Lock()
	l.sub = sub
	l.mu.Unlock()
	return nil
}

// Stop ends the subscription. The last known chats stay readable and a
// later Start keeps the notification memory.
func (l *ConversationList) Stop() {
	l.mu.Lock()
	sub := l.sub
	l.sub = nil
	l.mu.Unlock()

	if sub != nil {
		sub.Stop()
	}
}

func (l *ConversationList) handleSnapshot(chats []*entity.Chat, err error) {
	if err != nil {
		logger.Error("Chat subscription of %s failed, keeping last state: %v", l.userID, err)
		return
	}

	accepted := make([]*entity.Chat, 0, len(chats))
	for _, c := range chats {
		if c.HasParticipant(l.userID) {
			accepted = append(accepted, c)
		}
	}

	var alerts []entity.Notification
	for _, c := range accepted {
		if shouldNotify(c, l.userID) && l.tracker.Claim(c.ID, c.LastMessageTimestamp) {
			alerts = append(alerts, entity.NewMessageNotification(c, l.userID))
		}
	}

	l.mu.Lock()
	l.chats = accepted
	ctx := l.bgCtx
	l.mu.Unlock()

	if l.onChange != nil {
		l.onChange(l.Chats())
	}

	if l.notifier == nil {
		return
	}
	for _, n := range alerts {
		if err := l.notifier.Notify(ctx, n); err != nil {
			logger.Warn("Failed to deliver notification for chat %s to %s: %v", n.ChatID, n.UserID, err)
		}
	}
}

// Chats returns the current list in store order.
func (l *ConversationList) Chats() []*entity.Chat {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*entity.Chat, len(l.chats))
	copy(out, l.chats)
	return out
}

// Search filters the current list by the other participant's name and the
// service title.
func (l *ConversationList) Search(query string) []*entity.Chat {
	return FilterChats(l.Chats(), l.userID, query)
}

func (l *ConversationList) UnreadTotal() int {
	return Total(l.Chats(), l.userID)
}

// MarkRead resets the user's unread state on chatID in the background. The
// write outlives ctx's cancellation and failures are only logged.
func (l *ConversationList) MarkRead(ctx context.Context, chatID string) {
	if chatID == "" || l.userID == "" {
		return
	}

	bg := context.WithoutCancel(ctx)
	l.pending.Add(1)
	go func() {
		defer l.pending.Done()
		if err := l.store.MarkChatRead(bg, chatID, l.userID); err != nil {
			logger.Error("Failed to mark chat %s read for %s: %v", chatID, l.userID, err)
		}
	}()
}

// Wait blocks until background writes started by MarkRead have finished.
func (l *ConversationList) Wait() {
	l.pending.Wait()
}
