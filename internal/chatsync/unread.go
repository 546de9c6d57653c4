package chatsync

import (
	"context"

	"servicemarket/internal/domain/entity"
	"servicemarket/pkg/logger"
)

// UnreadCounter moves the per-recipient counters of a chat. A counter only
// ever grows by one per message for the recipient, and drops to zero when
// that recipient opens the thread.
type UnreadCounter struct {
	store Store
}

func NewUnreadCounter(store Store) *UnreadCounter {
	return &UnreadCounter{store: store}
}

// Increment records one more unread message for recipientID.
func (u *UnreadCounter) Increment(ctx context.Context, chatID, recipientID string) error {
	if err := u.store.IncrementUnread(ctx, chatID, recipientID); err != nil {
		logger.Error("Failed to increment unread for %s", logger.Fields("chat", chatID, "recipient", recipientID, "err", err))
		return err
	}
	return nil
}

// Reset marks the chat read for userID.
func (u *UnreadCounter) Reset(ctx context.Context, chatID, userID string) error {
	if err := u.store.MarkChatRead(ctx, chatID, userID); err != nil {
		logger.Error("Failed to reset unread for %s", logger.Fields("chat", chatID, "user", userID, "err", err))
		return err
	}
	return nil
}

// Total sums the unread counters of uid across chats.
func Total(chats []*entity.Chat, uid string) int {
	total := 0
	for _, c := range chats {
		total += c.UnreadFor(uid)
	}
	return total
}
