package repository

import (
	"context"

	"servicemarket/internal/domain/entity"
)

// Subscription is a live query. Stop ends it and waits for the delivering
// goroutine to exit.
type Subscription interface {
	Stop()
}

// ChatsSnapshotFunc receives every snapshot of a chat query, or the error
// that ended the subscription.
type ChatsSnapshotFunc func(chats []*entity.Chat, err error)

// MessagesSnapshotFunc receives every snapshot of a message query, or the
// error that ended the subscription.
type MessagesSnapshotFunc func(messages []*entity.Message, err error)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	FindByServiceAndParticipants(ctx context.Context, serviceID string, participants []string) (*entity.Chat, error)
	ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error)
	ListIDs(ctx context.Context) ([]string, error)

	// ListenByUserID streams the chats userID participates in, newest
	// last message first.
	ListenByUserID(ctx context.Context, userID string, fn ChatsSnapshotFunc) (Subscription, error)

	// ListenMessages streams the messages of a chat, oldest first.
	ListenMessages(ctx context.Context, chatID string, fn MessagesSnapshotFunc) (Subscription, error)
	ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error)

	// SendMessage appends a message and updates the chat summary and the
	// recipient's unread counter atomically.
	SendMessage(ctx context.Context, chatID, senderID, recipientID, text string) (*entity.Message, error)

	// MarkChatRead sets read and zeroes userID's unread counter.
	MarkChatRead(ctx context.Context, chatID, userID string) error

	// MarkMessagesRead flags the given messages read in one batch.
	MarkMessagesRead(ctx context.Context, chatID string, messageIDs []string) error

	IncrementUnread(ctx context.Context, chatID, recipientID string) error

	// RebuildSummary recomputes the summary from the message log. It
	// reports whether the document changed.
	RebuildSummary(ctx context.Context, chatID string) (bool, error)
}
