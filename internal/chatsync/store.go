// Package chatsync keeps a user's conversation list and open message thread
// in step with the document store, and derives unread state, search results,
// thread presentation and new-message notifications from the live data.
package chatsync

import (
	"context"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/pkg/errors"
)

// Store is the slice of the chat repository the sync components need.
type Store interface {
	ListenByUserID(ctx context.Context, userID string, fn repository.ChatsSnapshotFunc) (repository.Subscription, error)
	ListenMessages(ctx context.Context, chatID string, fn repository.MessagesSnapshotFunc) (repository.Subscription, error)
	SendMessage(ctx context.Context, chatID, senderID, recipientID, text string) (*entity.Message, error)
	MarkChatRead(ctx context.Context, chatID, userID string) error
	MarkMessagesRead(ctx context.Context, chatID string, messageIDs []string) error
	IncrementUnread(ctx context.Context, chatID, recipientID string) error
}

// ErrSendDisabled is returned when a thread has no chat or no recipient.
var ErrSendDisabled = errors.BadRequest("Sending requires a chat and a recipient", nil)
