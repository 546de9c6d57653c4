package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/service"
	"servicemarket/pkg/logger"
)

// MulticastSender is the part of *messaging.Client the notifier uses.
type MulticastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// DeviceTokenStore resolves and prunes the push tokens of a user.
type DeviceTokenStore interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	RemoveDeviceToken(ctx context.Context, id, token string) error
}

// PushNotifier delivers notifications through Firebase Cloud Messaging to
// every device the user registered.
type PushNotifier struct {
	sender MulticastSender
	users  DeviceTokenStore
}

var _ service.Notifier = (*PushNotifier)(nil)

func NewPushNotifier(sender MulticastSender, users DeviceTokenStore) *PushNotifier {
	return &PushNotifier{sender: sender, users: users}
}

func (p *PushNotifier) Notify(ctx context.Context, n entity.Notification) error {
	user, err := p.users.GetByID(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("failed to load devices of %s: %w", n.UserID, err)
	}
	if len(user.FCMTokens) == 0 {
		return nil
	}

	resp, err := p.sender.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens: user.FCMTokens,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: map[string]string{
			"type":     "new_message",
			"chatId":   n.ChatID,
			"senderId": n.SenderID,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}

	for i, r := range resp.Responses {
		if r.Success || i >= len(user.FCMTokens) {
			continue
		}
		if messaging.IsUnregistered(r.Error) {
			token := user.FCMTokens[i]
			if err := p.users.RemoveDeviceToken(ctx, n.UserID, token); err != nil {
				logger.Warn("Failed to prune stale device token of %s: %v", n.UserID, err)
			}
			continue
		}
		logger.Warn("Push delivery to a device of %s failed: %v", n.UserID, r.Error)
	}

	logger.Debug("Push for chat %s sent to %d/%d devices of %s", n.ChatID, resp.SuccessCount, len(user.FCMTokens), n.UserID)
	return nil
}
