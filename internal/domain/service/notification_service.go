package service

import (
	"context"

	"servicemarket/internal/domain/entity"
)

// Notifier delivers new-message alerts to a user.
type Notifier interface {
	Notify(ctx context.Context, n entity.Notification) error
}
