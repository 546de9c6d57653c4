package repository

import (
	"context"

	"servicemarket/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	SetPhotoURL(ctx context.Context, id, photoURL string) error
	AddDeviceToken(ctx context.Context, id, token string) error
	RemoveDeviceToken(ctx context.Context, id, token string) error
	MarkServiceProvider(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
