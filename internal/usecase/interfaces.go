package usecase

import (
	"context"
	"errors"

	"servicemarket/internal/domain/entity"
)

// AuthProvider manages accounts and sessions with the identity platform.
type AuthProvider interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	DeleteUser(ctx context.Context, uid string) error
	VerifyToken(ctx context.Context, token string) (string, error)
	SignIn(ctx context.Context, email, password string) (*entity.AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string) (*entity.AuthTokens, error)
	UpdatePassword(ctx context.Context, uid, newPassword string) error
	UpdateDisplayName(ctx context.Context, uid, displayName string) error
	UpdatePhotoURL(ctx context.Context, uid, photoURL string) error
}

// providerError is the shape of identity platform failures that carry a
// message fit for end users.
type providerError interface {
	error
	ErrorCode() string
	FriendlyMessage() string
	IsCredentialError() bool
}

func asProviderError(err error) (providerError, bool) {
	var pe providerError
	ok := errors.As(err, &pe)
	return pe, ok
}
