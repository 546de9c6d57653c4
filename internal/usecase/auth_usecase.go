package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
)

const emailInUse = "This email is already in use."

type AuthUseCase struct {
	userRepo repository.UserRepository
	auth     AuthProvider
}

func NewAuthUseCase(userRepo repository.UserRepository, auth AuthProvider) *AuthUseCase {
	return &AuthUseCase{
		userRepo: userRepo,
		auth:     auth,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	PhoneNumber string
}

type AuthResult struct {
	User   *entity.User       `json:"user"`
	Tokens *entity.AuthTokens `json:"tokens"`
}

func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if existing, err := uc.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, errors.Conflict(emailInUse)
	}

	uid, err := uc.auth.CreateUser(ctx, email, input.Password, input.DisplayName)
	if err != nil {
		return nil, providerFailure(err, "Failed to create account")
	}

	now := time.Now()
	user := &entity.User{
		ID:          uid,
		Email:       email,
		DisplayName: input.DisplayName,
		PhoneNumber: input.PhoneNumber,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		if delErr := uc.auth.DeleteUser(ctx, uid); delErr != nil {
			logger.Error("Failed to roll back auth account %s: %v", uid, delErr)
		}
		return nil, errors.Internal("Failed to create user record", err)
	}

	tokens, err := uc.auth.SignIn(ctx, email, input.Password)
	if err != nil {
		return nil, providerFailure(err, "Failed to sign in")
	}

	logger.Info("Registered user %s", uid)
	return &AuthResult{User: user, Tokens: tokens}, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	tokens, err := uc.auth.SignIn(ctx, strings.ToLower(strings.TrimSpace(email)), password)
	if err != nil {
		logger.Warn("Login failed: %v", err)
		return nil, providerFailure(err, "Failed to sign in")
	}

	user, err := uc.userRepo.GetByID(ctx, tokens.UID)
	if err != nil {
		return nil, errors.NotFound("User", err)
	}

	return &AuthResult{User: user, Tokens: tokens}, nil
}

func (uc *AuthUseCase) RefreshToken(ctx context.Context, refreshToken string) (*entity.AuthTokens, error) {
	tokens, err := uc.auth.Refresh(ctx, refreshToken)
	if err != nil {
		if pe, ok := asProviderError(err); ok {
			return nil, errors.Unauthorized(pe.FriendlyMessage(), err)
		}
		return nil, errors.Unauthorized("Invalid refresh token", err)
	}
	return tokens, nil
}

// ChangePassword re-authenticates with the current password before
// replacing it.
func (uc *AuthUseCase) ChangePassword(ctx context.Context, uid, currentPassword, newPassword string) error {
	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		return errors.NotFound("User", err)
	}

	if _, err := uc.auth.SignIn(ctx, user.Email, currentPassword); err != nil {
		return errors.Unauthorized("Current password is incorrect", err)
	}

	if err := uc.auth.UpdatePassword(ctx, uid, newPassword); err != nil {
		return providerFailure(err, "Failed to update password")
	}
	return nil
}

// providerFailure turns an identity platform error into an AppError with
// the friendly text users should see.
func providerFailure(err error, fallback string) error {
	pe, ok := asProviderError(err)
	if !ok {
		return errors.Internal(fallback, err)
	}
	if !pe.IsCredentialError() {
		return errors.Internal(pe.FriendlyMessage(), err)
	}

	switch pe.ErrorCode() {
	case "EMAIL_EXISTS":
		return errors.New(errors.CodeConflict, pe.FriendlyMessage(), http.StatusConflict, err)
	case "INVALID_EMAIL", "WEAK_PASSWORD":
		return errors.BadRequest(pe.FriendlyMessage(), err)
	default:
		return errors.Unauthorized(pe.FriendlyMessage(), err)
	}
}
