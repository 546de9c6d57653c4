package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/go-playground/validator/v10"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/internal/domain/service"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
)

type UserUseCase struct {
	userRepo repository.UserRepository
	auth     AuthProvider
	storage  service.FileStorage
	validate *validator.Validate
}

func NewUserUseCase(userRepo repository.UserRepository, auth AuthProvider, storage service.FileStorage) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
		auth:     auth,
		storage:  storage,
		validate: validator.New(),
	}
}

func (uc *UserUseCase) GetUserProfile(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.NotFound("User", err)
	}
	return user, nil
}

// PatchProfile applies an RFC 7396 merge patch to the editable part of the
// profile. Fields outside ProfilePatch are rejected. Chats keep the
// participant names they were created with.
func (uc *UserUseCase) PatchProfile(ctx context.Context, userID string, patch []byte) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.NotFound("User", err)
	}

	current, err := json.Marshal(entity.ProfilePatch{
		DisplayName: user.DisplayName,
		PhoneNumber: user.PhoneNumber,
	})
	if err != nil {
		return nil, errors.Internal("Failed to encode profile", err)
	}

	merged, err := jsonpatch.MergePatch(current, patch)
	if err != nil {
		return nil, errors.BadRequest("Invalid merge patch", err)
	}

	var next entity.ProfilePatch
	dec := json.NewDecoder(bytes.NewReader(merged))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		return nil, errors.BadRequest("Only display_name and phone_number can be changed", err)
	}
	next.DisplayName = strings.TrimSpace(next.DisplayName)
	next.PhoneNumber = strings.TrimSpace(next.PhoneNumber)

	if err := uc.validate.Struct(next); err != nil {
		return nil, err
	}

	nameChanged := next.DisplayName != user.DisplayName
	user.DisplayName = next.DisplayName
	user.PhoneNumber = next.PhoneNumber
	user.UpdatedAt = time.Now()

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if nameChanged {
		if err := uc.auth.UpdateDisplayName(ctx, userID, user.DisplayName); err != nil {
			logger.Warn("Failed to sync display name of %s to auth: %v", userID, err)
		}
	}
	return user, nil
}

// UploadAvatar stores a new profile picture under profiles/{uid} and
// replaces the previous one.
func (uc *UserUseCase) UploadAvatar(ctx context.Context, userID string, r io.Reader, contentType, filename string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.NotFound("User", err)
	}

	result, err := uc.storage.Upload(ctx, r, contentType, "profiles/"+userID, filename)
	if err != nil {
		return nil, errors.Internal("Failed to upload avatar", err)
	}

	if err := uc.userRepo.SetPhotoURL(ctx, userID, result.URL); err != nil {
		return nil, err
	}

	if err := uc.auth.UpdatePhotoURL(ctx, userID, result.URL); err != nil {
		logger.Warn("Failed to sync photo of %s to auth: %v", userID, err)
	}

	if old := user.PhotoURL; old != "" && old != result.URL {
		if err := uc.storage.Delete(ctx, old); err != nil {
			logger.Warn("Failed to delete previous avatar of %s: %v", userID, err)
		}
	}

	user.PhotoURL = result.URL
	return user, nil
}

func (uc *UserUseCase) RegisterDevice(ctx context.Context, userID, token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.BadRequest("Device token is required", nil)
	}
	return uc.userRepo.AddDeviceToken(ctx, userID, token)
}

func (uc *UserUseCase) UnregisterDevice(ctx context.Context, userID, token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.BadRequest("Device token is required", nil)
	}
	return uc.userRepo.RemoveDeviceToken(ctx, userID, token)
}

// DeleteAccount removes the sign-in identity of userID first, then the
// profile document and the avatar. Listings and chats stay behind with the
// names they were created with.
func (uc *UserUseCase) DeleteAccount(ctx context.Context, userID string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return errors.NotFound("User", err)
	}

	if err := uc.auth.DeleteUser(ctx, userID); err != nil {
		return errors.Internal("Failed to delete account", err)
	}

	if err := uc.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	if user.PhotoURL != "" {
		if err := uc.storage.Delete(ctx, user.PhotoURL); err != nil {
			logger.Warn("Failed to delete avatar of %s: %v", userID, err)
		}
	}

	logger.Info("Account %s deleted", userID)
	return nil
}
