package usecase

import (
	"context"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/pkg/errors"
)

type FollowUseCase struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowUseCase(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowUseCase {
	return &FollowUseCase{
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// Follow makes followerID follow followingID. Following twice is not an
// error. The result reports whether a new edge was created.
func (uc *FollowUseCase) Follow(ctx context.Context, followerID, followingID string) (bool, error) {
	if followerID == followingID {
		return false, errors.BadRequest("You cannot follow yourself", nil)
	}

	if _, err := uc.userRepo.GetByID(ctx, followingID); err != nil {
		return false, errors.NotFound("User", err)
	}

	follower, err := uc.userRepo.GetByID(ctx, followerID)
	if err != nil {
		return false, errors.NotFound("User", err)
	}

	return uc.followRepo.Follow(ctx, &entity.Follow{
		FollowerID:    followerID,
		FollowerName:  follower.DisplayName,
		FollowerImage: follower.PhotoURL,
		FollowingID:   followingID,
	})
}

func (uc *FollowUseCase) Unfollow(ctx context.Context, followerID, followingID string) (bool, error) {
	if followerID == followingID {
		return false, errors.BadRequest("You cannot unfollow yourself", nil)
	}
	return uc.followRepo.Unfollow(ctx, followerID, followingID)
}

func (uc *FollowUseCase) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	return uc.followRepo.IsFollowing(ctx, followerID, followingID)
}

func (uc *FollowUseCase) Followers(ctx context.Context, userID string) ([]*entity.Follow, error) {
	return uc.followRepo.ListFollowers(ctx, userID)
}

func (uc *FollowUseCase) Following(ctx context.Context, userID string) ([]*entity.Follow, error) {
	return uc.followRepo.ListFollowing(ctx, userID)
}
