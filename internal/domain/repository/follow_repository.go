package repository

import (
	"context"

	"servicemarket/internal/domain/entity"
)

type FollowRepository interface {
	// Follow creates the edge and bumps both profile counters. It reports
	// false when the edge already existed.
	Follow(ctx context.Context, follow *entity.Follow) (bool, error)

	// Unfollow removes the edge and decrements both counters. It reports
	// false when there was nothing to remove.
	Unfollow(ctx context.Context, followerID, followingID string) (bool, error)

	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	ListFollowers(ctx context.Context, userID string) ([]*entity.Follow, error)
	ListFollowing(ctx context.Context, userID string) ([]*entity.Follow, error)
}
