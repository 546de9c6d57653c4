package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
)

const followsCollection = "follows"

type firestoreFollowRepository struct {
	client *firestore.Client
}

func NewFirestoreFollowRepository(client *firestore.Client) repository.FollowRepository {
	return &firestoreFollowRepository{client: client}
}

func decodeFollow(doc *firestore.DocumentSnapshot) (*entity.Follow, error) {
	var follow entity.Follow
	if err := doc.DataTo(&follow); err != nil {
		return nil, err
	}
	follow.ID = doc.Ref.ID
	return &follow, nil
}

func (r *firestoreFollowRepository) Follow(ctx context.Context, follow *entity.Follow) (bool, error) {
	follow.ID = entity.FollowID(follow.FollowerID, follow.FollowingID)
	if follow.CreatedAt.IsZero() {
		follow.CreatedAt = time.Now()
	}

	ref := r.client.Collection(followsCollection).Doc(follow.ID)
	users := r.client.Collection(usersCollection)
	created := false

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false
		if _, err := tx.Get(ref); err == nil {
			return nil
		} else if !isNotFound(err) {
			return err
		}

		if err := tx.Create(ref, follow); err != nil {
			return err
		}
		if err := tx.Update(users.Doc(follow.FollowerID), []firestore.Update{
			{Path: "followingCount", Value: firestore.Increment(1)},
		}); err != nil {
			return err
		}
		if err := tx.Update(users.Doc(follow.FollowingID), []firestore.Update{
			{Path: "followersCount", Value: firestore.Increment(1)},
		}); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, errors.Internal("Failed to follow user", err)
	}

	if created {
		logger.Info("User %s followed %s", follow.FollowerID, follow.FollowingID)
	}
	return created, nil
}

func (r *firestoreFollowRepository) Unfollow(ctx context.Context, followerID, followingID string) (bool, error) {
	ref := r.client.Collection(followsCollection).Doc(entity.FollowID(followerID, followingID))
	users := r.client.Collection(usersCollection)
	removed := false

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		removed = false
		if _, err := tx.Get(ref); err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}

		if err := tx.Delete(ref); err != nil {
			return err
		}
		if err := tx.Update(users.Doc(followerID), []firestore.Update{
			{Path: "followingCount", Value: firestore.Increment(-1)},
		}); err != nil {
			return err
		}
		if err := tx.Update(users.Doc(followingID), []firestore.Update{
			{Path: "followersCount", Value: firestore.Increment(-1)},
		}); err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, errors.Internal("Failed to unfollow user", err)
	}
	return removed, nil
}

func (r *firestoreFollowRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	_, err := r.client.Collection(followsCollection).Doc(entity.FollowID(followerID, followingID)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, errors.Internal("Failed to check follow status", err)
	}
	return true, nil
}

func (r *firestoreFollowRepository) ListFollowers(ctx context.Context, userID string) ([]*entity.Follow, error) {
	return r.list(ctx, "followingId", userID)
}

func (r *firestoreFollowRepository) ListFollowing(ctx context.Context, userID string) ([]*entity.Follow, error) {
	return r.list(ctx, "followerId", userID)
}

func (r *firestoreFollowRepository) list(ctx context.Context, field, userID string) ([]*entity.Follow, error) {
	docs, err := r.client.Collection(followsCollection).
		Where(field, "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list follows", err)
	}
	return decodeAll(docs, decodeFollow), nil
}
