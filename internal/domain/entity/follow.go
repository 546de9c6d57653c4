package entity

import (
	"time"
)

type Follow struct {
	ID            string    `json:"id" firestore:"-"`
	FollowerID    string    `json:"follower_id" firestore:"followerId"`
	FollowerName  string    `json:"follower_name" firestore:"followerName"`
	FollowerImage string    `json:"follower_image" firestore:"followerImage"`
	FollowingID   string    `json:"following_id" firestore:"followingId"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt"`
}

// FollowID is the deterministic document id of a follow edge, so repeated
// follows land on the same document.
func FollowID(followerID, followingID string) string {
	return followerID + "_" + followingID
}
