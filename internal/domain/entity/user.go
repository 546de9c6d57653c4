package entity

import (
	"time"
)

type User struct {
	ID                string `json:"id" firestore:"uid"`
	Email             string `json:"email" firestore:"email"`
	DisplayName       string `json:"display_name" firestore:"displayName"`
	PhoneNumber       string `json:"phone_number" firestore:"phoneNumber"`
	PhotoURL          string `json:"photo_url" firestore:"photoURL"`
	IsServiceProvider bool   `json:"is_service_provider" firestore:"isServiceProvider"`

	FollowersCount int `json:"followers_count" firestore:"followersCount"`
	FollowingCount int `json:"following_count" firestore:"followingCount"`

	// FCMTokens are the registered push devices of the user.
	FCMTokens []string `json:"-" firestore:"fcmTokens,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// ProfilePatch is the subset of the profile a user may edit directly.
type ProfilePatch struct {
	DisplayName string `json:"display_name" validate:"required,min=2,max=50"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=20"`
}
