package entity

import (
	"fmt"
	"time"
)

const NewMessageTitle = "New Message"

// Notification is a new-message alert for one user.
type Notification struct {
	UserID    string    `json:"user_id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessageNotification builds the alert uid gets for the last message of c.
func NewMessageNotification(c *Chat, uid string) Notification {
	return Notification{
		UserID:    uid,
		ChatID:    c.ID,
		SenderID:  c.LastMessageSender,
		Title:     NewMessageTitle,
		Body:      fmt.Sprintf("New message from %s: %s", c.OtherName(uid), c.LastMessage),
		Timestamp: c.LastMessageTimestamp,
	}
}
