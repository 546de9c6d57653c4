package entity

import (
	"strings"
	"time"
)

// MaxMessageLength is the longest text, in runes, a message may carry.
const MaxMessageLength = 500

type Message struct {
	ID        string    `json:"id" firestore:"-"`
	ChatID    string    `json:"chat_id" firestore:"-"`
	Text      string    `json:"text" firestore:"text"`
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
	Read      bool      `json:"read" firestore:"read"`
}

// NormalizeMessageText trims surrounding whitespace and cuts the text to
// MaxMessageLength runes. An empty result means there is nothing to send.
func NormalizeMessageText(text string) string {
	text = strings.TrimSpace(text)
	if r := []rune(text); len(r) > MaxMessageLength {
		text = string(r[:MaxMessageLength])
	}
	return text
}
