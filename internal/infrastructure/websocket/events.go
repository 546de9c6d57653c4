package websocket

import (
	"encoding/json"
	"time"

	"servicemarket/internal/chatsync"
	"servicemarket/internal/domain/entity"
)

// Client event types.
const (
	MessageTypePing        = "ping"
	MessageTypeOpenThread  = "open_thread"
	MessageTypeCloseThread = "close_thread"
	MessageTypeSetDraft    = "set_draft"
	MessageTypeSendMessage = "send_message"
	MessageTypeSearch      = "search"
	MessageTypeMarkRead    = "mark_read"
)

// Server event types.
const (
	MessageTypePong             = "pong"
	MessageTypeChatsSnapshot    = "chats_snapshot"
	MessageTypeMessagesSnapshot = "messages_snapshot"
	MessageTypeSearchResult     = "search_result"
	MessageTypeNotification     = "notification"
	MessageTypeError            = "error"
)

// WSMessage is the frame exchanged in both directions. Data stays raw on
// the way in and is decoded per type.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type OpenThreadData struct {
	ChatID      string `json:"chat_id"`
	RecipientID string `json:"recipient_id"`
}

type TextData struct {
	Text string `json:"text"`
}

type SearchData struct {
	Query string `json:"query"`
}

type ChatIDData struct {
	ChatID string `json:"chat_id"`
}

// ChatItem is one row of the conversation list as the user sees it.
type ChatItem struct {
	*entity.Chat
	OtherID    string `json:"other_id"`
	OtherName  string `json:"other_name"`
	OtherImage string `json:"other_image"`
	Unread     int    `json:"unread"`
}

type ChatsPayload struct {
	Chats       []ChatItem `json:"chats"`
	UnreadTotal int        `json:"unread_total"`
}

type SearchPayload struct {
	Query string     `json:"query"`
	Chats []ChatItem `json:"chats"`
}

type MessagesPayload struct {
	ChatID   string                 `json:"chat_id"`
	Messages []chatsync.MessageView `json:"messages"`
	Draft    string                 `json:"draft"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ChatItems projects chats onto the list rows of userID.
func ChatItems(chats []*entity.Chat, userID string) []ChatItem {
	items := make([]ChatItem, 0, len(chats))
	for _, c := range chats {
		items = append(items, ChatItem{
			Chat:       c,
			OtherID:    c.OtherParticipant(userID),
			OtherName:  c.OtherName(userID),
			OtherImage: c.OtherImage(userID),
			Unread:     c.UnreadFor(userID),
		})
	}
	return items
}

func newMessage(msgType string, data interface{}) WSMessage {
	return WSMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
