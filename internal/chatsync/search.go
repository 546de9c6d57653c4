package chatsync

import (
	"strings"

	"servicemarket/internal/domain/entity"
)

// FilterChats keeps the chats whose other participant's name or service
// title contains query, ignoring case. An empty query keeps everything.
// Order is preserved.
func FilterChats(chats []*entity.Chat, userID, query string) []*entity.Chat {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]*entity.Chat, 0, len(chats))
	for _, c := range chats {
		if q == "" ||
			strings.Contains(strings.ToLower(c.OtherName(userID)), q) ||
			strings.Contains(strings.ToLower(c.ServiceTitle), q) {
			out = append(out, c)
		}
	}
	return out
}
