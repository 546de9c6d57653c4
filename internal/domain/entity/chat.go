package entity

import "time"

// Chat is a two-party conversation about one service listing. The summary
// fields (LastMessage*, Read, UnreadCounts) are a projection of the newest
// message and of the unread messages in the messages subcollection.
type Chat struct {
	ID                   string            `json:"id" firestore:"-"`
	Participants         []string          `json:"participants" firestore:"participants"`
	ParticipantNames     map[string]string `json:"participant_names" firestore:"participantNames"`
	ParticipantImages    map[string]string `json:"participant_images" firestore:"participantImages"`
	ServiceID            string            `json:"service_id" firestore:"serviceId"`
	ServiceTitle         string            `json:"service_title" firestore:"serviceTitle"`
	LastMessage          string            `json:"last_message" firestore:"lastMessage"`
	LastMessageSender    string            `json:"last_message_sender" firestore:"lastMessageSender"`
	LastMessageTimestamp time.Time         `json:"last_message_timestamp" firestore:"lastMessageTimestamp"`
	Read                 bool              `json:"read" firestore:"read"`
	UnreadCounts         map[string]int    `json:"unread_counts" firestore:"unreadCounts,omitempty"`

	// LegacyUnreadCount is the flat counter older documents carry. It is
	// only read, never written.
	LegacyUnreadCount int `json:"-" firestore:"unreadCount,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (c *Chat) HasParticipant(uid string) bool {
	for _, p := range c.Participants {
		if p == uid {
			return true
		}
	}
	return false
}

// OtherParticipant returns the first participant that is not uid.
func (c *Chat) OtherParticipant(uid string) string {
	for _, p := range c.Participants {
		if p != uid {
			return p
		}
	}
	return ""
}

func (c *Chat) OtherName(uid string) string {
	return c.ParticipantNames[c.OtherParticipant(uid)]
}

func (c *Chat) OtherImage(uid string) string {
	return c.ParticipantImages[c.OtherParticipant(uid)]
}

// UnreadFor returns the number of messages uid has not read yet. Documents
// without a per-recipient entry fall back to the legacy flat counter, which
// only ever applied to the recipient of the last message.
func (c *Chat) UnreadFor(uid string) int {
	if n, ok := c.UnreadCounts[uid]; ok {
		return n
	}
	if c.Read || c.LastMessageSender == "" || c.LastMessageSender == uid {
		return 0
	}
	if c.LegacyUnreadCount > 0 {
		return c.LegacyUnreadCount
	}
	return 1
}

func (c *Chat) IsUnreadFor(uid string) bool {
	return c.UnreadFor(uid) > 0
}

// IsLegacy reports whether the document still uses the flat unread counter.
func (c *Chat) IsLegacy() bool {
	return c.UnreadCounts == nil || c.LegacyUnreadCount != 0
}

// Summary is the derived state of a chat document.
type Summary struct {
	LastMessage          string
	LastMessageSender    string
	LastMessageTimestamp time.Time
	Read                 bool
	UnreadCounts         map[string]int
}

// SummarizeMessages derives the chat summary from the full message log,
// which must be ordered by timestamp ascending. Unread counters never rise
// above the stored ones while the chat is marked read. An empty log keeps the
// chat's own summary, which for a fresh chat is the inquiry line, and only
// migrates its counters to the per-recipient shape.
func (c *Chat) SummarizeMessages(messages []*Message) Summary {
	s := Summary{
		LastMessage:          c.LastMessage,
		LastMessageSender:    c.LastMessageSender,
		LastMessageTimestamp: c.LastMessageTimestamp,
		UnreadCounts:         make(map[string]int, len(c.Participants)),
	}
	for _, p := range c.Participants {
		if len(messages) == 0 {
			s.UnreadCounts[p] = c.UnreadFor(p)
		} else {
			s.UnreadCounts[p] = 0
		}
	}

	for _, m := range messages {
		if !m.Read {
			for _, p := range c.Participants {
				if p != m.SenderID {
					s.UnreadCounts[p]++
				}
			}
		}
	}

	// Every send clears Read, so a chat still marked read has seen no
	// message since its last reset and its stored counters are an upper
	// bound on what is unread.
	if c.Read {
		for _, p := range c.Participants {
			if stored := c.UnreadFor(p); s.UnreadCounts[p] > stored {
				s.UnreadCounts[p] = stored
			}
		}
	}

	if n := len(messages); n > 0 {
		last := messages[n-1]
		s.LastMessage = last.Text
		s.LastMessageSender = last.SenderID
		s.LastMessageTimestamp = last.Timestamp
	}

	s.Read = true
	if s.LastMessageSender != "" {
		for _, p := range c.Participants {
			if p != s.LastMessageSender && s.UnreadCounts[p] > 0 {
				s.Read = false
			}
		}
	}
	return s
}

// Matches reports whether the chat already carries summary s.
func (c *Chat) Matches(s Summary) bool {
	if c.IsLegacy() {
		return false
	}
	if c.LastMessage != s.LastMessage || c.LastMessageSender != s.LastMessageSender ||
		!c.LastMessageTimestamp.Equal(s.LastMessageTimestamp) || c.Read != s.Read {
		return false
	}
	if len(c.UnreadCounts) != len(s.UnreadCounts) {
		return false
	}
	for k, v := range s.UnreadCounts {
		if c.UnreadCounts[k] != v {
			return false
		}
	}
	return true
}

// Apply copies s onto the chat.
func (c *Chat) Apply(s Summary) {
	c.LastMessage = s.LastMessage
	c.LastMessageSender = s.LastMessageSender
	c.LastMessageTimestamp = s.LastMessageTimestamp
	c.Read = s.Read
	c.UnreadCounts = s.UnreadCounts
	c.LegacyUnreadCount = 0
}
