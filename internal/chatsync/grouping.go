package chatsync

import (
	"time"

	"servicemarket/internal/domain/entity"
)

// AvatarGap is how far apart two messages from the same sender may be and
// still share one avatar.
const AvatarGap = 5 * time.Minute

const (
	labelToday     = "Today"
	labelYesterday = "Yesterday"
	labelRead      = "Read"

	dateLayout = "Jan 2, 2006"
	timeLayout = "3:04 PM"
)

// MessageView is a message plus the presentation flags a thread screen needs.
type MessageView struct {
	entity.Message
	IsMine            bool   `json:"is_mine"`
	ShowAvatar        bool   `json:"show_avatar"`
	ShowDateSeparator bool   `json:"show_date_separator"`
	DateLabel         string `json:"date_label,omitempty"`
	TimeLabel         string `json:"time_label"`
	ReadLabel         string `json:"read_label,omitempty"`
}

// BuildViews derives the views of an ascending message list for userID.
// Calendar dates and labels are computed in now's location.
func BuildViews(messages []*entity.Message, userID string, now time.Time) []MessageView {
	loc := now.Location()
	views := make([]MessageView, 0, len(messages))

	var prev *entity.Message
	for _, m := range messages {
		ts := m.Timestamp.In(loc)
		v := MessageView{
			Message:   *m,
			IsMine:    m.SenderID == userID,
			TimeLabel: ts.Format(timeLayout),
		}

		v.ShowAvatar = prev == nil ||
			prev.SenderID != m.SenderID ||
			m.Timestamp.Sub(prev.Timestamp) > AvatarGap

		if prev == nil || !sameDay(prev.Timestamp.In(loc), ts) {
			v.ShowDateSeparator = true
			v.DateLabel = DateLabel(ts, now)
		}

		if v.IsMine && m.Read {
			v.ReadLabel = labelRead
		}

		views = append(views, v)
		prev = m
	}
	return views
}

// DateLabel renders t as "Today", "Yesterday" or a short date, relative
// to now.
func DateLabel(t, now time.Time) string {
	t = t.In(now.Location())
	switch {
	case sameDay(t, now):
		return labelToday
	case sameDay(t, now.AddDate(0, 0, -1)):
		return labelYesterday
	default:
		return t.Format(dateLayout)
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
