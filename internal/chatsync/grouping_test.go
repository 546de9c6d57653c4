package chatsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicemarket/internal/domain/entity"
)

func TestBuildViews_AvatarGrouping(t *testing.T) {
	base := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)
	at := func(minutes float64) time.Time {
		return base.Add(time.Duration(minutes * float64(time.Minute)))
	}

	messages := []*entity.Message{
		{ID: "1", SenderID: "A", Timestamp: at(1)},
		{ID: "2", SenderID: "A", Timestamp: at(2)},
		{ID: "3", SenderID: "B", Timestamp: at(2.5)},
		{ID: "4", SenderID: "B", Timestamp: at(9)},
	}

	views := BuildViews(messages, "A", base.Add(time.Hour))
	require.Len(t, views, 4)
	assert.True(t, views[0].ShowAvatar)
	assert.False(t, views[1].ShowAvatar, "same sender within five minutes")
	assert.True(t, views[2].ShowAvatar, "sender changed")
	assert.True(t, views[3].ShowAvatar, "more than five minutes later")

	assert.True(t, views[0].IsMine)
	assert.False(t, views[2].IsMine)
}

func TestBuildViews_DateSeparators(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	messages := []*entity.Message{
		{ID: "1", SenderID: "A", Timestamp: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		{ID: "2", SenderID: "A", Timestamp: time.Date(2024, 5, 1, 9, 1, 0, 0, time.UTC)},
		{ID: "3", SenderID: "B", Timestamp: time.Date(2024, 5, 9, 23, 59, 0, 0, time.UTC)},
		{ID: "4", SenderID: "B", Timestamp: time.Date(2024, 5, 10, 0, 1, 0, 0, time.UTC)},
	}

	views := BuildViews(messages, "A", now)
	require.Len(t, views, 4)

	assert.True(t, views[0].ShowDateSeparator)
	assert.Equal(t, "May 1, 2024", views[0].DateLabel)
	assert.False(t, views[1].ShowDateSeparator)
	assert.Empty(t, views[1].DateLabel)
	assert.True(t, views[2].ShowDateSeparator)
	assert.Equal(t, "Yesterday", views[2].DateLabel)
	assert.True(t, views[3].ShowDateSeparator)
	assert.Equal(t, "Today", views[3].DateLabel)

	assert.Equal(t, "9:00 AM", views[0].TimeLabel)
	assert.Equal(t, "11:59 PM", views[2].TimeLabel)
}

func TestBuildViews_ReadLabelOnlyOnOwnReadMessages(t *testing.T) {
	messages := []*entity.Message{
		{ID: "1", SenderID: "A", Timestamp: t0, Read: true},
		{ID: "2", SenderID: "A", Timestamp: t0.Add(time.Second)},
		{ID: "3", SenderID: "B", Timestamp: t0.Add(2 * time.Second), Read: true},
	}

	views := BuildViews(messages, "A", t0)
	assert.Equal(t, "Read", views[0].ReadLabel)
	assert.Empty(t, views[1].ReadLabel)
	assert.Empty(t, views[2].ReadLabel)
}

func TestBuildViews_Empty(t *testing.T) {
	assert.Empty(t, BuildViews(nil, "A", t0))
}

func TestDateLabel_UsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2024, 5, 10, 1, 0, 0, 0, loc)

	// 22:30 UTC on May 9 is already May 10 in UTC+3.
	assert.Equal(t, "Today", DateLabel(time.Date(2024, 5, 9, 22, 30, 0, 0, time.UTC), now))
	assert.Equal(t, "Yesterday", DateLabel(time.Date(2024, 5, 9, 12, 0, 0, 0, time.UTC), now))
}
