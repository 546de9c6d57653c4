package chatsync

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicemarket/internal/domain/entity"
	"servicemarket/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

var t0 = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

func TestConversationList_SkipsChatsWithoutUser(t *testing.T) {
	store := newFakeStore()
	list := NewConversationList(store, nil, "alice")
	require.NoError(t, list.Start(context.Background()))
	defer list.Stop()

	store.pushChats("alice", []*entity.Chat{
		testChat("c1", "alice", "bob", t0),
		testChat("c2", "carol", "dave", t0),
		testChat("c3", "bob", "alice", t0),
	}, nil)

	var ids []string
	for _, c := range list.Chats() {
		assert.True(t, c.HasParticipant("alice"))
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"c1", "c3"}, ids)
}

func TestConversationList_KeepsSnapshotOrder(t *testing.T) {
	store := newFakeStore()
	list := NewConversationList(store, nil, "alice")
	require.NoError(t, list.Start(context.Background()))
	defer list.Stop()

	// Deliberately not sorted by timestamp: the list must not reorder.
	store.pushChats("alice", []*entity.Chat{
		testChat("old", "alice", "bob", t0),
		testChat("new", "alice", "carol", t0.Add(time.Hour)),
		testChat("mid", "alice", "dave", t0.Add(time.Minute)),
	}, nil)

	var ids []string
	for _, c := range list.Chats() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"old", "new", "mid"}, ids)

	// A later snapshot replaces the list entirely.
	store.pushChats("alice", []*entity.Chat{testChat("mid", "alice", "dave", t0)}, nil)
	require.Len(t, list.Chats(), 1)
	assert.Equal(t, "mid", list.Chats()[0].ID)
}

func TestConversationList_NoUserNoSubscription(t *testing.T) {
	store := newFakeStore()
	list := NewConversationList(store, nil, "")

	require.NoError(t, list.Start(context.Background()))
	assert.Equal(t, 0, store.listenChatsCalls)
	assert.Empty(t, list.Chats())
}

func TestConversationList_StartTwiceSubscribesOnce(t *testing.T) {
	store := newFakeStore()
	list := NewConversationList(store, nil, "alice")

	require.NoError(t, list.Start(context.Background()))
	require.NoError(t, list.Start(context.Background()))
	list.Stop()
	assert.Equal(t, 1, store.listenChatsCalls)
}

func TestConversationList_KeepsStateOnError(t *testing.T) {
	store := newFakeStore()
	list := NewConversationList(store, nil, "alice")
	require.NoError(t, list.Start(context.Background()))
	defer list.Stop()

	store.pushChats("alice", []*entity.Chat{testChat("c1", "alice", "bob", t0)}, nil)
	store.pushChats("alice", nil, errors.New("permission denied"))

	require.Len(t, list.Chats(), 1)
	assert.Equal(t, "c1", list.Chats()[0].ID)
}

func unreadFrom(c *entity.Chat, sender, recipient, text string, ts time.Time) *entity.Chat {
	c.LastMessage = text
	c.LastMessageSender = sender
	c.LastMessageTimestamp = ts
	c.Read = false
	c.UnreadCounts[recipient] = 1
	return c
}

func TestConversationList_NotifiesOncePerNewMessage(t *testing.T) {
	store := newFakeStore()
	notifier := &recordingNotifier{}
	list := NewConversationList(store, notifier, "alice")
	require.NoError(t, list.Start(context.Background()))

	snap := func(ts time.Time, text string) []*entity.Chat {
		return []*entity.Chat{unreadFrom(testChat("c1", "alice", "bob", t0), "bob", "alice", text, ts)}
	}

	store.pushChats("alice", snap(t0.Add(time.Minute), "Hi"), nil)
	store.pushChats("alice", snap(t0.Add(time.Minute), "Hi"), nil)

	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, entity.Notification{
		UserID:    "alice",
		ChatID:    "c1",
		SenderID:  "bob",
		Title:     "New Message",
		Body:      "New message from Name bob: Hi",
		Timestamp: t0.Add(time.Minute),
	}, sent[0])

	// Resubscribing redelivers the same state without a second alert.
	list.Stop()
	require.NoError(t, list.Start(context.Background()))
	store.pushChats("alice", snap(t0.Add(time.Minute), "Hi"), nil)
	assert.Len(t, notifier.all(), 1)

	store.pushChats("alice", snap(t0.Add(2*time.Minute), "Are you there?"), nil)
	sent = notifier.all()
	require.Len(t, sent, 2)
	assert.Equal(t, "New message from Name bob: Are you there?", sent[1].Body)
	list.Stop()
}

func TestConversationList_NoNotificationForOwnOrReadMessages(t *testing.T) {
	store := newFakeStore()
	notifier := &recordingNotifier{}
	list := NewConversationList(store, notifier, "alice")
	require.NoError(t, list.Start(context.Background()))
	defer list.Stop()

	own := unreadFrom(testChat("c1", "alice", "bob", t0), "alice", "bob", "hello", t0.Add(time.Minute))
	read := testChat("c2", "alice", "carol", t0)
	read.LastMessageSender = "carol"
	read.LastMessage = "seen"

	store.pushChats("alice", []*entity.Chat{own, read}, nil)
	assert.Empty(t, notifier.all())
}

func TestConversationList_SharedTrackerSuppressesDuplicates(t *testing.T) {
	store := newFakeStore()
	notifier := &recordingNotifier{}
	tracker := NewNotificationTracker()

	first := NewConversationList(store, notifier, "alice", WithTracker(tracker))
	second := NewConversationList(store, notifier, "alice", WithTracker(tracker))
	require.NoError(t, first.Start(context.Background()))
	require.NoError(t, second.Start(context.Background()))
	defer first.Stop()
	defer second.Stop()

	store.pushChats("alice", []*entity.Chat{
		unreadFrom(testChat("c1", "alice", "bob", t0), "bob", "alice", "Hi", t0.Add(time.Minute)),
	}, nil)

	assert.Len(t, notifier.all(), 1)
}

func TestConversationList_MarkReadTouchesOnlyThatChat(t *testing.T) {
	store := newFakeStore()
	store.addChat(unreadFrom(testChat("c1", "alice", "bob", t0), "bob", "alice", "Hi", t0.Add(time.Minute)))
	store.addChat(unreadFrom(testChat("c2", "alice", "carol", t0), "carol", "alice", "Yo", t0.Add(2*time.Minute)))

	list := NewConversationList(store, nil, "alice")
	require.NoError(t, list.Start(context.Background()))
	defer list.Stop()
	require.Equal(t, 2, list.UnreadTotal())

	ctx, cancel := context.WithCancel(context.Background())
	list.MarkRead(ctx, "c1")
	cancel()
	list.Wait()

	assert.Equal(t, []markChatReadCall{{ChatID: "c1", UserID: "alice"}}, store.readCalls())

	c1 := store.chat("c1")
	assert.True(t, c1.Read)
	assert.Equal(t, 0, c1.UnreadCounts["alice"])

	c2 := store.chat("c2")
	assert.False(t, c2.Read)
	assert.Equal(t, 1, c2.UnreadCounts["alice"])

	assert.Equal(t, 1, list.UnreadTotal())
}

func TestConversationList_Search(t *testing.T) {
	store := newFakeStore()
	list := NewConversationList(store, nil, "alice")
	require.NoError(t, list.Start(context.Background()))
	defer list.Stop()

	plumber := testChat("c1", "alice", "bob", t0)
	plumber.ParticipantNames["bob"] = "Bob Plumber"
	plumber.ServiceTitle = "Pipe repair"
	cleaner := testChat("c2", "alice", "carol", t0)
	cleaner.ParticipantNames["carol"] = "Carol"
	cleaner.ServiceTitle = "Deep Cleaning"

	store.pushChats("alice", []*entity.Chat{plumber, cleaner}, nil)

	ids := func(chats []*entity.Chat) []string {
		var out []string
		for _, c := range chats {
			out = append(out, c.ID)
		}
		return out
	}

	assert.Equal(t, []string{"c1"}, ids(list.Search("PLUMB")))
	assert.Equal(t, []string{"c2"}, ids(list.Search("cleaning")))
	assert.Equal(t, []string{"c1", "c2"}, ids(list.Search("")))
	assert.Empty(t, list.Search("alice"), "the user's own name is not searched")
	assert.Empty(t, list.Search("zzz"))
}

func TestConversationList_ChatsListenerSeesEverySnapshot(t *testing.T) {
	store := newFakeStore()
	var got [][]*entity.Chat
	list := NewConversationList(store, nil, "alice", WithChatsListener(func(chats []*entity.Chat) {
		got = append(got, chats)
	}))
	require.NoError(t, list.Start(context.Background()))
	defer list.Stop()

	store.pushChats("alice", []*entity.Chat{testChat("c1", "alice", "bob", t0)}, nil)

	require.Len(t, got, 2, "initial snapshot plus the pushed one")
	assert.Empty(t, got[0])
	assert.Len(t, got[1], 1)
}
