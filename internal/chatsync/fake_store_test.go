package chatsync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
)

type fakeSub struct {
	mu      sync.Mutex
	stopped bool
}

func (s *fakeSub) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

func (s *fakeSub) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

type chatListener struct {
	sub *fakeSub
	fn  repository.ChatsSnapshotFunc
}

type messageListener struct {
	sub *fakeSub
	fn  repository.MessagesSnapshotFunc
}

type markChatReadCall struct {
	ChatID string
	UserID string
}

// fakeStore is an in-memory document store that echoes every write back to
// its listeners, like a live query would.
type fakeStore struct {
	mu sync.Mutex
	// deliverMu keeps echoed snapshots in write order.
	deliverMu sync.Mutex

	chats    map[string]*entity.Chat
	messages map[string][]*entity.Message

	chatListeners    map[string][]*chatListener
	messageListeners map[string][]*messageListener

	listenChatsCalls  int
	markChatReadCalls []markChatReadCall
	markMessagesCalls [][]string
	sendCalls         int

	sendErr error
	clock   time.Time
	nextID  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chats:            make(map[string]*entity.Chat),
		messages:         make(map[string][]*entity.Message),
		chatListeners:    make(map[string][]*chatListener),
		messageListeners: make(map[string][]*messageListener),
		clock:            time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) addChat(c *entity.Chat) {
	s.mu.Lock()
	if c.UnreadCounts == nil {
		c.UnreadCounts = map[string]int{}
	}
	s.chats[c.ID] = c
	s.mu.Unlock()
}

func copyChat(c *entity.Chat) *entity.Chat {
	cp := *c
	cp.UnreadCounts = make(map[string]int, len(c.UnreadCounts))
	for k, v := range c.UnreadCounts {
		cp.UnreadCounts[k] = v
	}
	return &cp
}

func (s *fakeStore) userChatsLocked(userID string) []*entity.Chat {
	var out []*entity.Chat
	for _, c := range s.chats {
		if c.HasParticipant(userID) {
			out = append(out, copyChat(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessageTimestamp.After(out[j].LastMessageTimestamp)
	})
	return out
}

func (s *fakeStore) chatMessagesLocked(chatID string) []*entity.Message {
	out := make([]*entity.Message, 0, len(s.messages[chatID]))
	for _, m := range s.messages[chatID] {
		cp := *m
		out = append(out, &cp)
	}
	return out
}

// pushChats delivers an arbitrary snapshot to the listeners of userID.
func (s *fakeStore) pushChats(userID string, chats []*entity.Chat, err error) {
	s.mu.Lock()
	listeners := append([]*chatListener(nil), s.chatListeners[userID]...)
	s.mu.Unlock()

	for _, l := range listeners {
		if !l.sub.isStopped() {
			l.fn(chats, err)
		}
	}
}

func (s *fakeStore) pushMessages(chatID string, messages []*entity.Message, err error) {
	s.mu.Lock()
	listeners := append([]*messageListener(nil), s.messageListeners[chatID]...)
	s.mu.Unlock()

	for _, l := range listeners {
		if !l.sub.isStopped() {
			l.fn(messages, err)
		}
	}
}

func (s *fakeStore) broadcastChat(chatID string) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	c, ok := s.chats[chatID]
	var participants []string
	if ok {
		participants = append(participants, c.Participants...)
	}
	snaps := make(map[string][]*entity.Chat, len(participants))
	for _, p := range participants {
		snaps[p] = s.userChatsLocked(p)
	}
	s.mu.Unlock()

	for _, p := range participants {
		s.pushChats(p, snaps[p], nil)
	}
}

func (s *fakeStore) broadcastMessages(chatID string) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	snap := s.chatMessagesLocked(chatID)
	s.mu.Unlock()
	s.pushMessages(chatID, snap, nil)
}

func (s *fakeStore) ListenByUserID(_ context.Context, userID string, fn repository.ChatsSnapshotFunc) (repository.Subscription, error) {
	s.mu.Lock()
	s.listenChatsCalls++
	sub := &fakeSub{}
	s.chatListeners[userID] = append(s.chatListeners[userID], &chatListener{sub: sub, fn: fn})
	snap := s.userChatsLocked(userID)
	s.mu.Unlock()

	fn(snap, nil)
	return sub, nil
}

func (s *fakeStore) ListenMessages(_ context.Context, chatID string, fn repository.MessagesSnapshotFunc) (repository.Subscription, error) {
	s.mu.Lock()
	sub := &fakeSub{}
	s.messageListeners[chatID] = append(s.messageListeners[chatID], &messageListener{sub: sub, fn: fn})
	snap := s.chatMessagesLocked(chatID)
	s.mu.Unlock()

	fn(snap, nil)
	return sub, nil
}

func (s *fakeStore) SendMessage(_ context.Context, chatID, senderID, recipientID, text string) (*entity.Message, error) {
	s.mu.Lock()
	s.sendCalls++
	if s.sendErr != nil {
		s.mu.Unlock()
		return nil, s.sendErr
	}
	c, ok := s.chats[chatID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("chat %s not found", chatID)
	}

	s.nextID++
	s.clock = s.clock.Add(time.Minute)
	m := &entity.Message{
		ID:        fmt.Sprintf("m%d", s.nextID),
		ChatID:    chatID,
		Text:      text,
		SenderID:  senderID,
		Timestamp: s.clock,
	}
	s.messages[chatID] = append(s.messages[chatID], m)

	c.LastMessage = text
	c.LastMessageSender = senderID
	c.LastMessageTimestamp = s.clock
	c.Read = false
	c.UnreadCounts[recipientID]++
	s.mu.Unlock()

	s.broadcastMessages(chatID)
	s.broadcastChat(chatID)
	cp := *m
	return &cp, nil
}

func (s *fakeStore) MarkChatRead(_ context.Context, chatID, userID string) error {
	s.mu.Lock()
	s.markChatReadCalls = append(s.markChatReadCalls, markChatReadCall{ChatID: chatID, UserID: userID})
	c, ok := s.chats[chatID]
	if ok {
		c.Read = true
		c.UnreadCounts[userID] = 0
	}
	s.mu.Unlock()

	if ok {
		s.broadcastChat(chatID)
	}
	return nil
}

func (s *fakeStore) MarkMessagesRead(_ context.Context, chatID string, ids []string) error {
	s.mu.Lock()
	s.markMessagesCalls = append(s.markMessagesCalls, append([]string(nil), ids...))
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, m := range s.messages[chatID] {
		if want[m.ID] {
			m.Read = true
		}
	}
	s.mu.Unlock()

	s.broadcastMessages(chatID)
	return nil
}

func (s *fakeStore) IncrementUnread(_ context.Context, chatID, recipientID string) error {
	s.mu.Lock()
	c, ok := s.chats[chatID]
	if ok {
		c.Read = false
		c.UnreadCounts[recipientID]++
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("chat %s not found", chatID)
	}
	s.broadcastChat(chatID)
	return nil
}

func (s *fakeStore) chat(id string) *entity.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyChat(s.chats[id])
}

func (s *fakeStore) readCalls() []markChatReadCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]markChatReadCall(nil), s.markChatReadCalls...)
}

func (s *fakeStore) messageBatches() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.markMessagesCalls...)
}

func (s *fakeStore) sends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendCalls
}

// recordingNotifier collects every notification it is asked to deliver.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []entity.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note entity.Notification) error {
	n.mu.Lock()
	n.sent = append(n.sent, note)
	n.mu.Unlock()
	return nil
}

func (n *recordingNotifier) all() []entity.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]entity.Notification(nil), n.sent...)
}

func testChat(id, a, b string, ts time.Time) *entity.Chat {
	return &entity.Chat{
		ID:                   id,
		Participants:         []string{a, b},
		ParticipantNames:     map[string]string{a: "Name " + a, b: "Name " + b},
		ServiceTitle:         "Service " + id,
		LastMessageTimestamp: ts,
		Read:                 true,
		UnreadCounts:         map[string]int{a: 0, b: 0},
	}
}
