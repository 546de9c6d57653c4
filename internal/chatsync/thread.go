package chatsync

import (
	"context"
	"sync"
	"time"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/pkg/logger"
)

// Thread mirrors the messages of one chat in ascending time order, marks
// incoming messages read as they arrive, and holds the user's draft.
type Thread struct {
	store       Store
	userID      string
	chatID      string
	recipientID string
	onChange    func([]*entity.Message)

	mu       sync.RWMutex
	messages []*entity.Message
	draft    string
	sub      repository.Subscription
	bgCtx    context.Context

	// requested holds ids whose read flag was already written or is being
	// written, so later snapshots do not issue them again.
	requested map[string]struct{}
	pending   sync.WaitGroup
}

type ThreadOption func(*Thread)

// WithMessagesListener registers fn to receive every snapshot.
func WithMessagesListener(fn func([]*entity.Message)) ThreadOption {
	return func(t *Thread) {
		t.onChange = fn
	}
}

func NewThread(store Store, userID, chatID, recipientID string, opts ...ThreadOption) *Thread {
	t := &Thread{
		store:       store,
		userID:      userID,
		chatID:      chatID,
		recipientID: recipientID,
		requested:   make(map[string]struct{}),
		bgCtx:       context.Background(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Thread) ChatID() string {
	return t.chatID
}

func (t *Thread) RecipientID() string {
	return t.recipientID
}

// CanSend reports whether the thread knows both its chat and recipient.
func (t *Thread) CanSend() bool {
	return t.chatID != "" && t.recipientID != ""
}

// Start subscribes to the chat's messages. A thread without a chat id has
// nothing to follow.
func (t *Thread) Start(ctx context.Context) error {
	if t.chatID == "" {
		return nil
	}

	t.mu.Lock()
	if t.sub != nil {
		t.mu.Unlock()
		return nil
	}
	t.bgCtx = context.WithoutCancel(ctx)
	t.mu.Unlock()

	sub, err := t.store.ListenMessages(ctx, t.chatID, t.handleSnapshot)
	if err != nil {
		logger.Error("Failed to subscribe to messages of chat %s: %v", t.chatID, err)
		return err
	}

	t.mu.Lock()
	t.sub = sub
	t.mu.Unlock()
	return nil
}

// Stop ends the subscription. Read marks already issued still complete.
func (t *Thread) Stop() {
	t.mu.Lock()
	sub := t.sub
	t.sub = nil
	t.mu.Unlock()

	if sub != nil {
		sub.Stop()
	}
}

func (t *Thread) handleSnapshot(messages []*entity.Message, err error) {
	if err != nil {
		logger.Error("Message subscription of chat %s failed, keeping last state: %v", t.chatID, err)
		return
	}

	t.mu.Lock()
	t.messages = messages
	var unread []string
	for _, m := range messages {
		if m.SenderID == t.userID || m.Read {
			continue
		}
		if _, ok := t.requested[m.ID]; ok {
			continue
		}
		t.requested[m.ID] = struct{}{}
		unread = append(unread, m.ID)
	}
	ctx := t.bgCtx
	t.mu.Unlock()

	if t.onChange != nil {
		t.onChange(t.Messages())
	}

	if len(unread) > 0 {
		t.markRead(ctx, unread)
	}
}

// markRead issues one batched write for the ids of a snapshot. Ids of a
// failed batch are released so a later snapshot can pick them up.
func (t *Thread) markRead(ctx context.Context, ids []string) {
	t.pending.Add(1)
	go func() {
		defer t.pending.Done()

		if err := t.store.MarkMessagesRead(ctx, t.chatID, ids); err != nil {
			logger.Error("Failed to mark %d messages read in chat %s: %v", len(ids), t.chatID, err)
			t.mu.Lock()
			for _, id := range ids {
				delete(t.requested, id)
			}
			t.mu.Unlock()
		}
	}()
}

// Messages returns the current messages, oldest first.
func (t *Thread) Messages() []*entity.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*entity.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Views returns the messages with their presentation flags.
func (t *Thread) Views(now time.Time) []MessageView {
	return BuildViews(t.Messages(), t.userID, now)
}

func (t *Thread) SetDraft(text string) {
	t.mu.Lock()
	t.draft = text
	t.mu.Unlock()
}

func (t *Thread) Draft() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.draft
}

// Send posts the draft. Blank drafts are ignored and left untouched.
// Otherwise the draft is cleared before the write, and the message only
// shows up in Messages once the subscription delivers it.
func (t *Thread) Send(ctx context.Context) error {
	t.mu.Lock()
	text := entity.NormalizeMessageText(t.draft)
	if text == "" {
		t.mu.Unlock()
		return nil
	}
	if !t.CanSend() {
		t.mu.Unlock()
		return ErrSendDisabled
	}
	t.draft = ""
	t.mu.Unlock()

	if _, err := t.store.SendMessage(context.WithoutCancel(ctx), t.chatID, t.userID, t.recipientID, text); err != nil {
		logger.Error("Failed to send message to chat %s: %v", t.chatID, err)
		return err
	}
	return nil
}

// Wait blocks until background read marks have finished.
func (t *Thread) Wait() {
	t.pending.Wait()
}
