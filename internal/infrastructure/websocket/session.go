package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"servicemarket/internal/chatsync"
	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/service"
	"servicemarket/internal/infrastructure/ratelimit"
	apperrors "servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
)

// Session drives the conversation list and at most one open thread for a
// single connection, pushing every change to emit.
type Session struct {
	store   chatsync.Store
	userID  string
	emit    func(WSMessage)
	limiter *ratelimit.RateLimiter
	now     func() time.Time

	list *chatsync.ConversationList

	mu     sync.Mutex
	ctx    context.Context
	thread *chatsync.Thread
}

type SessionConfig struct {
	Store    chatsync.Store
	UserID   string
	Notifier service.Notifier
	Tracker  *chatsync.NotificationTracker
	Limiter  *ratelimit.RateLimiter
	Emit     func(WSMessage)
}

func NewSession(cfg SessionConfig) *Session {
	s := &Session{
		store:   cfg.Store,
		userID:  cfg.UserID,
		emit:    cfg.Emit,
		limiter: cfg.Limiter,
		now:     time.Now,
		ctx:     context.Background(),
	}

	opts := []chatsync.ListOption{chatsync.WithChatsListener(s.pushChats)}
	if cfg.Tracker != nil {
		opts = append(opts, chatsync.WithTracker(cfg.Tracker))
	}
	s.list = chatsync.NewConversationList(cfg.Store, cfg.Notifier, cfg.UserID, opts...)
	return s
}

// Start subscribes to the user's chats. ctx bounds every subscription the
// session opens.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	return s.list.Start(ctx)
}

// Close stops the list and the open thread. Writes already issued finish
// in the background.
func (s *Session) Close() {
	s.mu.Lock()
	thread := s.thread
	s.thread = nil
	s.mu.Unlock()

	if thread != nil {
		thread.Stop()
	}
	s.list.Stop()
}

func (s *Session) List() *chatsync.ConversationList {
	return s.list
}

// Thread returns the open thread, or nil.
func (s *Session) Thread() *chatsync.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thread
}

// Handle dispatches one raw client frame.
func (s *Session) Handle(raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.sendError(apperrors.CodeBadRequest, "Invalid message format")
		return
	}

	switch msg.Type {
	case MessageTypePing:
		s.emit(newMessage(MessageTypePong, map[string]string{"status": "alive"}))

	case MessageTypeOpenThread:
		var data OpenThreadData
		if !s.decode(msg.Data, &data) {
			return
		}
		s.openThread(data.ChatID, data.RecipientID)

	case MessageTypeCloseThread:
		s.closeThread()

	case MessageTypeSetDraft:
		var data TextData
		if !s.decode(msg.Data, &data) {
			return
		}
		if t := s.Thread(); t != nil {
			t.SetDraft(data.Text)
		}

	case MessageTypeSendMessage:
		var data TextData
		if !s.decode(msg.Data, &data) {
			return
		}
		s.send(data.Text)

	case MessageTypeSearch:
		var data SearchData
		if !s.decode(msg.Data, &data) {
			return
		}
		s.emit(newMessage(MessageTypeSearchResult, SearchPayload{
			Query: data.Query,
			Chats: ChatItems(s.list.Search(data.Query), s.userID),
		}))

	case MessageTypeMarkRead:
		var data ChatIDData
		if !s.decode(msg.Data, &data) {
			return
		}
		s.list.MarkRead(s.context(), data.ChatID)

	default:
		logger.Debug("Unknown websocket message type %q from %s", msg.Type, s.userID)
		s.sendError(apperrors.CodeBadRequest, "Unknown message type")
	}
}

func (s *Session) decode(data json.RawMessage, v interface{}) bool {
	if len(data) == 0 {
		return true
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.sendError(apperrors.CodeBadRequest, "Invalid message data")
		return false
	}
	return true
}

func (s *Session) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// openThread marks the chat read and follows its messages. A thread that
// is already open is stopped first. Without a recipient id the other
// participant of the listed chat is used.
func (s *Session) openThread(chatID, recipientID string) {
	if chatID == "" {
		s.sendError(apperrors.CodeBadRequest, "chat_id is required")
		return
	}
	if recipientID == "" {
		for _, c := range s.list.Chats() {
			if c.ID == chatID {
				recipientID = c.OtherParticipant(s.userID)
				break
			}
		}
	}

	s.closeThread()

	ctx := s.context()
	s.list.MarkRead(ctx, chatID)

	var thread *chatsync.Thread
	thread = chatsync.NewThread(s.store, s.userID, chatID, recipientID,
		chatsync.WithMessagesListener(func(messages []*entity.Message) {
			s.pushMessages(thread, messages)
		}))

	s.mu.Lock()
	s.thread = thread
	s.mu.Unlock()

	if err := thread.Start(ctx); err != nil {
		s.sendError(apperrors.CodeInternal, "Failed to open conversation")
	}
}

func (s *Session) closeThread() {
	s.mu.Lock()
	thread := s.thread
	s.thread = nil
	s.mu.Unlock()

	if thread != nil {
		thread.Stop()
	}
}

func (s *Session) send(text string) {
	thread := s.Thread()
	if thread == nil {
		s.sendError(apperrors.CodeBadRequest, chatsync.ErrSendDisabled.Message)
		return
	}

	thread.SetDraft(text)
	if entity.NormalizeMessageText(text) == "" {
		return
	}

	if s.limiter != nil {
		if ok, wait := s.limiter.Allow(s.userID, ratelimit.ActionSendMessage); !ok {
			s.sendError(apperrors.CodeTooManyRequests, "Too many messages, retry in "+wait.Round(time.Second).String())
			return
		}
	}

	if err := thread.Send(s.context()); err != nil {
		if appErr, ok := apperrors.As(err); ok {
			s.sendError(appErr.Code, appErr.Message)
			return
		}
		s.sendError(apperrors.CodeInternal, "Failed to send message")
	}
}

func (s *Session) pushChats(chats []*entity.Chat) {
	s.emit(newMessage(MessageTypeChatsSnapshot, ChatsPayload{
		Chats:       ChatItems(chats, s.userID),
		UnreadTotal: chatsync.Total(chats, s.userID),
	}))
}

func (s *Session) pushMessages(thread *chatsync.Thread, messages []*entity.Message) {
	if s.Thread() != thread {
		return
	}
	s.emit(newMessage(MessageTypeMessagesSnapshot, MessagesPayload{
		ChatID:   thread.ChatID(),
		Messages: chatsync.BuildViews(messages, s.userID, s.now()),
		Draft:    thread.Draft(),
	}))
}

func (s *Session) sendError(code, message string) {
	s.emit(newMessage(MessageTypeError, ErrorPayload{Code: code, Message: message}))
}
