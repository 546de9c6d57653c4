package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
)

const (
	chatsCollection    = "chats"
	messagesCollection = "messages"

	// maxWritesPerCommit is Firestore's limit on writes in one commit.
	maxWritesPerCommit = 500
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) chats() *firestore.CollectionRef {
	return r.client.Collection(chatsCollection)
}

func (r *firestoreChatRepository) messages(chatID string) *firestore.CollectionRef {
	return r.chats().Doc(chatID).Collection(messagesCollection)
}

func decodeChat(doc *firestore.DocumentSnapshot) (*entity.Chat, error) {
	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, err
	}
	chat.ID = doc.Ref.ID
	return &chat, nil
}

func decodeMessage(doc *firestore.DocumentSnapshot) (*entity.Message, error) {
	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, err
	}
	message.ID = doc.Ref.ID
	message.ChatID = doc.Ref.Parent.Parent.ID
	return &message, nil
}

func (r *firestoreChatRepository) userChatsQuery(userID string) firestore.Query {
	return r.chats().
		Where("participants", "array-contains", userID).
		OrderBy("lastMessageTimestamp", firestore.Desc)
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}

	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	if chat.LastMessageTimestamp.IsZero() {
		chat.LastMessageTimestamp = now
	}

	_, err := r.chats().Doc(chat.ID).Create(ctx, chat)
	if err != nil {
		return errors.Internal("Failed to create chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.chats().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Chat", err)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	chat, err := decodeChat(doc)
	if err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}

	return chat, nil
}

func (r *firestoreChatRepository) FindByServiceAndParticipants(ctx context.Context, serviceID string, participants []string) (*entity.Chat, error) {
	if len(participants) == 0 {
		return nil, errors.BadRequest("Participants are required", nil)
	}

	want := append([]string(nil), participants...)
	sort.Strings(want)

	docs, err := r.chats().
		Where("serviceId", "==", serviceID).
		Where("participants", "array-contains", want[0]).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to query chats", err)
	}

	for _, doc := range docs {
		chat, err := decodeChat(doc)
		if err != nil {
			continue
		}

		got := append([]string(nil), chat.Participants...)
		sort.Strings(got)
		if equalStrings(got, want) {
			return chat, nil
		}
	}

	return nil, errors.NotFound("Chat", nil)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	docs, err := r.userChatsQuery(userID).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching chats for user %s: %v", userID, err)
		return nil, errors.Internal("Failed to fetch chats", err)
	}

	return decodeAll(docs, decodeChat), nil
}

func (r *firestoreChatRepository) ListIDs(ctx context.Context) ([]string, error) {
	iter := r.chats().DocumentRefs(ctx)
	var ids []string
	for {
		ref, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list chats", err)
		}
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

func (r *firestoreChatRepository) ListenByUserID(ctx context.Context, userID string, fn repository.ChatsSnapshotFunc) (repository.Subscription, error) {
	if userID == "" {
		return nil, errors.BadRequest("User ID is required", nil)
	}
	return listenQuery(ctx, r.userChatsQuery(userID), decodeChat, func(chats []*entity.Chat, err error) {
		fn(chats, err)
	}), nil
}

func (r *firestoreChatRepository) ListenMessages(ctx context.Context, chatID string, fn repository.MessagesSnapshotFunc) (repository.Subscription, error) {
	if chatID == "" {
		return nil, errors.BadRequest("Chat ID is required", nil)
	}
	q := r.messages(chatID).OrderBy("timestamp", firestore.Asc)
	return listenQuery(ctx, q, decodeMessage, func(messages []*entity.Message, err error) {
		fn(messages, err)
	}), nil
}

func (r *firestoreChatRepository) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	docs, err := r.messages(chatID).OrderBy("timestamp", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching messages for chat %s: %v", chatID, err)
		return nil, errors.Internal("Failed to fetch messages", err)
	}
	return decodeAll(docs, decodeMessage), nil
}

// SendMessage runs as one transaction so the summary can never point at a
// message other than the newest one, and concurrent senders cannot lose
// each other's counter increments.
func (r *firestoreChatRepository) SendMessage(ctx context.Context, chatID, senderID, recipientID, text string) (*entity.Message, error) {
	chatRef := r.chats().Doc(chatID)
	msgRef := r.messages(chatID).Doc(uuid.New().String())

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(chatRef)
		if err != nil {
			if isNotFound(err) {
				return errors.NotFound("Chat", err)
			}
			return errors.Internal("Failed to get chat", err)
		}

		chat, err := decodeChat(doc)
		if err != nil {
			return errors.Internal("Failed to parse chat data", err)
		}
		if !chat.HasParticipant(senderID) {
			return errors.Forbidden("You are not a participant in this chat", nil)
		}
		if recipientID == senderID || !chat.HasParticipant(recipientID) {
			return errors.BadRequest("Recipient is not part of this chat", nil)
		}

		if err := tx.Create(msgRef, map[string]interface{}{
			"text":      text,
			"senderId":  senderID,
			"timestamp": firestore.ServerTimestamp,
			"read":      false,
		}); err != nil {
			return err
		}

		updates := []firestore.Update{
			{Path: "lastMessage", Value: text},
			{Path: "lastMessageSender", Value: senderID},
			{Path: "lastMessageTimestamp", Value: firestore.ServerTimestamp},
			{Path: "read", Value: false},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
			{FieldPath: firestore.FieldPath{"unreadCounts", recipientID}, Value: firestore.Increment(1)},
		}
		if _, ok := chat.UnreadCounts[senderID]; !ok {
			updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{"unreadCounts", senderID}, Value: 0})
		}
		if chat.LegacyUnreadCount != 0 {
			updates = append(updates, firestore.Update{Path: "unreadCount", Value: firestore.Delete})
		}
		return tx.Update(chatRef, updates)
	})
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.Internal("Failed to send message", err)
	}

	return &entity.Message{
		ID:       msgRef.ID,
		ChatID:   chatID,
		Text:     text,
		SenderID: senderID,
		// The stored timestamp is assigned by the server. This is the local
		// estimate until the listener echoes the message back.
		Timestamp: time.Now(),
	}, nil
}

// MarkChatRead resets userID's counter and marks the messages userID has
// not read yet, in one transaction, so a later summary rebuild sees the
// same state. Messages beyond one commit stay flagged unread.
func (r *firestoreChatRepository) MarkChatRead(ctx context.Context, chatID, userID string) error {
	chatRef := r.chats().Doc(chatID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(chatRef); err != nil {
			if isNotFound(err) {
				return errors.NotFound("Chat", err)
			}
			return err
		}

		unread, err := tx.Documents(r.messages(chatID).Where("read", "==", false)).GetAll()
		if err != nil {
			return err
		}

		writes := 1
		for _, doc := range unread {
			if writes >= maxWritesPerCommit {
				break
			}
			if sender, _ := doc.DataAt("senderId"); sender == userID {
				continue
			}
			if err := tx.Update(doc.Ref, []firestore.Update{{Path: "read", Value: true}}); err != nil {
				return err
			}
			writes++
		}

		return tx.Update(chatRef, []firestore.Update{
			{Path: "read", Value: true},
			{FieldPath: firestore.FieldPath{"unreadCounts", userID}, Value: 0},
		})
	})
	if err != nil {
		if _, ok := errors.As(err); ok {
			return err
		}
		return errors.Internal("Failed to mark chat as read", err)
	}
	return nil
}

// MarkMessagesRead commits in chunks of maxWritesPerCommit. Each chunk is
// atomic; a failing chunk stops the rest.
func (r *firestoreChatRepository) MarkMessagesRead(ctx context.Context, chatID string, messageIDs []string) error {
	for start := 0; start < len(messageIDs); start += maxWritesPerCommit {
		end := start + maxWritesPerCommit
		if end > len(messageIDs) {
			end = len(messageIDs)
		}
		chunk := messageIDs[start:end]

		err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			for _, id := range chunk {
				if err := tx.Update(r.messages(chatID).Doc(id), []firestore.Update{{Path: "read", Value: true}}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return errors.Internal("Failed to mark messages as read", err)
		}
	}
	return nil
}

func (r *firestoreChatRepository) IncrementUnread(ctx context.Context, chatID, recipientID string) error {
	_, err := r.chats().Doc(chatID).Update(ctx, []firestore.Update{
		{Path: "read", Value: false},
		{FieldPath: firestore.FieldPath{"unreadCounts", recipientID}, Value: firestore.Increment(1)},
	})
	if err != nil {
		if isNotFound(err) {
			return errors.NotFound("Chat", err)
		}
		return errors.Internal("Failed to increment unread counter", err)
	}
	return nil
}

func (r *firestoreChatRepository) RebuildSummary(ctx context.Context, chatID string) (bool, error) {
	chatRef := r.chats().Doc(chatID)
	changed := false

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		changed = false

		doc, err := tx.Get(chatRef)
		if err != nil {
			if isNotFound(err) {
				return errors.NotFound("Chat", err)
			}
			return err
		}
		chat, err := decodeChat(doc)
		if err != nil {
			return errors.Internal("Failed to parse chat data", err)
		}

		msgDocs, err := tx.Documents(r.messages(chatID).OrderBy("timestamp", firestore.Asc)).GetAll()
		if err != nil {
			return err
		}

		summary := chat.SummarizeMessages(decodeAll(msgDocs, decodeMessage))
		if chat.Matches(summary) {
			return nil
		}
		changed = true

		updates := []firestore.Update{
			{Path: "lastMessage", Value: summary.LastMessage},
			{Path: "lastMessageSender", Value: summary.LastMessageSender},
			{Path: "read", Value: summary.Read},
			{Path: "unreadCounts", Value: summary.UnreadCounts},
			{Path: "unreadCount", Value: firestore.Delete},
		}
		if !summary.LastMessageTimestamp.IsZero() {
			updates = append(updates, firestore.Update{Path: "lastMessageTimestamp", Value: summary.LastMessageTimestamp})
		}
		return tx.Update(chatRef, updates)
	})
	if err != nil {
		if _, ok := errors.As(err); ok {
			return false, err
		}
		return false, errors.Internal("Failed to rebuild chat summary", err)
	}

	return changed, nil
}
