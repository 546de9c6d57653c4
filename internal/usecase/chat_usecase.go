package usecase

import (
	"context"
	"time"

	"servicemarket/internal/chatsync"
	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/internal/infrastructure/ratelimit"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
)

const inquiryPrefix = "Inquiry about "

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	unread      *chatsync.UnreadCounter
	rateLimiter *ratelimit.RateLimiter
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
	rateLimiter *ratelimit.RateLimiter,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		listingRepo: listingRepo,
		unread:      chatsync.NewUnreadCounter(chatRepo),
		rateLimiter: rateLimiter,
	}
}

type ChatResponse struct {
	*entity.Chat
	OtherID    string `json:"other_id"`
	OtherName  string `json:"other_name"`
	OtherImage string `json:"other_image"`
	Unread     int    `json:"unread"`
}

func chatResponse(c *entity.Chat, userID string) ChatResponse {
	return ChatResponse{
		Chat:       c,
		OtherID:    c.OtherParticipant(userID),
		OtherName:  c.OtherName(userID),
		OtherImage: c.OtherImage(userID),
		Unread:     c.UnreadFor(userID),
	}
}

func (uc *ChatUseCase) allow(userID, action string) error {
	if uc.rateLimiter == nil {
		return nil
	}
	if ok, wait := uc.rateLimiter.Allow(userID, action); !ok {
		logger.Warn("Rate limited %s on %s for %v", userID, action, wait)
		return errors.TooManyRequests("Rate limit exceeded. Please wait before trying again", wait)
	}
	return nil
}

// ContactProvider opens the conversation between buyerID and the provider
// of serviceID. An existing chat about the same service between the same
// two users is reused. It reports whether a new chat was created.
func (uc *ChatUseCase) ContactProvider(ctx context.Context, buyerID, serviceID string) (*ChatResponse, bool, error) {
	if err := uc.allow(buyerID, ratelimit.ActionCreateChat); err != nil {
		return nil, false, err
	}

	listing, err := uc.listingRepo.GetByID(ctx, serviceID)
	if err != nil {
		return nil, false, err
	}
	providerID := listing.ProviderID
	if providerID == buyerID {
		return nil, false, errors.BadRequest("You cannot contact yourself about your own service", nil)
	}

	existing, err := uc.chatRepo.FindByServiceAndParticipants(ctx, serviceID, []string{buyerID, providerID})
	if err == nil {
		resp := chatResponse(existing, buyerID)
		return &resp, false, nil
	}
	if !errors.Is(err, errors.CodeNotFound) {
		return nil, false, err
	}

	buyer, err := uc.userRepo.GetByID(ctx, buyerID)
	if err != nil {
		return nil, false, errors.NotFound("User", err)
	}

	chat := &entity.Chat{
		Participants: []string{buyerID, providerID},
		ParticipantNames: map[string]string{
			buyerID:    buyer.DisplayName,
			providerID: listing.ProviderName,
		},
		ParticipantImages: map[string]string{
			buyerID:    buyer.PhotoURL,
			providerID: listing.ProviderImage,
		},
		ServiceID:            serviceID,
		ServiceTitle:         listing.Title,
		LastMessage:          inquiryPrefix + listing.Title,
		LastMessageSender:    buyerID,
		LastMessageTimestamp: time.Now(),
		UnreadCounts:         map[string]int{buyerID: 0, providerID: 1},
	}

	if err := uc.chatRepo.Create(ctx, chat); err != nil {
		return nil, false, err
	}

	logger.Info("Chat %s opened by %s about service %s", chat.ID, buyerID, serviceID)
	resp := chatResponse(chat, buyerID)
	return &resp, true, nil
}

// ListChats returns the user's chats newest first, narrowed by query the
// same way the live list searches.
func (uc *ChatUseCase) ListChats(ctx context.Context, userID, query string) ([]ChatResponse, int, error) {
	chats, err := uc.chatRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	own := make([]*entity.Chat, 0, len(chats))
	for _, c := range chats {
		if c.HasParticipant(userID) {
			own = append(own, c)
		}
	}

	filtered := chatsync.FilterChats(own, userID, query)
	out := make([]ChatResponse, 0, len(filtered))
	for _, c := range filtered {
		out = append(out, chatResponse(c, userID))
	}
	return out, chatsync.Total(own, userID), nil
}

func (uc *ChatUseCase) GetChat(ctx context.Context, userID, chatID string) (*ChatResponse, error) {
	chat, err := uc.participantChat(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	resp := chatResponse(chat, userID)
	return &resp, nil
}

// GetMessages returns the thread oldest first with its presentation flags
// computed against now.
func (uc *ChatUseCase) GetMessages(ctx context.Context, userID, chatID string, now time.Time) ([]chatsync.MessageView, error) {
	if _, err := uc.participantChat(ctx, userID, chatID); err != nil {
		return nil, err
	}

	messages, err := uc.chatRepo.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return chatsync.BuildViews(messages, userID, now), nil
}

// SendMessage posts text to the other participant. Blank text sends
// nothing and returns a nil message.
func (uc *ChatUseCase) SendMessage(ctx context.Context, userID, chatID, text string) (*entity.Message, error) {
	text = entity.NormalizeMessageText(text)
	if text == "" {
		return nil, nil
	}

	chat, err := uc.participantChat(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	recipientID := chat.OtherParticipant(userID)
	if recipientID == "" {
		return nil, chatsync.ErrSendDisabled
	}

	if err := uc.allow(userID, ratelimit.ActionSendMessage); err != nil {
		return nil, err
	}

	message, err := uc.chatRepo.SendMessage(context.WithoutCancel(ctx), chatID, userID, recipientID, text)
	if err != nil {
		logger.Error("Failed to send message to chat %s: %v", chatID, err)
		return nil, err
	}
	return message, nil
}

// MarkRead sets the chat read and zeroes the caller's unread counter.
func (uc *ChatUseCase) MarkRead(ctx context.Context, userID, chatID string) error {
	if _, err := uc.participantChat(ctx, userID, chatID); err != nil {
		return err
	}
	return uc.unread.Reset(ctx, chatID, userID)
}

func (uc *ChatUseCase) participantChat(ctx context.Context, userID, chatID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this chat", nil)
	}
	return chat, nil
}
