package firebase

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"servicemarket/internal/domain/entity"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	args := m.Called(ctx, msg)
	resp, _ := args.Get(0).(*messaging.BatchResponse)
	return resp, args.Error(1)
}

type mockTokenStore struct {
	mock.Mock
}

func (m *mockTokenStore) GetByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

func (m *mockTokenStore) RemoveDeviceToken(ctx context.Context, id, token string) error {
	return m.Called(ctx, id, token).Error(0)
}

func note() entity.Notification {
	return entity.Notification{
		UserID:   "buyer",
		ChatID:   "c1",
		SenderID: "provider",
		Title:    entity.NewMessageTitle,
		Body:     "New message from Pat: hi",
	}
}

func TestPushNotifier_SendsToAllDevices(t *testing.T) {
	sender := new(mockSender)
	users := new(mockTokenStore)
	ctx := context.Background()

	users.On("GetByID", ctx, "buyer").Return(&entity.User{ID: "buyer", FCMTokens: []string{"t1", "t2"}}, nil)
	sender.On("SendEachForMulticast", ctx, mock.MatchedBy(func(m *messaging.MulticastMessage) bool {
		return len(m.Tokens) == 2 && m.Notification.Title == entity.NewMessageTitle && m.Data["chatId"] == "c1"
	})).Return(&messaging.BatchResponse{
		SuccessCount: 2,
		Responses:    []*messaging.SendResponse{{Success: true}, {Success: true}},
	}, nil)

	require.NoError(t, NewPushNotifier(sender, users).Notify(ctx, note()))
	sender.AssertExpectations(t)
	users.AssertNotCalled(t, "RemoveDeviceToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestPushNotifier_NoDevicesSkipsSend(t *testing.T) {
	sender := new(mockSender)
	users := new(mockTokenStore)
	ctx := context.Background()

	users.On("GetByID", ctx, "buyer").Return(&entity.User{ID: "buyer"}, nil)

	require.NoError(t, NewPushNotifier(sender, users).Notify(ctx, note()))
	sender.AssertNotCalled(t, "SendEachForMulticast", mock.Anything, mock.Anything)
}

func TestPushNotifier_SendError(t *testing.T) {
	sender := new(mockSender)
	users := new(mockTokenStore)
	ctx := context.Background()

	users.On("GetByID", ctx, "buyer").Return(&entity.User{ID: "buyer", FCMTokens: []string{"t1"}}, nil)
	sender.On("SendEachForMulticast", ctx, mock.Anything).Return(nil, errors.New("quota"))

	err := NewPushNotifier(sender, users).Notify(ctx, note())
	assert.Error(t, err)
}

func TestPushNotifier_UnknownUser(t *testing.T) {
	users := new(mockTokenStore)
	ctx := context.Background()
	users.On("GetByID", ctx, "buyer").Return(nil, errors.New("not found"))

	assert.Error(t, NewPushNotifier(new(mockSender), users).Notify(ctx, note()))
}
