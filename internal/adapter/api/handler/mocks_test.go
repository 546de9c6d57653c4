package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"servicemarket/internal/adapter/api"
	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/internal/domain/service"
	"servicemarket/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = api.NewValidator()
	return e
}

// request builds a context for uid with the given path params as
// name, value pairs.
func request(e *echo.Echo, method, target, body, uid string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != "" {
		c.Set("uid", uid)
	}
	for i := 0; i+1 < len(params); i += 2 {
		values := append(c.ParamValues(), params[i+1])
		c.SetParamNames(append(c.ParamNames(), params[i])...)
		c.SetParamValues(values...)
	}
	return c, rec
}

type mockUserRepo struct{ mock.Mock }

var _ repository.UserRepository = (*mockUserRepo)(nil)

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) SetPhotoURL(ctx context.Context, id, photoURL string) error {
	return m.Called(ctx, id, photoURL).Error(0)
}

func (m *mockUserRepo) AddDeviceToken(ctx context.Context, id, token string) error {
	return m.Called(ctx, id, token).Error(0)
}

func (m *mockUserRepo) RemoveDeviceToken(ctx context.Context, id, token string) error {
	return m.Called(ctx, id, token).Error(0)
}

func (m *mockUserRepo) MarkServiceProvider(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockListingRepo struct{ mock.Mock }

var _ repository.ListingRepository = (*mockListingRepo)(nil)

func (m *mockListingRepo) Create(ctx context.Context, listing *entity.Listing) error {
	return m.Called(ctx, listing).Error(0)
}

func (m *mockListingRepo) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*entity.Listing)
	return l, args.Error(1)
}

func (m *mockListingRepo) Update(ctx context.Context, listing *entity.Listing) error {
	return m.Called(ctx, listing).Error(0)
}

func (m *mockListingRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockListingRepo) List(ctx context.Context, category string) ([]*entity.Listing, error) {
	args := m.Called(ctx, category)
	l, _ := args.Get(0).([]*entity.Listing)
	return l, args.Error(1)
}

func (m *mockListingRepo) ListByProviderID(ctx context.Context, providerID string) ([]*entity.Listing, error) {
	args := m.Called(ctx, providerID)
	l, _ := args.Get(0).([]*entity.Listing)
	return l, args.Error(1)
}

type mockChatRepo struct{ mock.Mock }

var _ repository.ChatRepository = (*mockChatRepo)(nil)

func (m *mockChatRepo) Create(ctx context.Context, chat *entity.Chat) error {
	return m.Called(ctx, chat).Error(0)
}

func (m *mockChatRepo) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*entity.Chat)
	return c, args.Error(1)
}

func (m *mockChatRepo) FindByServiceAndParticipants(ctx context.Context, serviceID string, participants []string) (*entity.Chat, error) {
	args := m.Called(ctx, serviceID, participants)
	c, _ := args.Get(0).(*entity.Chat)
	return c, args.Error(1)
}

func (m *mockChatRepo) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).([]*entity.Chat)
	return c, args.Error(1)
}

func (m *mockChatRepo) ListIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *mockChatRepo) ListenByUserID(ctx context.Context, userID string, fn repository.ChatsSnapshotFunc) (repository.Subscription, error) {
	args := m.Called(ctx, userID, fn)
	s, _ := args.Get(0).(repository.Subscription)
	return s, args.Error(1)
}

func (m *mockChatRepo) ListenMessages(ctx context.Context, chatID string, fn repository.MessagesSnapshotFunc) (repository.Subscription, error) {
	args := m.Called(ctx, chatID, fn)
	s, _ := args.Get(0).(repository.Subscription)
	return s, args.Error(1)
}

func (m *mockChatRepo) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	args := m.Called(ctx, chatID)
	msgs, _ := args.Get(0).([]*entity.Message)
	return msgs, args.Error(1)
}

func (m *mockChatRepo) SendMessage(ctx context.Context, chatID, senderID, recipientID, text string) (*entity.Message, error) {
	args := m.Called(ctx, chatID, senderID, recipientID, text)
	msg, _ := args.Get(0).(*entity.Message)
	return msg, args.Error(1)
}

func (m *mockChatRepo) MarkChatRead(ctx context.Context, chatID, userID string) error {
	return m.Called(ctx, chatID, userID).Error(0)
}

func (m *mockChatRepo) MarkMessagesRead(ctx context.Context, chatID string, messageIDs []string) error {
	return m.Called(ctx, chatID, messageIDs).Error(0)
}

func (m *mockChatRepo) IncrementUnread(ctx context.Context, chatID, recipientID string) error {
	return m.Called(ctx, chatID, recipientID).Error(0)
}

func (m *mockChatRepo) RebuildSummary(ctx context.Context, chatID string) (bool, error) {
	args := m.Called(ctx, chatID)
	return args.Bool(0), args.Error(1)
}

type mockStorage struct{ mock.Mock }

var _ service.FileStorage = (*mockStorage)(nil)

func (m *mockStorage) Upload(ctx context.Context, r io.Reader, contentType, folder, filename string) (*service.UploadResult, error) {
	args := m.Called(ctx, contentType, folder, filename)
	res, _ := args.Get(0).(*service.UploadResult)
	return res, args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, fileURL string) error {
	return m.Called(ctx, fileURL).Error(0)
}

func (m *mockStorage) Close() error {
	return nil
}

type mockAuth struct{ mock.Mock }

func (m *mockAuth) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	args := m.Called(ctx, email, password, displayName)
	return args.String(0), args.Error(1)
}

func (m *mockAuth) DeleteUser(ctx context.Context, uid string) error {
	return m.Called(ctx, uid).Error(0)
}

func (m *mockAuth) VerifyToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *mockAuth) SignIn(ctx context.Context, email, password string) (*entity.AuthTokens, error) {
	args := m.Called(ctx, email, password)
	t, _ := args.Get(0).(*entity.AuthTokens)
	return t, args.Error(1)
}

func (m *mockAuth) Refresh(ctx context.Context, refreshToken string) (*entity.AuthTokens, error) {
	args := m.Called(ctx, refreshToken)
	t, _ := args.Get(0).(*entity.AuthTokens)
	return t, args.Error(1)
}

func (m *mockAuth) UpdatePassword(ctx context.Context, uid, newPassword string) error {
	return m.Called(ctx, uid, newPassword).Error(0)
}

func (m *mockAuth) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	return m.Called(ctx, uid, displayName).Error(0)
}

func (m *mockAuth) UpdatePhotoURL(ctx context.Context, uid, photoURL string) error {
	return m.Called(ctx, uid, photoURL).Error(0)
}
