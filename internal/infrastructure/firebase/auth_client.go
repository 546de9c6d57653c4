package firebase

import (
	"context"
	"net/http"
	"time"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
)

const (
	identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"
	secureTokenURL     = "https://securetoken.googleapis.com/v1"
)

// AuthClient combines the Admin SDK, which manages accounts and verifies
// tokens, with the Identity Toolkit REST API, which signs users in.
type AuthClient struct {
	client     *auth.Client
	apiKey     string
	httpClient *http.Client

	identityURL string
	tokenURL    string
}

func NewAuthClient(client *auth.Client, apiKey string) *AuthClient {
	return &AuthClient{
		client:      client,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		identityURL: identityToolkitURL,
		tokenURL:    secureTokenURL,
	}
}

func (f *AuthClient) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	user, err := f.client.CreateUser(ctx, params)
	if err != nil {
		return "", fromAdminError(err)
	}
	return user.UID, nil
}

func (f *AuthClient) DeleteUser(ctx context.Context, uid string) error {
	return f.client.DeleteUser(ctx, uid)
}

func (f *AuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", fromAdminError(err)
	}
	return result.UID, nil
}

func (f *AuthClient) UpdatePassword(ctx context.Context, uid, newPassword string) error {
	_, err := f.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Password(newPassword))
	return fromAdminError(err)
}

func (f *AuthClient) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	_, err := f.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).DisplayName(displayName))
	return fromAdminError(err)
}

func (f *AuthClient) UpdatePhotoURL(ctx context.Context, uid, photoURL string) error {
	_, err := f.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).PhotoURL(photoURL))
	return fromAdminError(err)
}

// TestConnection lists a single account to prove the credentials work.
func (f *AuthClient) TestConnection(ctx context.Context) error {
	iter := f.client.Users(ctx, "")
	iter.PageInfo().MaxSize = 1
	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return err
	}
	return nil
}
