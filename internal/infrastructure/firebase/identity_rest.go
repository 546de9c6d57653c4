package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"servicemarket/internal/domain/entity"
)

type restErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type signInResponse struct {
	LocalID      string `json:"localId"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type refreshResponse struct {
	UserID       string `json:"user_id"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

// SignIn exchanges an email and password for an ID token and a refresh
// token.
func (f *AuthClient) SignIn(ctx context.Context, email, password string) (*entity.AuthTokens, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sign-in request: %w", err)
	}

	endpoint := f.identityURL + "/accounts:signInWithPassword?key=" + url.QueryEscape(f.apiKey)
	body, err := f.post(ctx, endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var resp signInResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse sign-in response: %w", err)
	}

	expiresIn, _ := strconv.Atoi(resp.ExpiresIn)
	return &entity.AuthTokens{
		UID:          resp.LocalID,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

// Refresh trades a refresh token for a new token pair.
func (f *AuthClient) Refresh(ctx context.Context, refreshToken string) (*entity.AuthTokens, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	endpoint := f.tokenURL + "/token?key=" + url.QueryEscape(f.apiKey)
	body, err := f.post(ctx, endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}

	var resp refreshResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse refresh response: %w", err)
	}

	expiresIn, _ := strconv.Atoi(resp.ExpiresIn)
	return &entity.AuthTokens{
		UID:          resp.UserID,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

func (f *AuthClient) post(ctx context.Context, endpoint, contentType string, payload io.Reader) ([]byte, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("firebase API key is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var restErr restErrorBody
		if jsonErr := json.Unmarshal(body, &restErr); jsonErr != nil || restErr.Error.Message == "" {
			return nil, &AuthError{Code: CodeUnknown, Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
		}
		return nil, &AuthError{
			Code: codeFromREST(restErr.Error.Message),
			Err:  fmt.Errorf("status %d: %s", resp.StatusCode, restErr.Error.Message),
		}
	}
	return body, nil
}
