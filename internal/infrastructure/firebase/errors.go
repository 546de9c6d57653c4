package firebase

import (
	"errors"
	"fmt"
	"strings"

	"firebase.google.com/go/v4/auth"
)

// Identity Toolkit error codes the service reacts to.
const (
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeInvalidEmail       = "INVALID_EMAIL"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeEmailNotFound      = "EMAIL_NOT_FOUND"
	CodeInvalidPassword    = "INVALID_PASSWORD"
	CodeInvalidCredentials = "INVALID_LOGIN_CREDENTIALS"
	CodeUserDisabled       = "USER_DISABLED"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidRefresh     = "INVALID_REFRESH_TOKEN"
	CodeUnknown            = "UNKNOWN"
)

var friendlyMessages = map[string]string{
	CodeEmailExists:        "This email is already in use.",
	CodeInvalidEmail:       "Invalid email address.",
	CodeWeakPassword:       "Password should be at least 6 characters.",
	CodeEmailNotFound:      "No user found with this email.",
	CodeInvalidPassword:    "Incorrect password.",
	CodeInvalidCredentials: "Incorrect email or password.",
	CodeUserDisabled:       "This account has been disabled.",
	CodeTokenExpired:       "Your session has expired. Please sign in again.",
	CodeInvalidRefresh:     "Your session has expired. Please sign in again.",
}

const fallbackMessage = "Something went wrong. Please try again."

// AuthError is a failure reported by the auth provider, reduced to its code.
type AuthError struct {
	Code string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth provider error %s: %v", e.Code, e.Err)
	}
	return "auth provider error " + e.Code
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func (e *AuthError) ErrorCode() string {
	return e.Code
}

// FriendlyMessage is the text shown to end users for this failure.
func (e *AuthError) FriendlyMessage() string {
	return FriendlyMessage(e.Code)
}

// IsCredentialError reports whether the failure is the caller's fault
// rather than the provider's.
func (e *AuthError) IsCredentialError() bool {
	_, ok := friendlyMessages[e.Code]
	return ok
}

func FriendlyMessage(code string) string {
	if msg, ok := friendlyMessages[code]; ok {
		return msg
	}
	return fallbackMessage
}

// AsAuthError unwraps err into an *AuthError.
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	ok := errors.As(err, &authErr)
	return authErr, ok
}

// codeFromREST reduces an Identity Toolkit message such as
// "WEAK_PASSWORD : Password should be at least 6 characters" to its code.
func codeFromREST(message string) string {
	code := strings.TrimSpace(message)
	if i := strings.IndexAny(code, " :"); i >= 0 {
		code = code[:i]
	}
	if code == "" {
		return CodeUnknown
	}
	return code
}

// fromAdminError maps Admin SDK errors onto the same codes as the REST API.
func fromAdminError(err error) error {
	if err == nil {
		return nil
	}

	code := CodeUnknown
	switch {
	case auth.IsEmailAlreadyExists(err):
		code = CodeEmailExists
	case auth.IsUserNotFound(err):
		code = CodeEmailNotFound
	case auth.IsIDTokenExpired(err):
		code = CodeTokenExpired
	case strings.Contains(err.Error(), "email must be a non-empty string"),
		strings.Contains(err.Error(), "malformed email"):
		code = CodeInvalidEmail
	case strings.Contains(err.Error(), "password must be a string at least 6 characters long"):
		code = CodeWeakPassword
	}
	return &AuthError{Code: code, Err: err}
}
