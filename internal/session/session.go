// Package session owns the signed-in user's tokens: it signs in through the
// auth service, keeps the token in a TokenStore, refreshes it when it
// expires and answers "who is signed in right now".
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
)

// ErrNoSession is returned by operations that need a signed-in user
var ErrNoSession = errors.New("no active session")

// Accessor reports the current session. It returns nil, nil when nobody is signed in.
type Accessor interface {
	Session(ctx context.Context) (*models.Session, error)
}

// AuthError carries a human-readable message from the auth service
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return e.Message
}

// authErrorFromBody builds an AuthError from an auth service error body.
// The service is not consistent about which field carries the text.
func authErrorFromBody(statusCode int, body []byte) *AuthError {
	var payload struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
	}
	message := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, candidate := range []string{payload.ErrorDescription, payload.Msg, payload.Message, payload.Error} {
			if strings.TrimSpace(candidate) != "" {
				message = candidate
				break
			}
		}
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}
	if message == "" {
		message = "authentication failed"
	}
	return &AuthError{StatusCode: statusCode, Message: message}
}
