package auth

import (
	"errors"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Identity represents an authenticated dashboard user. User carries the
// record returned by the backend authentication API, including its role.
type Identity struct {
	UserID    string         `json:"user_id"`
	Email     string         `json:"email"`
	User      map[string]any `json:"user"`
	TokenType string         `json:"token_type"`
}
