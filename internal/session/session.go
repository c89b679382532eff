package session

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Session is a refresh-token login. Only the sha256 of the token is stored.
type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash string
	UserAgent        string
	IPAddress        string
	RememberMe       bool
	ExpiresAt        time.Time
	CreatedAt        time.Time
	LastUsedAt       time.Time
}
