package user

import (
	"errors"
	"time"
)

const (
	RoleUser  = "USER"
	RoleStaff = "STAFF"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsStaff reports whether u may manage books and see every borrowing.
func (u User) IsStaff() bool {
	return u.Role == RoleStaff
}
