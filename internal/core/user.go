package core

import (
	"errors"
	"strings"
	"time"
)

// User is an account that owns categories and transactions. PasswordHash is
// a bcrypt hash and never leaves the auth/storage layers.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrEmptyUser    = errors.New("empty display name")
)

func (u User) Validate() error {
	if !strings.Contains(u.Email, "@") || strings.TrimSpace(u.Email) == "" {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyUser
	}
	return nil
}
