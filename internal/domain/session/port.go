package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no session exists for an id.
var ErrNotFound = errors.New("session not found")

// Repository port for persisting sessions
type Repository interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	ClearToken(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Credentials body of POST /auth/login
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token response of POST /auth/login
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Authenticator port (backend login endpoint)
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (*Token, error)
}
