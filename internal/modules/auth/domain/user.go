package domain

import (
	"context"
	"errors"
	"time"
)

// User 認証済みの利用者
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Token 発行されたアクセストークン
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Claims トークンから取り出した利用者情報
type Claims struct {
	UserID   string
	Username string
}

// UserRepository 利用者リポジトリのインターフェース
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
}

// TokenIssuer アクセストークンの発行と検証
type TokenIssuer interface {
	Issue(user *User) (*Token, error)
	Verify(token string) (*Claims, error)
}

var (
	// ErrUsernameTaken ユーザー名が既に登録されている
	ErrUsernameTaken = errors.New("username already registered")
	// ErrInvalidCredentials ユーザー名またはパスワードが正しくない
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthorized トークンが無効
	ErrUnauthorized = errors.New("could not validate credentials")
	// ErrUserNotFound 利用者が見つからない
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidUserInput 登録内容が不正
	ErrInvalidUserInput = errors.New("invalid user input")
)
