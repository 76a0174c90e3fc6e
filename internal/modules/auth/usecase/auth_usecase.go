package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"currency-recognition-app/internal/modules/auth/domain"
)

// MinPasswordLength パスワードの最小文字数
const MinPasswordLength = 6

// AuthUseCase 利用者登録・ログイン・トークン検証のユースケース
type AuthUseCase struct {
	userRepo   domain.UserRepository
	issuer     domain.TokenIssuer
	bcryptCost int
	now        func() time.Time
}

// NewAuthUseCase 新しいAuthUseCaseを作成
func NewAuthUseCase(userRepo domain.UserRepository, issuer domain.TokenIssuer) *AuthUseCase {
	return &AuthUseCase{
		userRepo:   userRepo,
		issuer:     issuer,
		bcryptCost: bcrypt.DefaultCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetBcryptCost ハッシュのコストを変更（テストで使用）
func (uc *AuthUseCase) SetBcryptCost(cost int) {
	uc.bcryptCost = cost
}

// Register 利用者を登録してトークンを返す
func (uc *AuthUseCase) Register(ctx context.Context, username, password string) (*domain.Token, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrInvalidUserInput)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidUserInput, MinPasswordLength)
	}

	existing, err := uc.userRepo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrUsernameTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), uc.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:             uuid.NewString(),
		Username:       username,
		HashedPassword: string(hashed),
		CreatedAt:      uc.now(),
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return uc.issuer.Issue(user)
}

// Login 認証してトークンを返す
func (uc *AuthUseCase) Login(ctx context.Context, username, password string) (*domain.Token, error) {
	user, err := uc.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return uc.issuer.Issue(user)
}

// Authenticate トークンを検証して利用者を返す
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrUnauthorized
	}

	claims, err := uc.issuer.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	user, err := uc.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return user, nil
}
