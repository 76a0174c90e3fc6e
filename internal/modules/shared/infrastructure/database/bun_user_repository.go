package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"currency-recognition-app/internal/modules/auth/domain"
)

// User BUNモデル
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID             string    `bun:"id,pk,type:varchar(36)"`
	Username       string    `bun:"username,notnull,unique,type:varchar(150)"`
	HashedPassword string    `bun:"hashed_password,notnull,type:varchar(255)"`
	CreatedAt      time.Time `bun:"created_at,notnull,type:datetime(6)"`
}

// BunUserRepository BUN実装
type BunUserRepository struct {
	db *bun.DB
}

// NewBunUserRepository DBインスタンスから作成
func NewBunUserRepository(db *bun.DB) *BunUserRepository {
	return &BunUserRepository{db: db}
}

// Create 利用者を作成
func (r *BunUserRepository) Create(ctx context.Context, user *domain.User) error {
	model := &User{
		ID:             user.ID,
		Username:       user.Username,
		HashedPassword: user.HashedPassword,
		CreatedAt:      user.CreatedAt.UTC(),
	}

	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByUsername ユーザー名で利用者を検索
func (r *BunUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

// FindByID IDで利用者を検索
func (r *BunUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *BunUserRepository) findOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	model := &User{}
	err := r.db.NewSelect().
		Model(model).
		Where(where, arg).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &domain.User{
		ID:             model.ID,
		Username:       model.Username,
		HashedPassword: model.HashedPassword,
		CreatedAt:      model.CreatedAt.UTC(),
	}, nil
}
