package domain

import (
	"context"
	"time"
)

// AnalysisRepository 解析結果リポジトリのインターフェース
type AnalysisRepository interface {
	Create(ctx context.Context, record *AnalysisRecord) error
	FindByID(ctx context.Context, id string) (*AnalysisRecord, error)
	// FindByOwner 新しい順に取得
	FindByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*AnalysisRecord, error)
}

// CacheRepository キャッシュリポジトリのインターフェース
type CacheRepository interface {
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
