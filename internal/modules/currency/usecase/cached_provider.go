package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"currency-recognition-app/internal/modules/currency/domain"
)

// DefaultCacheTTL 解析結果キャッシュの有効期限
const DefaultCacheTTL = 24 * time.Hour

// CachedProvider 構造化された解析結果を画像ハッシュ単位でキャッシュするプロバイダー
type CachedProvider struct {
	inner  domain.Provider
	cache  domain.CacheRepository
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedProvider 新しいCachedProviderを作成
func NewCachedProvider(inner domain.Provider, cache domain.CacheRepository, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: slog.Default(),
	}
}

// Name 内側のプロバイダー名を返す
func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

// Analyze キャッシュを確認し、なければ内側のプロバイダーで解析する
func (p *CachedProvider) Analyze(ctx context.Context, imageData []byte, mimeType string) (*domain.CurrencyAnalysisResult, error) {
	if err := domain.ValidateImage(imageData, mimeType); err != nil {
		return nil, err
	}

	key := cacheKey(p.Name(), imageData)

	if cached, ok := p.lookup(ctx, key); ok {
		p.logger.Debug("currency cache hit", "provider", p.Name(), "key", key)
		return cached, nil
	}

	result, err := p.inner.Analyze(ctx, imageData, mimeType)
	if err != nil {
		return nil, err
	}

	// 失敗・非構造化の結果は一時的な可能性があるため保存しない
	if result != nil && !result.IsDegraded() {
		if data, err := json.Marshal(result); err == nil {
			if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
				p.logger.Warn("failed to store currency cache", "provider", p.Name(), "error", err)
			}
		}
	}

	return result, nil
}

func (p *CachedProvider) lookup(ctx context.Context, key string) (*domain.CurrencyAnalysisResult, bool) {
	data, err := p.cache.Get(ctx, key)
	if err != nil || len(data) == 0 {
		return nil, false
	}

	var result domain.CurrencyAnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	if result.IsDegraded() || result.Validate() != nil {
		return nil, false
	}
	return &result, true
}

// cacheKey 画像データのSHA256ハッシュからキーを生成
func cacheKey(providerName string, imageData []byte) string {
	hash := sha256.Sum256(imageData)
	return fmt.Sprintf("currency:%s:%s", providerName, hex.EncodeToString(hash[:]))
}
