package di

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"

	"currency-recognition-app/internal/config"
	authHandler "currency-recognition-app/internal/modules/auth/presentation/handler"
	authUsecase "currency-recognition-app/internal/modules/auth/usecase"
	currencyDomain "currency-recognition-app/internal/modules/currency/domain"
	currencyHandler "currency-recognition-app/internal/modules/currency/presentation/handler"
	currencyUsecase "currency-recognition-app/internal/modules/currency/usecase"
	sharedAI "currency-recognition-app/internal/modules/shared/infrastructure/ai"
	sharedAuth "currency-recognition-app/internal/modules/shared/infrastructure/auth"
	sharedCache "currency-recognition-app/internal/modules/shared/infrastructure/cache"
	sharedDB "currency-recognition-app/internal/modules/shared/infrastructure/database"
	"currency-recognition-app/internal/presentation/http/handler"
)

// Container DIコンテナ
type Container struct {
	// Shared Infrastructure
	db           *bun.DB
	cacheRepo    *sharedCache.RedisRepository
	analysisRepo *sharedDB.BunAnalysisRepository
	userRepo     *sharedDB.BunUserRepository
	tokenIssuer  *sharedAuth.JWTIssuer

	// Currency Module
	dualAnalyzer    *currencyUsecase.DualAnalyzer
	analysisUseCase *currencyUsecase.AnalysisUseCase
	currencyHandler *currencyHandler.CurrencyHandler

	// Auth Module
	authUseCase *authUsecase.AuthUseCase
	authHandler *authHandler.AuthHandler

	healthHandler *handler.HealthHandler
}

// NewContainer 新しいContainerを作成
func NewContainer(cfg *config.Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	container := &Container{}

	// Shared Infrastructure: Database
	db, err := sharedDB.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	container.db = db

	if err := sharedDB.EnsureSchema(context.Background(), db); err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	container.analysisRepo = sharedDB.NewBunAnalysisRepository(db)
	container.userRepo = sharedDB.NewBunUserRepository(db)

	// Shared Infrastructure: Cache Repository（接続できなければキャッシュなしで動作）
	if cfg.Redis.Enabled {
		cacheRepo, err := sharedCache.NewRedisRepository(&cfg.Redis)
		if err != nil {
			slog.Warn("Redis unavailable, analysis cache disabled", "error", err)
		} else {
			container.cacheRepo = cacheRepo
		}
	}

	// Shared Infrastructure: AI Providers
	providers := make([]currencyDomain.Provider, 0, len(cfg.Analysis.Providers))
	for _, name := range cfg.Analysis.Providers {
		provider, err := sharedAI.NewProvider(name, cfg)
		if err != nil {
			_ = container.Close()
			return nil, fmt.Errorf("failed to initialize provider: %w", err)
		}
		if container.cacheRepo != nil {
			provider = currencyUsecase.NewCachedProvider(provider, container.cacheRepo, cfg.Analysis.CacheTTL())
		}
		providers = append(providers, provider)
	}

	// Currency Module: UseCase
	dualAnalyzer, err := currencyUsecase.NewDualAnalyzer(providers[0], providers[1], cfg.Analysis.ProviderTimeout())
	if err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to initialize analyzer: %w", err)
	}
	container.dualAnalyzer = dualAnalyzer
	container.analysisUseCase = currencyUsecase.NewAnalysisUseCase(dualAnalyzer, container.analysisRepo, nil)

	// Currency Module: Handler
	container.currencyHandler = currencyHandler.NewCurrencyHandler(container.analysisUseCase)

	// Auth Module
	tokenIssuer, err := newTokenIssuer(cfg.Auth)
	if err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	container.tokenIssuer = tokenIssuer
	container.authUseCase = authUsecase.NewAuthUseCase(container.userRepo, tokenIssuer)
	container.authHandler = authHandler.NewAuthHandler(container.authUseCase)

	// Health Check
	container.healthHandler = handler.NewHealthHandler()
	container.healthHandler.AddCheck("database", db.PingContext)
	if container.cacheRepo != nil {
		container.healthHandler.AddCheck("cache", container.cacheRepo.Ping)
	}

	return container, nil
}

// newTokenIssuer JWT発行者を作成
// 秘密鍵が未設定の場合は起動ごとに使い捨ての鍵を生成する
func newTokenIssuer(cfg config.AuthConfig) (*sharedAuth.JWTIssuer, error) {
	if cfg.JWTSecret == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		cfg.JWTSecret = hex.EncodeToString(secret)
		slog.Warn("JWT_SECRET is not set, using an ephemeral secret; tokens will not survive a restart")
	}
	return sharedAuth.NewJWTIssuer(&cfg)
}

// DualAnalyzer 2プロバイダー解析を取得
func (c *Container) DualAnalyzer() *currencyUsecase.DualAnalyzer {
	return c.dualAnalyzer
}

// AnalysisUseCase 通貨解析ユースケースを取得
func (c *Container) AnalysisUseCase() *currencyUsecase.AnalysisUseCase {
	return c.analysisUseCase
}

// AuthUseCase 認証ユースケースを取得
func (c *Container) AuthUseCase() *authUsecase.AuthUseCase {
	return c.authUseCase
}

// CurrencyHandler 通貨解析APIハンドラーを取得
func (c *Container) CurrencyHandler() *currencyHandler.CurrencyHandler {
	return c.currencyHandler
}

// AuthHandler 認証APIハンドラーを取得
func (c *Container) AuthHandler() *authHandler.AuthHandler {
	return c.authHandler
}

// HealthHandler ヘルスチェックハンドラーを取得
func (c *Container) HealthHandler() *handler.HealthHandler {
	return c.healthHandler
}

// CacheEnabled 解析結果キャッシュが有効か
func (c *Container) CacheEnabled() bool {
	return c.cacheRepo != nil
}

// Close リソースをクローズ
func (c *Container) Close() error {
	var errs []error

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache repository: %w", err))
		}
		c.cacheRepo = nil
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
		c.db = nil
	}

	return errors.Join(errs...)
}
