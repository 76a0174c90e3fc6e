package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"currency-recognition-app/internal/modules/currency/domain"
)

// MockCacheRepository モックキャッシュリポジトリ
type MockCacheRepository struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	SetFunc func(ctx context.Context, key string, value []byte, expiration time.Duration) error
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = expiration
	return nil
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("cache miss")
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *MockCacheRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func TestCachedProvider_CachesStructuredResults(t *testing.T) {
	inner := &MockProvider{ProviderName: "openai"}
	cache := NewMockCacheRepository()
	provider := NewCachedProvider(inner, cache, time.Hour)

	first, err := provider.Analyze(context.Background(), testImage, "image/jpeg")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	second, err := provider.Analyze(context.Background(), testImage, "image/jpeg")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if inner.Calls() != 1 {
		t.Errorf("inner calls = %d, want 1", inner.Calls())
	}
	if second.Outcome != domain.OutcomeStructured || len(second.Detections) != len(first.Detections) {
		t.Errorf("cached result = %+v, want %+v", second, first)
	}
	if provider.Name() != "openai" {
		t.Errorf("Name() = %s, want openai", provider.Name())
	}

	key := cacheKey("openai", testImage)
	if !strings.HasPrefix(key, "currency:openai:") {
		t.Errorf("cacheKey() = %s", key)
	}
	if cache.ttls[key] != time.Hour {
		t.Errorf("ttl = %v, want 1h", cache.ttls[key])
	}
}

func TestCachedProvider_DoesNotCacheDegradedResults(t *testing.T) {
	tests := []struct {
		name   string
		result *domain.CurrencyAnalysisResult
	}{
		{name: "異常系: 失敗結果", result: domain.NewFailedResult("openai", "API returned status 503")},
		{name: "異常系: 非構造化結果", result: domain.NewUnparsedResult("openai", "two bills", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &MockProvider{
				ProviderName: "openai",
				AnalyzeFunc: func(ctx context.Context, imageData []byte, mimeType string) (*domain.CurrencyAnalysisResult, error) {
					return tt.result, nil
				},
			}
			cache := NewMockCacheRepository()
			provider := NewCachedProvider(inner, cache, 0)

			for i := 0; i < 2; i++ {
				if _, err := provider.Analyze(context.Background(), testImage, "image/jpeg"); err != nil {
					t.Fatalf("Analyze() error = %v", err)
				}
			}

			if inner.Calls() != 2 {
				t.Errorf("inner calls = %d, want 2", inner.Calls())
			}
			if cache.Len() != 0 {
				t.Errorf("cache entries = %d, want 0", cache.Len())
			}
		})
	}
}

func TestCachedProvider_CacheWriteFailureIsIgnored(t *testing.T) {
	inner := &MockProvider{ProviderName: "gemini"}
	cache := NewMockCacheRepository()
	cache.SetFunc = func(ctx context.Context, key string, value []byte, expiration time.Duration) error {
		return errors.New("redis unavailable")
	}
	provider := NewCachedProvider(inner, cache, time.Hour)

	result, err := provider.Analyze(context.Background(), testImage, "image/png")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.Outcome != domain.OutcomeStructured {
		t.Errorf("Outcome = %s, want structured", result.Outcome)
	}
}

func TestCachedProvider_IgnoresCorruptEntries(t *testing.T) {
	inner := &MockProvider{ProviderName: "openai"}
	cache := NewMockCacheRepository()
	cache.data[cacheKey("openai", testImage)] = []byte("not json")
	provider := NewCachedProvider(inner, cache, time.Hour)

	if _, err := provider.Analyze(context.Background(), testImage, "image/jpeg"); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if inner.Calls() != 1 {
		t.Errorf("inner calls = %d, want 1", inner.Calls())
	}
}

func TestCachedProvider_InvalidInput(t *testing.T) {
	inner := &MockProvider{ProviderName: "openai"}
	provider := NewCachedProvider(inner, NewMockCacheRepository(), time.Hour)

	_, err := provider.Analyze(context.Background(), testImage, "text/html")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("error = %v, want InvalidInputError", err)
	}
	if inner.Calls() != 0 {
		t.Errorf("inner calls = %d, want 0", inner.Calls())
	}
}
