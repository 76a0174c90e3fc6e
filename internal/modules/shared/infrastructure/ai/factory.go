package ai

import (
	"fmt"
	"strings"

	"currency-recognition-app/internal/config"
	"currency-recognition-app/internal/modules/currency/domain"
)

// NewProvider 設定のプロバイダー名からアダプターを作成
func NewProvider(name string, cfg *config.Config) (domain.Provider, error) {
	switch strings.ToLower(name) {
	case config.ProviderOpenAI:
		return NewOpenAIProvider(&cfg.OpenAI), nil
	case config.ProviderGemini:
		return NewGeminiProvider(&cfg.Gemini), nil
	case config.ProviderAnthropic:
		return NewClaudeProvider(&cfg.Anthropic), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", name)
	}
}
