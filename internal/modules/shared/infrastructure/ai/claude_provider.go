package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"currency-recognition-app/internal/config"
	"currency-recognition-app/internal/modules/currency/domain"
)

// ClaudeProvider Anthropic Messages APIによる通貨認識
type ClaudeProvider struct {
	apiKey      string
	model       string
	maxTokens   int
	httpClient  *http.Client
	apiEndpoint string
}

// NewClaudeProvider 新しいClaudeProviderを作成
func NewClaudeProvider(cfg *config.AnthropicConfig) *ClaudeProvider {
	return &ClaudeProvider{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		httpClient:  newHTTPClient(),
		apiEndpoint: cfg.Endpoint,
	}
}

// SetHTTPClient テスト用にHTTPクライアントを設定（テストコードからのみ使用）
func (p *ClaudeProvider) SetHTTPClient(client *http.Client) {
	p.httpClient = client
}

// Name プロバイダー名を返す
func (p *ClaudeProvider) Name() string {
	return config.ProviderAnthropic
}

// Analyze 画像から通貨を認識
func (p *ClaudeProvider) Analyze(ctx context.Context, imageData []byte, mimeType string) (*domain.CurrencyAnalysisResult, error) {
	return analyzeImage(ctx, p.Name(), p.model, p.apiKey, imageData, mimeType, p.send)
}

func (p *ClaudeProvider) send(ctx context.Context, mediaType, imageBase64 string) (string, error) {
	requestBody := map[string]interface{}{
		"model":      p.model,
		"max_tokens": p.maxTokens,
		"system":     systemPromptCurrency,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "image",
						"source": map[string]string{
							"type":       "base64",
							"media_type": mediaType,
							"data":       imageBase64,
						},
					},
					{
						"type": "text",
						"text": userPromptCurrency,
					},
				},
			},
		},
	}

	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	}

	var response struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
	}

	if err := postJSON(ctx, p.httpClient, p.apiEndpoint, headers, requestBody, &response); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range response.Content {
		if block.Type == "" || block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("response contained no text content")
	}

	return sb.String(), nil
}
