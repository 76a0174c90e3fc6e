package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"currency-recognition-app/internal/config"
	"currency-recognition-app/internal/modules/currency/domain"
)

// OpenAIProvider OpenAI Chat Completions APIによる通貨認識
type OpenAIProvider struct {
	apiKey      string
	model       string
	maxTokens   int
	httpClient  *http.Client
	apiEndpoint string
}

// NewOpenAIProvider 新しいOpenAIProviderを作成
func NewOpenAIProvider(cfg *config.OpenAIConfig) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		httpClient:  newHTTPClient(),
		apiEndpoint: cfg.Endpoint,
	}
}

// SetHTTPClient テスト用にHTTPクライアントを設定（テストコードからのみ使用）
func (p *OpenAIProvider) SetHTTPClient(client *http.Client) {
	p.httpClient = client
}

// Name プロバイダー名を返す
func (p *OpenAIProvider) Name() string {
	return config.ProviderOpenAI
}

// Analyze 画像から通貨を認識
func (p *OpenAIProvider) Analyze(ctx context.Context, imageData []byte, mimeType string) (*domain.CurrencyAnalysisResult, error) {
	return analyzeImage(ctx, p.Name(), p.model, p.apiKey, imageData, mimeType, p.send)
}

func (p *OpenAIProvider) send(ctx context.Context, mediaType, imageBase64 string) (string, error) {
	requestBody := map[string]any{
		"model":      p.model,
		"max_tokens": p.maxTokens,
		"messages": []map[string]any{
			{
				"role":    "system",
				"content": systemPromptCurrency,
			},
			{
				"role": "user",
				"content": []map[string]any{
					{
						"type": "text",
						"text": userPromptCurrency,
					},
					{
						"type": "image_url",
						"image_url": map[string]string{
							"url": fmt.Sprintf("data:%s;base64,%s", mediaType, imageBase64),
						},
					},
				},
			},
		},
	}

	headers := map[string]string{
		"Authorization": "Bearer " + p.apiKey,
	}

	var response struct {
		Choices []struct {
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
				Refusal string `json:"refusal"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}

	if err := postJSON(ctx, p.httpClient, p.apiEndpoint, headers, requestBody, &response); err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	message := response.Choices[0].Message
	if message.Content == "" && message.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", message.Refusal)
	}

	return message.Content, nil
}
