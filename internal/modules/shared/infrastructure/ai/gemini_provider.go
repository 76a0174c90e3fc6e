package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"currency-recognition-app/internal/config"
	"currency-recognition-app/internal/modules/currency/domain"
)

// GeminiProvider Google Gemini generateContent APIによる通貨認識
type GeminiProvider struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
}

// NewGeminiProvider 新しいGeminiProviderを作成
func NewGeminiProvider(cfg *config.GeminiConfig) *GeminiProvider {
	return &GeminiProvider{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: newHTTPClient(),
		baseURL:    strings.TrimRight(cfg.Endpoint, "/"),
	}
}

// SetHTTPClient テスト用にHTTPクライアントを設定（テストコードからのみ使用）
func (p *GeminiProvider) SetHTTPClient(client *http.Client) {
	p.httpClient = client
}

// Name プロバイダー名を返す
func (p *GeminiProvider) Name() string {
	return config.ProviderGemini
}

// Analyze 画像から通貨を認識
func (p *GeminiProvider) Analyze(ctx context.Context, imageData []byte, mimeType string) (*domain.CurrencyAnalysisResult, error) {
	return analyzeImage(ctx, p.Name(), p.model, p.apiKey, imageData, mimeType, p.send)
}

func (p *GeminiProvider) endpoint() string {
	return fmt.Sprintf("%s/%s:generateContent", p.baseURL, p.model)
}

func (p *GeminiProvider) send(ctx context.Context, mediaType, imageBase64 string) (string, error) {
	requestBody := map[string]any{
		"system_instruction": map[string]any{
			"parts": []map[string]any{
				{"text": systemPromptCurrency},
			},
		},
		"contents": []map[string]any{
			{
				"role": "user",
				"parts": []map[string]any{
					{"text": userPromptCurrency},
					{
						"inline_data": map[string]string{
							"mime_type": mediaType,
							"data":      imageBase64,
						},
					},
				},
			},
		},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
		},
	}

	headers := map[string]string{
		"x-goog-api-key": p.apiKey,
	}

	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}

	if err := postJSON(ctx, p.httpClient, p.endpoint(), headers, requestBody, &response); err != nil {
		return "", err
	}

	if response.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("request blocked: %s", response.PromptFeedback.BlockReason)
	}
	if len(response.Candidates) == 0 {
		return "", errors.New("no candidates returned")
	}

	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	return sb.String(), nil
}
