package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"currency-recognition-app/internal/modules/currency/domain"
)

// sendFunc プロバイダー固有のリクエストを送信して応答テキストを返す
type sendFunc func(ctx context.Context, mediaType, imageBase64 string) (string, error)

// analyzeImage 各プロバイダー共通の処理
// 入力検証以外のエラーはすべてOutcomeFailedの結果に変換して返す
func analyzeImage(ctx context.Context, providerName, model, apiKey string, imageData []byte, mimeType string, send sendFunc) (*domain.CurrencyAnalysisResult, error) {
	if err := domain.ValidateImage(imageData, mimeType); err != nil {
		return nil, err
	}

	start := time.Now()
	result := func() *domain.CurrencyAnalysisResult {
		if apiKey == "" {
			return domain.NewFailedResult(providerName, "API key is not configured")
		}

		// 画像をbase64エンコード
		imageBase64 := base64.StdEncoding.EncodeToString(imageData)

		text, err := send(ctx, domain.NormalizeMimeType(mimeType), imageBase64)
		if err != nil {
			return domain.NewFailedResult(providerName, describeError(ctx, err))
		}
		return parseCurrencyResponse(providerName, text)
	}()

	result.Model = model
	result.Duration = time.Since(start)
	return result, nil
}

// describeError タイムアウト・キャンセルを判別しやすいメッセージにする
func describeError(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Sprintf("request timed out: %v", err)
	case errors.Is(err, context.Canceled):
		return fmt.Sprintf("request canceled: %v", err)
	default:
		return err.Error()
	}
}
