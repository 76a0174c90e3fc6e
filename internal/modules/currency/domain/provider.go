package domain

import "context"

// Provider 外部AIビジョンサービスのアダプター
type Provider interface {
	// Name 結果のキーとなるプロバイダー名
	Name() string

	// Analyze 画像を解析して正規化済みの結果を返す
	// 返すエラーは入力検証のInvalidInputErrorのみで、リモート側の失敗はOutcomeFailedの結果として返す
	Analyze(ctx context.Context, imageData []byte, mimeType string) (*CurrencyAnalysisResult, error)
}
