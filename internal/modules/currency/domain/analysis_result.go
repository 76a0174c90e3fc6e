package domain

import (
	"fmt"
	"time"
)

// Outcome プロバイダー結果の種別
type Outcome string

const (
	// OutcomeStructured 構造化データとして解釈できた
	OutcomeStructured Outcome = "structured"
	// OutcomeUnparsed 応答はあったが構造化できなかった（生の応答を保持）
	OutcomeUnparsed Outcome = "unparsed"
	// OutcomeFailed 呼び出し自体が失敗した
	OutcomeFailed Outcome = "failed"
)

// CurrencyAnalysisResult 1プロバイダー・1画像分の正規化済み解析結果
//
// Outcomeごとに有効なフィールドが決まる:
//   - structured: Detections（1件以上）, TotalValue, Notes
//   - unparsed:   RawResponse, Notes
//   - failed:     ErrorMessage
type CurrencyAnalysisResult struct {
	ProviderName string              `json:"provider_name"`
	Model        string              `json:"model,omitempty"`
	Outcome      Outcome             `json:"outcome"`
	Detections   []CurrencyDetection `json:"detections"`
	TotalValue   string              `json:"total_value,omitempty"`
	Notes        string              `json:"notes,omitempty"`
	RawResponse  string              `json:"raw_response,omitempty"`
	ErrorMessage string              `json:"error_message,omitempty"`
	Duration     time.Duration       `json:"duration_ns,omitempty"`
}

// NewStructuredResult 構造化結果を作成
// 検出が0件の場合は構造化結果として扱えないためnilを返す
func NewStructuredResult(providerName string, detections []CurrencyDetection, totalValue, notes string) *CurrencyAnalysisResult {
	if len(detections) == 0 {
		return nil
	}
	copied := make([]CurrencyDetection, len(detections))
	copy(copied, detections)
	return &CurrencyAnalysisResult{
		ProviderName: providerName,
		Outcome:      OutcomeStructured,
		Detections:   copied,
		TotalValue:   totalValue,
		Notes:        notes,
	}
}

// NewUnparsedResult 構造化できなかった応答を保持する結果を作成
func NewUnparsedResult(providerName, rawResponse, notes string) *CurrencyAnalysisResult {
	if rawResponse == "" {
		return NewFailedResult(providerName, "provider returned an empty response")
	}
	return &CurrencyAnalysisResult{
		ProviderName: providerName,
		Outcome:      OutcomeUnparsed,
		Detections:   []CurrencyDetection{},
		RawResponse:  rawResponse,
		Notes:        notes,
	}
}

// NewFailedResult 失敗結果を作成
func NewFailedResult(providerName, errorMessage string) *CurrencyAnalysisResult {
	if errorMessage == "" {
		errorMessage = "unknown provider error"
	}
	return &CurrencyAnalysisResult{
		ProviderName: providerName,
		Outcome:      OutcomeFailed,
		Detections:   []CurrencyDetection{},
		ErrorMessage: errorMessage,
	}
}

// IsDegraded 構造化された検出結果を持たないかどうか
func (r *CurrencyAnalysisResult) IsDegraded() bool {
	return r.Outcome != OutcomeStructured
}

// Validate Outcomeとフィールドの整合性を検証
func (r *CurrencyAnalysisResult) Validate() error {
	switch r.Outcome {
	case OutcomeStructured:
		if len(r.Detections) == 0 {
			return fmt.Errorf("structured result from %s has no detections", r.ProviderName)
		}
		for i, d := range r.Detections {
			if d.Quantity < 1 {
				return fmt.Errorf("detection %d from %s has quantity %d", i, r.ProviderName, d.Quantity)
			}
		}
		if r.ErrorMessage != "" {
			return fmt.Errorf("structured result from %s carries an error message", r.ProviderName)
		}
	case OutcomeUnparsed:
		if r.RawResponse == "" {
			return fmt.Errorf("unparsed result from %s has no raw response", r.ProviderName)
		}
		if len(r.Detections) != 0 {
			return fmt.Errorf("unparsed result from %s has detections", r.ProviderName)
		}
	case OutcomeFailed:
		if r.ErrorMessage == "" {
			return fmt.Errorf("failed result from %s has no error message", r.ProviderName)
		}
		if len(r.Detections) != 0 {
			return fmt.Errorf("failed result from %s has detections", r.ProviderName)
		}
	default:
		return fmt.Errorf("unknown outcome %q from %s", r.Outcome, r.ProviderName)
	}
	return nil
}
