package domain

import (
	"strings"
)

// CurrencyType 通貨種別（UAH/USD/EUR以外はプロバイダーの出力をそのまま保持）
type CurrencyType string

const (
	CurrencyUAH CurrencyType = "UAH"
	CurrencyUSD CurrencyType = "USD"
	CurrencyEUR CurrencyType = "EUR"
)

// NormalizeCurrencyType 通貨種別を大文字・前後空白なしに正規化
func NormalizeCurrencyType(s string) CurrencyType {
	return CurrencyType(strings.ToUpper(strings.TrimSpace(s)))
}

// IsKnown 既知の通貨種別かどうか
func (c CurrencyType) IsKnown() bool {
	switch c {
	case CurrencyUAH, CurrencyUSD, CurrencyEUR:
		return true
	}
	return false
}

// Confidence 検出の確信度
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// NormalizeConfidence 確信度を正規化（不明な値はlow）
func NormalizeConfidence(s string) Confidence {
	switch Confidence(strings.ToLower(strings.TrimSpace(s))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// CurrencyDetection 検出された紙幣・硬貨のグループ
type CurrencyDetection struct {
	CurrencyType CurrencyType `json:"currency_type"`
	Denomination string       `json:"denomination"`
	Quantity     int          `json:"quantity"`
	Confidence   Confidence   `json:"confidence"`
}

// NewCurrencyDetection 正規化済みのCurrencyDetectionを作成
// quantityが1未満の場合は1として扱う
func NewCurrencyDetection(currencyType, denomination string, quantity int, confidence string) CurrencyDetection {
	if quantity < 1 {
		quantity = 1
	}
	return CurrencyDetection{
		CurrencyType: NormalizeCurrencyType(currencyType),
		Denomination: strings.TrimSpace(denomination),
		Quantity:     quantity,
		Confidence:   NormalizeConfidence(confidence),
	}
}
