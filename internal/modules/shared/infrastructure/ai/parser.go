package ai

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"currency-recognition-app/internal/modules/currency/domain"
)

// currencyResponse プロンプトで指定したJSONスキーマ
type currencyResponse struct {
	CurrenciesDetected []struct {
		CurrencyType flexString `json:"currency_type"`
		Denomination flexString `json:"denomination"`
		Quantity     flexInt    `json:"quantity"`
		Confidence   flexString `json:"confidence"`
	} `json:"currencies_detected"`
	TotalValue flexString `json:"total_value"`
	Notes      flexString `json:"notes"`
}

// parseCurrencyResponse プロバイダーの応答テキストを正規化済みの結果に変換
// 構造化できない場合も応答は捨てずにOutcomeUnparsedとして保持する
func parseCurrencyResponse(providerName, text string) *domain.CurrencyAnalysisResult {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return domain.NewFailedResult(providerName, "provider returned an empty response")
	}

	var parsed currencyResponse
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &parsed); err != nil {
		return domain.NewUnparsedResult(providerName, raw, "")
	}

	detections := make([]domain.CurrencyDetection, 0, len(parsed.CurrenciesDetected))
	for _, c := range parsed.CurrenciesDetected {
		if strings.TrimSpace(string(c.CurrencyType)) == "" && strings.TrimSpace(string(c.Denomination)) == "" {
			continue
		}
		detections = append(detections, domain.NewCurrencyDetection(
			string(c.CurrencyType),
			string(c.Denomination),
			int(c.Quantity),
			string(c.Confidence),
		))
	}

	if len(detections) == 0 {
		return domain.NewUnparsedResult(providerName, raw, string(parsed.Notes))
	}

	return domain.NewStructuredResult(providerName, detections, string(parsed.TotalValue), string(parsed.Notes))
}

// cleanJSON ```json```で囲まれた応答や前後の説明文からJSONオブジェクト部分を取り出す
func cleanJSON(text string) string {
	clean := text
	if idx := strings.Index(clean, "```"); idx != -1 {
		clean = clean[idx+3:]
		// 言語指定（json等）の行を読み飛ばす
		if nl := strings.Index(clean, "\n"); nl != -1 && !strings.Contains(clean[:nl], "{") {
			clean = clean[nl+1:]
		}
		if end := strings.Index(clean, "```"); end != -1 {
			clean = clean[:end]
		}
	}

	clean = strings.TrimSpace(clean)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start != -1 && end > start {
		clean = clean[start : end+1]
	}
	return clean
}

// flexString 文字列・数値・nullのいずれも文字列として受け取る
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	// 数値・真偽値などはそのまま文字列化
	*s = flexString(string(data))
	return nil
}

// flexInt 数値・数値文字列・nullを整数として受け取る
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*i = 0
		return nil
	}

	str := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		str = strings.TrimSpace(str)
	}

	// 数量として読めない値は0（正規化で1になる）
	f, err := strconv.ParseFloat(str, 64)
	if err != nil || !isCount(f) {
		*i = 0
		return nil
	}
	*i = flexInt(f)
	return nil
}

// isCount 有限・整数値・int32の範囲内か
func isCount(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	if f != math.Trunc(f) {
		return false
	}
	return f >= math.MinInt32 && f <= math.MaxInt32
}
