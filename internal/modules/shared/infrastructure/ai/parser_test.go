package ai

import (
	"testing"

	"currency-recognition-app/internal/modules/currency/domain"
)

func TestParseCurrencyResponse(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		wantOutcome    domain.Outcome
		wantDetections int
		wantTotal      string
		wantNotes      string
	}{
		{
			name:           "正常系: 素のJSON",
			text:           `{"currencies_detected":[{"currency_type":"USD","denomination":"20","quantity":2,"confidence":"high"}],"total_value":"40 USD","notes":"two bills"}`,
			wantOutcome:    domain.OutcomeStructured,
			wantDetections: 1,
			wantTotal:      "40 USD",
			wantNotes:      "two bills",
		},
		{
			name:           "正常系: markdownで囲まれたJSON",
			text:           "```json\n" + `{"currencies_detected":[{"currency_type":"UAH","denomination":"100","quantity":1,"confidence":"medium"},{"currency_type":"EUR","denomination":"5","quantity":3,"confidence":"low"}]}` + "\n```",
			wantOutcome:    domain.OutcomeStructured,
			wantDetections: 2,
		},
		{
			name:           "正常系: 前後に説明文",
			text:           `Here is the result: {"currencies_detected":[{"currency_type":"EUR","denomination":"50","quantity":1,"confidence":"high"}]} Hope it helps.`,
			wantOutcome:    domain.OutcomeStructured,
			wantDetections: 1,
		},
		{
			name:           "正常系: 数値の額面と文字列の数量",
			text:           `{"currencies_detected":[{"currency_type":"usd","denomination":20,"quantity":"3","confidence":"HIGH"}],"total_value":60}`,
			wantOutcome:    domain.OutcomeStructured,
			wantDetections: 1,
			wantTotal:      "60",
		},
		{
			name:           "異常系: 自由文",
			text:           "I can see two twenty dollar bills on a table.",
			wantOutcome:    domain.OutcomeUnparsed,
			wantDetections: 0,
		},
		{
			name:           "異常系: 検出0件のJSON",
			text:           `{"currencies_detected":[],"notes":"no money visible"}`,
			wantOutcome:    domain.OutcomeUnparsed,
			wantDetections: 0,
			wantNotes:      "no money visible",
		},
		{
			name:           "異常系: 壊れたJSON",
			text:           `{"currencies_detected":[{"currency_type":"USD"`,
			wantOutcome:    domain.OutcomeUnparsed,
			wantDetections: 0,
		},
		{
			name:           "境界値: 空の応答",
			text:           "   ",
			wantOutcome:    domain.OutcomeFailed,
			wantDetections: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseCurrencyResponse("openai", tt.text)

			if result.Outcome != tt.wantOutcome {
				t.Fatalf("Outcome = %s, want %s", result.Outcome, tt.wantOutcome)
			}
			if len(result.Detections) != tt.wantDetections {
				t.Errorf("len(Detections) = %d, want %d", len(result.Detections), tt.wantDetections)
			}
			if result.TotalValue != tt.wantTotal {
				t.Errorf("TotalValue = %q, want %q", result.TotalValue, tt.wantTotal)
			}
			if result.Notes != tt.wantNotes {
				t.Errorf("Notes = %q, want %q", result.Notes, tt.wantNotes)
			}
			if err := result.Validate(); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
			if result.Outcome == domain.OutcomeUnparsed && result.RawResponse == "" {
				t.Error("unparsed result should keep the raw response")
			}
		})
	}
}

func TestParseCurrencyResponse_Normalizes(t *testing.T) {
	result := parseCurrencyResponse("gemini",
		`{"currencies_detected":[{"currency_type":" usd ","denomination":20,"quantity":"3","confidence":"HIGH"},{"currency_type":"EUR","denomination":"5","quantity":0,"confidence":"unsure"}]}`)

	want := []domain.CurrencyDetection{
		{CurrencyType: domain.CurrencyUSD, Denomination: "20", Quantity: 3, Confidence: domain.ConfidenceHigh},
		{CurrencyType: domain.CurrencyEUR, Denomination: "5", Quantity: 1, Confidence: domain.ConfidenceLow},
	}

	if len(result.Detections) != len(want) {
		t.Fatalf("len(Detections) = %d, want %d", len(result.Detections), len(want))
	}
	for i := range want {
		if result.Detections[i] != want[i] {
			t.Errorf("Detections[%d] = %+v, want %+v", i, result.Detections[i], want[i])
		}
	}
	if result.ProviderName != "gemini" {
		t.Errorf("ProviderName = %s, want gemini", result.ProviderName)
	}
}

func TestFlexInt_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		data string
		want flexInt
	}{
		{name: "正常系: 数値", data: `3`, want: 3},
		{name: "正常系: 数値文字列", data: `" 4 "`, want: 4},
		{name: "正常系: 整数値の小数表記", data: `2.0`, want: 2},
		{name: "正常系: null", data: `null`, want: 0},
		{name: "異常系: 小数", data: `"2.9"`, want: 0},
		{name: "異常系: 数値以外", data: `"several"`, want: 0},
		{name: "異常系: NaN", data: `"NaN"`, want: 0},
		{name: "異常系: 無限大", data: `"Inf"`, want: 0},
		{name: "境界値: 範囲外", data: `1e20`, want: 0},
		{name: "境界値: int32上限", data: `2147483647`, want: 2147483647},
		{name: "境界値: int32上限超過", data: `2147483648`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got flexInt = -1
			if err := got.UnmarshalJSON([]byte(tt.data)); err != nil {
				t.Fatalf("UnmarshalJSON() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("UnmarshalJSON(%s) = %d, want %d", tt.data, got, tt.want)
			}
		})
	}
}

func TestParseCurrencyResponse_UnreadableQuantities(t *testing.T) {
	result := parseCurrencyResponse("openai",
		`{"currencies_detected":[{"currency_type":"USD","denomination":"20","quantity":1e20,"confidence":"high"},{"currency_type":"EUR","denomination":"5","quantity":"2.9","confidence":"high"}]}`)

	if result.Outcome != domain.OutcomeStructured || len(result.Detections) != 2 {
		t.Fatalf("result = %+v", result)
	}
	for i, d := range result.Detections {
		if d.Quantity != 1 {
			t.Errorf("Detections[%d].Quantity = %d, want 1", i, d.Quantity)
		}
	}
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "素のJSON", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json指定のフェンス", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "言語指定なしのフェンス", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "1行のフェンス", in: "```{\"a\":1}```", want: `{"a":1}`},
		{name: "前後の文章", in: `result: {"a":1} done`, want: `{"a":1}`},
		{name: "JSONなし", in: "plain text", want: "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSON(tt.in); got != tt.want {
				t.Errorf("cleanJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}
