package domain

import (
	"fmt"
	"strings"
)

// ConsensusVerdict 2プロバイダー間の一致・不一致の判定
type ConsensusVerdict struct {
	CurrencyCountMatch bool     `json:"currency_count_match"`
	Discrepancies      []string `json:"discrepancies"`
}

// HasDiscrepancies 不一致が1件以上あるか
func (v ConsensusVerdict) HasDiscrepancies() bool {
	return len(v.Discrepancies) > 0
}

// Compare 2つの解析結果を比較して判定を返す
//
// 検出件数の一致は件数のみで判定する（どちらも0件なら一致扱い）。
// 不一致の検出は同じ位置同士の比較のみで、短い方の件数を超える位置は比較しない。
func Compare(a, b *CurrencyAnalysisResult) ConsensusVerdict {
	detectionsA := detectionsOf(a)
	detectionsB := detectionsOf(b)
	nameA, nameB := labelOf(a, "A"), labelOf(b, "B")

	verdict := ConsensusVerdict{
		CurrencyCountMatch: len(detectionsA) == len(detectionsB),
		Discrepancies:      []string{},
	}

	n := min(len(detectionsA), len(detectionsB))
	for i := 0; i < n; i++ {
		da, db := detectionsA[i], detectionsB[i]

		typeA := NormalizeCurrencyType(string(da.CurrencyType))
		typeB := NormalizeCurrencyType(string(db.CurrencyType))
		if typeA != typeB {
			verdict.Discrepancies = append(verdict.Discrepancies,
				fmt.Sprintf("position %d: currency type mismatch (%s: %s, %s: %s)",
					i, nameA, typeA, nameB, typeB))
			continue
		}

		if strings.TrimSpace(da.Denomination) != strings.TrimSpace(db.Denomination) {
			verdict.Discrepancies = append(verdict.Discrepancies,
				fmt.Sprintf("position %d: denomination mismatch for %s (%s: %s, %s: %s)",
					i, typeA, nameA, da.Denomination, nameB, db.Denomination))
		}
	}

	return verdict
}

func detectionsOf(r *CurrencyAnalysisResult) []CurrencyDetection {
	if r == nil {
		return nil
	}
	return r.Detections
}

func labelOf(r *CurrencyAnalysisResult, fallback string) string {
	if r == nil || r.ProviderName == "" {
		return fallback
	}
	return r.ProviderName
}
