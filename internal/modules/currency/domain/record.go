package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AnalysisRecord 永続化される解析結果の単位（作成後は変更しない）
type AnalysisRecord struct {
	ID              string                             `json:"id"`
	OwnerID         string                             `json:"owner_id"`
	Filename        string                             `json:"filename,omitempty"`
	ProviderResults map[string]*CurrencyAnalysisResult `json:"provider_results"`
	Consensus       ConsensusVerdict                   `json:"consensus"`
	CreatedAt       time.Time                          `json:"created_at"`
}

// TimestampPrecision 保存されるCreatedAtの精度（ストレージはマイクロ秒まで保持）
const TimestampPrecision = time.Microsecond

// IDGenerator レコードIDの生成関数
type IDGenerator func() string

// Clock 現在時刻の取得関数
type Clock func() time.Time

// RecordBuilder AnalysisRecordの組み立て
type RecordBuilder struct {
	newID IDGenerator
	now   Clock
}

// NewRecordBuilder 新しいRecordBuilderを作成
// nilを渡した場合はUUIDv4とUTCの現在時刻を使う
func NewRecordBuilder(newID IDGenerator, now Clock) *RecordBuilder {
	if newID == nil {
		newID = uuid.NewString
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &RecordBuilder{newID: newID, now: now}
}

// Build 解析結果と判定からAnalysisRecordを組み立てる
func (b *RecordBuilder) Build(ownerID, filename string, providerResults map[string]*CurrencyAnalysisResult, consensus ConsensusVerdict) (*AnalysisRecord, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, NewInvalidInputError("owner id is required")
	}
	if len(providerResults) == 0 {
		return nil, NewBuilderValidationError("provider results are empty")
	}

	results := make(map[string]*CurrencyAnalysisResult, len(providerResults))
	for name, result := range providerResults {
		if result == nil {
			return nil, NewBuilderValidationError("provider %s has no result", name)
		}
		results[name] = result
	}

	if consensus.Discrepancies == nil {
		consensus.Discrepancies = []string{}
	}

	return &AnalysisRecord{
		ID:              b.newID(),
		OwnerID:         ownerID,
		Filename:        filename,
		ProviderResults: results,
		Consensus:       consensus,
		CreatedAt:       b.now().Truncate(TimestampPrecision),
	}, nil
}
