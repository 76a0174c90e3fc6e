package domain

import (
	"errors"
	"testing"
	"time"
)

func fixedBuilder() *RecordBuilder {
	fixed := time.Date(2025, 11, 23, 12, 0, 0, 0, time.UTC)
	return NewRecordBuilder(
		func() string { return "analysis-1" },
		func() time.Time { return fixed },
	)
}

func TestRecordBuilder_Build(t *testing.T) {
	results := map[string]*CurrencyAnalysisResult{
		"openai": NewStructuredResult("openai", []CurrencyDetection{NewCurrencyDetection("USD", "20", 1, "high")}, "", ""),
		"gemini": NewFailedResult("gemini", "timeout"),
	}
	verdict := Compare(results["openai"], results["gemini"])

	record, err := fixedBuilder().Build("user-1", "bills.jpg", results, verdict)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if record.ID != "analysis-1" {
		t.Errorf("ID = %s, want analysis-1", record.ID)
	}
	if record.OwnerID != "user-1" {
		t.Errorf("OwnerID = %s, want user-1", record.OwnerID)
	}
	if record.Filename != "bills.jpg" {
		t.Errorf("Filename = %s, want bills.jpg", record.Filename)
	}
	if !record.CreatedAt.Equal(time.Date(2025, 11, 23, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", record.CreatedAt)
	}
	if len(record.ProviderResults) != 2 {
		t.Errorf("ProviderResults has %d entries, want 2", len(record.ProviderResults))
	}
	if record.Consensus.CurrencyCountMatch {
		t.Error("Expected count mismatch")
	}

	// 呼び出し元のマップを変更してもレコードには影響しない
	delete(results, "gemini")
	if len(record.ProviderResults) != 2 {
		t.Error("record should not share the caller's map")
	}
}

func TestRecordBuilder_BuildErrors(t *testing.T) {
	valid := map[string]*CurrencyAnalysisResult{
		"openai": NewFailedResult("openai", "x"),
	}

	tests := []struct {
		name    string
		ownerID string
		results map[string]*CurrencyAnalysisResult
		wantErr error
	}{
		{
			name:    "異常系: オーナー未指定",
			ownerID: "",
			results: valid,
			wantErr: ErrInvalidInput,
		},
		{
			name:    "異常系: 空白のみのオーナー",
			ownerID: "   ",
			results: valid,
			wantErr: ErrInvalidInput,
		},
		{
			name:    "異常系: 結果なし",
			ownerID: "user-1",
			results: nil,
			wantErr: ErrBuilderValidation,
		},
		{
			name:    "異常系: nilの結果",
			ownerID: "user-1",
			results: map[string]*CurrencyAnalysisResult{"openai": nil},
			wantErr: ErrBuilderValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fixedBuilder().Build(tt.ownerID, "", tt.results, ConsensusVerdict{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRecordBuilder_Defaults(t *testing.T) {
	builder := NewRecordBuilder(nil, nil)
	results := map[string]*CurrencyAnalysisResult{"openai": NewFailedResult("openai", "x")}

	first, err := builder.Build("user-1", "", results, ConsensusVerdict{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	second, err := builder.Build("user-1", "", results, ConsensusVerdict{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if first.ID == "" || first.ID == second.ID {
		t.Errorf("Expected unique IDs, got %q and %q", first.ID, second.ID)
	}
	if time.Since(first.CreatedAt) > time.Second {
		t.Error("Expected CreatedAt to be recent")
	}
	if first.Consensus.Discrepancies == nil {
		t.Error("Discrepancies should default to an empty slice")
	}
}

func TestRecordBuilder_TruncatesCreatedAt(t *testing.T) {
	now := time.Date(2025, 11, 23, 12, 0, 0, 123456789, time.UTC)
	builder := NewRecordBuilder(
		func() string { return "analysis-1" },
		func() time.Time { return now },
	)
	results := map[string]*CurrencyAnalysisResult{"openai": NewFailedResult("openai", "x")}

	record, err := builder.Build("user-1", "", results, ConsensusVerdict{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := time.Date(2025, 11, 23, 12, 0, 0, 123456000, time.UTC)
	if !record.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", record.CreatedAt, want)
	}
}

func TestError_Is(t *testing.T) {
	err := NewInvalidInputError("image data is empty")

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("Expected errors.Is to match ErrInvalidInput")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("Expected errors.Is not to match ErrNotFound")
	}

	cause := errors.New("boom")
	wrapped := NewOrchestrationFailure("all providers faulted", cause)
	if !errors.Is(wrapped, cause) {
		t.Error("Expected cause to be unwrapped")
	}
	if wrapped.Error() == "" {
		t.Error("Expected non-empty error message")
	}
}
