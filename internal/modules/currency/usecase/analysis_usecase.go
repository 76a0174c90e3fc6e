package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"currency-recognition-app/internal/modules/currency/domain"
)

const (
	// DefaultListLimit 一覧取得の既定件数
	DefaultListLimit = 10
	// MaxListLimit 一覧取得の上限件数
	MaxListLimit = 100
)

// AnalyzeInput 解析リクエスト
type AnalyzeInput struct {
	OwnerID   string
	Filename  string
	ImageData []byte
	MimeType  string
}

// AnalysisUseCase 通貨解析のユースケース
type AnalysisUseCase struct {
	analyzer *DualAnalyzer
	repo     domain.AnalysisRepository
	builder  *domain.RecordBuilder
	logger   *slog.Logger
}

// NewAnalysisUseCase 新しいAnalysisUseCaseを作成
func NewAnalysisUseCase(analyzer *DualAnalyzer, repo domain.AnalysisRepository, builder *domain.RecordBuilder) *AnalysisUseCase {
	if builder == nil {
		builder = domain.NewRecordBuilder(nil, nil)
	}
	return &AnalysisUseCase{
		analyzer: analyzer,
		repo:     repo,
		builder:  builder,
		logger:   slog.Default(),
	}
}

// Analyze 画像を両プロバイダーで解析し、結果を保存して返す
// 失敗時は何も保存しない
func (uc *AnalysisUseCase) Analyze(ctx context.Context, input AnalyzeInput) (*domain.AnalysisRecord, error) {
	if strings.TrimSpace(input.OwnerID) == "" {
		return nil, domain.NewInvalidInputError("owner id is required")
	}

	results, verdict, err := uc.analyzer.RunDualAnalysis(ctx, input.ImageData, input.MimeType)
	if err != nil {
		return nil, err
	}

	record, err := uc.builder.Build(input.OwnerID, input.Filename, results, verdict)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}

	uc.logger.Info("currency analysis stored",
		"analysis_id", record.ID,
		"owner_id", record.OwnerID,
		"currency_count_match", verdict.CurrencyCountMatch,
		"discrepancies", len(verdict.Discrepancies),
	)
	if verdict.HasDiscrepancies() {
		uc.logger.Info("provider results disagree",
			"analysis_id", record.ID,
			"discrepancies", verdict.Discrepancies,
		)
	}

	return record, nil
}

// GetAnalysis 所有者の解析結果を取得
// 他の所有者の解析結果は存在しないものとして扱う
func (uc *AnalysisUseCase) GetAnalysis(ctx context.Context, ownerID, id string) (*domain.AnalysisRecord, error) {
	record, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.OwnerID != ownerID {
		return nil, domain.NewNotFoundError(id)
	}
	return record, nil
}

// ListAnalyses 所有者の解析結果を新しい順に取得
func (uc *AnalysisUseCase) ListAnalyses(ctx context.Context, ownerID string, limit, offset int) ([]*domain.AnalysisRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	records, err := uc.repo.FindByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return records, nil
}

// TriggerWebhook 解析完了の通知を受け付ける
func (uc *AnalysisUseCase) TriggerWebhook(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	record, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}

	uc.logger.Info("webhook triggered", "analysis_id", record.ID)
	return record, nil
}
