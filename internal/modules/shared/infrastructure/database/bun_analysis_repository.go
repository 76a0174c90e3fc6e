package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"currency-recognition-app/internal/modules/currency/domain"
)

// Analysis BUNモデル
// created_atはMySQLの既定DATETIMEだと秒単位になるためdatetime(6)を指定する
type Analysis struct {
	bun.BaseModel `bun:"table:analyses"`

	ID              string                                    `bun:"id,pk,type:varchar(36)"`
	OwnerID         string                                    `bun:"owner_id,notnull,type:varchar(36)"`
	Filename        string                                    `bun:"filename,type:varchar(255),default:''"`
	ProviderResults map[string]*domain.CurrencyAnalysisResult `bun:"provider_results,type:json,notnull"`
	Consensus       domain.ConsensusVerdict                   `bun:"consensus,type:json,notnull"`
	CreatedAt       time.Time                                 `bun:"created_at,notnull,type:datetime(6)"`
}

// BunAnalysisRepository BUN実装
type BunAnalysisRepository struct {
	db *bun.DB
}

// NewBunAnalysisRepository DBインスタンスから作成
func NewBunAnalysisRepository(db *bun.DB) *BunAnalysisRepository {
	return &BunAnalysisRepository{db: db}
}

// Create 解析結果を保存
func (r *BunAnalysisRepository) Create(ctx context.Context, record *domain.AnalysisRecord) error {
	if _, err := r.db.NewInsert().Model(r.toModel(record)).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

// FindByID IDで解析結果を検索
func (r *BunAnalysisRepository) FindByID(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	model := &Analysis{}
	err := r.db.NewSelect().
		Model(model).
		Where("id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}

	return r.toEntity(model), nil
}

// FindByOwner 所有者の解析結果を新しい順に取得
func (r *BunAnalysisRepository) FindByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.AnalysisRecord, error) {
	var models []Analysis
	query := r.db.NewSelect().
		Model(&models).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC", "id DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to find analyses: %w", err)
	}

	records := make([]*domain.AnalysisRecord, len(models))
	for i := range models {
		records[i] = r.toEntity(&models[i])
	}
	return records, nil
}

// toModel エンティティをモデルに変換
func (r *BunAnalysisRepository) toModel(record *domain.AnalysisRecord) *Analysis {
	consensus := record.Consensus
	if consensus.Discrepancies == nil {
		consensus.Discrepancies = []string{}
	}

	return &Analysis{
		ID:              record.ID,
		OwnerID:         record.OwnerID,
		Filename:        record.Filename,
		ProviderResults: record.ProviderResults,
		Consensus:       consensus,
		CreatedAt:       record.CreatedAt.UTC(),
	}
}

// toEntity モデルをエンティティに変換
func (r *BunAnalysisRepository) toEntity(model *Analysis) *domain.AnalysisRecord {
	results := model.ProviderResults
	if results == nil {
		results = map[string]*domain.CurrencyAnalysisResult{}
	}
	for _, result := range results {
		if result != nil && result.Detections == nil {
			result.Detections = []domain.CurrencyDetection{}
		}
	}

	consensus := model.Consensus
	if consensus.Discrepancies == nil {
		consensus.Discrepancies = []string{}
	}

	return &domain.AnalysisRecord{
		ID:              model.ID,
		OwnerID:         model.OwnerID,
		Filename:        model.Filename,
		ProviderResults: results,
		Consensus:       consensus,
		CreatedAt:       model.CreatedAt.UTC(),
	}
}
