package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"currency-recognition-app/internal/modules/currency/domain"
	"currency-recognition-app/internal/modules/currency/usecase"
	"currency-recognition-app/internal/presentation/http/middleware"
)

// multipartOverhead 画像以外のフォーム部分に許容するサイズ
const multipartOverhead = 1 << 20

// AnalysisUseCase 通貨解析ユースケースのインターフェース
type AnalysisUseCase interface {
	Analyze(ctx context.Context, input usecase.AnalyzeInput) (*domain.AnalysisRecord, error)
	GetAnalysis(ctx context.Context, ownerID, id string) (*domain.AnalysisRecord, error)
	ListAnalyses(ctx context.Context, ownerID string, limit, offset int) ([]*domain.AnalysisRecord, error)
	TriggerWebhook(ctx context.Context, id string) (*domain.AnalysisRecord, error)
}

// CurrencyHandler 通貨解析APIのハンドラー
type CurrencyHandler struct {
	analysisUseCase AnalysisUseCase
}

// NewCurrencyHandler 新しいCurrencyHandlerを作成
func NewCurrencyHandler(analysisUseCase AnalysisUseCase) *CurrencyHandler {
	return &CurrencyHandler{analysisUseCase: analysisUseCase}
}

// AnalyzeResponse 解析APIのレスポンス
type AnalyzeResponse struct {
	AnalysisID      string                                    `json:"analysis_id"`
	ProviderResults map[string]*domain.CurrencyAnalysisResult `json:"provider_results"`
	Consensus       domain.ConsensusVerdict                   `json:"consensus"`
	Filename        string                                    `json:"filename,omitempty"`
	Timestamp       time.Time                                 `json:"timestamp"`
}

// ListResponse 一覧APIのレスポンス
type ListResponse struct {
	Analyses []*domain.AnalysisRecord `json:"analyses"`
}

// WebhookResponse WebhookAPIのレスポンス
type WebhookResponse struct {
	Message    string `json:"message"`
	AnalysisID string `json:"analysis_id"`
}

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HandleAnalyze 画像をアップロードして両プロバイダーで解析
func (h *CurrencyHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.sendError(w, "Could not validate credentials", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxImageSize+multipartOverhead)
	if err := r.ParseMultipartForm(domain.MaxImageSize + multipartOverhead); err != nil {
		h.sendError(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	// 画像ファイルの取得
	file, header, err := r.FormFile("file")
	if err != nil {
		h.sendError(w, "Image file is required", http.StatusBadRequest)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		h.sendError(w, "File must be an image", http.StatusBadRequest)
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, "Failed to read image", http.StatusInternalServerError)
		return
	}

	record, err := h.analysisUseCase.Analyze(r.Context(), usecase.AnalyzeInput{
		OwnerID:   user.ID,
		Filename:  header.Filename,
		ImageData: imageData,
		MimeType:  contentType,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.sendJSON(w, http.StatusOK, AnalyzeResponse{
		AnalysisID:      record.ID,
		ProviderResults: record.ProviderResults,
		Consensus:       record.Consensus,
		Filename:        record.Filename,
		Timestamp:       record.CreatedAt,
	})
}

// HandleGetAnalysis 解析結果を1件取得
func (h *CurrencyHandler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.sendError(w, "Could not validate credentials", http.StatusUnauthorized)
		return
	}

	record, err := h.analysisUseCase.GetAnalysis(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.sendJSON(w, http.StatusOK, record)
}

// HandleListAnalyses 自分の解析結果を新しい順に取得
func (h *CurrencyHandler) HandleListAnalyses(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.sendError(w, "Could not validate credentials", http.StatusUnauthorized)
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		h.sendError(w, "limit must be an integer", http.StatusBadRequest)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		h.sendError(w, "offset must be an integer", http.StatusBadRequest)
		return
	}

	records, err := h.analysisUseCase.ListAnalyses(r.Context(), user.ID, limit, offset)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if records == nil {
		records = []*domain.AnalysisRecord{}
	}

	h.sendJSON(w, http.StatusOK, ListResponse{Analyses: records})
}

// HandleWebhook 解析結果の通知を受け付ける
func (h *CurrencyHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	record, err := h.analysisUseCase.TriggerWebhook(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.sendJSON(w, http.StatusOK, WebhookResponse{
		Message:    "Webhook triggered",
		AnalysisID: record.ID,
	})
}

// writeDomainError ドメインエラーをHTTPステータスに変換
func (h *CurrencyHandler) writeDomainError(w http.ResponseWriter, err error) {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		slog.Error("Currency analysis request failed", "error", err)
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	switch domainErr.Code {
	case domain.CodeInvalidInput:
		h.sendError(w, domainErr.Message, http.StatusBadRequest)
	case domain.CodeNotFound:
		h.sendError(w, "Analysis not found", http.StatusNotFound)
	case domain.CodeOrchestrationFailure:
		slog.Error("Currency analysis failed", "error", err)
		h.sendError(w, "No AI provider produced a result", http.StatusBadGateway)
	default:
		slog.Error("Currency analysis request failed", "error", err)
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *CurrencyHandler) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// sendError エラーレスポンスを送信
func (h *CurrencyHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, statusCode, ErrorResponse{
		Success: false,
		Error:   message,
	})
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
