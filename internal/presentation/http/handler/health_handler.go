package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// ServiceName サービス名
const ServiceName = "Currency Recognition API"

// checkTimeout 依存先ごとの確認の上限時間
const checkTimeout = 2 * time.Second

// Checker 依存先の疎通確認
type Checker func(ctx context.Context) error

// HealthHandler ヘルスチェックのハンドラー
type HealthHandler struct {
	checks map[string]Checker
}

// NewHealthHandler 新しいHealthHandlerを作成
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{checks: make(map[string]Checker)}
}

// AddCheck 依存先の確認を追加
func (h *HealthHandler) AddCheck(name string, check Checker) {
	h.checks[name] = check
}

// HealthResponse ヘルスチェックのレスポンス
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// RootResponse ルートのレスポンス
type RootResponse struct {
	Message string `json:"message"`
}

// ServeHTTP ヘルスチェックを処理
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Service: ServiceName,
	}
	status := http.StatusOK

	if len(h.checks) > 0 {
		response.Checks = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			err := check(ctx)
			cancel()
			if err != nil {
				slog.Warn("Health check failed", "check", name, "error", err)
				response.Checks[name] = "unavailable"
				response.Status = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			response.Checks[name] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// ServeRoot サービス名を返す
func (h *HealthHandler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(RootResponse{Message: ServiceName})
}
