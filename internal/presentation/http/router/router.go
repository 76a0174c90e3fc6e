package router

import (
	"net/http"

	"currency-recognition-app/internal/presentation/di"
	"currency-recognition-app/internal/presentation/http/middleware"
)

// NewRouter 新しいルーターを作成
func NewRouter(container *di.Container) http.Handler {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(container.AuthUseCase())

	// 認証 API ハンドラー
	authHandler := container.AuthHandler()
	mux.HandleFunc("POST /api/register", authHandler.HandleRegister)
	mux.HandleFunc("POST /api/login", authHandler.HandleLogin)

	// 通貨解析 API ハンドラー
	currencyHandler := container.CurrencyHandler()
	mux.Handle("POST /api/analyze-currency", requireAuth(http.HandlerFunc(currencyHandler.HandleAnalyze)))
	mux.Handle("GET /api/analysis", requireAuth(http.HandlerFunc(currencyHandler.HandleListAnalyses)))
	mux.Handle("GET /api/analysis/{id}", requireAuth(http.HandlerFunc(currencyHandler.HandleGetAnalysis)))
	mux.HandleFunc("POST /api/webhook/{id}", currencyHandler.HandleWebhook)

	// Health check
	healthHandler := container.HealthHandler()
	mux.Handle("GET /api/health", healthHandler)
	mux.Handle("GET /health", healthHandler)
	mux.HandleFunc("GET /{$}", healthHandler.ServeRoot)

	// ミドルウェアの適用
	var h http.Handler = mux
	h = middleware.Recovery(h)
	h = middleware.LoggerWithHealthCheck(h)
	h = middleware.CORS(h)

	return h
}
