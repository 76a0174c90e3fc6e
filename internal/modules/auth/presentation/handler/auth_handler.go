package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"currency-recognition-app/internal/modules/auth/domain"
)

// maxCredentialsBody 認証リクエストボディの上限
const maxCredentialsBody = 1 << 16

// AuthUseCase 認証ユースケースのインターフェース
type AuthUseCase interface {
	Register(ctx context.Context, username, password string) (*domain.Token, error)
	Login(ctx context.Context, username, password string) (*domain.Token, error)
}

// AuthHandler 利用者登録・ログインAPIのハンドラー
type AuthHandler struct {
	authUseCase AuthUseCase
}

// NewAuthHandler 新しいAuthHandlerを作成
func NewAuthHandler(authUseCase AuthUseCase) *AuthHandler {
	return &AuthHandler{authUseCase: authUseCase}
}

// CredentialsRequest 登録・ログインのリクエスト
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse アクセストークンのレスポンス
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HandleRegister 利用者を登録してトークンを発行
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := h.authUseCase.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUsernameTaken):
			h.sendError(w, "Username already registered", http.StatusBadRequest)
		case errors.Is(err, domain.ErrInvalidUserInput):
			h.sendError(w, strings.TrimPrefix(err.Error(), domain.ErrInvalidUserInput.Error()+": "), http.StatusBadRequest)
		default:
			slog.Error("Failed to register user", "error", err)
			h.sendError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.sendToken(w, token)
}

// HandleLogin 認証してトークンを発行
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := h.authUseCase.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			h.sendError(w, "Incorrect username or password", http.StatusUnauthorized)
			return
		}
		slog.Error("Failed to log in", "error", err)
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.sendToken(w, token)
}

func (h *AuthHandler) decodeCredentials(w http.ResponseWriter, r *http.Request) (*CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCredentialsBody)).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func (h *AuthHandler) sendToken(w http.ResponseWriter, token *domain.Token) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
	})
}

// sendError エラーレスポンスを送信
func (h *AuthHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Success: false,
		Error:   message,
	})
}
