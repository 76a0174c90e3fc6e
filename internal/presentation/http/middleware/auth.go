package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	authdomain "currency-recognition-app/internal/modules/auth/domain"
)

type contextKey string

const userContextKey contextKey = "user"

// Authenticator トークンから利用者を特定する
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*authdomain.User, error)
}

// RequireAuth Bearerトークンを検証し、利用者をコンテキストに設定するミドルウェア
func RequireAuth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w)
				return
			}

			user, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				slog.Debug("Authentication failed", "path", r.URL.Path, "error", err)
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser 利用者をコンテキストに設定
func WithUser(ctx context.Context, user *authdomain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext コンテキストから利用者を取得
func UserFromContext(ctx context.Context) (*authdomain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*authdomain.User)
	return user, ok && user != nil
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, "Could not validate credentials")
}
