package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"currency-recognition-app/internal/config"
	"currency-recognition-app/internal/modules/auth/domain"
)

// JWTIssuer HMAC署名のJWTを発行・検証する
type JWTIssuer struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	now    func() time.Time
}

type userClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// NewJWTIssuer 新しいJWTIssuerを作成
func NewJWTIssuer(cfg *config.AuthConfig) (*JWTIssuer, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is not configured")
	}

	var method *jwt.SigningMethodHMAC
	switch cfg.JWTAlgorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported jwt algorithm: %s", cfg.JWTAlgorithm)
	}

	return &JWTIssuer{
		secret: []byte(cfg.JWTSecret),
		method: method,
		ttl:    cfg.AccessTokenTTL(),
		now:    time.Now,
	}, nil
}

// Issue 利用者のアクセストークンを発行
func (i *JWTIssuer) Issue(user *domain.User) (*domain.Token, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)

	claims := userClaims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(i.method, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &domain.Token{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

// Verify トークンの署名と有効期限を検証
func (i *JWTIssuer) Verify(tokenString string) (*domain.Claims, error) {
	var claims userClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("invalid token: missing subject")
	}

	return &domain.Claims{
		UserID:   claims.Subject,
		Username: claims.Username,
	}, nil
}
