package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// WalletHeader - заголовок с адресом кошелька в режиме разработки, когда секрет не задан.
const WalletHeader = "X-Wallet-Address"

type ctxKey struct{}

// Claims - утверждения токена участника.
type Claims struct {
	WalletAddress string `json:"wallet_address,omitempty"`
	jwt.RegisteredClaims
}

// Identity возвращает адрес кошелька или subject, если адреса нет.
func (c Claims) Identity() string {
	if c.WalletAddress != "" {
		return c.WalletAddress
	}
	return c.Subject
}

// Verifier извлекает личность участника из запроса.
type Verifier struct {
	secret []byte
}

// NewVerifier создает Verifier. Пустой secret включает режим разработки с заголовком X-Wallet-Address.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Identify возвращает адрес участника или ошибку, если запрос не аутентифицирован.
func (v *Verifier) Identify(r *http.Request) (string, error) {
	if len(v.secret) == 0 {
		if addr := strings.TrimSpace(r.Header.Get(WalletHeader)); addr != "" {
			return addr, nil
		}
	}

	authz := r.Header.Get("Authorization")
	if authz == "" {
		return "", errors.New("missing authorization header")
	}
	raw, ok := strings.CutPrefix(authz, "Bearer ")
	if !ok {
		return "", errors.New("invalid authorization scheme")
	}
	if len(v.secret) == 0 {
		return "", errors.New("token authentication is not configured")
	}
	return v.ParseToken(strings.TrimSpace(raw))
}

// ParseToken проверяет HS256-токен и возвращает личность участника.
func (v *Verifier) ParseToken(raw string) (string, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	identity := strings.TrimSpace(claims.Identity())
	if identity == "" {
		return "", errors.New("token carries no wallet address")
	}
	return identity, nil
}

// IssueToken подписывает токен для участника. Используется в тестах и утилитах.
func (v *Verifier) IssueToken(walletAddress string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		WalletAddress: walletAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   walletAddress,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Middleware кладёт личность участника в контекст. Неаутентифицированный запрос получает 401.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := v.Identify(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprintf(w, "{\"reason\":%q}\n", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// WithIdentity возвращает контекст с личностью участника.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, ctxKey{}, identity)
}

// IdentityFrom возвращает личность участника из контекста.
func IdentityFrom(ctx context.Context) string {
	identity, _ := ctx.Value(ctxKey{}).(string)
	return identity
}
