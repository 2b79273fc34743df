// Package auth проверяет access token провайдера авторизации (Supabase)
// и кладёт id пользователя в контекст запроса.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

var ErrInvalidToken = errors.New("invalid access token")

// AccessTokenCookie: cookie, в которой фронтенд хранит access token.
const AccessTokenCookie = "sb-access-token"

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (uuid.UUID, error)
}

// TokenCache хранит уже проверенные токены. Get возвращает ok=false при промахе.
type TokenCache interface {
	Get(ctx context.Context, key string) (uuid.UUID, bool, error)
	Set(ctx context.Context, key string, userID uuid.UUID, ttl time.Duration) error
}

type SupabaseVerifier struct {
	client *resty.Client
	cache  TokenCache
	ttl    time.Duration
}

// NewSupabaseVerifier. cache может быть nil, тогда каждый запрос идёт в провайдер.
func NewSupabaseVerifier(baseURL, anonKey string, cache TokenCache, ttl time.Duration) *SupabaseVerifier {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("apikey", anonKey).
		SetTimeout(5 * time.Second)
	return &SupabaseVerifier{client: client, cache: cache, ttl: ttl}
}

func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrInvalidToken
	}
	key := tokenKey(token)

	if v.cache != nil {
		id, ok, err := v.cache.Get(ctx, key)
		if err != nil {
			log.Printf("auth cache get: %v", err)
		} else if ok {
			return id, nil
		}
	}

	resp, err := v.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get("/auth/v1/user")
	if err != nil {
		return uuid.Nil, fmt.Errorf("auth provider: %w", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return uuid.Nil, ErrInvalidToken
	}
	if resp.IsError() {
		return uuid.Nil, fmt.Errorf("auth provider returned %d", resp.StatusCode())
	}

	id, err := uuid.Parse(gjson.GetBytes(resp.Body(), "id").String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: no user id in provider response", ErrInvalidToken)
	}

	if v.cache != nil && v.ttl > 0 {
		if err := v.cache.Set(ctx, key, id, v.ttl); err != nil {
			log.Printf("auth cache set: %v", err)
		}
	}
	return id, nil
}

// tokenKey: сам токен в кэш не кладём, только его хэш.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type ctxKey struct{}

func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// UserID возвращает id аутентифицированного пользователя.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// Middleware не отклоняет запросы: без валидного токена запрос остаётся анонимным,
// решение принимают хендлеры.
func Middleware(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := v.Verify(r.Context(), token)
			if err != nil {
				if !errors.Is(err, ErrInvalidToken) {
					log.Printf("verify access token: %v", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}
