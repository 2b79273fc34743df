package testutils

import (
	"context"
	"net/http"

	"jobboard/internal/auth"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// WithChiURLParams подставляет параметры пути в контекст chi запроса для тестов.
func WithChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for k, v := range params {
		chiCtx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

// WithUser помечает запрос как пришедший от пользователя userID, минуя проверку токена.
func WithUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}
