package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"jobboard/internal/auth"
	"jobboard/internal/award"
	"jobboard/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// максимальный размер тела запроса
const maxBodyBytes = 1 << 20

type AwardService interface {
	Award(ctx context.Context, req award.Request) (*award.Result, error)
}

// Handler оборачивает хранилище и сценарий присуждения
type Handler struct {
	Store  StorageInterface
	Awards AwardService
}

// NewHandler создает новый Handler
func NewHandler(store StorageInterface, awards AwardService) *Handler {
	return &Handler{Store: store, Awards: awards}
}

// Routes монтируется под /api
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/ping", h.PingHandler)

	// работы
	r.Post("/jobs", h.CreateJobHandler)
	r.Get("/jobs/public", h.GetPublicJobsHandler)
	r.Put("/jobs/{jobId}/status", h.ChangeJobStatusHandler)
	r.Get("/jobs/{jobId}/bids", h.GetJobBidsHandler)
	r.Post("/jobs/{jobId}/award", h.AwardJobHandler)

	// предложения
	r.Post("/bids", h.CreateBidHandler)
	r.Get("/bids/my", h.GetUserBidsHandler)
	r.Patch("/bids/{bidId}/withdraw", h.WithdrawBidHandler)
	return r
}

// PingHandler отвечает "ok", если сервер и база доступны
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		log.Printf("ping: %v", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError: единственное место, где ошибки превращаются в HTTP-статусы.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrRoleMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrInvalidState), errors.Is(err, models.ErrIneligible):
		status = http.StatusNotFound
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	// Ограничение размера тела, чтобы избежать DoS
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read request body", models.ErrValidation)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: invalid JSON format", models.ErrValidation)
	}
	return nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", models.ErrValidation, name)
	}
	return id, nil
}

// currentProfile возвращает профиль аутентифицированного пользователя.
func (h *Handler) currentProfile(r *http.Request) (*models.Profile, error) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		return nil, fmt.Errorf("%w: sign in required", models.ErrUnauthenticated)
	}
	p, err := h.Store.GetProfile(r.Context(), userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: profile not found", models.ErrForbidden)
	}
	return p, err
}

// viewerProfile работает как currentProfile, но аноним и пользователь без профиля дают nil.
func (h *Handler) viewerProfile(r *http.Request) (*models.Profile, error) {
	p, err := h.currentProfile(r)
	if errors.Is(err, models.ErrUnauthenticated) || errors.Is(err, models.ErrForbidden) {
		return nil, nil
	}
	return p, err
}
