package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strings"

	"jobboard/internal/policy"
	"jobboard/models"

	"github.com/google/uuid"
)

// границы колонки bids.ask_price NUMERIC(12,2) CHECK (ask_price > 0)
const (
	minAskPrice = 0.01
	maxAskPrice = 9999999999.99
)

type createBidRequest struct {
	JobID    uuid.UUID `json:"job_id"`
	AskPrice float64   `json:"ask_price"`
	Note     string    `json:"note"`
}

func validateBidRequest(req *createBidRequest) error {
	req.Note = strings.TrimSpace(req.Note)
	if req.JobID == uuid.Nil {
		return fmt.Errorf("%w: job_id is required", models.ErrValidation)
	}
	if math.IsInf(req.AskPrice, 0) || math.IsNaN(req.AskPrice) ||
		req.AskPrice < minAskPrice || req.AskPrice > maxAskPrice {
		return fmt.Errorf("%w: ask_price must be between %.2f and %.2f", models.ErrValidation, minAskPrice, maxAskPrice)
	}
	cents := req.AskPrice * 100
	if math.Abs(cents-math.Round(cents)) > 1e-3 {
		return fmt.Errorf("%w: ask_price must have at most two decimal places", models.ErrValidation)
	}
	// хранится как NUMERIC(12,2)
	req.AskPrice = math.Round(cents) / 100
	if len(req.Note) > 1000 {
		return fmt.Errorf("%w: note must be at most 1000 characters", models.ErrValidation)
	}
	return nil
}

// CreateBidHandler: подача предложения одобренным пользователем подходящей роли.
func (h *Handler) CreateBidHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := h.currentProfile(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createBidRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateBidRequest(&req); err != nil {
		writeError(w, err)
		return
	}

	job, err := h.Store.GetJob(r.Context(), req.JobID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := policy.CanBid(caller, job); err != nil {
		writeError(w, err)
		return
	}

	bid := &models.Bid{
		JobID:    job.ID,
		BidderID: caller.UserID,
		AskPrice: req.AskPrice,
		Status:   models.BidSubmitted, // Статус при создании
		Note:     req.Note,
	}
	if err := h.Store.CreateBid(r.Context(), bid); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, bid)
}

// WithdrawBidHandler: отзыв своего предложения, пока оно не рассмотрено.
func (h *Handler) WithdrawBidHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := h.currentProfile(r)
	if err != nil {
		writeError(w, err)
		return
	}
	bidID, err := uuidParam(r, "bidId")
	if err != nil {
		writeError(w, err)
		return
	}

	bid, err := h.Store.GetBid(r.Context(), bidID)
	if err != nil {
		writeError(w, err)
		return
	}
	if bid.BidderID != caller.UserID {
		writeError(w, fmt.Errorf("%w: only the bidder can withdraw a bid", models.ErrForbidden))
		return
	}
	if bid.Status != models.BidSubmitted {
		writeError(w, fmt.Errorf("%w: bid is %s", models.ErrInvalidState, bid.Status))
		return
	}

	// условный UPDATE: предложение могли принять между чтением и записью
	ok, err := h.Store.WithdrawBid(r.Context(), bid.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, fmt.Errorf("%w: bid is no longer submitted", models.ErrInvalidState))
		return
	}

	bid.Status = models.BidWithdrawn
	writeJSON(w, http.StatusOK, bid)
}

// GetUserBidsHandler возвращает предложения текущего пользователя
func (h *Handler) GetUserBidsHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := h.currentProfile(r)
	if err != nil {
		writeError(w, err)
		return
	}
	params := parsePaginationParams(r)

	bids, err := h.Store.GetUserBids(r.Context(), caller.UserID, params.Limit, params.Offset)
	if err != nil {
		writeError(w, err)
		return
	}
	if bids == nil {
		bids = []models.Bid{}
	}
	writeJSON(w, http.StatusOK, bids)
}
