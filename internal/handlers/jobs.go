package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"jobboard/internal/award"
	"jobboard/internal/listing"
	"jobboard/internal/policy"
	"jobboard/models"

	"github.com/google/uuid"
)

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams парсит limit и offset из query, с дефолтами и ограничениями
func parsePaginationParams(r *http.Request) PaginationParams {
	var params PaginationParams
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	params.Limit = listing.DefaultLimit

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= listing.MaxLimit {
			params.Limit = l
		}
	}
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			params.Offset = o
		}
	}
	return params
}

// разрешённые ручные переходы; AWARDED ставится только присуждением
var allowedTransitions = map[models.JobStatus]models.JobStatus{
	models.JobOpen:    models.JobBidding,
	models.JobBidding: models.JobOpen,
}

type createJobRequest struct {
	JobType             models.JobType  `json:"job_type"`
	Priority            models.Priority `json:"priority"`
	Title               string          `json:"title"`
	CompanyName         string          `json:"company_name"`
	CustomerName        string          `json:"customer_name"`
	Model               string          `json:"model"`
	City                string          `json:"city"`
	State               string          `json:"state"`
	Address             string          `json:"address"`
	ContactName         string          `json:"contact_name"`
	ContactEmail        string          `json:"contact_email"`
	ContactPhone        string          `json:"contact_phone"`
	PublicInstructions  string          `json:"public_instructions"`
	PrivateInstructions string          `json:"private_instructions"`
	MetDate             string          `json:"met_date"` // YYYY-MM-DD, колонка DATE

	metDate *time.Time
}

func validateJobRequest(req *createJobRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.State = strings.TrimSpace(req.State)
	req.City = strings.TrimSpace(req.City)

	if req.Title == "" || len(req.Title) > 200 {
		return fmt.Errorf("%w: title is required and must be at most 200 characters", models.ErrValidation)
	}
	if !req.JobType.Valid() {
		return fmt.Errorf("%w: job_type must be tech or trainer", models.ErrValidation)
	}
	if req.Priority == "" {
		req.Priority = models.PriorityP2
	}
	if !req.Priority.Valid() {
		return fmt.Errorf("%w: invalid priority", models.ErrValidation)
	}
	if req.State == "" {
		return fmt.Errorf("%w: state is required", models.ErrValidation)
	}
	if d := strings.TrimSpace(req.MetDate); d != "" {
		t, err := time.Parse(time.DateOnly, d)
		if err != nil {
			// полный RFC3339 тоже принимаем, время отбрасывается
			ts, tsErr := time.Parse(time.RFC3339, d)
			if tsErr != nil {
				return fmt.Errorf("%w: met_date must be YYYY-MM-DD", models.ErrValidation)
			}
			t = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		}
		req.metDate = &t
	}
	return nil
}

// CreateJobHandler: создание работы администратором, всегда в статусе OPEN.
func (h *Handler) CreateJobHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := h.currentProfile(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := policy.RequireAdmin(caller); err != nil {
		writeError(w, err)
		return
	}

	var req createJobRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateJobRequest(&req); err != nil {
		writeError(w, err)
		return
	}

	job := &models.Job{
		JobType:             req.JobType,
		Status:              models.JobOpen,
		Priority:            req.Priority,
		Title:               req.Title,
		CompanyName:         req.CompanyName,
		CustomerName:        req.CustomerName,
		Model:               req.Model,
		City:                req.City,
		State:               req.State,
		Address:             req.Address,
		ContactName:         req.ContactName,
		ContactEmail:        req.ContactEmail,
		ContactPhone:        req.ContactPhone,
		PublicInstructions:  req.PublicInstructions,
		PrivateInstructions: req.PrivateInstructions,
		MetDate:             req.metDate,
	}
	if err := h.Store.CreateJob(r.Context(), job); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, job)
}

// GetPublicJobsHandler: публичный список работ с фильтрами и постраничной выдачей.
// Состав полей каждой работы зависит от того, кто смотрит.
func (h *Handler) GetPublicJobsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := models.JobFilter{
		JobType:  models.JobType(q.Get("job_type")),
		Priority: models.Priority(q.Get("priority")),
		State:    strings.TrimSpace(q.Get("state")),
		City:     strings.TrimSpace(q.Get("city")),
	}
	if filter.JobType != "" && !filter.JobType.Valid() {
		writeError(w, fmt.Errorf("%w: invalid job_type", models.ErrValidation))
		return
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		writeError(w, fmt.Errorf("%w: invalid priority", models.ErrValidation))
		return
	}

	// status может повторяться или идти через запятую
	for _, raw := range q["status"] {
		for _, s := range strings.Split(raw, ",") {
			st := models.JobStatus(strings.ToUpper(strings.TrimSpace(s)))
			if st == "" {
				continue
			}
			if !st.Valid() {
				writeError(w, fmt.Errorf("%w: invalid status %q", models.ErrValidation, s))
				return
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}
	if len(filter.Statuses) == 0 {
		filter.Statuses = []models.JobStatus{models.JobOpen, models.JobBidding}
	}

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	page, limit, offset := listing.Normalize(page, limit)
	filter.Limit, filter.Offset = limit, offset

	viewer, err := h.viewerProfile(r)
	if err != nil {
		writeError(w, err)
		return
	}

	jobs, total, err := h.Store.ListPublicJobs(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":       listing.ProjectAll(jobs, viewer),
		"pagination": listing.NewPagination(page, limit, total),
	})
}

// ChangeJobStatusHandler: ручное открытие и закрытие приёма предложений (OPEN <-> BIDDING).
func (h *Handler) ChangeJobStatusHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := h.currentProfile(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := policy.RequireAdmin(caller); err != nil {
		writeError(w, err)
		return
	}

	jobID, err := uuidParam(r, "jobId")
	if err != nil {
		writeError(w, err)
		return
	}
	newStatus := models.JobStatus(strings.ToUpper(r.URL.Query().Get("status")))
	if !newStatus.Valid() {
		writeError(w, fmt.Errorf("%w: invalid status value", models.ErrValidation))
		return
	}

	job, err := h.Store.GetJob(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}

	// Проверка возможности перехода статуса
	if next, ok := allowedTransitions[job.Status]; !ok || next != newStatus {
		writeError(w, fmt.Errorf("%w: invalid status transition %s -> %s", models.ErrValidation, job.Status, newStatus))
		return
	}

	ok, err := h.Store.UpdateJobStatus(r.Context(), job.ID, job.Status, newStatus)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, fmt.Errorf("%w: job status changed concurrently", models.ErrInvalidState))
		return
	}

	job.Status = newStatus
	writeJSON(w, http.StatusOK, job)
}

// GetJobBidsHandler: все предложения по работе, для администратора.
func (h *Handler) GetJobBidsHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := h.currentProfile(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := policy.RequireAdmin(caller); err != nil {
		writeError(w, err)
		return
	}

	jobID, err := uuidParam(r, "jobId")
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.Store.GetJob(r.Context(), jobID); err != nil {
		writeError(w, err)
		return
	}

	bids, err := h.Store.ListBidsForJob(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	if bids == nil {
		bids = []models.Bid{}
	}
	writeJSON(w, http.StatusOK, bids)
}

type awardJobRequest struct {
	BidID         uuid.UUID `json:"bid_id"`
	AwardedUserID uuid.UUID `json:"awarded_user_id"`
	Notes         string    `json:"notes"`
}

// AwardJobHandler передаёт запрос в сценарий присуждения; проверки состояния там.
func (h *Handler) AwardJobHandler(w http.ResponseWriter, r *http.Request) {
	// права проверяются до разбора запроса
	caller, err := h.currentProfile(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := policy.RequireAdmin(caller); err != nil {
		writeError(w, err)
		return
	}
	jobID, err := uuidParam(r, "jobId")
	if err != nil {
		writeError(w, err)
		return
	}

	var req awardJobRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.Awards.Award(r.Context(), award.Request{
		JobID:         jobID,
		BidID:         req.BidID,
		AwardedUserID: req.AwardedUserID,
		AdminID:       caller.UserID,
		Notes:         strings.TrimSpace(req.Notes),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":         "Job awarded successfully",
		"award_id":        res.AwardID,
		"job_id":          res.JobID,
		"awarded_user_id": res.AwardedUserID,
		"award_amount":    res.AwardAmount,
	})
}
