// Package listing строит публичное представление работ в зависимости от того,
// кто смотрит. Чистые функции, без обращений к хранилищу.
package listing

import (
	"time"

	"jobboard/internal/policy"
	"jobboard/models"

	"github.com/google/uuid"
)

// JobView уходит клиенту в публичном списке.
// private_instructions сюда не попадают никогда.
type JobView struct {
	ID                 uuid.UUID        `json:"id"`
	JobType            models.JobType   `json:"job_type"`
	Status             models.JobStatus `json:"status"`
	Priority           models.Priority  `json:"priority"`
	Title              string           `json:"title"`
	Model              string           `json:"model"`
	State              string           `json:"state"`
	City               string           `json:"city,omitempty"`
	Address            string           `json:"address,omitempty"`
	CompanyName        string           `json:"company_name,omitempty"`
	CustomerName       string           `json:"customer_name,omitempty"`
	ContactName        string           `json:"contact_name,omitempty"`
	ContactEmail       string           `json:"contact_email,omitempty"`
	ContactPhone       string           `json:"contact_phone,omitempty"`
	PublicInstructions string           `json:"public_instructions"`
	MetDate            *time.Time       `json:"met_date"`
	CreatedAt          time.Time        `json:"created_at"`
	Redacted           bool             `json:"redacted"`
	CanBid             bool             `json:"can_bid"`
}

// Project строит детерминированную проекцию работы для заданного уровня доступа.
func Project(job models.Job, access policy.Access) JobView {
	v := JobView{
		ID:                 job.ID,
		JobType:            job.JobType,
		Status:             job.Status,
		Priority:           job.Priority,
		Title:              job.Title,
		Model:              job.Model,
		State:              job.State,
		PublicInstructions: job.PublicInstructions,
		MetDate:            job.MetDate,
		CreatedAt:          job.CreatedAt,
	}

	if access != policy.AccessFull {
		v.Redacted = true
		return v
	}

	v.City = job.City
	v.Address = job.Address
	v.CompanyName = job.CompanyName
	v.CustomerName = job.CustomerName
	v.ContactName = job.ContactName
	v.ContactEmail = job.ContactEmail
	v.ContactPhone = job.ContactPhone
	v.CanBid = job.Status.AcceptsBids()
	return v
}

// ProjectAll применяет политику доступа к каждой работе. viewer == nil означает анонима.
func ProjectAll(jobs []models.Job, viewer *models.Profile) []JobView {
	views := make([]JobView, 0, len(jobs))
	for i := range jobs {
		views = append(views, Project(jobs[i], policy.ListingAccess(viewer, &jobs[i])))
	}
	return views
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
	// дальше MaxPage страницы не листаются, offset остаётся в пределах int
	MaxPage = 1_000_000
)

// Normalize приводит page/limit к допустимым значениям и возвращает offset.
func Normalize(page, limit int) (int, int, int) {
	if page <= 0 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit, (page - 1) * limit
}

func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}
