package models

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobOpen      JobStatus = "OPEN"
	JobBidding   JobStatus = "BIDDING"
	JobAwarded   JobStatus = "AWARDED"
	JobCompleted JobStatus = "COMPLETED"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobOpen, JobBidding, JobAwarded, JobCompleted:
		return true
	default:
		return false
	}
}

// AcceptsBids сообщает, можно ли подавать предложения на работу в этом статусе.
func (s JobStatus) AcceptsBids() bool {
	return s == JobOpen || s == JobBidding
}

type JobType string

const (
	JobTypeTech    JobType = "tech"
	JobTypeTrainer JobType = "trainer"
)

func (t JobType) Valid() bool {
	return t == JobTypeTech || t == JobTypeTrainer
}

type Priority string

const (
	PriorityP0    Priority = "P0"
	PriorityP1    Priority = "P1"
	PriorityP2    Priority = "P2"
	PriorityScott Priority = "SCOTT"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityP0, PriorityP1, PriorityP2, PriorityScott:
		return true
	default:
		return false
	}
}

type BidStatus string

const (
	BidSubmitted BidStatus = "submitted"
	BidAccepted  BidStatus = "accepted"
	BidRejected  BidStatus = "rejected"
	BidWithdrawn BidStatus = "withdrawn"
)

func (s BidStatus) Valid() bool {
	switch s {
	case BidSubmitted, BidAccepted, BidRejected, BidWithdrawn:
		return true
	default:
		return false
	}
}

type AwardStatus string

const (
	AwardActive     AwardStatus = "active"
	AwardSuperseded AwardStatus = "superseded"
)

// Сущность работы (заявки на ремонт или обучение)
type Job struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	JobType             JobType    `db:"job_type" json:"job_type"`
	Status              JobStatus  `db:"status" json:"status"`
	Priority            Priority   `db:"priority" json:"priority"`
	Title               string     `db:"title" json:"title"`
	CompanyName         string     `db:"company_name" json:"company_name"`
	CustomerName        string     `db:"customer_name" json:"customer_name"`
	Model               string     `db:"model" json:"model"`
	City                string     `db:"city" json:"city"`
	State               string     `db:"state" json:"state"`
	Address             string     `db:"address" json:"address"`
	ContactName         string     `db:"contact_name" json:"contact_name"`
	ContactEmail        string     `db:"contact_email" json:"contact_email"`
	ContactPhone        string     `db:"contact_phone" json:"contact_phone"`
	PublicInstructions  string     `db:"public_instructions" json:"public_instructions"`
	PrivateInstructions string     `db:"private_instructions" json:"private_instructions"`
	MetDate             *time.Time `db:"met_date" json:"met_date"`
	AwardedTo           *uuid.UUID `db:"awarded_to" json:"awarded_to"`
	AwardedAt           *time.Time `db:"awarded_at" json:"awarded_at"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// Сущность предложения
type Bid struct {
	ID        uuid.UUID `db:"id" json:"id"`
	JobID     uuid.UUID `db:"job_id" json:"job_id"`
	BidderID  uuid.UUID `db:"bidder_id" json:"bidder_id"`
	AskPrice  float64   `db:"ask_price" json:"ask_price"`
	Status    BidStatus `db:"status" json:"status"`
	Note      string    `db:"note" json:"note"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// Сущность присуждения работы
type Award struct {
	ID            uuid.UUID   `db:"id" json:"id"`
	JobID         uuid.UUID   `db:"job_id" json:"job_id"`
	BidID         uuid.UUID   `db:"bid_id" json:"bid_id"`
	AwardedUserID uuid.UUID   `db:"awarded_user_id" json:"awarded_user_id"`
	AwardedBy     uuid.UUID   `db:"awarded_by" json:"awarded_by"`
	AwardAmount   float64     `db:"award_amount" json:"award_amount"`
	Status        AwardStatus `db:"status" json:"status"`
	Notes         string      `db:"notes" json:"notes"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}

// Профиль пользователя. Таблицей владеет провайдер авторизации, здесь только чтение.
type Profile struct {
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Email       string    `db:"email" json:"email"`
	FullName    string    `db:"full_name" json:"full_name"`
	RoleTech    bool      `db:"role_tech" json:"role_tech"`
	RoleTrainer bool      `db:"role_trainer" json:"role_trainer"`
	RoleAdmin   bool      `db:"role_admin" json:"role_admin"`
	IsApproved  bool      `db:"is_approved" json:"is_approved"`
	City        string    `db:"city" json:"city"`
	State       string    `db:"state" json:"state"`
}

// JobFilter: параметры выборки публичного списка работ.
type JobFilter struct {
	Statuses []JobStatus
	JobType  JobType
	State    string
	City     string
	Priority Priority
	Limit    int
	Offset   int
}
