package handlers

import (
	"context"

	"jobboard/models"

	"github.com/google/uuid"
)

type StorageInterface interface {
	Ping(ctx context.Context) error

	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, jobID uuid.UUID, from, to models.JobStatus) (bool, error)
	ListPublicJobs(ctx context.Context, filter models.JobFilter) ([]models.Job, int, error)

	CreateBid(ctx context.Context, bid *models.Bid) error
	GetBid(ctx context.Context, bidID uuid.UUID) (*models.Bid, error)
	WithdrawBid(ctx context.Context, bidID uuid.UUID) (bool, error)
	ListBidsForJob(ctx context.Context, jobID uuid.UUID) ([]models.Bid, error)
	GetUserBids(ctx context.Context, bidderID uuid.UUID, limit, offset int) ([]models.Bid, error)
}
