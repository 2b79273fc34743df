// Package award реализует присуждение работы: перевод BIDDING → AWARDED,
// принятие выбранного предложения, отклонение остальных и уведомление победителя.
//
// Все записи выполняются в одной транзакции. Переход статуса работы выполняется условным
// UPDATE ... WHERE status='BIDDING', поэтому из двух параллельных попыток
// фиксируется только одна. Уведомление отправляется после commit и на результат
// не влияет.
package award

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"jobboard/db"
	"jobboard/internal/notify"
	"jobboard/internal/policy"
	"jobboard/models"

	"github.com/google/uuid"
)

// Store: то, что сценарию нужно от хранилища.
type Store interface {
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	GetBid(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	WithAwardTx(ctx context.Context, fn func(db.AwardWriter) error) error
}

type Notifier interface {
	NotifyAward(ctx context.Context, n notify.AwardNotice) error
}

type Request struct {
	JobID         uuid.UUID
	BidID         uuid.UUID
	AwardedUserID uuid.UUID
	AdminID       uuid.UUID
	Notes         string
}

type Result struct {
	AwardID       uuid.UUID
	JobID         uuid.UUID
	AwardedUserID uuid.UUID
	AwardAmount   float64
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

type Service struct {
	store    Store
	notifier Notifier
	now      func() time.Time
	logger   *log.Logger
}

// NewService. notifier может быть nil, тогда уведомления не отправляются.
func NewService(store Store, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Award проверяет предусловия по порядку и атомарно присуждает работу.
func (s *Service) Award(ctx context.Context, req Request) (*Result, error) {
	// 1. вызывающий должен быть администратором
	if req.AdminID == uuid.Nil {
		return nil, fmt.Errorf("%w: no session", models.ErrUnauthenticated)
	}
	admin, err := s.store.GetProfile(ctx, req.AdminID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: caller has no profile", models.ErrForbidden)
	}
	if err != nil {
		return nil, err
	}
	if err := policy.RequireAdmin(admin); err != nil {
		return nil, err
	}
	if req.BidID == uuid.Nil || req.AwardedUserID == uuid.Nil {
		return nil, fmt.Errorf("%w: bid_id and awarded_user_id are required", models.ErrValidation)
	}

	// 2. работа существует и в статусе BIDDING
	job, err := s.store.GetJob(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobBidding {
		return nil, fmt.Errorf("%w: job is %s, not open for award", models.ErrInvalidState, job.Status)
	}

	// 3. предложение принадлежит работе, подано награждаемым и ещё не рассмотрено
	bid, err := s.store.GetBid(ctx, req.BidID)
	if err != nil {
		return nil, err
	}
	switch {
	case bid.JobID != job.ID:
		return nil, fmt.Errorf("%w: bid does not belong to this job", models.ErrInvalidState)
	case bid.Status != models.BidSubmitted:
		return nil, fmt.Errorf("%w: bid is %s", models.ErrInvalidState, bid.Status)
	case bid.BidderID != req.AwardedUserID:
		return nil, fmt.Errorf("%w: bid was not placed by the awarded user", models.ErrInvalidState)
	}

	// 4-5. пользователь одобрен и роль совпадает с типом работы
	winner, err := s.store.GetProfile(ctx, req.AwardedUserID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanBeAwarded(winner, job); err != nil {
		return nil, err
	}

	now := s.now()
	award := &models.Award{
		JobID:         job.ID,
		BidID:         bid.ID,
		AwardedUserID: req.AwardedUserID,
		AwardedBy:     req.AdminID,
		AwardAmount:   bid.AskPrice,
		Status:        models.AwardActive,
		Notes:         req.Notes,
	}

	err = s.store.WithAwardTx(ctx, func(w db.AwardWriter) error {
		ok, err := w.MarkJobAwarded(ctx, job.ID, req.AwardedUserID, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: job was awarded concurrently", models.ErrInvalidState)
		}
		if err := w.InsertAward(ctx, award); err != nil {
			return err
		}
		ok, err = w.AcceptBid(ctx, job.ID, bid.ID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: bid is no longer submitted", models.ErrInvalidState)
		}
		_, err = w.RejectOtherBids(ctx, job.ID, bid.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, models.ErrInvalidState) {
			return nil, err
		}
		s.logger.Printf("award job %s: %v", job.ID, err)
		if !errors.Is(err, models.ErrPersistence) {
			err = fmt.Errorf("%w: %w", models.ErrPersistence, err)
		}
		return nil, err
	}

	s.notify(ctx, noticeFor(job, award, winner))

	return &Result{
		AwardID:       award.ID,
		JobID:         job.ID,
		AwardedUserID: req.AwardedUserID,
		AwardAmount:   award.AwardAmount,
	}, nil
}

// notify: ошибки и паника уведомления только логируются.
func (s *Service) notify(ctx context.Context, n notify.AwardNotice) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("award notification for job %s panicked: %v", n.JobID, r)
		}
	}()
	if err := s.notifier.NotifyAward(ctx, n); err != nil {
		s.logger.Printf("award notification for job %s failed: %v", n.JobID, err)
	}
}

func noticeFor(job *models.Job, award *models.Award, winner *models.Profile) notify.AwardNotice {
	return notify.AwardNotice{
		JobID:          job.ID,
		AwardID:        award.ID,
		JobTitle:       job.Title,
		JobType:        string(job.JobType),
		CompanyName:    job.CompanyName,
		City:           job.City,
		State:          job.State,
		Address:        job.Address,
		MetDate:        job.MetDate,
		AwardAmount:    award.AwardAmount,
		Notes:          award.Notes,
		RecipientID:    winner.UserID,
		RecipientEmail: winner.Email,
		RecipientName:  winner.FullName,
	}
}
