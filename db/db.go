package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobboard/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// код ошибки Postgres unique_violation
const uniqueViolation = "23505"

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// getErr приводит ошибку чтения одной строки к таксономии models.
func getErr(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", models.ErrNotFound, entity)
	}
	return fmt.Errorf("%w: get %s: %w", models.ErrPersistence, entity, err)
}

func writeErr(err error, op string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", models.ErrPersistence, op, err)
}

// Profile (Профиль)

func (s *Storage) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	p := &models.Profile{}
	query := `
        SELECT user_id, email, full_name, role_tech, role_trainer, role_admin, is_approved, city, state
        FROM profiles WHERE user_id=$1`
	if err := s.db.GetContext(ctx, p, query, userID); err != nil {
		return nil, getErr(err, "profile")
	}
	return p, nil
}

// Job (Работа)

const jobColumns = `id, job_type, status, priority, title, company_name, customer_name, model,
        city, state, address, contact_name, contact_email, contact_phone,
        public_instructions, private_instructions, met_date, awarded_to, awarded_at,
        created_at, updated_at`

func (s *Storage) CreateJob(ctx context.Context, j *models.Job) error {
	query := `
        INSERT INTO jobs
            (job_type, status, priority, title, company_name, customer_name, model,
             city, state, address, contact_name, contact_email, contact_phone,
             public_instructions, private_instructions, met_date)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		j.JobType, j.Status, j.Priority, j.Title, j.CompanyName, j.CustomerName, j.Model,
		j.City, j.State, j.Address, j.ContactName, j.ContactEmail, j.ContactPhone,
		j.PublicInstructions, j.PrivateInstructions, j.MetDate).
		Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt)
	return writeErr(err, "create job")
}

func (s *Storage) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	j := &models.Job{}
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id=$1`
	if err := s.db.GetContext(ctx, j, query, id); err != nil {
		return nil, getErr(err, "job")
	}
	return j, nil
}

// UpdateJobStatus переводит работу из from в to. Возвращает false, если
// статус уже изменился.
func (s *Storage) UpdateJobStatus(ctx context.Context, id uuid.UUID, from, to models.JobStatus) (bool, error) {
	query := `UPDATE jobs SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	res, err := s.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, writeErr(err, "update job status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, writeErr(err, "update job status")
	}
	return n == 1, nil
}

// ListPublicJobs возвращает страницу работ по фильтру и общее количество.
func (s *Storage) ListPublicJobs(ctx context.Context, f models.JobFilter) ([]models.Job, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		conds = append(conds, "status = ANY("+arg(pq.Array(statuses))+")")
	}
	if f.JobType != "" {
		conds = append(conds, "job_type = "+arg(f.JobType))
	}
	if f.Priority != "" {
		conds = append(conds, "priority = "+arg(f.Priority))
	}
	if f.State != "" {
		conds = append(conds, "upper(state) = upper("+arg(f.State)+")")
	}
	if f.City != "" {
		conds = append(conds, "lower(city) = lower("+arg(f.City)+")")
	}

	filter := ""
	if len(conds) > 0 {
		filter = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(1) FROM jobs"+filter, args...); err != nil {
		return nil, 0, getErr(err, "jobs count")
	}

	query := "SELECT " + jobColumns + " FROM jobs" + filter + " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)

	jobs := []models.Job{}
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, 0, writeErr(err, "list jobs")
	}
	return jobs, total, nil
}

// Bid (Предложение)

const bidColumns = `id, job_id, bidder_id, ask_price, status, note, created_at, updated_at`

func (s *Storage) CreateBid(ctx context.Context, b *models.Bid) error {
	query := `
        INSERT INTO bids (job_id, bidder_id, ask_price, status, note)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query, b.JobID, b.BidderID, b.AskPrice, b.Status, b.Note).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	return writeErr(err, "create bid")
}

func (s *Storage) GetBid(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	b := &models.Bid{}
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id=$1`
	if err := s.db.GetContext(ctx, b, query, id); err != nil {
		return nil, getErr(err, "bid")
	}
	return b, nil
}

// WithdrawBid отзывает предложение, только если оно ещё в статусе submitted.
func (s *Storage) WithdrawBid(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE bids SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	res, err := s.db.ExecContext(ctx, query, models.BidWithdrawn, id, models.BidSubmitted)
	if err != nil {
		return false, writeErr(err, "withdraw bid")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, writeErr(err, "withdraw bid")
	}
	return n == 1, nil
}

func (s *Storage) ListBidsForJob(ctx context.Context, jobID uuid.UUID) ([]models.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE job_id=$1 ORDER BY created_at DESC`
	bids := []models.Bid{}
	if err := s.db.SelectContext(ctx, &bids, query, jobID); err != nil {
		return nil, writeErr(err, "list bids for job")
	}
	return bids, nil
}

func (s *Storage) GetUserBids(ctx context.Context, bidderID uuid.UUID, limit, offset int) ([]models.Bid, error) {
	query := `
        SELECT ` + bidColumns + ` FROM bids
        WHERE bidder_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	bids := []models.Bid{}
	if err := s.db.SelectContext(ctx, &bids, query, bidderID, limit, offset); err != nil {
		return nil, writeErr(err, "list user bids")
	}
	return bids, nil
}

// Award (Присуждение)

// AwardWriter описывает записи, которые сценарий присуждения делает в одной транзакции.
type AwardWriter interface {
	MarkJobAwarded(ctx context.Context, jobID, userID uuid.UUID, at time.Time) (bool, error)
	InsertAward(ctx context.Context, a *models.Award) error
	AcceptBid(ctx context.Context, jobID, bidID uuid.UUID) (bool, error)
	RejectOtherBids(ctx context.Context, jobID, winningBidID uuid.UUID) (int64, error)
}

// WithAwardTx выполняет fn в транзакции. Любая ошибка fn откатывает все записи.
func (s *Storage) WithAwardTx(ctx context.Context, fn func(AwardWriter) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return writeErr(err, "begin award tx")
	}
	// после Commit вернёт sql.ErrTxDone, это нормально
	defer tx.Rollback()

	if err := fn(&awardTx{tx: tx}); err != nil {
		return err
	}
	return writeErr(tx.Commit(), "commit award tx")
}

type awardTx struct {
	tx *sqlx.Tx
}

func (t *awardTx) MarkJobAwarded(ctx context.Context, jobID, userID uuid.UUID, at time.Time) (bool, error) {
	query := `
        UPDATE jobs
        SET status=$1, awarded_to=$2, awarded_at=$3, updated_at=NOW()
        WHERE id=$4 AND status=$5`
	res, err := t.tx.ExecContext(ctx, query, models.JobAwarded, userID, at, jobID, models.JobBidding)
	if err != nil {
		return false, writeErr(err, "mark job awarded")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, writeErr(err, "mark job awarded")
	}
	return n == 1, nil
}

func (t *awardTx) InsertAward(ctx context.Context, a *models.Award) error {
	query := `
        INSERT INTO awards (job_id, bid_id, awarded_user_id, awarded_by, award_amount, status, notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at`
	err := t.tx.QueryRowContext(ctx, query,
		a.JobID, a.BidID, a.AwardedUserID, a.AwardedBy, a.AwardAmount, a.Status, a.Notes).
		Scan(&a.ID, &a.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: job already has an active award", models.ErrInvalidState)
	}
	return writeErr(err, "insert award")
}

func (t *awardTx) AcceptBid(ctx context.Context, jobID, bidID uuid.UUID) (bool, error) {
	query := `
        UPDATE bids SET status=$1, updated_at=NOW()
        WHERE id=$2 AND job_id=$3 AND status=$4`
	res, err := t.tx.ExecContext(ctx, query, models.BidAccepted, bidID, jobID, models.BidSubmitted)
	if err != nil {
		return false, writeErr(err, "accept bid")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, writeErr(err, "accept bid")
	}
	return n == 1, nil
}

func (t *awardTx) RejectOtherBids(ctx context.Context, jobID, winningBidID uuid.UUID) (int64, error) {
	query := `
        UPDATE bids SET status=$1, updated_at=NOW()
        WHERE job_id=$2 AND id<>$3 AND status=$4`
	res, err := t.tx.ExecContext(ctx, query, models.BidRejected, jobID, winningBidID, models.BidSubmitted)
	if err != nil {
		return 0, writeErr(err, "reject other bids")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, writeErr(err, "reject other bids")
	}
	return n, nil
}
