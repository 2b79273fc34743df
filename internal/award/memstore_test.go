package award_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jobboard/db"
	"jobboard/models"

	"github.com/google/uuid"
)

// memStore: хранилище в памяти с транзакциями: записи идут в копию состояния,
// которая подменяет основное только при успешном завершении. Транзакции
// выполняются по одной, как строки под блокировкой в Postgres.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	jobs     map[uuid.UUID]models.Job
	bids     map[uuid.UUID]models.Bid
	profiles map[uuid.UUID]models.Profile
	awards   []models.Award

	onGetJob func()
	failOn   string
}

func newMemStore() *memStore {
	return &memStore{
		jobs:     map[uuid.UUID]models.Job{},
		bids:     map[uuid.UUID]models.Bid{},
		profiles: map[uuid.UUID]models.Profile{},
	}
}

func (s *memStore) GetJob(_ context.Context, id uuid.UUID) (*models.Job, error) {
	if s.onGetJob != nil {
		s.onGetJob()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: job", models.ErrNotFound)
	}
	return &j, nil
}

func (s *memStore) GetBid(_ context.Context, id uuid.UUID) (*models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bids[id]
	if !ok {
		return nil, fmt.Errorf("%w: bid", models.ErrNotFound)
	}
	return &b, nil
}

func (s *memStore) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: profile", models.ErrNotFound)
	}
	return &p, nil
}

func (s *memStore) WithAwardTx(ctx context.Context, fn func(db.AwardWriter) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	tx := &memTx{
		jobs:   make(map[uuid.UUID]models.Job, len(s.jobs)),
		bids:   make(map[uuid.UUID]models.Bid, len(s.bids)),
		awards: append([]models.Award(nil), s.awards...),
		failOn: s.failOn,
	}
	for k, v := range s.jobs {
		tx.jobs[k] = v
	}
	for k, v := range s.bids {
		tx.bids[k] = v
	}
	s.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.jobs, s.bids, s.awards = tx.jobs, tx.bids, tx.awards
	s.mu.Unlock()
	return nil
}

func (s *memStore) job(id uuid.UUID) models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

func (s *memStore) bid(id uuid.UUID) models.Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bids[id]
}

func (s *memStore) awardsFor(jobID uuid.UUID) []models.Award {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Award
	for _, a := range s.awards {
		if a.JobID == jobID {
			out = append(out, a)
		}
	}
	return out
}

func (s *memStore) bidsFor(jobID uuid.UUID) []models.Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Bid
	for _, b := range s.bids {
		if b.JobID == jobID {
			out = append(out, b)
		}
	}
	return out
}

type memTx struct {
	jobs   map[uuid.UUID]models.Job
	bids   map[uuid.UUID]models.Bid
	awards []models.Award
	failOn string
}

func (t *memTx) fail(op string) error {
	if t.failOn == op {
		return fmt.Errorf("%w: %s: injected failure", models.ErrPersistence, op)
	}
	return nil
}

func (t *memTx) MarkJobAwarded(_ context.Context, jobID, userID uuid.UUID, at time.Time) (bool, error) {
	if err := t.fail("MarkJobAwarded"); err != nil {
		return false, err
	}
	j, ok := t.jobs[jobID]
	if !ok || j.Status != models.JobBidding {
		return false, nil
	}
	j.Status = models.JobAwarded
	j.AwardedTo = &userID
	j.AwardedAt = &at
	t.jobs[jobID] = j
	return true, nil
}

func (t *memTx) InsertAward(_ context.Context, a *models.Award) error {
	if err := t.fail("InsertAward"); err != nil {
		return err
	}
	for _, existing := range t.awards {
		if existing.JobID == a.JobID && existing.Status == models.AwardActive {
			return fmt.Errorf("%w: job already has an active award", models.ErrInvalidState)
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	t.awards = append(t.awards, *a)
	return nil
}

func (t *memTx) AcceptBid(_ context.Context, jobID, bidID uuid.UUID) (bool, error) {
	if err := t.fail("AcceptBid"); err != nil {
		return false, err
	}
	b, ok := t.bids[bidID]
	if !ok || b.JobID != jobID || b.Status != models.BidSubmitted {
		return false, nil
	}
	b.Status = models.BidAccepted
	t.bids[bidID] = b
	return true, nil
}

func (t *memTx) RejectOtherBids(_ context.Context, jobID, winningBidID uuid.UUID) (int64, error) {
	if err := t.fail("RejectOtherBids"); err != nil {
		return 0, err
	}
	var n int64
	for id, b := range t.bids {
		if b.JobID == jobID && id != winningBidID && b.Status == models.BidSubmitted {
			b.Status = models.BidRejected
			t.bids[id] = b
			n++
		}
	}
	return n, nil
}
