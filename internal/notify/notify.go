// Package notify доставляет уведомление о присуждении работы.
// Сбой уведомления никогда не отменяет само присуждение.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AwardNotice: краткая сводка по работе для победителя.
type AwardNotice struct {
	JobID          uuid.UUID
	AwardID        uuid.UUID
	JobTitle       string
	JobType        string
	CompanyName    string
	City           string
	State          string
	Address        string
	MetDate        *time.Time
	AwardAmount    float64
	Notes          string
	RecipientID    uuid.UUID
	RecipientEmail string
	RecipientName  string
}

type Notifier interface {
	NotifyAward(ctx context.Context, n AwardNotice) error
}

// Multi рассылает уведомление во все каналы и собирает ошибки.
type Multi []Notifier

func (m Multi) NotifyAward(ctx context.Context, n AwardNotice) error {
	var errs []error
	for _, nt := range m {
		if err := nt.NotifyAward(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Async отправляет уведомления в фоне, отвязав их от контекста запроса.
type Async struct {
	next    Notifier
	timeout time.Duration
	logger  *log.Logger
	wg      sync.WaitGroup
}

func NewAsync(next Notifier, timeout time.Duration, logger *log.Logger) *Async {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Async{next: next, timeout: timeout, logger: logger}
}

func (a *Async) NotifyAward(ctx context.Context, n AwardNotice) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.logger.Printf("award notification for job %s panicked: %v", n.JobID, r)
			}
		}()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()

		if err := a.next.NotifyAward(sendCtx, n); err != nil {
			a.logger.Printf("award notification for job %s failed: %v", n.JobID, err)
		}
	}()
	return nil
}

// Close ждёт отправки уже запущенных уведомлений.
func (a *Async) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for notifications: %w", ctx.Err())
	}
}
