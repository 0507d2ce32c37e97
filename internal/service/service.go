package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"halaqa-service/internal/config"
	"halaqa-service/internal/lock"
	"halaqa-service/internal/models"
	"halaqa-service/pkg/response"
)

// Service is the scheduling engine: conflict detection, template promotion,
// bulk scheduling, recurring definitions, slot discovery and the calendar
// projection.
type Service struct {
	store  Store
	locker lock.Locker
	cfg    config.Scheduling

	now func() time.Time
}

func NewService(store Store, locker lock.Locker, cfg config.Scheduling) *Service {
	return &Service{
		store:  store,
		locker: locker,
		cfg:    cfg,
		now:    time.Now,
	}
}

// WithClock replaces the service clock. Fixtures pin it to get stable
// scheduling windows.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type Store interface {
	BeginTx(ctx context.Context) (Tx, error)

	// Read side. May run against a replica; the write path re-validates
	// under the teacher lock.
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListTeacherSessions(ctx context.Context, teacherID string, from, to *time.Time) ([]*models.Session, error)
	GetCircle(ctx context.Context, id string) (*models.Circle, error)
	GetSchedule(ctx context.Context, id string) (*models.RecurringSchedule, error)
	GetActiveSchedule(ctx context.Context, circleID string) (*models.RecurringSchedule, error)
}

// Tx is one atomic check-and-write unit. Reads inside the transaction see
// the transaction's own writes, which is what makes in-batch conflict
// detection work during bulk scheduling.
type Tx interface {
	GetSessionForUpdate(ctx context.Context, id string) (*models.Session, error)
	ListTeacherSessions(ctx context.Context, teacherID string, from, to *time.Time) ([]*models.Session, error)
	CountScheduledOwnedSessions(ctx context.Context, owner models.Owner, excludeID string) (int, error)
	CreateSession(ctx context.Context, session *models.Session) (string, error)
	UpdateSession(ctx context.Context, session *models.Session) error
	CreateSchedule(ctx context.Context, schedule *models.RecurringSchedule) (string, error)
	UpdateSchedule(ctx context.Context, schedule *models.RecurringSchedule) error
	GetScheduleForUpdate(ctx context.Context, id string) (*models.RecurringSchedule, error)
	GetActiveScheduleForUpdate(ctx context.Context, circleID string) (*models.RecurringSchedule, error)
	CancelFutureGeneratedSessions(ctx context.Context, scheduleID string, after time.Time, actorID string) (int, error)
	Commit() error
	Rollback() error
}

const teacherLockTTL = 10 * time.Second

// withTeacherLock runs fn while holding the distributed lock for the
// teacher's booking set. Acquisition is retried once after a short backoff
// so two near-simultaneous writers do not both fail.
func (s *Service) withTeacherLock(ctx context.Context, teacherID string, fn func() error) error {
	const op = "service.withTeacherLock"

	lockKey := fmt.Sprintf("teacher:%s", teacherID)

	ttl := s.cfg.LockTTL
	if ttl <= 0 {
		ttl = teacherLockTTL
	}

	locked, err := s.locker.Lock(ctx, lockKey, ttl)
	if err != nil {
		return fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(100 * time.Millisecond):
		}
		locked, err = s.locker.Lock(ctx, lockKey, ttl)
		if err != nil {
			return fmt.Errorf("%s: lock error: %w", op, err)
		}
		if !locked {
			return fmt.Errorf("%s: %w", op, response.ErrLocked)
		}
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	return fn()
}

// runSerializable executes fn in a fresh transaction, retrying exactly once
// when the storage engine reports a serialization failure. fn must be safe
// to re-run from scratch.
func (s *Service) runSerializable(ctx context.Context, fn func(tx Tx) error) error {
	const op = "service.runSerializable"

	for attempt := 0; ; attempt++ {
		tx, err := s.store.BeginTx(ctx)
		if err != nil {
			return fmt.Errorf("%s: begin tx: %w", op, err)
		}

		err = fn(tx)
		if err != nil {
			_ = tx.Rollback()
			if errors.Is(err, response.ErrSerialization) && attempt == 0 {
				continue
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			if errors.Is(err, response.ErrSerialization) && attempt == 0 {
				continue
			}
			return fmt.Errorf("%s: commit: %w", op, err)
		}

		return nil
	}
}
