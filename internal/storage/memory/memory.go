// Package memory is an in-process implementation of the engine's storage
// contract. It backs the test suite and local development; transactions
// stage their writes and publish them on Commit under one store-wide mutex,
// which gives the same read-your-own-writes behavior the SQL store has.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"halaqa-service/internal/models"
	"halaqa-service/internal/service"
	"halaqa-service/pkg/response"
)

type Storage struct {
	mu sync.Mutex

	sessions  map[string]*models.Session
	circles   map[string]*models.Circle
	schedules map[string]*models.RecurringSchedule
}

func New() *Storage {
	return &Storage{
		sessions:  make(map[string]*models.Session),
		circles:   make(map[string]*models.Circle),
		schedules: make(map[string]*models.RecurringSchedule),
	}
}

// Seed helpers. Callers hand over ownership of the value.

func (s *Storage) AddSession(session *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = cloneSession(session)
}

func (s *Storage) AddCircle(circle *models.Circle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.circles[circle.ID] = cloneCircle(circle)
}

func (s *Storage) AddSchedule(schedule *models.RecurringSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[schedule.ID] = cloneSchedule(schedule)
}

func (s *Storage) GetSession(ctx context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return cloneSession(session), nil
}

func (s *Storage) ListTeacherSessions(ctx context.Context, teacherID string, from, to *time.Time) ([]*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listTeacherSessions(s.sessions, teacherID, from, to), nil
}

func (s *Storage) GetCircle(ctx context.Context, id string) (*models.Circle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	circle, ok := s.circles[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return cloneCircle(circle), nil
}

func (s *Storage) GetSchedule(ctx context.Context, id string) (*models.RecurringSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedule, ok := s.schedules[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return cloneSchedule(schedule), nil
}

func (s *Storage) GetActiveSchedule(ctx context.Context, circleID string) (*models.RecurringSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedule := activeSchedule(s.schedules, circleID)
	if schedule == nil {
		return nil, response.ErrNotFound
	}
	return cloneSchedule(schedule), nil
}

// BeginTx takes the store-wide mutex for the transaction's lifetime. Only
// one transaction runs at a time, which is a faithful if heavy-handed stand
// in for serializable isolation.
func (s *Storage) BeginTx(ctx context.Context) (service.Tx, error) {
	s.mu.Lock()
	return &memTx{
		store:     s,
		sessions:  make(map[string]*models.Session),
		schedules: make(map[string]*models.RecurringSchedule),
	}, nil
}

func (s *Storage) Close() error { return nil }

// memTx stages writes in overlay maps; reads consult the overlay first so
// the transaction sees its own writes before Commit.
type memTx struct {
	store *Storage
	done  bool

	sessions  map[string]*models.Session
	schedules map[string]*models.RecurringSchedule
}

func (tx *memTx) readSession(id string) (*models.Session, bool) {
	if session, ok := tx.sessions[id]; ok {
		return session, true
	}
	session, ok := tx.store.sessions[id]
	return session, ok
}

func (tx *memTx) readSchedule(id string) (*models.RecurringSchedule, bool) {
	if schedule, ok := tx.schedules[id]; ok {
		return schedule, true
	}
	schedule, ok := tx.store.schedules[id]
	return schedule, ok
}

// visibleSessions merges the base table with the overlay.
func (tx *memTx) visibleSessions() map[string]*models.Session {
	merged := make(map[string]*models.Session, len(tx.store.sessions)+len(tx.sessions))
	for id, session := range tx.store.sessions {
		merged[id] = session
	}
	for id, session := range tx.sessions {
		merged[id] = session
	}
	return merged
}

func (tx *memTx) visibleSchedules() map[string]*models.RecurringSchedule {
	merged := make(map[string]*models.RecurringSchedule, len(tx.store.schedules)+len(tx.schedules))
	for id, schedule := range tx.store.schedules {
		merged[id] = schedule
	}
	for id, schedule := range tx.schedules {
		merged[id] = schedule
	}
	return merged
}

func (tx *memTx) GetSessionForUpdate(ctx context.Context, id string) (*models.Session, error) {
	session, ok := tx.readSession(id)
	if !ok {
		return nil, response.ErrNotFound
	}
	return cloneSession(session), nil
}

func (tx *memTx) ListTeacherSessions(ctx context.Context, teacherID string, from, to *time.Time) ([]*models.Session, error) {
	return listTeacherSessions(tx.visibleSessions(), teacherID, from, to), nil
}

func (tx *memTx) CountScheduledOwnedSessions(ctx context.Context, owner models.Owner, excludeID string) (int, error) {
	n := 0
	for _, session := range tx.visibleSessions() {
		if session.Owner != owner || session.ID == excludeID {
			continue
		}
		if session.IsScheduled && session.Status != models.SessionCancelled {
			n++
		}
	}
	return n, nil
}

func (tx *memTx) CreateSession(ctx context.Context, session *models.Session) (string, error) {
	tx.sessions[session.ID] = cloneSession(session)
	return session.ID, nil
}

func (tx *memTx) UpdateSession(ctx context.Context, session *models.Session) error {
	if _, ok := tx.readSession(session.ID); !ok {
		return response.ErrNotFound
	}
	tx.sessions[session.ID] = cloneSession(session)
	return nil
}

func (tx *memTx) CreateSchedule(ctx context.Context, schedule *models.RecurringSchedule) (string, error) {
	tx.schedules[schedule.ID] = cloneSchedule(schedule)
	return schedule.ID, nil
}

func (tx *memTx) UpdateSchedule(ctx context.Context, schedule *models.RecurringSchedule) error {
	if _, ok := tx.readSchedule(schedule.ID); !ok {
		return response.ErrNotFound
	}
	tx.schedules[schedule.ID] = cloneSchedule(schedule)
	return nil
}

func (tx *memTx) GetScheduleForUpdate(ctx context.Context, id string) (*models.RecurringSchedule, error) {
	schedule, ok := tx.readSchedule(id)
	if !ok {
		return nil, response.ErrNotFound
	}
	return cloneSchedule(schedule), nil
}

func (tx *memTx) GetActiveScheduleForUpdate(ctx context.Context, circleID string) (*models.RecurringSchedule, error) {
	schedule := activeSchedule(tx.visibleSchedules(), circleID)
	if schedule == nil {
		return nil, response.ErrNotFound
	}
	return cloneSchedule(schedule), nil
}

func (tx *memTx) CancelFutureGeneratedSessions(ctx context.Context, scheduleID string, after time.Time, actorID string) (int, error) {
	n := 0
	for _, session := range tx.visibleSessions() {
		if session.ScheduleID == nil || *session.ScheduleID != scheduleID {
			continue
		}
		if session.Status != models.SessionScheduled {
			continue
		}
		if session.ScheduledAt == nil || !session.ScheduledAt.After(after) {
			continue
		}
		cancelled := cloneSession(session)
		cancelled.Status = models.SessionCancelled
		cancelled.CancelledBy = &actorID
		cancelled.UpdatedAt = after
		tx.sessions[cancelled.ID] = cancelled
		n++
	}
	return n, nil
}

func (tx *memTx) Commit() error {
	if tx.done {
		return nil
	}
	tx.done = true
	for id, session := range tx.sessions {
		tx.store.sessions[id] = session
	}
	for id, schedule := range tx.schedules {
		tx.store.schedules[id] = schedule
	}
	tx.store.mu.Unlock()
	return nil
}

func (tx *memTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.store.mu.Unlock()
	return nil
}

func listTeacherSessions(sessions map[string]*models.Session, teacherID string, from, to *time.Time) []*models.Session {
	var out []*models.Session
	for _, session := range sessions {
		if session.TeacherID != teacherID {
			continue
		}
		if from != nil || to != nil {
			if session.ScheduledAt == nil {
				continue
			}
			if from != nil && session.ScheduledAt.Before(*from) {
				continue
			}
			if to != nil && !session.ScheduledAt.Before(*to) {
				continue
			}
		}
		out = append(out, cloneSession(session))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ScheduledAt, out[j].ScheduledAt
		switch {
		case a == nil && b == nil:
			return out[i].ID < out[j].ID
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
	return out
}

func activeSchedule(schedules map[string]*models.RecurringSchedule, circleID string) *models.RecurringSchedule {
	for _, schedule := range schedules {
		if schedule.CircleID == circleID && schedule.IsActive {
			return schedule
		}
	}
	return nil
}

func cloneSession(s *models.Session) *models.Session {
	c := *s
	c.StudentID = clonePtr(s.StudentID)
	c.ScheduledAt = clonePtr(s.ScheduledAt)
	c.ScheduledBy = clonePtr(s.ScheduledBy)
	c.ScheduleID = clonePtr(s.ScheduleID)
	c.TeacherScheduledAt = clonePtr(s.TeacherScheduledAt)
	c.RescheduledFrom = clonePtr(s.RescheduledFrom)
	c.CancelledBy = clonePtr(s.CancelledBy)
	return &c
}

func cloneCircle(c *models.Circle) *models.Circle {
	cp := *c
	cp.StudentID = clonePtr(c.StudentID)
	cp.SubscriptionID = clonePtr(c.SubscriptionID)
	return &cp
}

func cloneSchedule(s *models.RecurringSchedule) *models.RecurringSchedule {
	c := *s
	c.ScheduleEndsAt = clonePtr(s.ScheduleEndsAt)
	c.LastGeneratedAt = clonePtr(s.LastGeneratedAt)
	c.UpdatedBy = clonePtr(s.UpdatedBy)
	c.WeeklySchedule = append([]models.WeeklyEntry(nil), s.WeeklySchedule...)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
