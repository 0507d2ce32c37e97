package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"halaqa-service/internal/models"
	"halaqa-service/pkg/response"
)

// SessionPatch is the sparse field set a caller may attach while scheduling.
// A nil field leaves the session's value alone.
type SessionPatch struct {
	Title           *string
	Description     *string
	Notes           *string
	DurationMinutes *int
}

func (p *SessionPatch) apply(session *models.Session) {
	if p == nil {
		return
	}
	if p.Title != nil {
		session.Title = *p.Title
	}
	if p.Description != nil {
		session.Description = *p.Description
	}
	if p.Notes != nil {
		session.Notes = *p.Notes
	}
	if p.DurationMinutes != nil && *p.DurationMinutes > 0 {
		session.DurationMinutes = *p.DurationMinutes
	}
}

// BulkItem is one entry of a bulk scheduling request.
type BulkItem struct {
	TemplateSessionID string
	ScheduledAt       time.Time
	Patch             *SessionPatch
}

// GetSession fetches a single session.
func (s *Service) GetSession(ctx context.Context, id string) (*models.Session, error) {
	const op = "service.GetSession"

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}

// ScheduleSession promotes a template session to a concrete booking at
// scheduledAt. Preconditions are checked in order: schedulable template
// state, strictly-future start, no teacher conflict. The whole
// check-and-write runs under the teacher lock in one transaction.
func (s *Service) ScheduleSession(ctx context.Context, sessionID string, scheduledAt time.Time, actorID string, patch *SessionPatch) (*models.Session, error) {
	const op = "service.ScheduleSession"

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Owner projection is only needed for default titling; fetched here so
	// the transaction itself touches session rows only.
	circle, err := s.store.GetCircle(ctx, session.Owner.ID)
	if err != nil && !errors.Is(err, response.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var scheduled *models.Session

	err = s.withTeacherLock(ctx, session.TeacherID, func() error {
		return s.runSerializable(ctx, func(tx Tx) error {
			result, err := s.scheduleInTx(ctx, tx, sessionID, scheduledAt, actorID, patch, circle)
			if err != nil {
				return err
			}
			scheduled = result
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return scheduled, nil
}

// scheduleInTx performs the locked check-and-write for one template. circle
// is the pre-fetched owner projection, nil when the owner has none.
func (s *Service) scheduleInTx(ctx context.Context, tx Tx, sessionID string, scheduledAt time.Time, actorID string, patch *SessionPatch, circle *models.Circle) (*models.Session, error) {
	session, err := tx.GetSessionForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !session.IsTemplate || session.IsScheduled {
		return nil, fmt.Errorf("session %s: %w", session.ID, response.ErrNotTemplate)
	}

	now := s.now()
	if !scheduledAt.After(now) {
		return nil, fmt.Errorf("session %s at %s: %w", session.ID, scheduledAt.Format(time.RFC3339), response.ErrPastTime)
	}

	duration := session.DurationMinutes
	if patch != nil && patch.DurationMinutes != nil && *patch.DurationMinutes > 0 {
		duration = *patch.DurationMinutes
	}

	existing, err := tx.ListTeacherSessions(ctx, session.TeacherID, nil, nil)
	if err != nil {
		return nil, err
	}

	if hit := findConflict(existing, scheduledAt, duration, session.ID); hit != nil {
		return nil, &response.ConflictError{
			TeacherID:     session.TeacherID,
			Start:         scheduledAt,
			End:           scheduledAt.Add(time.Duration(duration) * time.Minute),
			ConflictID:    hit.ID,
			ConflictStart: *hit.ScheduledAt,
			ConflictEnd:   hit.EndsAt(),
		}
	}

	session.ScheduledAt = &scheduledAt
	session.Status = models.SessionScheduled
	session.IsScheduled = true
	session.TeacherScheduledAt = &now
	session.ScheduledBy = &actorID
	patch.apply(session)

	if session.Title == "" && session.Owner.Kind == models.OwnerSubscription && circle != nil {
		title, err := subscriptionTitle(ctx, tx, session, circle)
		if err != nil {
			return nil, err
		}
		session.Title = title
	}

	if err := tx.UpdateSession(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// RescheduleSession moves an already-booked session to a new start time,
// keeping a trace of the original slot and the stated reason. The conflict
// check excludes the session itself, so shifting within (or overlapping)
// its own interval is allowed. Runs under the same teacher lock and
// transaction discipline as ScheduleSession.
func (s *Service) RescheduleSession(ctx context.Context, sessionID string, scheduledAt time.Time, actorID, reason string) (*models.Session, error) {
	const op = "service.RescheduleSession"

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var moved *models.Session

	err = s.withTeacherLock(ctx, session.TeacherID, func() error {
		return s.runSerializable(ctx, func(tx Tx) error {
			session, err := tx.GetSessionForUpdate(ctx, sessionID)
			if err != nil {
				return err
			}

			if !session.IsScheduled || session.ScheduledAt == nil || session.Status != models.SessionScheduled {
				return fmt.Errorf("session %s: %w", session.ID, response.ErrNotScheduled)
			}

			now := s.now()
			if !scheduledAt.After(now) {
				return fmt.Errorf("session %s at %s: %w", session.ID, scheduledAt.Format(time.RFC3339), response.ErrPastTime)
			}

			existing, err := tx.ListTeacherSessions(ctx, session.TeacherID, nil, nil)
			if err != nil {
				return err
			}

			if hit := findConflict(existing, scheduledAt, session.DurationMinutes, session.ID); hit != nil {
				return &response.ConflictError{
					TeacherID:     session.TeacherID,
					Start:         scheduledAt,
					End:           scheduledAt.Add(time.Duration(session.DurationMinutes) * time.Minute),
					ConflictID:    hit.ID,
					ConflictStart: *hit.ScheduledAt,
					ConflictEnd:   hit.EndsAt(),
				}
			}

			previous := *session.ScheduledAt
			session.RescheduledFrom = &previous
			session.RescheduleReason = reason
			session.ScheduledAt = &scheduledAt
			session.ScheduledBy = &actorID
			session.UpdatedAt = now

			if err := tx.UpdateSession(ctx, session); err != nil {
				return err
			}

			moved = session
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return moved, nil
}

// subscriptionTitle composes the default title for a subscription session:
// the Quran-session label, the 1-based position among the subscription's
// already-scheduled sessions, the student's name and the circle name.
func subscriptionTitle(ctx context.Context, tx Tx, session *models.Session, circle *models.Circle) (string, error) {
	scheduled, err := tx.CountScheduledOwnedSessions(ctx, session.Owner, session.ID)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("جلسة قرآنية رقم %d - %s - %s", scheduled+1, circle.StudentName, circle.Name), nil
}

// BulkSchedule schedules a batch of templates belonging to one circle in a
// single all-or-nothing transaction. Ownership of every template is
// validated before any write; results preserve input order.
func (s *Service) BulkSchedule(ctx context.Context, circleID string, items []BulkItem, actorID string) ([]*models.Session, error) {
	const op = "service.BulkSchedule"

	if len(items) == 0 {
		return nil, fmt.Errorf("%s: empty batch: %w", op, response.ErrBadRequest)
	}

	circle, err := s.store.GetCircle(ctx, circleID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, item := range items {
		template, err := s.store.GetSession(ctx, item.TemplateSessionID)
		if err != nil {
			return nil, fmt.Errorf("%s: template %s: %w", op, item.TemplateSessionID, err)
		}
		if template.Owner.ID != circle.ID {
			return nil, fmt.Errorf("%s: template %s: %w", op, template.ID, response.ErrInvalidOwnership)
		}
	}

	scheduled := make([]*models.Session, 0, len(items))

	err = s.withTeacherLock(ctx, circle.TeacherID, func() error {
		return s.runSerializable(ctx, func(tx Tx) error {
			scheduled = scheduled[:0]
			for _, item := range items {
				session, err := s.scheduleInTx(ctx, tx, item.TemplateSessionID, item.ScheduledAt, actorID, item.Patch, circle)
				if err != nil {
					return err
				}
				scheduled = append(scheduled, session)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return scheduled, nil
}
