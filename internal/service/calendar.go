package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"halaqa-service/internal/models"
)

// ProjectCalendar renders a teacher's sessions overlapping [from, to) as
// calendar entries, ordered by start time. A session that starts before
// the range but runs into it is included. Unscheduled templates never
// appear; cancelled sessions do, in their own color.
func (s *Service) ProjectCalendar(ctx context.Context, teacherID string, from, to time.Time) ([]models.CalendarEntry, error) {
	const op = "service.ProjectCalendar"

	if !to.After(from) {
		return nil, fmt.Errorf("%s: empty range", op)
	}

	readFrom := from.Add(-maxSessionSpan)

	sessions, err := s.store.ListTeacherSessions(ctx, teacherID, &readFrom, &to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries := make([]models.CalendarEntry, 0, len(sessions))
	for _, session := range sessions {
		if session.ScheduledAt == nil {
			continue
		}
		if !session.EndsAt().After(from) || !session.ScheduledAt.Before(to) {
			continue
		}

		entries = append(entries, models.CalendarEntry{
			SessionID:       session.ID,
			Title:           session.Title,
			StartsAt:        *session.ScheduledAt,
			EndsAt:          session.EndsAt(),
			DurationMinutes: session.DurationMinutes,
			Status:          session.Status,
			Color:           models.StatusColor(session.Status),
			TeacherID:       session.TeacherID,
			StudentID:       session.StudentID,
			OwnerKind:       session.Owner.Kind,
			OwnerID:         session.Owner.ID,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].StartsAt.Before(entries[j].StartsAt)
	})

	return entries, nil
}
