package service

import (
	"context"
	"fmt"
	"time"

	"halaqa-service/internal/models"
)

// maxSessionSpan bounds how far back the day and range reads are widened
// so a session that started earlier but still runs into the window is seen.
const maxSessionSpan = 24 * time.Hour

// GetAvailableSlots enumerates the candidate start times of a teacher's
// working day and marks each one available or taken. The date's year, month
// and day are used; its clock is ignored. DurationMinutes must be positive.
func (s *Service) GetAvailableSlots(ctx context.Context, teacherID string, date time.Time, durationMinutes int) ([]models.TimeSlot, error) {
	const op = "service.GetAvailableSlots"

	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%s: non-positive duration %d", op, durationMinutes)
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	// Reading from the previous day catches bookings that cross midnight;
	// findConflict checks the full intervals either way.
	readFrom := dayStart.Add(-maxSessionSpan)

	sessions, err := s.store.ListTeacherSessions(ctx, teacherID, &readFrom, &dayEnd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	open, err := clockOn(dayStart, s.cfg.WorkingHoursStart)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	end, err := clockOn(dayStart, s.cfg.WorkingHoursEnd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	step := time.Duration(s.cfg.SlotStepMinutes) * time.Minute

	var slots []models.TimeSlot
	for at := open; at.Before(end); at = at.Add(step) {
		slots = append(slots, models.TimeSlot{
			StartTime:   at.Format("15:04"),
			StartsAt:    at,
			IsAvailable: findConflict(sessions, at, durationMinutes, "") == nil,
		})
	}

	return slots, nil
}

// clockOn places a configured HH:MM on a given date.
func clockOn(day time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad working-hours value %q: %w", hhmm, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
