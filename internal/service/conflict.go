package service

import (
	"context"
	"fmt"
	"time"

	"halaqa-service/internal/models"
)

// findConflict is the pure interval check: the first session whose occupied
// interval overlaps [start, start+duration) on the half-open rule. Sessions
// are compared as existing.start < candidateEnd && candidateStart <
// existing.end, so back-to-back sessions never conflict. Cancelled sessions
// and the excluded id are skipped.
func findConflict(sessions []*models.Session, start time.Time, durationMinutes int, excludeID string) *models.Session {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	for _, existing := range sessions {
		if existing.ID == excludeID {
			continue
		}
		if !existing.Occupies() {
			continue
		}
		if existing.ScheduledAt.Before(end) && start.Before(existing.EndsAt()) {
			return existing
		}
	}

	return nil
}

// HasConflict reports whether the candidate interval overlaps any
// non-cancelled booking of the teacher. excludeID, when non-empty, removes
// one session from consideration (re-validating a session against itself).
func (s *Service) HasConflict(ctx context.Context, teacherID string, start time.Time, durationMinutes int, excludeID string) (bool, error) {
	const op = "service.HasConflict"

	if durationMinutes <= 0 {
		return false, fmt.Errorf("%s: invalid duration: %d", op, durationMinutes)
	}

	sessions, err := s.store.ListTeacherSessions(ctx, teacherID, nil, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return findConflict(sessions, start, durationMinutes, excludeID) != nil, nil
}
