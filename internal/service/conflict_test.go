package service

import (
	"testing"
	"time"

	"halaqa-service/internal/models"
)

func scheduledSession(id string, at time.Time, durationMinutes int, status models.SessionStatus) *models.Session {
	return &models.Session{
		ID:              id,
		TeacherID:       "teacher-1",
		ScheduledAt:     &at,
		DurationMinutes: durationMinutes,
		IsScheduled:     true,
		Status:          status,
	}
}

func TestFindConflict(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	existing := []*models.Session{
		scheduledSession("s1", base, 60, models.SessionScheduled),
	}

	tests := []struct {
		name     string
		start    time.Time
		duration int
		exclude  string
		wantHit  bool
	}{
		{"identical interval", base, 60, "", true},
		{"partial overlap at tail", base.Add(30 * time.Minute), 60, "", true},
		{"partial overlap at head", base.Add(-30 * time.Minute), 60, "", true},
		{"candidate contains existing", base.Add(-30 * time.Minute), 180, "", true},
		{"existing contains candidate", base.Add(15 * time.Minute), 15, "", true},
		{"back to back after", base.Add(60 * time.Minute), 60, "", false},
		{"back to back before", base.Add(-60 * time.Minute), 60, "", false},
		{"disjoint", base.Add(3 * time.Hour), 60, "", false},
		{"overlap excluded by id", base, 60, "s1", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hit := findConflict(existing, tt.start, tt.duration, tt.exclude)
			if (hit != nil) != tt.wantHit {
				t.Errorf("findConflict(%s, %dm, exclude=%q) hit=%v, want %v",
					tt.start.Format(time.RFC3339), tt.duration, tt.exclude, hit != nil, tt.wantHit)
			}
		})
	}
}

func TestFindConflictIgnoresNonOccupying(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	existing := []*models.Session{
		scheduledSession("cancelled", base, 60, models.SessionCancelled),
		{ID: "template", TeacherID: "teacher-1", DurationMinutes: 60, IsTemplate: true, Status: models.SessionUnscheduled},
	}

	if hit := findConflict(existing, base, 60, ""); hit != nil {
		t.Errorf("cancelled and unscheduled sessions must not block, got conflict with %s", hit.ID)
	}
}

func TestFindConflictCompletedStillBlocks(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	existing := []*models.Session{
		scheduledSession("done", base, 60, models.SessionCompleted),
		scheduledSession("running", base.Add(2*time.Hour), 60, models.SessionOngoing),
	}

	if hit := findConflict(existing, base.Add(30*time.Minute), 30, ""); hit == nil {
		t.Error("completed session should still occupy its interval")
	}
	if hit := findConflict(existing, base.Add(2*time.Hour+30*time.Minute), 30, ""); hit == nil {
		t.Error("ongoing session should still occupy its interval")
	}
}
