package service_test

import (
	"testing"
	"time"

	"halaqa-service/internal/config"
	"halaqa-service/internal/lock"
	"halaqa-service/internal/models"
	"halaqa-service/internal/service"
	"halaqa-service/internal/storage/memory"
)

// Monday, noon UTC. All fixture times are derived from this instant so the
// scheduling windows stay stable.
var testNow = time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

func testConfig() config.Scheduling {
	return config.Scheduling{
		WorkingHoursStart:   "08:00",
		WorkingHoursEnd:     "22:00",
		SlotStepMinutes:     30,
		GenerateAheadDays:   30,
		GenerateBeforeHours: 1,
		DefaultDuration:     60,
		LockTTL:             time.Second,
	}
}

func newTestService(t *testing.T) (*service.Service, *memory.Storage) {
	t.Helper()

	store := memory.New()
	svc := service.NewService(store, lock.NewMemoryLock(), testConfig()).
		WithClock(func() time.Time { return testNow })

	return svc, store
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func seedCircle(store *memory.Storage, id, teacherID string, kind models.OwnerKind) *models.Circle {
	circle := &models.Circle{
		ID:                     id,
		Kind:                   kind,
		AcademyID:              "academy-1",
		TeacherID:              teacherID,
		Name:                   "حلقة التجويد",
		StudentName:            "أحمد",
		SessionDurationMinutes: 60,
	}
	store.AddCircle(circle)
	return circle
}

func seedTemplate(store *memory.Storage, id, teacherID string, owner models.Owner) *models.Session {
	session := &models.Session{
		ID:              id,
		AcademyID:       "academy-1",
		TeacherID:       teacherID,
		Owner:           owner,
		DurationMinutes: 60,
		IsTemplate:      true,
		Status:          models.SessionUnscheduled,
		CreatedAt:       testNow.AddDate(0, -1, 0),
		UpdatedAt:       testNow.AddDate(0, -1, 0),
	}
	store.AddSession(session)
	return session
}

func seedScheduled(store *memory.Storage, id, teacherID string, at time.Time, durationMinutes int) *models.Session {
	session := &models.Session{
		ID:              id,
		AcademyID:       "academy-1",
		TeacherID:       teacherID,
		Owner:           models.Owner{Kind: models.OwnerGroupCircle, ID: "circle-1"},
		ScheduledAt:     &at,
		DurationMinutes: durationMinutes,
		IsScheduled:     true,
		Status:          models.SessionScheduled,
		CreatedAt:       testNow.AddDate(0, -1, 0),
		UpdatedAt:       testNow.AddDate(0, -1, 0),
	}
	store.AddSession(session)
	return session
}
