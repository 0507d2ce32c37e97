package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"halaqa-service/internal/models"
	"halaqa-service/internal/service"
	"halaqa-service/pkg/response"
)

func weeklyMonday(at string) []models.WeeklyEntry {
	return []models.WeeklyEntry{{Day: "monday", Time: at}}
}

func TestCreateSchedule(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates an active definition with circle defaults", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)
		circle := seedCircle(store, "circle-1", "teacher-1", models.OwnerGroupCircle)
		circle.SessionDurationMinutes = 45
		store.AddCircle(circle)

		schedule, err := svc.CreateSchedule(ctx, "circle-1", weeklyMonday("10:00"), testNow, nil, nil, "admin-1")
		if err != nil {
			t.Fatalf("CreateSchedule: %v", err)
		}

		if !schedule.IsActive {
			t.Error("schedule not active")
		}
		if schedule.DefaultDurationMinutes != 45 {
			t.Errorf("duration = %d, want circle default 45", schedule.DefaultDurationMinutes)
		}
		if schedule.GenerateAheadDays != 30 || schedule.GenerateBeforeHours != 1 {
			t.Errorf("generation window = %d days / %d hours, want 30 / 1",
				schedule.GenerateAheadDays, schedule.GenerateBeforeHours)
		}
		if schedule.TeacherID != "teacher-1" {
			t.Errorf("teacher_id = %s, want teacher-1", schedule.TeacherID)
		}
	})

	t.Run("rejects unknown weekdays pointing at the entry", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)
		seedCircle(store, "circle-1", "teacher-1", models.OwnerGroupCircle)

		weekly := []models.WeeklyEntry{
			{Day: "monday", Time: "10:00"},
			{Day: "funday", Time: "10:00"},
		}

		_, err := svc.CreateSchedule(ctx, "circle-1", weekly, testNow, nil, nil, "admin-1")

		var grammar *response.GrammarError
		if !errors.As(err, &grammar) {
			t.Fatalf("err = %v, want *response.GrammarError", err)
		}
		if !errors.Is(err, response.ErrInvalidWeeklySchedule) {
			t.Error("grammar error does not unwrap to ErrInvalidWeeklySchedule")
		}
		if grammar.Index != 1 {
			t.Errorf("index = %d, want 1", grammar.Index)
		}
	})

	t.Run("rejects malformed times", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)
		seedCircle(store, "circle-1", "teacher-1", models.OwnerGroupCircle)

		for _, bad := range []string{"25:00", "10:60", "10", "ten", "10:5"} {
			_, err := svc.CreateSchedule(ctx, "circle-1", weeklyMonday(bad), testNow, nil, nil, "admin-1")
			if !errors.Is(err, response.ErrInvalidWeeklySchedule) {
				t.Errorf("time %q: err = %v, want ErrInvalidWeeklySchedule", bad, err)
			}
		}
	})

	t.Run("accepts single digit hours", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)
		seedCircle(store, "circle-1", "teacher-1", models.OwnerGroupCircle)

		if _, err := svc.CreateSchedule(ctx, "circle-1", weeklyMonday("9:30"), testNow, nil, nil, "admin-1"); err != nil {
			t.Errorf("CreateSchedule with 9:30: %v", err)
		}
	})

	t.Run("rejects an empty weekly schedule", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)
		seedCircle(store, "circle-1", "teacher-1", models.OwnerGroupCircle)

		_, err := svc.CreateSchedule(ctx, "circle-1", nil, testNow, nil, nil, "admin-1")
		if !errors.Is(err, response.ErrInvalidWeeklySchedule) {
			t.Errorf("err = %v, want ErrInvalidWeeklySchedule", err)
		}
	})

	t.Run("rejects a second active definition", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)
		seedCircle(store, "circle-1", "teacher-1", models.OwnerGroupCircle)

		if _, err := svc.CreateSchedule(ctx, "circle-1", weeklyMonday("10:00"), testNow, nil, nil, "admin-1"); err != nil {
			t.Fatalf("first CreateSchedule: %v", err)
		}

		_, err := svc.CreateSchedule(ctx, "circle-1", weeklyMonday("18:00"), testNow, nil, nil, "admin-1")
		if !errors.Is(err, response.ErrActiveScheduleExists) {
			t.Errorf("err = %v, want ErrActiveScheduleExists", err)
		}
	})

	t.Run("honors explicit options", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)
		seedCircle(store, "circle-1", "teacher-1", models.OwnerGroupCircle)

		opts := &service.ScheduleOptions{
			DurationMinutes:      intPtr(90),
			Timezone:             strPtr("Asia/Riyadh"),
			GenerateAheadDays:    intPtr(14),
			SessionTitleTemplate: strPtr("{circle_name} - {day}"),
		}

		schedule, err := svc.CreateSchedule(ctx, "circle-1", weeklyMonday("10:00"), testNow, nil, opts, "admin-1")
		if err != nil {
			t.Fatalf("CreateSchedule: %v", err)
		}

		if schedule.DefaultDurationMinutes != 90 || schedule.Timezone != "Asia/Riyadh" || schedule.GenerateAheadDays != 14 {
			t.Errorf("options not applied: %+v", schedule)
		}
	})
}

func TestUpdateSchedule(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("applies a sparse patch", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)
		seedCircle(store, "circle-1", "teacher-1", models.OwnerGroupCircle)

		created, err := svc.CreateSchedule(ctx, "circle-1", weeklyMonday("10:00"), testNow, nil, nil, "admin-1")
		if err != nil {
			t.Fatalf("CreateSchedule: %v", err)
		}

		patch := &service.SchedulePatch{
			DefaultDurationMinutes: intPtr(90),
		}

		updated, err := svc.UpdateSchedule(ctx, created.ID, patch, "admin-2")
		if err != nil {
			t.Fatalf("UpdateSchedule: %v", err)
		}

		if updated.DefaultDurationMinutes != 90 {
			t.Errorf("duration = %d, want 90", updated.DefaultDurationMinutes)
		}
		if len(updated.WeeklySchedule) != 1 || updated.WeeklySchedule[0].Day != "monday" {
			t.Error("untouched weekly schedule changed")
		}
		if updated.UpdatedBy == nil || *updated.UpdatedBy != "admin-2" {
			t.Errorf("updated_by = %v, want admin-2", updated.UpdatedBy)
		}
	})

	t.Run("re-validates a replaced weekly schedule", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)
		seedCircle(store, "circle-1", "teacher-1", models.OwnerGroupCircle)

		created, err := svc.CreateSchedule(ctx, "circle-1", weeklyMonday("10:00"), testNow, nil, nil, "admin-1")
		if err != nil {
			t.Fatalf("CreateSchedule: %v", err)
		}

		patch := &service.SchedulePatch{
			WeeklySchedule: []models.WeeklyEntry{{Day: "monday", Time: "99:99"}},
		}

		_, err = svc.UpdateSchedule(ctx, created.ID, patch, "admin-1")
		if !errors.Is(err, response.ErrInvalidWeeklySchedule) {
			t.Errorf("err = %v, want ErrInvalidWeeklySchedule", err)
		}
	})

	t.Run("normalizes replaced day names before storing", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)
		seedCircle(store, "circle-1", "teacher-1", models.OwnerGroupCircle)

		created, err := svc.CreateSchedule(ctx, "circle-1", weeklyMonday("10:00"), testNow, nil, nil, "admin-1")
		if err != nil {
			t.Fatalf("CreateSchedule: %v", err)
		}

		patch := &service.SchedulePatch{
			WeeklySchedule: []models.WeeklyEntry{{Day: " Monday ", Time: "10:00"}},
		}

		updated, err := svc.UpdateSchedule(ctx, created.ID, patch, "admin-1")
		if err != nil {
			t.Fatalf("UpdateSchedule: %v", err)
		}
		if len(updated.WeeklySchedule) != 1 || updated.WeeklySchedule[0].Day != "monday" {
			t.Fatalf("stored weekly schedule = %+v, want day normalized to monday", updated.WeeklySchedule)
		}

		// The generator matches stored day names verbatim; a mixed-case day
		// would silently produce zero occurrences.
		generated, err := svc.GenerateSessions(ctx, "circle-1", "admin-1")
		if err != nil {
			t.Fatalf("GenerateSessions: %v", err)
		}
		if generated != 4 {
			t.Errorf("generated = %d, want 4", generated)
		}
	})

	t.Run("unknown schedule", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)

		_, err := svc.UpdateSchedule(ctx, "missing", &service.SchedulePatch{DefaultDurationMinutes: intPtr(30)}, "admin-1")
		if !errors.Is(err, response.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestDeactivateSchedule(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	svc, store := newTestService(t)
	seedCircle(store, "circle-1", "teacher-1", models.OwnerGroupCircle)

	schedule, err := svc.CreateSchedule(ctx, "circle-1", weeklyMonday("10:00"), testNow, nil, nil, "admin-1")
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}

	// One future and one past generated session plus a future ad-hoc one.
	future := seedScheduled(store, "future", "teacher-1", testNow.Add(48*time.Hour), 60)
	future.ScheduleID = &schedule.ID
	store.AddSession(future)

	past := seedScheduled(store, "past", "teacher-1", testNow.Add(-48*time.Hour), 60)
	past.ScheduleID = &schedule.ID
	store.AddSession(past)

	seedScheduled(store, "adhoc", "teacher-1", testNow.Add(72*time.Hour), 60)

	cancelled, err := svc.DeactivateSchedule(ctx, "circle-1", "admin-1")
	if err != nil {
		t.Fatalf("DeactivateSchedule: %v", err)
	}
	if cancelled != 1 {
		t.Errorf("cancelled = %d, want 1", cancelled)
	}

	stored, _ := store.GetSchedule(ctx, schedule.ID)
	if stored.IsActive {
		t.Error("schedule still active")
	}

	futureStored, _ := store.GetSession(ctx, "future")
	if futureStored.Status != models.SessionCancelled {
		t.Errorf("future generated session status = %s, want cancelled", futureStored.Status)
	}
	if futureStored.CancelledBy == nil || *futureStored.CancelledBy != "admin-1" {
		t.Errorf("cancelled_by = %v, want admin-1", futureStored.CancelledBy)
	}

	pastStored, _ := store.GetSession(ctx, "past")
	if pastStored.Status == models.SessionCancelled {
		t.Error("past session was cancelled")
	}

	adhocStored, _ := store.GetSession(ctx, "adhoc")
	if adhocStored.Status == models.SessionCancelled {
		t.Error("ad-hoc session was cancelled")
	}

	if _, err := svc.DeactivateSchedule(ctx, "circle-1", "admin-1"); !errors.Is(err, response.ErrNotFound) {
		t.Errorf("second deactivation err = %v, want ErrNotFound", err)
	}
}

func TestGenerateSessions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("materializes the ahead window", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)
		seedCircle(store, "circle-1", "teacher-1", models.OwnerGroupCircle)

		// testNow is Monday 12:00 UTC; today's 10:00 is already past the
		// generate-before cutoff, so only the next four Mondays qualify.
		if _, err := svc.CreateSchedule(ctx, "circle-1", weeklyMonday("10:00"), testNow, nil, nil, "admin-1"); err != nil {
			t.Fatalf("CreateSchedule: %v", err)
		}

		created, err := svc.GenerateSessions(ctx, "circle-1", "admin-1")
		if err != nil {
			t.Fatalf("GenerateSessions: %v", err)
		}
		if created != 4 {
			t.Fatalf("created = %d, want 4", created)
		}

		sessions, err := store.ListTeacherSessions(ctx, "teacher-1", nil, nil)
		if err != nil {
			t.Fatalf("ListTeacherSessions: %v", err)
		}

		for _, session := range sessions {
			if session.ScheduledAt.Weekday() != time.Monday {
				t.Errorf("session %s on %s, want Monday", session.ID, session.ScheduledAt.Weekday())
			}
			if h, m, _ := session.ScheduledAt.Clock(); h != 10 || m != 0 {
				t.Errorf("session %s at %02d:%02d, want 10:00", session.ID, h, m)
			}
			if session.Status != models.SessionScheduled || !session.IsScheduled || session.IsTemplate {
				t.Errorf("session %s flags = %+v", session.ID, session)
			}
			if session.ScheduleID == nil {
				t.Errorf("session %s has no schedule link", session.ID)
			}
		}

		schedule, _ := store.GetActiveSchedule(ctx, "circle-1")
		if schedule.LastGeneratedAt == nil {
			t.Error("last_generated_at not stamped")
		}
	})

	t.Run("skips conflicting occurrences", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)
		seedCircle(store, "circle-1", "teacher-1", models.OwnerGroupCircle)

		if _, err := svc.CreateSchedule(ctx, "circle-1", weeklyMonday("10:00"), testNow, nil, nil, "admin-1"); err != nil {
			t.Fatalf("CreateSchedule: %v", err)
		}

		// Next Monday 10:00 is taken by another booking.
		nextMonday := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
		seedScheduled(store, "blocker", "teacher-1", nextMonday, 60)

		created, err := svc.GenerateSessions(ctx, "circle-1", "admin-1")
		if err != nil {
			t.Fatalf("GenerateSessions: %v", err)
		}
		if created != 3 {
			t.Errorf("created = %d, want 3 (blocked Monday skipped)", created)
		}
	})

	t.Run("renders title templates", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)
		seedCircle(store, "circle-1", "teacher-1", models.OwnerGroupCircle)

		opts := &service.ScheduleOptions{
			SessionTitleTemplate: strPtr("{circle_name} | {date} {time}"),
		}
		if _, err := svc.CreateSchedule(ctx, "circle-1", weeklyMonday("10:00"), testNow, nil, opts, "admin-1"); err != nil {
			t.Fatalf("CreateSchedule: %v", err)
		}

		if _, err := svc.GenerateSessions(ctx, "circle-1", "admin-1"); err != nil {
			t.Fatalf("GenerateSessions: %v", err)
		}

		sessions, _ := store.ListTeacherSessions(ctx, "teacher-1", nil, nil)
		want := "حلقة التجويد | 2026-03-09 10:00"
		if sessions[0].Title != want {
			t.Errorf("title = %q, want %q", sessions[0].Title, want)
		}
	})

	t.Run("defaults to an Arabic day name title", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)
		seedCircle(store, "circle-1", "teacher-1", models.OwnerGroupCircle)

		if _, err := svc.CreateSchedule(ctx, "circle-1", weeklyMonday("10:00"), testNow, nil, nil, "admin-1"); err != nil {
			t.Fatalf("CreateSchedule: %v", err)
		}
		if _, err := svc.GenerateSessions(ctx, "circle-1", "admin-1"); err != nil {
			t.Fatalf("GenerateSessions: %v", err)
		}

		sessions, _ := store.ListTeacherSessions(ctx, "teacher-1", nil, nil)
		want := "حلقة التجويد - الاثنين 10:00"
		if sessions[0].Title != want {
			t.Errorf("title = %q, want %q", sessions[0].Title, want)
		}
	})

	t.Run("stops at the schedule end", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)
		seedCircle(store, "circle-1", "teacher-1", models.OwnerGroupCircle)

		endsAt := testNow.AddDate(0, 0, 10)
		if _, err := svc.CreateSchedule(ctx, "circle-1", weeklyMonday("10:00"), testNow, &endsAt, nil, "admin-1"); err != nil {
			t.Fatalf("CreateSchedule: %v", err)
		}

		created, err := svc.GenerateSessions(ctx, "circle-1", "admin-1")
		if err != nil {
			t.Fatalf("GenerateSessions: %v", err)
		}
		if created != 1 {
			t.Errorf("created = %d, want 1 (only March 9 fits before the end)", created)
		}
	})

	t.Run("requires an active schedule", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)
		seedCircle(store, "circle-1", "teacher-1", models.OwnerGroupCircle)

		_, err := svc.GenerateSessions(ctx, "circle-1", "admin-1")
		if !errors.Is(err, response.ErrScheduleInactive) {
			t.Errorf("err = %v, want ErrScheduleInactive", err)
		}
	})
}
