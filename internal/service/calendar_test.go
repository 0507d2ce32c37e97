package service_test

import (
	"context"
	"testing"
	"time"

	"halaqa-service/internal/models"
)

func TestProjectCalendar(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	weekStart := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	weekEnd := weekStart.AddDate(0, 0, 7)

	t.Run("projects ordered entries with status colors", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)

		late := seedScheduled(store, "late", "teacher-1", weekStart.Add(72*time.Hour), 90)
		early := seedScheduled(store, "early", "teacher-1", weekStart.Add(24*time.Hour), 60)
		cancelled := seedScheduled(store, "cancelled", "teacher-1", weekStart.Add(48*time.Hour), 60)
		cancelled.Status = models.SessionCancelled
		store.AddSession(cancelled)

		entries, err := svc.ProjectCalendar(ctx, "teacher-1", weekStart, weekEnd)
		if err != nil {
			t.Fatalf("ProjectCalendar: %v", err)
		}

		if len(entries) != 3 {
			t.Fatalf("got %d entries, want 3", len(entries))
		}
		if entries[0].SessionID != "early" || entries[1].SessionID != "cancelled" || entries[2].SessionID != "late" {
			t.Errorf("order = [%s %s %s], want [early cancelled late]",
				entries[0].SessionID, entries[1].SessionID, entries[2].SessionID)
		}

		if entries[0].Color != "#3B82F6" {
			t.Errorf("scheduled color = %s, want #3B82F6", entries[0].Color)
		}
		if entries[1].Color != "#EF4444" {
			t.Errorf("cancelled color = %s, want #EF4444", entries[1].Color)
		}

		if want := early.ScheduledAt.Add(time.Hour); !entries[0].EndsAt.Equal(want) {
			t.Errorf("ends_at = %v, want %v", entries[0].EndsAt, want)
		}
		if want := late.ScheduledAt.Add(90 * time.Minute); !entries[2].EndsAt.Equal(want) {
			t.Errorf("ends_at = %v, want %v", entries[2].EndsAt, want)
		}
	})

	t.Run("half-open range bounds", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)

		seedScheduled(store, "at-start", "teacher-1", weekStart, 60)
		seedScheduled(store, "at-end", "teacher-1", weekEnd, 60)
		seedScheduled(store, "before", "teacher-1", weekStart.Add(-time.Hour), 60)

		entries, err := svc.ProjectCalendar(ctx, "teacher-1", weekStart, weekEnd)
		if err != nil {
			t.Fatalf("ProjectCalendar: %v", err)
		}

		if len(entries) != 1 || entries[0].SessionID != "at-start" {
			t.Errorf("entries = %v, want only at-start", entries)
		}
	})

	t.Run("includes a session running into the range", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)

		// Starts before the window but is still in progress at weekStart.
		seedScheduled(store, "spanning", "teacher-1", weekStart.Add(-time.Hour), 120)

		entries, err := svc.ProjectCalendar(ctx, "teacher-1", weekStart, weekEnd)
		if err != nil {
			t.Fatalf("ProjectCalendar: %v", err)
		}

		if len(entries) != 1 || entries[0].SessionID != "spanning" {
			t.Fatalf("entries = %v, want the spanning session", entries)
		}
		if !entries[0].StartsAt.Equal(weekStart.Add(-time.Hour)) {
			t.Errorf("starts_at = %v, want the real start", entries[0].StartsAt)
		}
	})

	t.Run("excludes other teachers and unscheduled templates", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t)

		seedScheduled(store, "other", "teacher-2", weekStart.Add(24*time.Hour), 60)
		seedTemplate(store, "tpl", "teacher-1", models.Owner{Kind: models.OwnerGroupCircle, ID: "circle-1"})

		entries, err := svc.ProjectCalendar(ctx, "teacher-1", weekStart, weekEnd)
		if err != nil {
			t.Fatalf("ProjectCalendar: %v", err)
		}

		if len(entries) != 0 {
			t.Errorf("got %d entries, want 0", len(entries))
		}
	})

	t.Run("rejects an empty range", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)

		if _, err := svc.ProjectCalendar(ctx, "teacher-1", weekStart, weekStart); err == nil {
			t.Error("expected error for empty range")
		}
	})
}
