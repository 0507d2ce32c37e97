package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"halaqa-service/internal/models"
	"halaqa-service/pkg/response"
)

func newSession(id string, at *time.Time) *models.Session {
	return &models.Session{
		ID:              id,
		TeacherID:       "teacher-1",
		Owner:           models.Owner{Kind: models.OwnerGroupCircle, ID: "circle-1"},
		ScheduledAt:     at,
		DurationMinutes: 60,
		IsScheduled:     at != nil,
		Status:          models.SessionScheduled,
	}
}

func TestTxReadsOwnWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()

	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	defer tx.Rollback()

	at := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
	if _, err := tx.CreateSession(ctx, newSession("s1", &at)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	sessions, err := tx.ListTeacherSessions(ctx, "teacher-1", nil, nil)
	if err != nil {
		t.Fatalf("ListTeacherSessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "s1" {
		t.Errorf("transaction does not see its own insert: %v", sessions)
	}
}

func TestTxRollbackDiscards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()

	tx, _ := store.BeginTx(ctx)
	at := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
	if _, err := tx.CreateSession(ctx, newSession("s1", &at)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	if _, err := store.GetSession(ctx, "s1"); !errors.Is(err, response.ErrNotFound) {
		t.Errorf("rolled-back insert is visible, err = %v", err)
	}
}

func TestTxCommitPublishes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()

	tx, _ := store.BeginTx(ctx)
	at := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
	if _, err := tx.CreateSession(ctx, newSession("s1", &at)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	session, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession after commit: %v", err)
	}
	if session.ID != "s1" {
		t.Errorf("got %s, want s1", session.ID)
	}
}

func TestUpdateMissingSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()

	tx, _ := store.BeginTx(ctx)
	defer tx.Rollback()

	if err := tx.UpdateSession(ctx, newSession("missing", nil)); !errors.Is(err, response.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListTeacherSessionsRange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()

	base := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
	inside := base.Add(time.Hour)
	outside := base.AddDate(0, 0, 7)

	store.AddSession(newSession("inside", &inside))
	store.AddSession(newSession("outside", &outside))
	store.AddSession(newSession("template", nil))

	from := base
	to := base.AddDate(0, 0, 1)

	sessions, err := store.ListTeacherSessions(ctx, "teacher-1", &from, &to)
	if err != nil {
		t.Fatalf("ListTeacherSessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "inside" {
		t.Errorf("range query returned %v, want only inside", sessions)
	}

	all, err := store.ListTeacherSessions(ctx, "teacher-1", nil, nil)
	if err != nil {
		t.Fatalf("ListTeacherSessions unbounded: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unbounded query returned %d sessions, want 3", len(all))
	}
}

func TestClonesIsolateCallers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()

	at := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
	store.AddSession(newSession("s1", &at))

	got, _ := store.GetSession(ctx, "s1")
	got.Title = "mutated"

	again, _ := store.GetSession(ctx, "s1")
	if again.Title == "mutated" {
		t.Error("caller mutation leaked into the store")
	}
}
