package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"halaqa-service/internal/models"
	"halaqa-service/internal/service"
	"halaqa-service/pkg/response"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// querier is the slice of database/sql shared by *sql.DB and *sql.Tx; the
// scan helpers below run against either.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// mapErr converts driver-level failures to the engine's sentinels.
// SQLSTATE 40001 is a serialization failure; the service retries those.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return response.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "40001" {
		return response.ErrSerialization
	}

	return err
}

const sessionColumns = `
	session_id, academy_id, teacher_id, student_id,
	individual_circle_id, group_circle_id, subscription_id,
	scheduled_at, duration_minutes, is_template, is_scheduled, schedule_id,
	status, scheduled_by, teacher_scheduled_at,
	rescheduled_from, reschedule_reason, cancelled_by,
	title, description, notes, created_at, updated_at`

// ownerColumns splits the tagged owner into the three nullable columns.
func ownerColumns(owner models.Owner) (indiv, group, sub *string) {
	switch owner.Kind {
	case models.OwnerIndividualCircle:
		indiv = &owner.ID
	case models.OwnerGroupCircle:
		group = &owner.ID
	case models.OwnerSubscription:
		sub = &owner.ID
	}
	return
}

func scanSession(scan func(dest ...any) error) (*models.Session, error) {
	var (
		session            models.Session
		indiv, group, sub  sql.NullString
		studentID          sql.NullString
		scheduledAt        sql.NullTime
		scheduleID         sql.NullString
		scheduledBy        sql.NullString
		teacherScheduledAt sql.NullTime
		rescheduledFrom    sql.NullTime
		cancelledBy        sql.NullString
	)

	err := scan(
		&session.ID, &session.AcademyID, &session.TeacherID, &studentID,
		&indiv, &group, &sub,
		&scheduledAt, &session.DurationMinutes, &session.IsTemplate, &session.IsScheduled, &scheduleID,
		&session.Status, &scheduledBy, &teacherScheduledAt,
		&rescheduledFrom, &session.RescheduleReason, &cancelledBy,
		&session.Title, &session.Description, &session.Notes, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	switch {
	case indiv.Valid:
		session.Owner = models.Owner{Kind: models.OwnerIndividualCircle, ID: indiv.String}
	case group.Valid:
		session.Owner = models.Owner{Kind: models.OwnerGroupCircle, ID: group.String}
	case sub.Valid:
		session.Owner = models.Owner{Kind: models.OwnerSubscription, ID: sub.String}
	}

	if studentID.Valid {
		session.StudentID = &studentID.String
	}
	if scheduledAt.Valid {
		t := scheduledAt.Time
		session.ScheduledAt = &t
	}
	if scheduleID.Valid {
		session.ScheduleID = &scheduleID.String
	}
	if scheduledBy.Valid {
		session.ScheduledBy = &scheduledBy.String
	}
	if teacherScheduledAt.Valid {
		t := teacherScheduledAt.Time
		session.TeacherScheduledAt = &t
	}
	if rescheduledFrom.Valid {
		t := rescheduledFrom.Time
		session.RescheduledFrom = &t
	}
	if cancelledBy.Valid {
		session.CancelledBy = &cancelledBy.String
	}

	return &session, nil
}

func getSession(ctx context.Context, q querier, id string, forUpdate bool) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE session_id=$1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	row := q.QueryRowContext(ctx, query, id)
	session, err := scanSession(row.Scan)
	if err != nil {
		return nil, mapErr(err)
	}

	return session, nil
}

func listTeacherSessions(ctx context.Context, q querier, teacherID string, from, to *time.Time) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE teacher_id=$1`
	args := []any{teacherID}

	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(` AND scheduled_at >= $%d`, len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(` AND scheduled_at < $%d`, len(args))
	}
	query += ` ORDER BY scheduled_at NULLS FIRST, session_id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows.Scan)
		if err != nil {
			return nil, mapErr(err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

const scheduleColumns = `
	schedule_id, circle_id, teacher_id, academy_id, weekly_schedule,
	schedule_starts_at, schedule_ends_at, default_duration_minutes, timezone,
	generate_ahead_days, generate_before_hours,
	session_title_template, session_description_template,
	meeting_link, meeting_id, meeting_password, recording_enabled,
	is_active, last_generated_at, created_by, updated_by, created_at, updated_at`

func scanSchedule(scan func(dest ...any) error) (*models.RecurringSchedule, error) {
	var (
		schedule        models.RecurringSchedule
		weekly          []byte
		endsAt          sql.NullTime
		lastGeneratedAt sql.NullTime
		updatedBy       sql.NullString
	)

	err := scan(
		&schedule.ID, &schedule.CircleID, &schedule.TeacherID, &schedule.AcademyID, &weekly,
		&schedule.ScheduleStartsAt, &endsAt, &schedule.DefaultDurationMinutes, &schedule.Timezone,
		&schedule.GenerateAheadDays, &schedule.GenerateBeforeHours,
		&schedule.SessionTitleTemplate, &schedule.SessionDescriptionTemplate,
		&schedule.MeetingLink, &schedule.MeetingID, &schedule.MeetingPassword, &schedule.RecordingEnabled,
		&schedule.IsActive, &lastGeneratedAt, &schedule.CreatedBy, &updatedBy, &schedule.CreatedAt, &schedule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(weekly, &schedule.WeeklySchedule); err != nil {
		return nil, fmt.Errorf("decode weekly_schedule: %w", err)
	}

	if endsAt.Valid {
		t := endsAt.Time
		schedule.ScheduleEndsAt = &t
	}
	if lastGeneratedAt.Valid {
		t := lastGeneratedAt.Time
		schedule.LastGeneratedAt = &t
	}
	if updatedBy.Valid {
		schedule.UpdatedBy = &updatedBy.String
	}

	return &schedule, nil
}

func getSchedule(ctx context.Context, q querier, query string, arg string) (*models.RecurringSchedule, error) {
	row := q.QueryRowContext(ctx, query, arg)
	schedule, err := scanSchedule(row.Scan)
	if err != nil {
		return nil, mapErr(err)
	}

	return schedule, nil
}

// #### read side ####

func (s *Storage) GetSession(ctx context.Context, id string) (*models.Session, error) {
	const op = "storage.postgres.GetSession"

	session, err := getSession(ctx, s.db, id, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}

func (s *Storage) ListTeacherSessions(ctx context.Context, teacherID string, from, to *time.Time) ([]*models.Session, error) {
	const op = "storage.postgres.ListTeacherSessions"

	sessions, err := listTeacherSessions(ctx, s.db, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sessions, nil
}

func (s *Storage) GetCircle(ctx context.Context, id string) (*models.Circle, error) {
	const op = "storage.postgres.GetCircle"

	var (
		circle         models.Circle
		studentID      sql.NullString
		studentName    sql.NullString
		subscriptionID sql.NullString
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT circle_id, kind, academy_id, teacher_id, name,
		       student_id, student_name, subscription_id, session_duration_minutes
		FROM circles WHERE circle_id=$1`, id,
	).Scan(
		&circle.ID, &circle.Kind, &circle.AcademyID, &circle.TeacherID, &circle.Name,
		&studentID, &studentName, &subscriptionID, &circle.SessionDurationMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	if studentID.Valid {
		circle.StudentID = &studentID.String
	}
	circle.StudentName = studentName.String
	if subscriptionID.Valid {
		circle.SubscriptionID = &subscriptionID.String
	}

	return &circle, nil
}

func (s *Storage) GetSchedule(ctx context.Context, id string) (*models.RecurringSchedule, error) {
	const op = "storage.postgres.GetSchedule"

	schedule, err := getSchedule(ctx, s.db,
		`SELECT `+scheduleColumns+` FROM recurring_schedules WHERE schedule_id=$1`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return schedule, nil
}

func (s *Storage) GetActiveSchedule(ctx context.Context, circleID string) (*models.RecurringSchedule, error) {
	const op = "storage.postgres.GetActiveSchedule"

	schedule, err := getSchedule(ctx, s.db,
		`SELECT `+scheduleColumns+` FROM recurring_schedules WHERE circle_id=$1 AND is_active`, circleID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return schedule, nil
}

// #### write side ####

// BeginTx opens a serializable transaction; the service retries
// serialization failures once.
func (s *Storage) BeginTx(ctx context.Context) (service.Tx, error) {
	const op = "storage.postgres.BeginTx"

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return mapErr(err)
	}
	return nil
}

func (t *pgTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *pgTx) GetSessionForUpdate(ctx context.Context, id string) (*models.Session, error) {
	const op = "storage.postgres.GetSessionForUpdate"

	session, err := getSession(ctx, t.tx, id, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}

func (t *pgTx) ListTeacherSessions(ctx context.Context, teacherID string, from, to *time.Time) ([]*models.Session, error) {
	const op = "storage.postgres.ListTeacherSessionsTx"

	sessions, err := listTeacherSessions(ctx, t.tx, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sessions, nil
}

func (t *pgTx) CountScheduledOwnedSessions(ctx context.Context, owner models.Owner, excludeID string) (int, error) {
	const op = "storage.postgres.CountScheduledOwnedSessions"

	var column string
	switch owner.Kind {
	case models.OwnerIndividualCircle:
		column = "individual_circle_id"
	case models.OwnerGroupCircle:
		column = "group_circle_id"
	case models.OwnerSubscription:
		column = "subscription_id"
	default:
		return 0, fmt.Errorf("%s: unknown owner kind %q", op, owner.Kind)
	}

	var n int
	err := t.tx.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*) FROM sessions
		WHERE %s=$1 AND session_id<>$2 AND is_scheduled AND status<>'cancelled'`, column),
		owner.ID, excludeID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	return n, nil
}

func (t *pgTx) CreateSession(ctx context.Context, session *models.Session) (string, error) {
	const op = "storage.postgres.CreateSession"

	indiv, group, sub := ownerColumns(session.Owner)

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`,
		session.ID, session.AcademyID, session.TeacherID, session.StudentID,
		indiv, group, sub,
		session.ScheduledAt, session.DurationMinutes, session.IsTemplate, session.IsScheduled, session.ScheduleID,
		session.Status, session.ScheduledBy, session.TeacherScheduledAt,
		session.RescheduledFrom, session.RescheduleReason, session.CancelledBy,
		session.Title, session.Description, session.Notes, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapErr(err))
	}

	return session.ID, nil
}

func (t *pgTx) UpdateSession(ctx context.Context, session *models.Session) error {
	const op = "storage.postgres.UpdateSession"

	indiv, group, sub := ownerColumns(session.Owner)

	res, err := t.tx.ExecContext(ctx, `
		UPDATE sessions SET
			academy_id=$2, teacher_id=$3, student_id=$4,
			individual_circle_id=$5, group_circle_id=$6, subscription_id=$7,
			scheduled_at=$8, duration_minutes=$9, is_template=$10, is_scheduled=$11, schedule_id=$12,
			status=$13, scheduled_by=$14, teacher_scheduled_at=$15,
			rescheduled_from=$16, reschedule_reason=$17, cancelled_by=$18,
			title=$19, description=$20, notes=$21, updated_at=$22
		WHERE session_id=$1`,
		session.ID, session.AcademyID, session.TeacherID, session.StudentID,
		indiv, group, sub,
		session.ScheduledAt, session.DurationMinutes, session.IsTemplate, session.IsScheduled, session.ScheduleID,
		session.Status, session.ScheduledBy, session.TeacherScheduledAt,
		session.RescheduledFrom, session.RescheduleReason, session.CancelledBy,
		session.Title, session.Description, session.Notes, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (t *pgTx) CreateSchedule(ctx context.Context, schedule *models.RecurringSchedule) (string, error) {
	const op = "storage.postgres.CreateSchedule"

	weekly, err := json.Marshal(schedule.WeeklySchedule)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO recurring_schedules (`+scheduleColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`,
		schedule.ID, schedule.CircleID, schedule.TeacherID, schedule.AcademyID, weekly,
		schedule.ScheduleStartsAt, schedule.ScheduleEndsAt, schedule.DefaultDurationMinutes, schedule.Timezone,
		schedule.GenerateAheadDays, schedule.GenerateBeforeHours,
		schedule.SessionTitleTemplate, schedule.SessionDescriptionTemplate,
		schedule.MeetingLink, schedule.MeetingID, schedule.MeetingPassword, schedule.RecordingEnabled,
		schedule.IsActive, schedule.LastGeneratedAt, schedule.CreatedBy, schedule.UpdatedBy, schedule.CreatedAt, schedule.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapErr(err))
	}

	return schedule.ID, nil
}

func (t *pgTx) UpdateSchedule(ctx context.Context, schedule *models.RecurringSchedule) error {
	const op = "storage.postgres.UpdateSchedule"

	weekly, err := json.Marshal(schedule.WeeklySchedule)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := t.tx.ExecContext(ctx, `
		UPDATE recurring_schedules SET
			weekly_schedule=$2, schedule_starts_at=$3, schedule_ends_at=$4,
			default_duration_minutes=$5, timezone=$6,
			generate_ahead_days=$7, generate_before_hours=$8,
			session_title_template=$9, session_description_template=$10,
			meeting_link=$11, meeting_id=$12, meeting_password=$13, recording_enabled=$14,
			is_active=$15, last_generated_at=$16, updated_by=$17, updated_at=$18
		WHERE schedule_id=$1`,
		schedule.ID, weekly, schedule.ScheduleStartsAt, schedule.ScheduleEndsAt,
		schedule.DefaultDurationMinutes, schedule.Timezone,
		schedule.GenerateAheadDays, schedule.GenerateBeforeHours,
		schedule.SessionTitleTemplate, schedule.SessionDescriptionTemplate,
		schedule.MeetingLink, schedule.MeetingID, schedule.MeetingPassword, schedule.RecordingEnabled,
		schedule.IsActive, schedule.LastGeneratedAt, schedule.UpdatedBy, schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (t *pgTx) GetScheduleForUpdate(ctx context.Context, id string) (*models.RecurringSchedule, error) {
	const op = "storage.postgres.GetScheduleForUpdate"

	schedule, err := getSchedule(ctx, t.tx,
		`SELECT `+scheduleColumns+` FROM recurring_schedules WHERE schedule_id=$1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return schedule, nil
}

func (t *pgTx) GetActiveScheduleForUpdate(ctx context.Context, circleID string) (*models.RecurringSchedule, error) {
	const op = "storage.postgres.GetActiveScheduleForUpdate"

	schedule, err := getSchedule(ctx, t.tx,
		`SELECT `+scheduleColumns+` FROM recurring_schedules WHERE circle_id=$1 AND is_active FOR UPDATE`, circleID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return schedule, nil
}

func (t *pgTx) CancelFutureGeneratedSessions(ctx context.Context, scheduleID string, after time.Time, actorID string) (int, error) {
	const op = "storage.postgres.CancelFutureGeneratedSessions"

	res, err := t.tx.ExecContext(ctx, `
		UPDATE sessions SET status='cancelled', cancelled_by=$3, updated_at=$2
		WHERE schedule_id=$1 AND status='scheduled' AND scheduled_at > $2`,
		scheduleID, after, actorID,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return int(n), nil
}
