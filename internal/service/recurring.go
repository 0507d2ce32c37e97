package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"halaqa-service/internal/models"
	"halaqa-service/pkg/response"
)

// timeOfDayRE accepts 24-hour HH:MM with an optional leading zero, hour
// 0..23, minute 0..59.
var timeOfDayRE = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

var arabicDays = map[string]string{
	"saturday":  "السبت",
	"sunday":    "الأحد",
	"monday":    "الاثنين",
	"tuesday":   "الثلاثاء",
	"wednesday": "الأربعاء",
	"thursday":  "الخميس",
	"friday":    "الجمعة",
}

// ScheduleOptions are the optional knobs of a new recurring definition.
// Nil fields fall back to the circle's configured duration and the
// system-wide generation defaults.
type ScheduleOptions struct {
	DurationMinutes            *int
	Timezone                   *string
	GenerateAheadDays          *int
	GenerateBeforeHours        *int
	SessionTitleTemplate       *string
	SessionDescriptionTemplate *string
	MeetingLink                *string
	MeetingID                  *string
	MeetingPassword            *string
	RecordingEnabled           *bool
}

// SchedulePatch is the sparse update set for an existing definition.
// IsActive and the weekly grammar change only when explicitly present.
type SchedulePatch struct {
	WeeklySchedule             []models.WeeklyEntry
	ScheduleEndsAt             *time.Time
	DefaultDurationMinutes     *int
	Timezone                   *string
	GenerateAheadDays          *int
	GenerateBeforeHours        *int
	SessionTitleTemplate       *string
	SessionDescriptionTemplate *string
	MeetingLink                *string
	MeetingID                  *string
	MeetingPassword            *string
	RecordingEnabled           *bool
	IsActive                   *bool
}

// validateWeeklySchedule checks the recurrence grammar and points at the
// offending entry on failure.
func validateWeeklySchedule(weekly []models.WeeklyEntry) error {
	if len(weekly) == 0 {
		return fmt.Errorf("weekly schedule is empty: %w", response.ErrInvalidWeeklySchedule)
	}

	for i, entry := range weekly {
		day := strings.ToLower(strings.TrimSpace(entry.Day))
		if !models.ValidWeekday(day) {
			return &response.GrammarError{Index: i, Day: entry.Day, Time: entry.Time, Cause: "unknown weekday"}
		}
		if !timeOfDayRE.MatchString(entry.Time) {
			return &response.GrammarError{Index: i, Day: entry.Day, Time: entry.Time, Cause: "time is not a valid 24-hour HH:MM"}
		}
	}

	return nil
}

// normalizeWeekly lowercases and trims the day names so occurrence
// expansion can match them verbatim. Every write path must store the
// normalized form.
func normalizeWeekly(weekly []models.WeeklyEntry) []models.WeeklyEntry {
	normalized := make([]models.WeeklyEntry, len(weekly))
	for i, entry := range weekly {
		normalized[i] = models.WeeklyEntry{
			Day:  strings.ToLower(strings.TrimSpace(entry.Day)),
			Time: entry.Time,
		}
	}
	return normalized
}

// entryClock splits a validated HH:MM into hour and minute.
func entryClock(t string) (int, int) {
	parts := strings.SplitN(t, ":", 2)
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h, m
}

// CreateSchedule creates the recurring weekly definition for a circle.
// At most one active definition may exist per circle.
func (s *Service) CreateSchedule(ctx context.Context, circleID string, weekly []models.WeeklyEntry, startsAt time.Time, endsAt *time.Time, opts *ScheduleOptions, actorID string) (*models.RecurringSchedule, error) {
	const op = "service.CreateSchedule"

	if err := validateWeeklySchedule(weekly); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if endsAt != nil && !endsAt.After(startsAt) {
		return nil, fmt.Errorf("%s: schedule end is not after start: %w", op, response.ErrBadRequest)
	}

	circle, err := s.store.GetCircle(ctx, circleID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	schedule := &models.RecurringSchedule{
		ID:                     uuid.NewString(),
		CircleID:               circle.ID,
		TeacherID:              circle.TeacherID,
		AcademyID:              circle.AcademyID,
		WeeklySchedule:         normalizeWeekly(weekly),
		ScheduleStartsAt:       startsAt,
		ScheduleEndsAt:         endsAt,
		DefaultDurationMinutes: circle.SessionDurationMinutes,
		Timezone:               "UTC",
		GenerateAheadDays:      s.cfg.GenerateAheadDays,
		GenerateBeforeHours:    s.cfg.GenerateBeforeHours,
		IsActive:               true,
		CreatedBy:              actorID,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if schedule.DefaultDurationMinutes <= 0 {
		schedule.DefaultDurationMinutes = s.cfg.DefaultDuration
	}

	if opts != nil {
		if opts.DurationMinutes != nil && *opts.DurationMinutes > 0 {
			schedule.DefaultDurationMinutes = *opts.DurationMinutes
		}
		if opts.Timezone != nil && *opts.Timezone != "" {
			schedule.Timezone = *opts.Timezone
		}
		if opts.GenerateAheadDays != nil && *opts.GenerateAheadDays > 0 {
			schedule.GenerateAheadDays = *opts.GenerateAheadDays
		}
		if opts.GenerateBeforeHours != nil && *opts.GenerateBeforeHours > 0 {
			schedule.GenerateBeforeHours = *opts.GenerateBeforeHours
		}
		if opts.SessionTitleTemplate != nil {
			schedule.SessionTitleTemplate = *opts.SessionTitleTemplate
		}
		if opts.SessionDescriptionTemplate != nil {
			schedule.SessionDescriptionTemplate = *opts.SessionDescriptionTemplate
		}
		if opts.MeetingLink != nil {
			schedule.MeetingLink = *opts.MeetingLink
		}
		if opts.MeetingID != nil {
			schedule.MeetingID = *opts.MeetingID
		}
		if opts.MeetingPassword != nil {
			schedule.MeetingPassword = *opts.MeetingPassword
		}
		if opts.RecordingEnabled != nil {
			schedule.RecordingEnabled = *opts.RecordingEnabled
		}
	}

	err = s.runSerializable(ctx, func(tx Tx) error {
		existing, err := tx.GetActiveScheduleForUpdate(ctx, circle.ID)
		if err != nil && !errors.Is(err, response.ErrNotFound) {
			return err
		}
		if existing != nil {
			return fmt.Errorf("circle %s: %w", circle.ID, response.ErrActiveScheduleExists)
		}

		_, err = tx.CreateSchedule(ctx, schedule)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return schedule, nil
}

// UpdateSchedule applies a partial update to an existing definition and
// stamps the acting user.
func (s *Service) UpdateSchedule(ctx context.Context, scheduleID string, patch *SchedulePatch, actorID string) (*models.RecurringSchedule, error) {
	const op = "service.UpdateSchedule"

	if patch == nil {
		return nil, fmt.Errorf("%s: empty patch: %w", op, response.ErrBadRequest)
	}

	if patch.WeeklySchedule != nil {
		if err := validateWeeklySchedule(patch.WeeklySchedule); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	var updated *models.RecurringSchedule

	err := s.runSerializable(ctx, func(tx Tx) error {
		schedule, err := tx.GetScheduleForUpdate(ctx, scheduleID)
		if err != nil {
			return err
		}

		if patch.WeeklySchedule != nil {
			schedule.WeeklySchedule = normalizeWeekly(patch.WeeklySchedule)
		}
		if patch.ScheduleEndsAt != nil {
			schedule.ScheduleEndsAt = patch.ScheduleEndsAt
		}
		if patch.DefaultDurationMinutes != nil && *patch.DefaultDurationMinutes > 0 {
			schedule.DefaultDurationMinutes = *patch.DefaultDurationMinutes
		}
		if patch.Timezone != nil && *patch.Timezone != "" {
			schedule.Timezone = *patch.Timezone
		}
		if patch.GenerateAheadDays != nil && *patch.GenerateAheadDays > 0 {
			schedule.GenerateAheadDays = *patch.GenerateAheadDays
		}
		if patch.GenerateBeforeHours != nil && *patch.GenerateBeforeHours > 0 {
			schedule.GenerateBeforeHours = *patch.GenerateBeforeHours
		}
		if patch.SessionTitleTemplate != nil {
			schedule.SessionTitleTemplate = *patch.SessionTitleTemplate
		}
		if patch.SessionDescriptionTemplate != nil {
			schedule.SessionDescriptionTemplate = *patch.SessionDescriptionTemplate
		}
		if patch.MeetingLink != nil {
			schedule.MeetingLink = *patch.MeetingLink
		}
		if patch.MeetingID != nil {
			schedule.MeetingID = *patch.MeetingID
		}
		if patch.MeetingPassword != nil {
			schedule.MeetingPassword = *patch.MeetingPassword
		}
		if patch.RecordingEnabled != nil {
			schedule.RecordingEnabled = *patch.RecordingEnabled
		}
		if patch.IsActive != nil {
			schedule.IsActive = *patch.IsActive
		}

		schedule.UpdatedBy = &actorID
		schedule.UpdatedAt = s.now()

		if err := tx.UpdateSchedule(ctx, schedule); err != nil {
			return err
		}

		updated = schedule
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

// DeactivateSchedule turns the circle's active definition off and cancels
// its future generated sessions. Returns the number of cancelled sessions.
func (s *Service) DeactivateSchedule(ctx context.Context, circleID string, actorID string) (int, error) {
	const op = "service.DeactivateSchedule"

	cancelled := 0

	err := s.runSerializable(ctx, func(tx Tx) error {
		schedule, err := tx.GetActiveScheduleForUpdate(ctx, circleID)
		if err != nil {
			return err
		}

		schedule.IsActive = false
		schedule.UpdatedBy = &actorID
		schedule.UpdatedAt = s.now()

		if err := tx.UpdateSchedule(ctx, schedule); err != nil {
			return err
		}

		n, err := tx.CancelFutureGeneratedSessions(ctx, schedule.ID, s.now(), actorID)
		if err != nil {
			return err
		}
		cancelled = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return cancelled, nil
}

// GenerateSessions materializes the circle's active definition into concrete
// scheduled sessions across the generate-ahead window. Candidate occurrences
// that conflict with an existing booking are skipped, not fatal; the
// remaining occurrences are created with the same conflict discipline as
// ad-hoc scheduling.
func (s *Service) GenerateSessions(ctx context.Context, circleID string, actorID string) (int, error) {
	const op = "service.GenerateSessions"

	schedule, err := s.store.GetActiveSchedule(ctx, circleID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return 0, fmt.Errorf("%s: circle %s: %w", op, circleID, response.ErrScheduleInactive)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	circle, err := s.store.GetCircle(ctx, circleID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	loc, err := time.LoadLocation(schedule.Timezone)
	if err != nil {
		loc = time.UTC
	}

	now := s.now()

	from := now
	if schedule.ScheduleStartsAt.After(from) {
		from = schedule.ScheduleStartsAt
	}
	if schedule.LastGeneratedAt != nil && schedule.LastGeneratedAt.After(from) {
		from = *schedule.LastGeneratedAt
	}

	to := from.AddDate(0, 0, schedule.GenerateAheadDays)
	if schedule.ScheduleEndsAt != nil && schedule.ScheduleEndsAt.Before(to) {
		to = *schedule.ScheduleEndsAt
	}

	// Occurrences starting sooner than the generate-before window are left
	// to the next run; they could not be announced in time anyway.
	earliest := now.Add(time.Duration(schedule.GenerateBeforeHours) * time.Hour)

	created := 0

	err = s.withTeacherLock(ctx, schedule.TeacherID, func() error {
		return s.runSerializable(ctx, func(tx Tx) error {
			created = 0

			existing, err := tx.ListTeacherSessions(ctx, schedule.TeacherID, nil, nil)
			if err != nil {
				return err
			}

			day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
			last := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc)

			for ; !day.After(last); day = day.AddDate(0, 0, 1) {
				for _, entry := range schedule.WeeklySchedule {
					wd, ok := models.WeekdayNumber(entry.Day)
					if !ok || day.Weekday() != wd {
						continue
					}

					h, m := entryClock(entry.Time)
					startsAt := time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, loc)

					if !startsAt.After(earliest) || startsAt.After(to) {
						continue
					}
					if findConflict(existing, startsAt, schedule.DefaultDurationMinutes, "") != nil {
						continue
					}

					session := s.buildGeneratedSession(circle, schedule, startsAt, actorID)
					if _, err := tx.CreateSession(ctx, session); err != nil {
						return err
					}

					existing = append(existing, session)
					created++
				}
			}

			if created > 0 {
				schedule.LastGeneratedAt = &now
				schedule.UpdatedAt = now
				if err := tx.UpdateSchedule(ctx, schedule); err != nil {
					return err
				}
			}

			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (s *Service) buildGeneratedSession(circle *models.Circle, schedule *models.RecurringSchedule, startsAt time.Time, actorID string) *models.Session {
	now := s.now()

	session := &models.Session{
		ID:              uuid.NewString(),
		AcademyID:       circle.AcademyID,
		TeacherID:       circle.TeacherID,
		StudentID:       circle.StudentID,
		Owner:           models.Owner{Kind: circle.Kind, ID: circle.ID},
		ScheduledAt:     &startsAt,
		DurationMinutes: schedule.DefaultDurationMinutes,
		IsTemplate:      false,
		IsScheduled:     true,
		ScheduleID:      &schedule.ID,
		Status:          models.SessionScheduled,
		ScheduledBy:     &actorID,
		Title:           renderTemplate(schedule.SessionTitleTemplate, circle.Name, startsAt),
		Description:     renderTemplate(schedule.SessionDescriptionTemplate, circle.Name, startsAt),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	session.TeacherScheduledAt = &now

	if session.Title == "" {
		dayName := arabicDays[strings.ToLower(startsAt.Weekday().String())]
		session.Title = fmt.Sprintf("%s - %s %s", circle.Name, dayName, startsAt.Format("15:04"))
	}

	return session
}

// renderTemplate fills the {circle_name}, {date}, {time} and {day}
// placeholders of a session title/description template.
func renderTemplate(tpl, circleName string, at time.Time) string {
	if tpl == "" {
		return ""
	}

	r := strings.NewReplacer(
		"{circle_name}", circleName,
		"{date}", at.Format("2006-01-02"),
		"{time}", at.Format("15:04"),
		"{day}", arabicDays[strings.ToLower(at.Weekday().String())],
	)

	return r.Replace(tpl)
}
