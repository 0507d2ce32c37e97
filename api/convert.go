package api

import "halaqa-service/internal/models"

func FromSession(s *models.Session) Session {
	return Session{
		SessionID:          s.ID,
		AcademyID:          s.AcademyID,
		TeacherID:          s.TeacherID,
		StudentID:          s.StudentID,
		OwnerKind:          string(s.Owner.Kind),
		OwnerID:            s.Owner.ID,
		ScheduledAt:        s.ScheduledAt,
		DurationMinutes:    s.DurationMinutes,
		IsTemplate:         s.IsTemplate,
		IsScheduled:        s.IsScheduled,
		Status:             string(s.Status),
		ScheduledBy:        s.ScheduledBy,
		TeacherScheduledAt: s.TeacherScheduledAt,
		RescheduledFrom:    s.RescheduledFrom,
		RescheduleReason:   s.RescheduleReason,
		Title:              s.Title,
		Description:        s.Description,
		Notes:              s.Notes,
	}
}

func FromSessions(sessions []*models.Session) []Session {
	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, FromSession(s))
	}
	return out
}

func FromSchedule(s *models.RecurringSchedule) Schedule {
	weekly := make([]WeeklyEntry, 0, len(s.WeeklySchedule))
	for _, entry := range s.WeeklySchedule {
		weekly = append(weekly, WeeklyEntry{Day: entry.Day, Time: entry.Time})
	}

	return Schedule{
		ScheduleID:                 s.ID,
		CircleID:                   s.CircleID,
		TeacherID:                  s.TeacherID,
		AcademyID:                  s.AcademyID,
		WeeklySchedule:             weekly,
		ScheduleStartsAt:           s.ScheduleStartsAt,
		ScheduleEndsAt:             s.ScheduleEndsAt,
		DefaultDurationMinutes:     s.DefaultDurationMinutes,
		Timezone:                   s.Timezone,
		GenerateAheadDays:          s.GenerateAheadDays,
		GenerateBeforeHours:        s.GenerateBeforeHours,
		SessionTitleTemplate:       s.SessionTitleTemplate,
		SessionDescriptionTemplate: s.SessionDescriptionTemplate,
		MeetingLink:                s.MeetingLink,
		MeetingID:                  s.MeetingID,
		RecordingEnabled:           s.RecordingEnabled,
		IsActive:                   s.IsActive,
		LastGeneratedAt:            s.LastGeneratedAt,
	}
}

func FromTimeSlots(slots []models.TimeSlot) []TimeSlot {
	out := make([]TimeSlot, 0, len(slots))
	for _, s := range slots {
		out = append(out, TimeSlot(s))
	}
	return out
}

func FromCalendar(entries []models.CalendarEntry) []CalendarEntry {
	out := make([]CalendarEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, CalendarEntry{
			SessionID:       e.SessionID,
			Title:           e.Title,
			StartsAt:        e.StartsAt,
			EndsAt:          e.EndsAt,
			DurationMinutes: e.DurationMinutes,
			Status:          string(e.Status),
			Color:           e.Color,
			TeacherID:       e.TeacherID,
			StudentID:       e.StudentID,
			OwnerKind:       string(e.OwnerKind),
			OwnerID:         e.OwnerID,
		})
	}
	return out
}
