package api

import "time"

type ScheduleSessionRequest struct {
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	ActorID         string    `json:"actor_id" validate:"required"`
	Title           *string   `json:"title,omitempty"`
	Description     *string   `json:"description,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	DurationMinutes *int      `json:"duration_minutes,omitempty" validate:"omitempty,min=1"`
}

type BulkScheduleItem struct {
	SessionID       string    `json:"session_id" validate:"required"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	Title           *string   `json:"title,omitempty"`
	Description     *string   `json:"description,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	DurationMinutes *int      `json:"duration_minutes,omitempty" validate:"omitempty,min=1"`
}

type BulkScheduleRequest struct {
	ActorID  string             `json:"actor_id" validate:"required"`
	Sessions []BulkScheduleItem `json:"sessions" validate:"required,min=1,dive"`
}

type RescheduleSessionRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	ActorID     string    `json:"actor_id" validate:"required"`
	Reason      string    `json:"reason,omitempty"`
}

type Session struct {
	SessionID          string     `json:"session_id"`
	AcademyID          string     `json:"academy_id"`
	TeacherID          string     `json:"teacher_id"`
	StudentID          *string    `json:"student_id,omitempty"`
	OwnerKind          string     `json:"owner_kind"`
	OwnerID            string     `json:"owner_id"`
	ScheduledAt        *time.Time `json:"scheduled_at,omitempty"`
	DurationMinutes    int        `json:"duration_minutes"`
	IsTemplate         bool       `json:"is_template"`
	IsScheduled        bool       `json:"is_scheduled"`
	Status             string     `json:"status"`
	ScheduledBy        *string    `json:"scheduled_by,omitempty"`
	TeacherScheduledAt *time.Time `json:"teacher_scheduled_at,omitempty"`
	RescheduledFrom    *time.Time `json:"rescheduled_from,omitempty"`
	RescheduleReason   string     `json:"reschedule_reason,omitempty"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	Notes              string     `json:"notes,omitempty"`
}

type WeeklyEntry struct {
	Day  string `json:"day" validate:"required"`
	Time string `json:"time" validate:"required"`
}

type CreateScheduleRequest struct {
	ActorID                    string        `json:"actor_id" validate:"required"`
	WeeklySchedule             []WeeklyEntry `json:"weekly_schedule" validate:"required,min=1,dive"`
	ScheduleStartsAt           time.Time     `json:"schedule_starts_at" validate:"required"`
	ScheduleEndsAt             *time.Time    `json:"schedule_ends_at,omitempty"`
	DurationMinutes            *int          `json:"duration_minutes,omitempty" validate:"omitempty,min=1"`
	Timezone                   *string       `json:"timezone,omitempty"`
	GenerateAheadDays          *int          `json:"generate_ahead_days,omitempty" validate:"omitempty,min=1"`
	GenerateBeforeHours        *int          `json:"generate_before_hours,omitempty" validate:"omitempty,min=0"`
	SessionTitleTemplate       *string       `json:"session_title_template,omitempty"`
	SessionDescriptionTemplate *string       `json:"session_description_template,omitempty"`
	MeetingLink                *string       `json:"meeting_link,omitempty"`
	MeetingID                  *string       `json:"meeting_id,omitempty"`
	MeetingPassword            *string       `json:"meeting_password,omitempty"`
	RecordingEnabled           *bool         `json:"recording_enabled,omitempty"`
}

type UpdateScheduleRequest struct {
	ActorID                    string        `json:"actor_id" validate:"required"`
	WeeklySchedule             []WeeklyEntry `json:"weekly_schedule,omitempty" validate:"omitempty,min=1,dive"`
	ScheduleEndsAt             *time.Time    `json:"schedule_ends_at,omitempty"`
	DurationMinutes            *int          `json:"duration_minutes,omitempty" validate:"omitempty,min=1"`
	Timezone                   *string       `json:"timezone,omitempty"`
	GenerateAheadDays          *int          `json:"generate_ahead_days,omitempty" validate:"omitempty,min=1"`
	GenerateBeforeHours        *int          `json:"generate_before_hours,omitempty" validate:"omitempty,min=0"`
	SessionTitleTemplate       *string       `json:"session_title_template,omitempty"`
	SessionDescriptionTemplate *string       `json:"session_description_template,omitempty"`
	MeetingLink                *string       `json:"meeting_link,omitempty"`
	MeetingID                  *string       `json:"meeting_id,omitempty"`
	MeetingPassword            *string       `json:"meeting_password,omitempty"`
	RecordingEnabled           *bool         `json:"recording_enabled,omitempty"`
	IsActive                   *bool         `json:"is_active,omitempty"`
}

type Schedule struct {
	ScheduleID                 string        `json:"schedule_id"`
	CircleID                   string        `json:"circle_id"`
	TeacherID                  string        `json:"teacher_id"`
	AcademyID                  string        `json:"academy_id"`
	WeeklySchedule             []WeeklyEntry `json:"weekly_schedule"`
	ScheduleStartsAt           time.Time     `json:"schedule_starts_at"`
	ScheduleEndsAt             *time.Time    `json:"schedule_ends_at,omitempty"`
	DefaultDurationMinutes     int           `json:"default_duration_minutes"`
	Timezone                   string        `json:"timezone"`
	GenerateAheadDays          int           `json:"generate_ahead_days"`
	GenerateBeforeHours        int           `json:"generate_before_hours"`
	SessionTitleTemplate       string        `json:"session_title_template,omitempty"`
	SessionDescriptionTemplate string        `json:"session_description_template,omitempty"`
	MeetingLink                string        `json:"meeting_link,omitempty"`
	MeetingID                  string        `json:"meeting_id,omitempty"`
	RecordingEnabled           bool          `json:"recording_enabled"`
	IsActive                   bool          `json:"is_active"`
	LastGeneratedAt            *time.Time    `json:"last_generated_at,omitempty"`
}

type TimeSlot struct {
	StartTime   string    `json:"start_time"`
	StartsAt    time.Time `json:"starts_at"`
	IsAvailable bool      `json:"is_available"`
}

type CalendarEntry struct {
	SessionID       string    `json:"session_id"`
	Title           string    `json:"title"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	Color           string    `json:"color"`
	TeacherID       string    `json:"teacher_id"`
	StudentID       *string   `json:"student_id,omitempty"`
	OwnerKind       string    `json:"owner_kind"`
	OwnerID         string    `json:"owner_id"`
}

type ConflictCheckResult struct {
	HasConflict bool `json:"has_conflict"`
}
