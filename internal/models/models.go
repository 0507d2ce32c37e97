package models

import (
	"time"
)

type SessionStatus string

const (
	SessionUnscheduled SessionStatus = "unscheduled"
	SessionScheduled   SessionStatus = "scheduled"
	SessionReady       SessionStatus = "ready"
	SessionOngoing     SessionStatus = "ongoing"
	SessionCompleted   SessionStatus = "completed"
	SessionCancelled   SessionStatus = "cancelled"
)

// OwnerKind discriminates the entity a session belongs to.
// Exactly one owning entity is set per session.
type OwnerKind string

const (
	OwnerIndividualCircle OwnerKind = "individual_circle"
	OwnerGroupCircle      OwnerKind = "group_circle"
	OwnerSubscription     OwnerKind = "subscription"
)

// Owner is the tagged owning-entity reference. Storage maps it to three
// nullable columns; in code only this pair is authoritative.
type Owner struct {
	Kind OwnerKind `db:"owner_kind"`
	ID   string    `db:"owner_id"`
}

type Session struct {
	ID                 string        `db:"session_id"`
	AcademyID          string        `db:"academy_id"`
	TeacherID          string        `db:"teacher_id"`
	StudentID          *string       `db:"student_id"`
	Owner              Owner
	ScheduledAt        *time.Time    `db:"scheduled_at"`
	DurationMinutes    int           `db:"duration_minutes"`
	IsTemplate         bool          `db:"is_template"`
	IsScheduled        bool          `db:"is_scheduled"`
	ScheduleID         *string       `db:"schedule_id"`
	Status             SessionStatus `db:"status"`
	ScheduledBy        *string       `db:"scheduled_by"`
	TeacherScheduledAt *time.Time    `db:"teacher_scheduled_at"`
	RescheduledFrom    *time.Time    `db:"rescheduled_from"`
	RescheduleReason   string        `db:"reschedule_reason"`
	CancelledBy        *string       `db:"cancelled_by"`
	Title              string        `db:"title"`
	Description        string        `db:"description"`
	Notes              string        `db:"notes"`
	CreatedAt          time.Time     `db:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
}

// EndsAt is the exclusive end of the session interval. Zero time if the
// session has no assigned start.
func (s *Session) EndsAt() time.Time {
	if s.ScheduledAt == nil {
		return time.Time{}
	}
	return s.ScheduledAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Occupies reports whether the session holds a teacher time interval:
// it has a start and is not cancelled.
func (s *Session) Occupies() bool {
	return s.ScheduledAt != nil && s.Status != SessionCancelled
}

// WeeklyEntry is one weekday+time pair of a recurring definition.
type WeeklyEntry struct {
	Day  string `json:"day"`
	Time string `json:"time"`
}

type RecurringSchedule struct {
	ID                         string        `db:"schedule_id"`
	CircleID                   string        `db:"circle_id"`
	TeacherID                  string        `db:"teacher_id"`
	AcademyID                  string        `db:"academy_id"`
	WeeklySchedule             []WeeklyEntry `db:"weekly_schedule"`
	ScheduleStartsAt           time.Time     `db:"schedule_starts_at"`
	ScheduleEndsAt             *time.Time    `db:"schedule_ends_at"`
	DefaultDurationMinutes     int           `db:"default_duration_minutes"`
	Timezone                   string        `db:"timezone"`
	GenerateAheadDays          int           `db:"generate_ahead_days"`
	GenerateBeforeHours        int           `db:"generate_before_hours"`
	SessionTitleTemplate       string        `db:"session_title_template"`
	SessionDescriptionTemplate string        `db:"session_description_template"`
	MeetingLink                string        `db:"meeting_link"`
	MeetingID                  string        `db:"meeting_id"`
	MeetingPassword            string        `db:"meeting_password"`
	RecordingEnabled           bool          `db:"recording_enabled"`
	IsActive                   bool          `db:"is_active"`
	LastGeneratedAt            *time.Time    `db:"last_generated_at"`
	CreatedBy                  string        `db:"created_by"`
	UpdatedBy                  *string       `db:"updated_by"`
	CreatedAt                  time.Time     `db:"created_at"`
	UpdatedAt                  time.Time     `db:"updated_at"`
}

// Circle is the read-only projection of an owning circle that the engine
// needs: display data and the configured session length. Which concrete
// entity it is (group circle, individual circle, subscription) is carried
// by Kind.
type Circle struct {
	ID                     string    `db:"circle_id"`
	Kind                   OwnerKind `db:"kind"`
	AcademyID              string    `db:"academy_id"`
	TeacherID              string    `db:"teacher_id"`
	Name                   string    `db:"name"`
	StudentID              *string   `db:"student_id"`
	StudentName            string    `db:"student_name"`
	SubscriptionID         *string   `db:"subscription_id"`
	SessionDurationMinutes int       `db:"session_duration_minutes"`
}

// TimeSlot is a derived availability entry; never persisted.
type TimeSlot struct {
	StartTime   string    `json:"start_time"`
	StartsAt    time.Time `json:"starts_at"`
	IsAvailable bool      `json:"is_available"`
}

// CalendarEntry is a derived calendar view row; never persisted.
type CalendarEntry struct {
	SessionID       string        `json:"session_id"`
	Title           string        `json:"title"`
	StartsAt        time.Time     `json:"starts_at"`
	EndsAt          time.Time     `json:"ends_at"`
	DurationMinutes int           `json:"duration_minutes"`
	Status          SessionStatus `json:"status"`
	Color           string        `json:"color"`
	TeacherID       string        `json:"teacher_id"`
	StudentID       *string       `json:"student_id,omitempty"`
	OwnerKind       OwnerKind     `json:"owner_kind"`
	OwnerID         string        `json:"owner_id"`
}

// StatusColor is the stable color key used by calendar views.
func StatusColor(status SessionStatus) string {
	switch status {
	case SessionScheduled:
		return "#3B82F6"
	case SessionOngoing:
		return "#F59E0B"
	case SessionCompleted:
		return "#10B981"
	case SessionCancelled:
		return "#EF4444"
	default:
		return "#6B7280"
	}
}

// Weekdays is the canonical weekday set of a weekly schedule, in the week
// order the academies use.
var Weekdays = []string{
	"saturday",
	"sunday",
	"monday",
	"tuesday",
	"wednesday",
	"thursday",
	"friday",
}

// ValidWeekday reports whether day is one of the seven canonical names.
func ValidWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

var weekdayNumbers = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// WeekdayNumber maps a canonical day name to time.Weekday.
func WeekdayNumber(day string) (time.Weekday, bool) {
	wd, ok := weekdayNumbers[day]
	return wd, ok
}
