package response

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

//Error Codes
type ErrCode string

var (
	FAILED_REQUEST          ErrCode = "REQUEST_FAILED"
	BAD_REQUEST             ErrCode = "FAILED_TO_DECODE"
	NOT_FOUND               ErrCode = "NOT_FOUND"
	LOCKED                  ErrCode = "LOCKED"
	NOT_A_TEMPLATE          ErrCode = "NOT_A_TEMPLATE"
	PAST_SCHEDULING_TIME    ErrCode = "PAST_SCHEDULING_TIME"
	TEACHER_CONFLICT        ErrCode = "TEACHER_CONFLICT"
	INVALID_OWNERSHIP       ErrCode = "INVALID_OWNERSHIP"
	INVALID_WEEKLY_SCHEDULE ErrCode = "INVALID_WEEKLY_SCHEDULE"
	ACTIVE_SCHEDULE_EXISTS  ErrCode = "ACTIVE_SCHEDULE_EXISTS"
	SCHEDULE_INACTIVE       ErrCode = "SCHEDULE_INACTIVE"
	NOT_SCHEDULED           ErrCode = "NOT_SCHEDULED"
	VALIDATION_FAILED       ErrCode = "VALIDATION_FAILED"
)

var (
	ErrBadRequest            = errors.New("bad request")
	ErrNotFound              = errors.New("resource not found")
	ErrLocked                = errors.New("resource is locked")
	ErrNotTemplate           = errors.New("session is not a schedulable template")
	ErrPastTime              = errors.New("scheduling time is in the past")
	ErrTeacherConflict       = errors.New("teacher has a conflicting session")
	ErrInvalidOwnership      = errors.New("template does not belong to the circle")
	ErrInvalidWeeklySchedule = errors.New("invalid weekly schedule entry")
	ErrActiveScheduleExists  = errors.New("circle already has an active schedule")
	ErrScheduleInactive      = errors.New("schedule is not active")
	ErrNotScheduled          = errors.New("session is not scheduled")

	// ErrSerialization marks a storage-level serialization failure; the
	// engine retries the check-and-write once before surfacing a conflict.
	ErrSerialization = errors.New("serialization failure")
)

// ConflictError carries the interval context of a teacher double booking so
// callers can render a precise message. Unwraps to ErrTeacherConflict.
type ConflictError struct {
	TeacherID     string
	Start         time.Time
	End           time.Time
	ConflictID    string
	ConflictStart time.Time
	ConflictEnd   time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"teacher %s: candidate [%s, %s) overlaps session %s [%s, %s)",
		e.TeacherID,
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339),
		e.ConflictID,
		e.ConflictStart.Format(time.RFC3339), e.ConflictEnd.Format(time.RFC3339),
	)
}

func (e *ConflictError) Unwrap() error { return ErrTeacherConflict }

// GrammarError identifies the offending weekly schedule entry.
// Unwraps to ErrInvalidWeeklySchedule.
type GrammarError struct {
	Index int
	Day   string
	Time  string
	Cause string
}

func (e *GrammarError) Error() string {
	return fmt.Sprintf("weekly schedule entry %d {day: %q, time: %q}: %s", e.Index, e.Day, e.Time, e.Cause)
}

func (e *GrammarError) Unwrap() error { return ErrInvalidWeeklySchedule }

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsg []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is required", err.Field()))
		case "min":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is below the minimum of %s", err.Field(), err.Param()))
		case "max":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is above the maximum of %s", err.Field(), err.Param()))
		case "oneof":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' must be one of [%s]", err.Field(), err.Param()))
		default:
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is invalid", err.Field()))
		}
	}

	return Response{
		ResponseError: ResponseError{
			Code:    string(VALIDATION_FAILED),
			Message: strings.Join(errMsg, ", "),
		},
	}
}
