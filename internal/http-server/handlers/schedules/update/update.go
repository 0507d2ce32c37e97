package update

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"halaqa-service/api"
	"halaqa-service/internal/models"
	"halaqa-service/internal/service"
	"halaqa-service/pkg/response"
	"halaqa-service/pkg/sl"
)

type ScheduleUpdater interface {
	UpdateSchedule(ctx context.Context, scheduleID string, patch *service.SchedulePatch, actorID string) (*models.RecurringSchedule, error)
}

type Request struct {
	api.UpdateScheduleRequest
}

type Response struct {
	response.Response
	Schedule api.Schedule `json:"schedule,omitempty"`
}

func New(log *slog.Logger, updater ScheduleUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedules.update.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		scheduleID := chi.URLParam(r, "id")
		if scheduleID == "" {
			log.Error("schedule id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "schedule id is required"))
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		patch := &service.SchedulePatch{
			ScheduleEndsAt:             req.ScheduleEndsAt,
			DefaultDurationMinutes:     req.DurationMinutes,
			Timezone:                   req.Timezone,
			GenerateAheadDays:          req.GenerateAheadDays,
			GenerateBeforeHours:        req.GenerateBeforeHours,
			SessionTitleTemplate:       req.SessionTitleTemplate,
			SessionDescriptionTemplate: req.SessionDescriptionTemplate,
			MeetingLink:                req.MeetingLink,
			MeetingID:                  req.MeetingID,
			MeetingPassword:            req.MeetingPassword,
			RecordingEnabled:           req.RecordingEnabled,
			IsActive:                   req.IsActive,
		}

		if req.WeeklySchedule != nil {
			weekly := make([]models.WeeklyEntry, 0, len(req.WeeklySchedule))
			for _, entry := range req.WeeklySchedule {
				weekly = append(weekly, models.WeeklyEntry{Day: entry.Day, Time: entry.Time})
			}
			patch.WeeklySchedule = weekly
		}

		schedule, err := updater.UpdateSchedule(r.Context(), scheduleID, patch, req.ActorID)

		if errors.Is(err, response.ErrInvalidWeeklySchedule) {
			log.Error("invalid weekly schedule", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(string(response.INVALID_WEEKLY_SCHEDULE), err.Error()))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("schedule not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "schedule not found"))
			return
		}

		if err != nil {
			log.Error("Failed to update schedule", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update schedule"))
			return
		}

		log.Info("Schedule updated", slog.String("schedule_id", schedule.ID))

		render.JSON(w, r, Response{
			Schedule: api.FromSchedule(schedule),
		})
	}
}
