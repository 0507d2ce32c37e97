package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

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

type ScheduleCreator interface {
	CreateSchedule(ctx context.Context, circleID string, weekly []models.WeeklyEntry, startsAt time.Time, endsAt *time.Time, opts *service.ScheduleOptions, actorID string) (*models.RecurringSchedule, error)
}

type Request struct {
	api.CreateScheduleRequest
}

type Response struct {
	response.Response
	Schedule api.Schedule `json:"schedule,omitempty"`
}

func New(log *slog.Logger, creator ScheduleCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedules.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		circleID := chi.URLParam(r, "id")
		if circleID == "" {
			log.Error("circle id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "circle id is required"))
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

		weekly := make([]models.WeeklyEntry, 0, len(req.WeeklySchedule))
		for _, entry := range req.WeeklySchedule {
			weekly = append(weekly, models.WeeklyEntry{Day: entry.Day, Time: entry.Time})
		}

		opts := &service.ScheduleOptions{
			DurationMinutes:            req.DurationMinutes,
			Timezone:                   req.Timezone,
			GenerateAheadDays:          req.GenerateAheadDays,
			GenerateBeforeHours:        req.GenerateBeforeHours,
			SessionTitleTemplate:       req.SessionTitleTemplate,
			SessionDescriptionTemplate: req.SessionDescriptionTemplate,
			MeetingLink:                req.MeetingLink,
			MeetingID:                  req.MeetingID,
			MeetingPassword:            req.MeetingPassword,
			RecordingEnabled:           req.RecordingEnabled,
		}

		schedule, err := creator.CreateSchedule(r.Context(), circleID, weekly, req.ScheduleStartsAt, req.ScheduleEndsAt, opts, req.ActorID)

		if errors.Is(err, response.ErrInvalidWeeklySchedule) {
			log.Error("invalid weekly schedule", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(string(response.INVALID_WEEKLY_SCHEDULE), err.Error()))
			return
		}

		if errors.Is(err, response.ErrActiveScheduleExists) {
			log.Error("circle already has an active schedule")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.ACTIVE_SCHEDULE_EXISTS), "circle already has an active schedule"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("circle not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "circle not found"))
			return
		}

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("bad schedule bounds", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "schedule end must be after start"))
			return
		}

		if err != nil {
			log.Error("Failed to create schedule", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create schedule"))
			return
		}

		log.Info("Schedule created", slog.String("schedule_id", schedule.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Schedule: api.FromSchedule(schedule),
		})
	}
}
