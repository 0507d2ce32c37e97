package bulk

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

type BulkScheduler interface {
	BulkSchedule(ctx context.Context, circleID string, items []service.BulkItem, actorID string) ([]*models.Session, error)
}

type Request struct {
	api.BulkScheduleRequest
}

type Response struct {
	response.Response
	Sessions []api.Session `json:"sessions,omitempty"`
}

func New(log *slog.Logger, scheduler BulkScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.bulk.New"

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

		log.Info("Request body decoded", slog.Int("sessions", len(req.Sessions)))

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		items := make([]service.BulkItem, 0, len(req.Sessions))
		for _, item := range req.Sessions {
			items = append(items, service.BulkItem{
				TemplateSessionID: item.SessionID,
				ScheduledAt:       item.ScheduledAt,
				Patch: &service.SessionPatch{
					Title:           item.Title,
					Description:     item.Description,
					Notes:           item.Notes,
					DurationMinutes: item.DurationMinutes,
				},
			})
		}

		sessions, err := scheduler.BulkSchedule(r.Context(), circleID, items, req.ActorID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrInvalidOwnership) {
			log.Error("template does not belong to the circle")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.INVALID_OWNERSHIP), "session does not belong to the circle"))
			return
		}

		if errors.Is(err, response.ErrNotTemplate) {
			log.Error("session is not a schedulable template")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.NOT_A_TEMPLATE), "session is not a schedulable template"))
			return
		}

		if errors.Is(err, response.ErrPastTime) {
			log.Error("scheduling time is in the past")
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(string(response.PAST_SCHEDULING_TIME), "scheduling time must be in the future"))
			return
		}

		var conflict *response.ConflictError
		if errors.As(err, &conflict) {
			log.Error("teacher has a conflicting session", slog.String("conflict_id", conflict.ConflictID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.TEACHER_CONFLICT), conflict.Error()))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("teacher booking set is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "resource is locked"))
			return
		}

		if err != nil {
			log.Error("Failed to bulk schedule", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to bulk schedule"))
			return
		}

		log.Info("Sessions scheduled", slog.Int("count", len(sessions)))

		render.JSON(w, r, Response{
			Sessions: api.FromSessions(sessions),
		})
	}
}
