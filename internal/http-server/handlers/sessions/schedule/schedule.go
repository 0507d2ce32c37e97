package schedule

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

type SessionScheduler interface {
	ScheduleSession(ctx context.Context, sessionID string, scheduledAt time.Time, actorID string, patch *service.SessionPatch) (*models.Session, error)
}

type Request struct {
	api.ScheduleSessionRequest
}

type Response struct {
	response.Response
	Session api.Session `json:"session,omitempty"`
}

func New(log *slog.Logger, scheduler SessionScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.schedule.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		sessionID := chi.URLParam(r, "id")
		if sessionID == "" {
			log.Error("session id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "session id is required"))
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

		patch := &service.SessionPatch{
			Title:           req.Title,
			Description:     req.Description,
			Notes:           req.Notes,
			DurationMinutes: req.DurationMinutes,
		}

		session, err := scheduler.ScheduleSession(r.Context(), sessionID, req.ScheduledAt, req.ActorID, patch)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("session not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "session not found"))
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
			log.Error("Failed to schedule session", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to schedule session"))
			return
		}

		log.Info("Session scheduled", slog.String("session_id", session.ID))

		responseOK(w, r, session)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, session *models.Session) {
	render.JSON(w, r, Response{
		Session: api.FromSession(session),
	})
}
