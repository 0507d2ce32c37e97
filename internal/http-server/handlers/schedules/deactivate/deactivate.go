package deactivate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"halaqa-service/pkg/response"
	"halaqa-service/pkg/sl"
)

type ScheduleDeactivator interface {
	DeactivateSchedule(ctx context.Context, circleID string, actorID string) (int, error)
}

type Request struct {
	ActorID string `json:"actor_id"`
}

type Response struct {
	response.Response
	CancelledSessions int `json:"cancelled_sessions"`
}

func New(log *slog.Logger, deactivator ScheduleDeactivator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedules.deactivate.New"

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

		if req.ActorID == "" {
			log.Error("actor_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "actor_id is required"))
			return
		}

		cancelled, err := deactivator.DeactivateSchedule(r.Context(), circleID, req.ActorID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("active schedule not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "circle has no active schedule"))
			return
		}

		if err != nil {
			log.Error("Failed to deactivate schedule", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to deactivate schedule"))
			return
		}

		log.Info("Schedule deactivated", slog.Int("cancelled_sessions", cancelled))

		render.JSON(w, r, Response{CancelledSessions: cancelled})
	}
}
