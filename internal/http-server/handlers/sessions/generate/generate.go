package generate

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

type SessionGenerator interface {
	GenerateSessions(ctx context.Context, circleID string, actorID string) (int, error)
}

type Request struct {
	ActorID string `json:"actor_id"`
}

type Response struct {
	response.Response
	Created int `json:"created"`
}

func New(log *slog.Logger, generator SessionGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.generate.New"

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

		created, err := generator.GenerateSessions(r.Context(), circleID, req.ActorID)

		if errors.Is(err, response.ErrScheduleInactive) {
			log.Error("circle has no active schedule")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SCHEDULE_INACTIVE), "circle has no active schedule"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("circle not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "circle not found"))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("teacher booking set is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "resource is locked"))
			return
		}

		if err != nil {
			log.Error("Failed to generate sessions", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to generate sessions"))
			return
		}

		log.Info("Sessions generated", slog.Int("created", created))

		render.JSON(w, r, Response{Created: created})
	}
}
