package check

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"halaqa-service/api"
	"halaqa-service/pkg/response"
	"halaqa-service/pkg/sl"
)

type ConflictChecker interface {
	HasConflict(ctx context.Context, teacherID string, start time.Time, durationMinutes int, excludeID string) (bool, error)
}

type Response struct {
	response.Response
	api.ConflictCheckResult
}

func New(log *slog.Logger, checker ConflictChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.conflicts.check.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		q := r.URL.Query()

		teacherID := q.Get("teacher_id")
		if teacherID == "" {
			log.Error("teacher_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "teacher_id is required"))
			return
		}

		start, err := time.Parse(time.RFC3339, q.Get("scheduled_at"))
		if err != nil {
			log.Error("invalid scheduled_at", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "scheduled_at must be RFC3339"))
			return
		}

		duration, err := strconv.Atoi(q.Get("duration_minutes"))
		if err != nil || duration <= 0 {
			log.Error("invalid duration_minutes")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "duration_minutes must be a positive integer"))
			return
		}

		excludeID := q.Get("exclude_session_id")

		hasConflict, err := checker.HasConflict(r.Context(), teacherID, start, duration, excludeID)
		if err != nil {
			log.Error("Failed to check conflict", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to check conflict"))
			return
		}

		render.JSON(w, r, Response{
			ConflictCheckResult: api.ConflictCheckResult{HasConflict: hasConflict},
		})
	}
}
