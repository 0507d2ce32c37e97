package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"halaqa-service/api"
	"halaqa-service/internal/models"
	"halaqa-service/pkg/response"
	"halaqa-service/pkg/sl"
)

type CalendarProjector interface {
	ProjectCalendar(ctx context.Context, teacherID string, from, to time.Time) ([]models.CalendarEntry, error)
}

type Response struct {
	response.Response
	Entries []api.CalendarEntry `json:"entries"`
}

func New(log *slog.Logger, projector CalendarProjector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calendar.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		teacherID := r.URL.Query().Get("teacher_id")
		if teacherID == "" {
			log.Error("teacher_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "teacher_id is required"))
			return
		}

		from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
		if err != nil {
			log.Error("invalid from", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "from must be RFC3339"))
			return
		}

		to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
		if err != nil {
			log.Error("invalid to", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "to must be RFC3339"))
			return
		}

		if !to.After(from) {
			log.Error("empty range")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "to must be after from"))
			return
		}

		entries, err := projector.ProjectCalendar(r.Context(), teacherID, from, to)
		if err != nil {
			log.Error("Failed to project calendar", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to project calendar"))
			return
		}

		render.JSON(w, r, Response{
			Entries: api.FromCalendar(entries),
		})
	}
}
