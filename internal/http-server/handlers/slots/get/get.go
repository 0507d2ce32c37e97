package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"halaqa-service/api"
	"halaqa-service/internal/models"
	"halaqa-service/pkg/response"
	"halaqa-service/pkg/sl"
)

type SlotFinder interface {
	GetAvailableSlots(ctx context.Context, teacherID string, date time.Time, durationMinutes int) ([]models.TimeSlot, error)
}

type Response struct {
	response.Response
	Date  string         `json:"date"`
	Slots []api.TimeSlot `json:"slots"`
}

func New(log *slog.Logger, finder SlotFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.slots.get.New"

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

		date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
		if err != nil {
			log.Error("invalid date", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date must be YYYY-MM-DD"))
			return
		}

		duration := 60
		if raw := r.URL.Query().Get("duration_minutes"); raw != "" {
			duration, err = strconv.Atoi(raw)
			if err != nil || duration <= 0 {
				log.Error("invalid duration_minutes")
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "duration_minutes must be a positive integer"))
				return
			}
		}

		slots, err := finder.GetAvailableSlots(r.Context(), teacherID, date, duration)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("teacher not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "teacher not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get slots", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get slots"))
			return
		}

		render.JSON(w, r, Response{
			Date:  date.Format("2006-01-02"),
			Slots: api.FromTimeSlots(slots),
		})
	}
}
