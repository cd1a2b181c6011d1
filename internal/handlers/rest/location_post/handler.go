package location_post

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"dispatch/internal/entities"
	"dispatch/internal/handlers/rest/dto"
	"dispatch/internal/service/tracking"
)

type Handler struct {
	log     handlerLogger
	service Service
}

func New(log handlerLogger, service Service) *Handler {
	handlerLog := log.With()

	return &Handler{
		log:     handlerLog,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	courierID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var reportDTO dto.LocationReport
	err = json.NewDecoder(r.Body).Decode(&reportDTO)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var recordedAt time.Time
	if reportDTO.RecordedAt != nil {
		recordedAt = *reportDTO.RecordedAt
	}
	point := entities.GeoPoint{
		Lat: reportDTO.Lat,
		Lon: reportDTO.Lon,
	}

	err = h.service.ReportPosition(r.Context(), courierID, point, recordedAt)
	if err != nil {
		switch {
		case errors.Is(err, tracking.ErrInvalidCourierID),
			errors.Is(err, tracking.ErrInvalidPoint):
			w.WriteHeader(http.StatusBadRequest)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
