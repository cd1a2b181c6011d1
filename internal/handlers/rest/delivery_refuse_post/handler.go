package delivery_refuse_post

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"dispatch/internal/handlers/rest/dto"
	"dispatch/internal/service/assignment"
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
	deliveryID := mux.Vars(r)["id"]

	var refuseDTO dto.DeliveryRefuseRequest
	err := json.NewDecoder(r.Body).Decode(&refuseDTO)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	err = h.service.Refuse(r.Context(), deliveryID, refuseDTO.CourierID)
	if err != nil {
		switch {
		case errors.Is(err, assignment.ErrInvalidDeliveryID),
			errors.Is(err, assignment.ErrInvalidCourierID):
			w.WriteHeader(http.StatusBadRequest)
		case errors.Is(err, assignment.ErrDeliveryNotFound):
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
