package delivery_accept_post

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"dispatch/internal/handlers/rest/dto"
	"dispatch/internal/service/assignment"
	"dispatch/pkg/logger"
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

	var acceptDTO dto.DeliveryAcceptRequest
	err := json.NewDecoder(r.Body).Decode(&acceptDTO)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	deliveryEntity, err := h.service.Accept(r.Context(), deliveryID, acceptDTO.CourierID)
	if err != nil {
		switch {
		case errors.Is(err, assignment.ErrInvalidDeliveryID),
			errors.Is(err, assignment.ErrInvalidCourierID):
			w.WriteHeader(http.StatusBadRequest)
		case errors.Is(err, assignment.ErrDeliveryNotFound):
			w.WriteHeader(http.StatusNotFound)
		case errors.Is(err, assignment.ErrAlreadyAssigned),
			errors.Is(err, assignment.ErrCourierUnavailable):
			w.WriteHeader(http.StatusConflict)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	response := dto.FromDelivery(*deliveryEntity)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err = json.NewEncoder(w).Encode(response)
	if err != nil {
		h.log.With(
			logger.NewField("error", err),
		).Error("encode JSON response")
	}
}
