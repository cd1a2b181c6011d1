package delivery_post

import (
	"encoding/json"
	"errors"
	"net/http"

	"dispatch/internal/handlers/rest/dto"
	"dispatch/internal/service/dispatch"
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
	var deliveryCreateDTO dto.DeliveryCreate
	err := json.NewDecoder(r.Body).Decode(&deliveryCreateDTO)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	deliveryEntity, err := h.service.CreateDelivery(r.Context(), deliveryCreateDTO.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrInvalidOrderID):
			w.WriteHeader(http.StatusBadRequest)
		case errors.Is(err, dispatch.ErrOrderNotFound):
			w.WriteHeader(http.StatusNotFound)
		case errors.Is(err, dispatch.ErrDeliveryExists):
			w.WriteHeader(http.StatusConflict)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	response := dto.FromDelivery(*deliveryEntity)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	err = json.NewEncoder(w).Encode(response)
	if err != nil {
		h.log.With(
			logger.NewField("error", err),
		).Error("encode JSON response")
	}
}
