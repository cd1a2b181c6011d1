package delivery_get

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

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
	deliveryID := mux.Vars(r)["id"]

	deliveryEntity, err := h.service.GetDelivery(r.Context(), deliveryID)
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrInvalidDeliveryID):
			w.WriteHeader(http.StatusBadRequest)
		case errors.Is(err, dispatch.ErrDeliveryNotFound):
			w.WriteHeader(http.StatusNotFound)
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
