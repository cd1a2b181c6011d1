package couriers_get

import (
	"encoding/json"
	"net/http"

	"dispatch/internal/handlers/rest/dto"
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
	courierEntities, err := h.service.GetCouriers(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	response := dto.CourierList{
		Couriers: make([]dto.Courier, 0, len(courierEntities)),
	}
	for _, courierEntity := range courierEntities {
		response.Couriers = append(response.Couriers, dto.FromCourier(courierEntity))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err = json.NewEncoder(w).Encode(response)
	if err != nil {
		h.log.With(
			logger.NewField("error", err),
		).Error("encode JSON response")
	}
}
