package deliveries_get

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"dispatch/internal/entities"
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
	filter, err := parseFilter(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	deliveries, err := h.service.ListDeliveries(r.Context(), filter)
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrInvalidFilter):
			w.WriteHeader(http.StatusBadRequest)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	response := dto.DeliveryList{
		Deliveries: make([]dto.Delivery, 0, len(deliveries)),
	}
	for _, deliveryEntity := range deliveries {
		response.Deliveries = append(response.Deliveries, dto.FromDelivery(deliveryEntity))
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

func parseFilter(r *http.Request) (entities.DeliveryFilter, error) {
	var filter entities.DeliveryFilter
	query := r.URL.Query()

	if raw := query.Get("courier_id"); raw != "" {
		courierID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return entities.DeliveryFilter{}, err
		}
		filter.CourierID = &courierID
	}
	if raw := query.Get("status"); raw != "" {
		status := entities.DeliveryStatus(raw)
		filter.Status = &status
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return entities.DeliveryFilter{}, err
		}
		filter.Limit = limit
	}

	return filter, nil
}
