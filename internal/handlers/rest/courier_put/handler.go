package courier_put

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"dispatch/internal/entities"
	"dispatch/internal/handlers/rest/dto"
	"dispatch/internal/service/courier"
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
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var courierUpdateDTO dto.CourierUpdate
	err = json.NewDecoder(r.Body).Decode(&courierUpdateDTO)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	courierModifyEntity := entities.CourierModify{
		ID: &id,
	}

	// Опциональные параметры
	if courierUpdateDTO.Name != nil {
		courierModifyEntity.Name = courierUpdateDTO.Name
	}
	if courierUpdateDTO.Phone != nil {
		courierModifyEntity.Phone = courierUpdateDTO.Phone
	}
	if courierUpdateDTO.Status != nil {
		statusType := entities.CourierStatusType(*courierUpdateDTO.Status)
		courierModifyEntity.Status = &statusType
	}
	if courierUpdateDTO.TransportType != nil {
		transportType := entities.CourierTransportType(*courierUpdateDTO.TransportType)
		courierModifyEntity.TransportType = &transportType
	}

	res, err := h.service.UpdateCourier(r.Context(), courierModifyEntity)
	if err != nil {
		switch {
		case errors.Is(err, courier.ErrMissingRequiredFields),
			errors.Is(err, courier.ErrInvalidCourierID),
			errors.Is(err, courier.ErrInvalidName),
			errors.Is(err, courier.ErrInvalidPhone),
			errors.Is(err, courier.ErrInvalidStatus),
			errors.Is(err, courier.ErrInvalidTransport):
			w.WriteHeader(http.StatusBadRequest)
		case errors.Is(err, courier.ErrCourierNotFound):
			w.WriteHeader(http.StatusNotFound)
		case errors.Is(err, courier.ErrConflict):
			w.WriteHeader(http.StatusConflict)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	response := dto.FromCourier(*res)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err = json.NewEncoder(w).Encode(response)
	if err != nil {
		h.log.With(
			logger.NewField("error", err),
		).Error("encode JSON response")
	}
}
