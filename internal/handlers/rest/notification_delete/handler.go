package notification_delete

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"dispatch/internal/service/notification"
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
	notificationID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	err = h.service.DeleteNotification(r.Context(), notificationID)
	if err != nil {
		switch {
		case errors.Is(err, notification.ErrInvalidNotificationID):
			w.WriteHeader(http.StatusBadRequest)
		case errors.Is(err, notification.ErrNotificationNotFound):
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
