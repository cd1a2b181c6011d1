package delivery_accept_post_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AlekSi/pointer"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"dispatch/internal/entities"
	"dispatch/internal/handlers/rest/delivery_accept_post"
	"dispatch/internal/service/assignment"
	"dispatch/pkg/logger"
)

type fakeService struct {
	delivery     *entities.Delivery
	err          error
	gotDelivery  string
	gotCourierID int64
}

func (f *fakeService) Accept(_ context.Context, deliveryID string, courierID int64) (*entities.Delivery, error) {
	f.gotDelivery = deliveryID
	f.gotCourierID = courierID
	return f.delivery, f.err
}

func TestDeliveryAcceptPostHandler(t *testing.T) {
	t.Parallel()

	const deliveryID = "7b0b2f6e-7f2a-4a18-9c5b-3a2b1c0d9e8f"

	assignedDelivery := &entities.Delivery{
		ID:        deliveryID,
		OrderID:   "order-1001",
		Status:    entities.DeliveryAssigned,
		CourierID: pointer.To(int64(7)),
	}

	tests := []struct {
		name           string
		requestBody    string
		service        *fakeService
		expectedStatus int
	}{
		{
			name:           "Курьер успешно принимает доставку",
			requestBody:    `{"courier_id": 7}`,
			service:        &fakeService{delivery: assignedDelivery},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Невалидный JSON в теле запроса",
			requestBody:    "not json",
			service:        &fakeService{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Невалидный идентификатор курьера",
			requestBody:    `{"courier_id": 0}`,
			service:        &fakeService{err: assignment.ErrInvalidCourierID},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Доставка не найдена",
			requestBody:    `{"courier_id": 7}`,
			service:        &fakeService{err: assignment.ErrDeliveryNotFound},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Доставку уже забрал другой курьер",
			requestBody:    `{"courier_id": 7}`,
			service:        &fakeService{err: assignment.ErrAlreadyAssigned},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "Курьер занят другой доставкой",
			requestBody:    `{"courier_id": 7}`,
			service:        &fakeService{err: assignment.ErrCourierUnavailable},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := mux.NewRouter()
			router.Handle("/delivery/{id}/accept", delivery_accept_post.New(logger.NewNop(), tt.service)).Methods("POST")

			req := httptest.NewRequest(http.MethodPost, "/delivery/"+deliveryID+"/accept", bytes.NewReader([]byte(tt.requestBody)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, "unexpected status code")

			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, deliveryID, tt.service.gotDelivery)
				assert.Equal(t, int64(7), tt.service.gotCourierID)
				assert.Contains(t, w.Body.String(), `"status":"assigned"`)
			}
		})
	}
}
