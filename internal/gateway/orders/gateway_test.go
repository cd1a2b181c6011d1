package orders_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/gateway/orders"
)

func TestOrderGateway_GetOrder(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)

		switch r.URL.Path {
		case "/api/v1/orders/order-1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "order-1",
				"pickup_address": "Tverskaya 1",
				"dropoff_address": "Arbat 10",
				"item_count": 2,
				"fee": 35000,
				"customer_user_id": 500
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	gw := orders.New(server.URL, server.Client())

	order, err := gw.GetOrder(context.Background(), "order-1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "order-1", order.ID)
	assert.Equal(t, "Tverskaya 1", order.PickupAddress)
	assert.Equal(t, int64(35000), order.Fee)
	assert.Equal(t, int64(500), order.CustomerUserID)

	// неизвестный заказ это не ошибка, а nil
	order, err = gw.GetOrder(context.Background(), "order-unknown")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestOrderGateway_GetOrder_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "order-1"}`))
	}))
	defer server.Close()

	gw := orders.New(server.URL, server.Client())

	order, err := gw.GetOrder(context.Background(), "order-1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.GreaterOrEqual(t, calls.Load(), int64(2))
}

func TestOrderGateway_GetOrder_BadRequestNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	gw := orders.New(server.URL, server.Client())

	_, err := gw.GetOrder(context.Background(), "order-1")
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())
}
