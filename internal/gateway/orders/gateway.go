package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/gateway"
	retrierconfig "dispatch/pkg/retrier"
	"dispatch/pkg/retrier/backoff_adapter"
)

const serviceName = "order-service"

const (
	initialInterval = 100 * time.Millisecond
	maxInterval     = 2 * time.Second
	maxElapsedTime  = 1 * time.Second
	randomization   = 0.5
	multiplier      = 2.0
)

// errRetryableStatus помечает ответы, которые имеет смысл повторить.
var errRetryableStatus = errors.New("retryable http status")

type OrderGateway struct {
	baseURL string
	client  doer
	retrier retrier
}

func New(baseURL string, client doer) *OrderGateway {
	retryConfig := retrierconfig.Config{
		InitialInterval: initialInterval,
		MaxInterval:     maxInterval,
		MaxElapsedTime:  maxElapsedTime,
		Randomization:   randomization,
		Multiplier:      multiplier,
		ShouldRetry:     isRetryable,
	}

	return &OrderGateway{
		baseURL: baseURL,
		client:  client,
		retrier: backoff_adapter.New(retryConfig),
	}
}

// GetOrder возвращает (nil, nil), если заказ сервису заказов неизвестен.
func (o *OrderGateway) GetOrder(ctx context.Context, orderID string) (*entities.OrderSummary, error) {
	endpoint := o.baseURL + "/api/v1/orders/" + url.PathEscape(orderID)

	var orderModel *orderResponse
	err := o.executeWithMetrics(ctx, "GetOrder", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}

		resp, err := o.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			orderModel = nil
			return nil
		case resp.StatusCode >= http.StatusInternalServerError,
			resp.StatusCode == http.StatusTooManyRequests:
			_, _ = io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("%w: %d", errRetryableStatus, resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			_, _ = io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		orderModel = &orderResponse{}
		return json.NewDecoder(resp.Body).Decode(orderModel)
	})
	if err != nil {
		return nil, fmt.Errorf("gateway orders, get order %s: %w", orderID, err)
	}

	return toDomain(orderModel), nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// сетевые ошибки и помеченные статусы повторяем
	var urlErr *url.Error
	return errors.Is(err, errRetryableStatus) || errors.As(err, &urlErr)
}

func (o *OrderGateway) executeWithMetrics(ctx context.Context, method string, fn func(context.Context) error) error {
	var attempt uint64
	start := time.Now()

	err := o.retrier.ExecuteWithContext(ctx, func(ctx context.Context) error {
		attempt++
		return fn(ctx)
	})

	code := resultCode(err)
	gateway.RequestDuration.WithLabelValues(serviceName, method, code).Observe(time.Since(start).Seconds())

	if attempt > 1 {
		gateway.RetriesTotal.WithLabelValues(serviceName, method, code).Add(float64(attempt - 1))
	}

	return err
}

func resultCode(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
