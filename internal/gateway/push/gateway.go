package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"dispatch/internal/gateway"
	retrierconfig "dispatch/pkg/retrier"
	"dispatch/pkg/retrier/backoff_adapter"
)

const serviceName = "push-service"

const (
	initialInterval = 100 * time.Millisecond
	maxInterval     = 1 * time.Second
	maxElapsedTime  = 3 * time.Second
	randomization   = 0.5
	multiplier      = 2.0
)

var errRetryableStatus = errors.New("retryable http status")

type sendRequest struct {
	CourierID int64             `json:"courier_id"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
}

type devicesResponse struct {
	Tokens []string `json:"tokens"`
}

// PushGateway шлёт мобильные пуши курьерам через сервис нотификаций.
type PushGateway struct {
	baseURL string
	client  doer
	retrier retrier
}

func New(baseURL string, client doer) *PushGateway {
	retryConfig := retrierconfig.Config{
		InitialInterval: initialInterval,
		MaxInterval:     maxInterval,
		MaxElapsedTime:  maxElapsedTime,
		Randomization:   randomization,
		Multiplier:      multiplier,
		ShouldRetry:     isRetryable,
	}

	return &PushGateway{
		baseURL: baseURL,
		client:  client,
		retrier: backoff_adapter.New(retryConfig),
	}
}

func (p *PushGateway) SendToCourier(ctx context.Context, courierID int64, title, body string, data map[string]string) error {
	payload, err := json.Marshal(sendRequest{
		CourierID: courierID,
		Title:     title,
		Body:      body,
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("gateway push, marshal request: %w", err)
	}

	endpoint := p.baseURL + "/api/v1/push"

	err = p.executeWithMetrics(ctx, "SendToCourier", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		switch {
		case resp.StatusCode >= http.StatusInternalServerError,
			resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %d", errRetryableStatus, resp.StatusCode)
		case resp.StatusCode >= http.StatusMultipleChoices:
			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("gateway push, send to courier %d: %w", courierID, err)
	}

	return nil
}

// ActiveDeviceTokens возвращает токены активных устройств курьера.
// Пустой список означает что пушить некуда.
func (p *PushGateway) ActiveDeviceTokens(ctx context.Context, courierID int64) ([]string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/push/devices?courier_id=%d", p.baseURL, courierID)

	var tokens []string
	err := p.executeWithMetrics(ctx, "ActiveDeviceTokens", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= http.StatusInternalServerError,
			resp.StatusCode == http.StatusTooManyRequests:
			_, _ = io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("%w: %d", errRetryableStatus, resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			_, _ = io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		var body devicesResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		tokens = body.Tokens
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gateway push, active device tokens for courier %d: %w", courierID, err)
	}

	return tokens, nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var urlErr *url.Error
	return errors.Is(err, errRetryableStatus) || errors.As(err, &urlErr)
}

func (p *PushGateway) executeWithMetrics(ctx context.Context, method string, fn func(context.Context) error) error {
	var attempt uint64
	start := time.Now()

	err := p.retrier.ExecuteWithContext(ctx, func(ctx context.Context) error {
		attempt++
		return fn(ctx)
	})

	code := "ok"
	if err != nil {
		code = "error"
	}
	gateway.RequestDuration.WithLabelValues(serviceName, method, code).Observe(time.Since(start).Seconds())

	if attempt > 1 {
		gateway.RetriesTotal.WithLabelValues(serviceName, method, code).Add(float64(attempt - 1))
	}

	return err
}
