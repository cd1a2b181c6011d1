package geocoder

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

	"dispatch/internal/entities"
	"dispatch/internal/gateway"
	retrierconfig "dispatch/pkg/retrier"
	"dispatch/pkg/retrier/backoff_adapter"
)

const serviceName = "geocoder"

const (
	initialInterval = 100 * time.Millisecond
	maxInterval     = 2 * time.Second
	maxElapsedTime  = 5 * time.Second
	randomization   = 0.5
	multiplier      = 2.0
)

var errRetryableStatus = errors.New("retryable http status")

// Gateway клиент картографического сервиса с openrouteservice-совместимым API.
type Gateway struct {
	baseURL string
	apiKey  string
	client  doer
	retrier retrier
}

func New(baseURL, apiKey string, client doer) *Gateway {
	retryConfig := retrierconfig.Config{
		InitialInterval: initialInterval,
		MaxInterval:     maxInterval,
		MaxElapsedTime:  maxElapsedTime,
		Randomization:   randomization,
		Multiplier:      multiplier,
		ShouldRetry:     isRetryable,
	}

	return &Gateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
		retrier: backoff_adapter.New(retryConfig),
	}
}

// Geocode возвращает (nil, nil) для адреса, который сервис не распознал.
func (g *Gateway) Geocode(ctx context.Context, address string) (*entities.GeoPoint, error) {
	endpoint := g.baseURL + "/geocode/search?size=1&text=" + url.QueryEscape(address)

	var parsed geocodeResponse
	err := g.executeWithMetrics(ctx, "Geocode", func(ctx context.Context) error {
		return g.getJSON(ctx, endpoint, &parsed)
	})
	if err != nil {
		return nil, fmt.Errorf("gateway geocoder, geocode: %w", err)
	}

	if len(parsed.Features) == 0 || len(parsed.Features[0].Geometry.Coordinates) < 2 {
		return nil, nil
	}

	coords := parsed.Features[0].Geometry.Coordinates
	return &entities.GeoPoint{Lat: coords[1], Lon: coords[0]}, nil
}

func (g *Gateway) Directions(ctx context.Context, origin, destination entities.GeoPoint) (*entities.RouteInfo, error) {
	payload := directionsRequest{
		Coordinates: [][]float64{
			{origin.Lon, origin.Lat},
			{destination.Lon, destination.Lat},
		},
	}

	var parsed directionsResponse
	err := g.executeWithMetrics(ctx, "Directions", func(ctx context.Context) error {
		return g.postJSON(ctx, g.baseURL+"/v2/directions/driving-car", payload, &parsed)
	})
	if err != nil {
		return nil, fmt.Errorf("gateway geocoder, directions: %w", err)
	}

	if len(parsed.Routes) == 0 {
		return nil, fmt.Errorf("gateway geocoder, directions: empty routes")
	}

	route := parsed.Routes[0]
	return &entities.RouteInfo{
		Origin:          origin,
		Destination:     destination,
		DistanceMeters:  route.Summary.Distance,
		DurationSeconds: int64(route.Summary.Duration),
		Polyline:        route.Geometry,
	}, nil
}

func (g *Gateway) TravelTime(ctx context.Context, origin, destination entities.GeoPoint, _ time.Time) (int64, error) {
	payload := matrixRequest{
		Locations: [][]float64{
			{origin.Lon, origin.Lat},
			{destination.Lon, destination.Lat},
		},
		Metrics: []string{"duration"},
	}

	var parsed matrixResponse
	err := g.executeWithMetrics(ctx, "TravelTime", func(ctx context.Context) error {
		return g.postJSON(ctx, g.baseURL+"/v2/matrix/driving-car", payload, &parsed)
	})
	if err != nil {
		return 0, fmt.Errorf("gateway geocoder, travel time: %w", err)
	}

	if len(parsed.Durations) == 0 || len(parsed.Durations[0]) < 2 {
		return 0, fmt.Errorf("gateway geocoder, travel time: empty matrix")
	}

	return int64(parsed.Durations[0][1]), nil
}

func (g *Gateway) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return g.do(req, out)
}

func (g *Gateway) postJSON(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req, out)
}

func (g *Gateway) do(req *http.Request, out any) error {
	if g.apiKey != "" {
		req.Header.Set("Authorization", g.apiKey)
	}

	resp, err := g.client.Do(req)
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

	return json.NewDecoder(resp.Body).Decode(out)
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

func (g *Gateway) executeWithMetrics(ctx context.Context, method string, fn func(context.Context) error) error {
	var attempt uint64
	start := time.Now()

	err := g.retrier.ExecuteWithContext(ctx, func(ctx context.Context) error {
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
