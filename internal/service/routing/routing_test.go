package routing_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/entities"
	"dispatch/internal/service/routing"
)

type fakeProvider struct {
	geocodeCalls    atomic.Int64
	directionsCalls atomic.Int64

	geocodePoint *entities.GeoPoint
	geocodeErr   error
	route        *entities.RouteInfo
	routeErr     error
	travelTime   int64
	travelErr    error
}

func (f *fakeProvider) Geocode(_ context.Context, _ string) (*entities.GeoPoint, error) {
	f.geocodeCalls.Add(1)
	return f.geocodePoint, f.geocodeErr
}

func (f *fakeProvider) Directions(_ context.Context, _, _ entities.GeoPoint) (*entities.RouteInfo, error) {
	f.directionsCalls.Add(1)
	return f.route, f.routeErr
}

func (f *fakeProvider) TravelTime(_ context.Context, _, _ entities.GeoPoint, _ time.Time) (int64, error) {
	return f.travelTime, f.travelErr
}

var (
	origin      = entities.GeoPoint{Lat: 55.75580, Lon: 37.61730}
	destination = entities.GeoPoint{Lat: 55.80000, Lon: 37.70000}
)

func TestEstimator_GeocodeCaching(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{geocodePoint: &origin}
	estimator := routing.New(provider, time.Minute)

	first, err := estimator.Geocode(context.Background(), "Тверская 1, Москва")
	require.NoError(t, err)
	require.NotNil(t, first)

	// Нормализация: регистр и пробелы не порождают отдельных ключей.
	second, err := estimator.Geocode(context.Background(), "  тверская 1,  москва ")
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, int64(1), provider.geocodeCalls.Load())
	assert.Equal(t, *first, *second)
}

func TestEstimator_GeocodeNotFound(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{geocodePoint: nil}
	estimator := routing.New(provider, time.Minute)

	point, err := estimator.Geocode(context.Background(), "неизвестный адрес")
	require.NoError(t, err, "нераспознанный адрес не ошибка")
	assert.Nil(t, point)

	// Отрицательный результат тоже кэшируется.
	_, err = estimator.Geocode(context.Background(), "неизвестный адрес")
	require.NoError(t, err)
	assert.Equal(t, int64(1), provider.geocodeCalls.Load())
}

func TestEstimator_GeocodeEmptyAddress(t *testing.T) {
	t.Parallel()

	estimator := routing.New(&fakeProvider{}, time.Minute)

	_, err := estimator.Geocode(context.Background(), "   ")
	assert.ErrorIs(t, err, routing.ErrInvalidAddress)
}

func TestEstimator_RouteCaching(t *testing.T) {
	t.Parallel()

	route := &entities.RouteInfo{
		Origin:          origin,
		Destination:     destination,
		DistanceMeters:  7300,
		DurationSeconds: 1200,
		Polyline:        "abc",
	}
	provider := &fakeProvider{route: route}
	estimator := routing.New(provider, time.Minute)

	first, err := estimator.Route(context.Background(), origin, destination)
	require.NoError(t, err)

	// Сдвиг в шестом знаке (<1 м) попадает в тот же ключ кэша.
	shifted := entities.GeoPoint{Lat: origin.Lat + 1e-6, Lon: origin.Lon}
	second, err := estimator.Route(context.Background(), shifted, destination)
	require.NoError(t, err)

	assert.Equal(t, int64(1), provider.directionsCalls.Load())
	assert.Equal(t, first, second)
}

func TestEstimator_RouteUnavailable(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{routeErr: errors.New("provider down")}
	estimator := routing.New(provider, time.Minute)

	_, err := estimator.Route(context.Background(), origin, destination)
	assert.ErrorIs(t, err, routing.ErrRouteUnavailable)
}

func TestEstimator_TravelTimeSeconds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider *fakeProvider
		expected int64
	}{
		{
			name:     "Провайдер вернул оценку",
			provider: &fakeProvider{travelTime: 420},
			expected: 420,
		},
		{
			name:     "Ошибка провайдера превращается в 0 (нет обновления)",
			provider: &fakeProvider{travelErr: errors.New("matrix down")},
			expected: 0,
		},
		{
			name:     "Отрицательная оценка отбрасывается",
			provider: &fakeProvider{travelTime: -5},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			estimator := routing.New(tt.provider, time.Minute)
			got, err := estimator.TravelTimeSeconds(context.Background(), origin, destination, time.Now())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEstimateArrival(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	route := &entities.RouteInfo{
		Origin:          origin,
		Destination:     destination,
		DurationSeconds: 1200,
	}

	tests := []struct {
		name              string
		current           entities.GeoPoint
		expectedRemaining time.Duration
		delta             time.Duration
	}{
		{
			name:              "В начале маршрута остаётся почти вся длительность",
			current:           origin,
			expectedRemaining: 1200 * time.Second,
			delta:             2 * time.Second,
		},
		{
			name:              "У точки назначения срабатывает нижняя граница 60с",
			current:           destination,
			expectedRemaining: 60 * time.Second,
			delta:             time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			eta := routing.EstimateArrival(now, tt.current, route)
			assert.WithinDuration(t, now.Add(tt.expectedRemaining), eta, tt.delta)
		})
	}
}

func TestEstimateArrival_Bounds(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	route := &entities.RouteInfo{
		Origin:          origin,
		Destination:     destination,
		DurationSeconds: 1800,
	}

	// Любая точка между origin и destination даёт remaining в [60, D].
	midpoint := entities.GeoPoint{
		Lat: (origin.Lat + destination.Lat) / 2,
		Lon: (origin.Lon + destination.Lon) / 2,
	}
	eta := routing.EstimateArrival(now, midpoint, route)
	remaining := eta.Sub(now)
	assert.GreaterOrEqual(t, remaining, 60*time.Second)
	assert.LessOrEqual(t, remaining, 1800*time.Second+time.Second)
}

func TestEstimateArrival_DegenerateRoute(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	route := &entities.RouteInfo{
		Origin:          origin,
		Destination:     origin,
		DurationSeconds: 1800,
	}

	eta := routing.EstimateArrival(now, origin, route)
	assert.WithinDuration(t, now.Add(5*time.Minute), eta, time.Second,
		"при совпадающих концах маршрута фиксированные 5 минут")
}
