package routing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/pkg/cache"
)

const (
	// DefaultCacheTTL ограничивает стоимость обращений к провайдеру,
	// допуская небольшой дрейф дорожной обстановки.
	DefaultCacheTTL = 30 * time.Minute

	minRemainingSeconds      = 60
	fallbackRemainingSeconds = 300
)

// geocodeMiss значение-маркер для закэшированного "адрес не найден".
type geocodeResult struct {
	point *entities.GeoPoint
}

// Estimator обёртка над картографическим провайдером с кэшированием
// и линейной интерполяцией ETA.
type Estimator struct {
	provider     MapProvider
	geocodeCache *cache.Cache[geocodeResult]
	routeCache   *cache.Cache[*entities.RouteInfo]
}

func New(provider MapProvider, cacheTTL time.Duration) *Estimator {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Estimator{
		provider:     provider,
		geocodeCache: cache.New[geocodeResult](cacheTTL),
		routeCache:   cache.New[*entities.RouteInfo](cacheTTL),
	}
}

// Geocode возвращает (nil, nil) для нераспознаваемого адреса:
// вызывающий трактует отсутствие точки как деградированное, но валидное состояние.
func (e *Estimator) Geocode(ctx context.Context, address string) (*entities.GeoPoint, error) {
	normalized := strings.Join(strings.Fields(strings.ToLower(address)), " ")
	if normalized == "" {
		return nil, ErrInvalidAddress
	}

	if cached, ok := e.geocodeCache.Get(normalized); ok {
		return cached.point, nil
	}

	point, err := e.provider.Geocode(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", address, err)
	}

	e.geocodeCache.Set(normalized, geocodeResult{point: point})
	return point, nil
}

func (e *Estimator) Route(ctx context.Context, origin, destination entities.GeoPoint) (*entities.RouteInfo, error) {
	key := routeCacheKey(origin, destination)
	if cached, ok := e.routeCache.Get(key); ok {
		return cached, nil
	}

	route, err := e.provider.Directions(ctx, origin, destination)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRouteUnavailable, err)
	}
	if route == nil {
		return nil, ErrRouteUnavailable
	}

	e.routeCache.Set(key, route)
	return route, nil
}

// TravelTimeSeconds дешёвая оценка времени в пути для частого обновления ETA.
// Возвращает 0, если провайдер не смог оценить: вызывающий трактует 0
// как "без обновления", а не как нулевое время.
func (e *Estimator) TravelTimeSeconds(ctx context.Context, origin, destination entities.GeoPoint, departure time.Time) (int64, error) {
	seconds, err := e.provider.TravelTime(ctx, origin, destination, departure)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, nil
	}
	if seconds < 0 {
		return 0, nil
	}
	return seconds, nil
}

// EstimateArrival пересчитывает ETA по текущей позиции линейной интерполяцией:
// remaining = max(60, duration * dist(current, dest) / dist(origin, dest)).
// Сознательно простая эвристика: O(1) на каждый GPS-пинг ценой точности
// в начале и конце маршрута. При совпадающих origin/destination доля
// не определена, берём фиксированные 5 минут.
func EstimateArrival(now time.Time, current entities.GeoPoint, route *entities.RouteInfo) time.Time {
	totalKm := route.Origin.DistanceKm(route.Destination)
	if totalKm < 1e-9 {
		return now.Add(fallbackRemainingSeconds * time.Second)
	}

	remainingRatio := current.DistanceKm(route.Destination) / totalKm
	remaining := float64(route.DurationSeconds) * remainingRatio
	if remaining < minRemainingSeconds {
		remaining = minRemainingSeconds
	}

	return now.Add(time.Duration(remaining) * time.Second)
}

// routeCacheKey координаты с округлением до 5 знаков (~1 м),
// чтобы соседние GPS-пинги попадали в один ключ.
func routeCacheKey(origin, destination entities.GeoPoint) string {
	return fmt.Sprintf("%.5f,%.5f|%.5f,%.5f",
		origin.Lat, origin.Lon,
		destination.Lat, destination.Lon,
	)
}
