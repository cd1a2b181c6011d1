package entities

import "math"

const earthRadiusKm = 6371.0

type GeoPoint struct {
	Lat float64
	Lon float64
}

// DistanceKm возвращает расстояние по дуге большого круга (haversine).
func (p GeoPoint) DistanceKm(other GeoPoint) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLon := (other.Lon - p.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// RouteInfo неизменяемое описание маршрута между двумя точками.
type RouteInfo struct {
	Origin          GeoPoint
	Destination     GeoPoint
	DistanceMeters  float64
	DurationSeconds int64
	Polyline        string
	Waypoints       []GeoPoint
}
