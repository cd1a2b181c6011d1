package tracking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/geoindex"
	"dispatch/internal/service/routing"
	"dispatch/pkg/logger"
)

const DefaultHistoryLimit = 50

type Tracking struct {
	locations     LocationRepository
	deliveries    DeliveryRepository
	couriersIndex GeoIndex
	estimator     Estimator
	txManager     TxManager
	log           logger.Logger
}

func New(
	locations LocationRepository,
	deliveries DeliveryRepository,
	couriersIndex GeoIndex,
	estimator Estimator,
	txManager TxManager,
	log logger.Logger,
) *Tracking {
	return &Tracking{
		locations:     locations,
		deliveries:    deliveries,
		couriersIndex: couriersIndex,
		estimator:     estimator,
		txManager:     txManager,
		log:           log,
	}
}

// ReportPosition принимает точку от курьера. Точка старше уже
// сохранённой молча отбрасывается: отчёты с телефонов приходят не по
// порядку. Свежая точка пишется в хранилище и геоиндекс, после чего
// пересчитывается прогноз прибытия по активной доставке.
func (t *Tracking) ReportPosition(ctx context.Context, courierID int64, point entities.GeoPoint, recordedAt time.Time) error {
	if courierID <= 0 {
		return ErrInvalidCourierID
	}
	if !isValidPoint(point) {
		return ErrInvalidPoint
	}
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	current, err := t.locations.Current(ctx, courierID)
	if err != nil && !errors.Is(err, ErrLocationNotFound) {
		return fmt.Errorf("get current location: %w", err)
	}
	if current != nil && current.RecordedAt.After(recordedAt) {
		t.log.Debug("drop stale position report",
			logger.NewField("courier_id", courierID),
			logger.NewField("recorded_at", recordedAt))
		return nil
	}

	location := entities.CourierLocation{
		CourierID:  courierID,
		Point:      point,
		RecordedAt: recordedAt,
		Active:     true,
	}
	err = t.txManager.Do(ctx, func(ctx context.Context) error {
		return t.locations.RecordPosition(ctx, location)
	})
	if err != nil {
		return fmt.Errorf("record position: %w", err)
	}

	if err := t.couriersIndex.UpsertPosition(ctx, courierEntityID(courierID), point); err != nil {
		t.log.Warn("upsert courier position in geo index",
			logger.NewField("courier_id", courierID),
			logger.NewField("error", err))
	}

	t.refreshArrival(ctx, courierID, point, recordedAt)
	return nil
}

// refreshArrival пересчитывает прогноз прибытия активной доставки
// курьера. Сначала спрашиваем провайдера карт, при нуле откатываемся
// на линейную интерполяцию по сохранённому маршруту. Всё best-effort.
func (t *Tracking) refreshArrival(ctx context.Context, courierID int64, point entities.GeoPoint, recordedAt time.Time) {
	delivery, err := t.deliveries.GetActiveByCourier(ctx, courierID)
	if err != nil {
		t.log.Warn("get active delivery for arrival refresh",
			logger.NewField("courier_id", courierID),
			logger.NewField("error", err))
		return
	}
	if delivery == nil || delivery.DropoffPoint == nil {
		return
	}

	var arrival time.Time
	seconds, err := t.estimator.TravelTimeSeconds(ctx, point, *delivery.DropoffPoint, recordedAt)
	if err != nil {
		t.log.Warn("estimate travel time",
			logger.NewField("delivery_id", delivery.ID),
			logger.NewField("error", err))
		return
	}

	switch {
	case seconds > 0:
		arrival = recordedAt.Add(time.Duration(seconds) * time.Second)
	case delivery.Route != nil:
		arrival = routing.EstimateArrival(recordedAt, point, delivery.Route)
	default:
		return
	}

	if err := t.deliveries.UpdateArrival(ctx, delivery.ID, arrival); err != nil {
		t.log.Warn("update estimated arrival",
			logger.NewField("delivery_id", delivery.ID),
			logger.NewField("error", err))
	}
}

func (t *Tracking) CurrentLocation(ctx context.Context, courierID int64) (*entities.CourierLocation, error) {
	if courierID <= 0 {
		return nil, ErrInvalidCourierID
	}

	location, err := t.locations.Current(ctx, courierID)
	if err != nil {
		return nil, fmt.Errorf("get current location: %w", err)
	}
	return location, nil
}

// History отдаёт последние точки курьера из геоиндекса, новые первыми.
func (t *Tracking) History(ctx context.Context, courierID int64, limit int) ([]geoindex.TimedPoint, error) {
	if courierID <= 0 {
		return nil, ErrInvalidCourierID
	}
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	if limit == 0 {
		limit = DefaultHistoryLimit
	}

	points, err := t.couriersIndex.History(ctx, courierEntityID(courierID), limit)
	if err != nil {
		return nil, fmt.Errorf("location history: %w", err)
	}
	return points, nil
}

func courierEntityID(courierID int64) string {
	return strconv.FormatInt(courierID, 10)
}

func isValidPoint(point entities.GeoPoint) bool {
	return point.Lat >= -90 && point.Lat <= 90 &&
		point.Lon >= -180 && point.Lon <= 180
}
