package app_test

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/entities"
	"dispatch/internal/geoindex"
	"dispatch/internal/repository/inmem"
	"dispatch/internal/service/assignment"
	"dispatch/internal/service/courier"
	"dispatch/internal/service/dispatch"
	"dispatch/internal/service/notification"
	"dispatch/internal/service/tracking"
	"dispatch/pkg/logger"
)

type stubOrders struct {
	orders map[string]entities.OrderSummary
}

func (s *stubOrders) GetOrder(_ context.Context, orderID string) (*entities.OrderSummary, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

type stubPush struct {
	mu     sync.Mutex
	sentTo map[int64]int
}

func (s *stubPush) SendToCourier(_ context.Context, courierID int64, _, _ string, _ map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentTo[courierID]++
	return nil
}

func (s *stubPush) ActiveDeviceTokens(_ context.Context, _ int64) ([]string, error) {
	return []string{"device-token"}, nil
}

type stubMaps struct {
	points  map[string]entities.GeoPoint
	seconds int64
}

func (s *stubMaps) Geocode(_ context.Context, address string) (*entities.GeoPoint, error) {
	point, ok := s.points[strings.ToLower(strings.TrimSpace(address))]
	if !ok {
		return nil, nil
	}
	return &point, nil
}

func (s *stubMaps) Route(_ context.Context, origin, destination entities.GeoPoint) (*entities.RouteInfo, error) {
	return &entities.RouteInfo{
		Origin:          origin,
		Destination:     destination,
		Waypoints:       []entities.GeoPoint{origin, destination},
		DistanceMeters:  origin.DistanceKm(destination) * 1000,
		DurationSeconds: s.seconds,
	}, nil
}

func (s *stubMaps) TravelTimeSeconds(_ context.Context, _, _ entities.GeoPoint, _ time.Time) (int64, error) {
	return s.seconds, nil
}

// services собирает весь стек доставки поверх inmem-хранилищ.
type services struct {
	couriers      *courier.Courier
	dispatch      *dispatch.Dispatch
	assignment    *assignment.Assignment
	tracking      *tracking.Tracking
	notifications *notification.Notification

	notificationRepo *inmem.NotificationRepository
	couriersIndex    *geoindex.MemoryIndex
	push             *stubPush
}

var (
	pickup  = entities.GeoPoint{Lat: 55.7558, Lon: 37.6173}
	dropoff = entities.GeoPoint{Lat: 55.7600, Lon: 37.6250}
)

func newServices() *services {
	deliveries := inmem.NewDeliveryRepository()
	notifications := inmem.NewNotificationRepository()
	locations := inmem.NewLocationRepository()
	couriersIndex := geoindex.NewMemoryIndex(0)
	deliveriesIndex := geoindex.NewMemoryIndex(0)
	txManager := inmem.NewTxManager()
	log := logger.NewNop()

	orders := &stubOrders{orders: map[string]entities.OrderSummary{
		"order-1": {
			ID:             "order-1",
			PickupAddress:  "Tverskaya 1",
			DropoffAddress: "Arbat 10",
			ItemCount:      1,
			Fee:            25000,
			CustomerUserID: 900,
		},
		"order-2": {
			ID:             "order-2",
			PickupAddress:  "Tverskaya 1",
			DropoffAddress: "Arbat 10",
			CustomerUserID: 901,
		},
	}}
	push := &stubPush{sentTo: map[int64]int{}}
	maps := &stubMaps{
		points: map[string]entities.GeoPoint{
			"tverskaya 1": pickup,
			"arbat 10":    dropoff,
		},
		seconds: 600,
	}

	courierService := courier.New(inmem.NewCourierRepository())
	return &services{
		couriers: courierService,
		dispatch: dispatch.New(
			deliveries, notifications, courierService,
			couriersIndex, deliveriesIndex,
			maps, orders, push, txManager, log,
		),
		assignment:    assignment.New(deliveries, notifications, courierService, push, log),
		tracking:      tracking.New(locations, deliveries, couriersIndex, maps, txManager, log),
		notifications: notification.New(notifications),

		notificationRepo: notifications,
		couriersIndex:    couriersIndex,
		push:             push,
	}
}

func (s *services) addCourier(t *testing.T, userID int64, phone string) int64 {
	t.Helper()

	ctx := context.Background()
	id, err := s.couriers.CreateCourier(ctx, entities.CourierModify{
		UserID:        pointer.To(userID),
		Name:          pointer.To("Courier"),
		Phone:         pointer.To(phone),
		Status:        pointer.To(entities.CourierAvailable),
		TransportType: pointer.To(entities.Scooter),
	})
	require.NoError(t, err)
	require.NoError(t, s.couriersIndex.UpsertPosition(ctx, strconv.FormatInt(id, 10), pickup))
	return id
}

// Полный жизненный цикл: создание доставки, рассылка ближайшим
// курьерам, гонка за принятие с одним победителем, трекинг и прогноз
// прибытия, доведение до delivered с освобождением курьера.
func TestDeliveryLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newServices()

	courierIDs := []int64{
		env.addCourier(t, 101, "+79160000001"),
		env.addCourier(t, 102, "+79160000002"),
		env.addCourier(t, 103, "+79160000003"),
	}

	delivery, err := env.dispatch.CreateDelivery(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, entities.DeliveryPending, delivery.Status)
	require.NotNil(t, delivery.Route)

	sent, err := env.notificationRepo.ListByDelivery(ctx, delivery.ID)
	require.NoError(t, err)
	require.Len(t, sent, len(courierIDs))

	// все трое жмут "принять" одновременно, побеждает ровно один
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []int64
		losers  []int64
	)
	for _, courierID := range courierIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := env.assignment.Accept(ctx, delivery.ID, courierID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners = append(winners, courierID)
				return
			}
			assert.ErrorIs(t, err, assignment.ErrAlreadyAssigned)
			losers = append(losers, courierID)
		}()
	}
	wg.Wait()

	require.Len(t, winners, 1)
	require.Len(t, losers, 2)
	winner := winners[0]

	assigned, err := env.dispatch.GetDelivery(ctx, delivery.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.DeliveryAssigned, assigned.Status)
	require.NotNil(t, assigned.CourierID)
	assert.Equal(t, winner, *assigned.CourierID)

	// проигравшие вернулись в строй, победитель занят
	for _, loserID := range losers {
		stored, err := env.couriers.GetCourier(ctx, loserID)
		require.NoError(t, err)
		assert.Equal(t, entities.CourierAvailable, stored.Status)
	}
	busy, err := env.couriers.GetCourier(ctx, winner)
	require.NoError(t, err)
	assert.Equal(t, entities.CourierBusy, busy.Status)

	// уведомление победителя accepted, остальные закрыты
	settled, err := env.notificationRepo.ListByDelivery(ctx, delivery.ID)
	require.NoError(t, err)
	for _, n := range settled {
		if n.CourierID == winner {
			assert.Equal(t, entities.NotificationAccepted, n.Status)
			continue
		}
		assert.Equal(t, entities.NotificationCancelled, n.Status)
	}

	// курьер едет: точка попадает в трекинг и сдвигает прогноз прибытия
	midway := entities.GeoPoint{Lat: 55.7580, Lon: 37.6210}
	reportedAt := time.Now().UTC()
	require.NoError(t, env.tracking.ReportPosition(ctx, winner, midway, reportedAt))

	location, err := env.tracking.CurrentLocation(ctx, winner)
	require.NoError(t, err)
	assert.Equal(t, midway, location.Point)

	// история от новых к старым: свежая точка первой, стартовая за ней
	history, err := env.tracking.History(ctx, winner, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, midway, history[0].Point)
	assert.Equal(t, pickup, history[1].Point)

	tracked, err := env.dispatch.GetDelivery(ctx, delivery.ID)
	require.NoError(t, err)
	require.NotNil(t, tracked.EstimatedArrival)
	assert.WithinDuration(t, reportedAt.Add(10*time.Minute), *tracked.EstimatedArrival, time.Second)

	_, err = env.dispatch.UpdateStatus(ctx, delivery.ID, "out_for_delivery")
	require.NoError(t, err)
	_, err = env.dispatch.UpdateStatus(ctx, delivery.ID, "delivered")
	require.NoError(t, err)

	released, err := env.couriers.GetCourier(ctx, winner)
	require.NoError(t, err)
	assert.Equal(t, entities.CourierAvailable, released.Status)
}

func TestDeliveryLifecycle_RefuseAndCancel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newServices()

	refusenik := env.addCourier(t, 101, "+79160000001")
	bystander := env.addCourier(t, 102, "+79160000002")

	delivery, err := env.dispatch.CreateDelivery(ctx, "order-2")
	require.NoError(t, err)

	require.NoError(t, env.assignment.Refuse(ctx, delivery.ID, refusenik))
	// повторный отказ идемпотентен
	require.NoError(t, env.assignment.Refuse(ctx, delivery.ID, refusenik))

	refused, err := env.notificationRepo.GetByDeliveryAndCourier(ctx, delivery.ID, refusenik)
	require.NoError(t, err)
	require.NotNil(t, refused)
	assert.Equal(t, entities.NotificationRefused, refused.Status)

	// отказавшийся остаётся доступным
	stored, err := env.couriers.GetCourier(ctx, refusenik)
	require.NoError(t, err)
	assert.Equal(t, entities.CourierAvailable, stored.Status)

	_, err = env.dispatch.UpdateStatus(ctx, delivery.ID, "cancelled")
	require.NoError(t, err)

	// после отмены открытые предложения закрыты, принять уже нельзя
	open, err := env.notificationRepo.GetByDeliveryAndCourier(ctx, delivery.ID, bystander)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, entities.NotificationCancelled, open.Status)

	_, err = env.assignment.Accept(ctx, delivery.ID, bystander)
	require.ErrorIs(t, err, assignment.ErrAlreadyAssigned)

	// курьер разбирает свой список уведомлений
	list, err := env.notifications.ListCourierNotifications(ctx, bystander, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, env.notifications.DeleteNotification(ctx, list[0].ID))

	list, err = env.notifications.ListCourierNotifications(ctx, bystander, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
