package dispatch_test

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
	"dispatch/internal/service/courier"
	"dispatch/internal/service/dispatch"
	"dispatch/pkg/logger"
)

type fakeOrders struct {
	orders map[string]entities.OrderSummary
}

func (f *fakeOrders) GetOrder(_ context.Context, orderID string) (*entities.OrderSummary, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

type fakePush struct {
	mu       sync.Mutex
	failFor  map[int64]bool
	noDevice map[int64]bool
	sentTo   []int64
}

func (f *fakePush) SendToCourier(_ context.Context, courierID int64, _, _ string, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failFor[courierID] {
		return assert.AnError
	}
	f.sentTo = append(f.sentTo, courierID)
	return nil
}

func (f *fakePush) ActiveDeviceTokens(_ context.Context, courierID int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.noDevice[courierID] {
		return nil, nil
	}
	return []string{"device-token"}, nil
}

type fakeEstimator struct {
	points map[string]entities.GeoPoint
}

func (f *fakeEstimator) Geocode(_ context.Context, address string) (*entities.GeoPoint, error) {
	point, ok := f.points[strings.ToLower(strings.TrimSpace(address))]
	if !ok {
		return nil, nil
	}
	return &point, nil
}

func (f *fakeEstimator) Route(_ context.Context, origin, destination entities.GeoPoint) (*entities.RouteInfo, error) {
	return &entities.RouteInfo{
		Origin:          origin,
		Destination:     destination,
		DistanceMeters:  origin.DistanceKm(destination) * 1000,
		DurationSeconds: 900,
	}, nil
}

type dispatchEnv struct {
	service        *dispatch.Dispatch
	deliveries     *inmem.DeliveryRepository
	notifications  *inmem.NotificationRepository
	courierRepo    *inmem.CourierRepository
	courierService *courier.Courier
	couriersIndex  *geoindex.MemoryIndex
	deliveriesIdx  *geoindex.MemoryIndex
	orders         *fakeOrders
	push           *fakePush
	estimator      *fakeEstimator
}

var (
	pickupPoint  = entities.GeoPoint{Lat: 55.7558, Lon: 37.6173}
	dropoffPoint = entities.GeoPoint{Lat: 55.7600, Lon: 37.6250}
	// примерно 600 км от Москвы, в радиус рассылки не попадает
	farPoint = entities.GeoPoint{Lat: 59.9386, Lon: 30.3141}
)

func newDispatchEnv() *dispatchEnv {
	env := &dispatchEnv{
		deliveries:    inmem.NewDeliveryRepository(),
		notifications: inmem.NewNotificationRepository(),
		courierRepo:   inmem.NewCourierRepository(),
		couriersIndex: geoindex.NewMemoryIndex(0),
		deliveriesIdx: geoindex.NewMemoryIndex(0),
		orders: &fakeOrders{orders: map[string]entities.OrderSummary{
			"order-1": {
				ID:             "order-1",
				PickupAddress:  "Tverskaya 1",
				DropoffAddress: "Arbat 10",
				ItemCount:      2,
				Fee:            35000,
				CustomerUserID: 500,
			},
		}},
		push: &fakePush{failFor: map[int64]bool{}, noDevice: map[int64]bool{}},
		estimator: &fakeEstimator{points: map[string]entities.GeoPoint{
			"tverskaya 1": pickupPoint,
			"arbat 10":    dropoffPoint,
		}},
	}

	env.courierService = courier.New(env.courierRepo)
	env.service = dispatch.New(
		env.deliveries,
		env.notifications,
		env.courierService,
		env.couriersIndex,
		env.deliveriesIdx,
		env.estimator,
		env.orders,
		env.push,
		inmem.NewTxManager(),
		logger.NewNop(),
	)
	return env
}

func (env *dispatchEnv) addCourier(t *testing.T, userID int64, phone string, point entities.GeoPoint) int64 {
	t.Helper()

	id, err := env.courierService.CreateCourier(context.Background(), entities.CourierModify{
		UserID:        pointer.To(userID),
		Name:          pointer.To("Courier"),
		Phone:         pointer.To(phone),
		Status:        pointer.To(entities.CourierAvailable),
		TransportType: pointer.To(entities.Scooter),
	})
	require.NoError(t, err)

	err = env.couriersIndex.UpsertPosition(context.Background(), strconv.FormatInt(id, 10), point)
	require.NoError(t, err)
	return id
}

func TestDispatch_CreateDelivery_FanOut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newDispatchEnv()

	near := env.addCourier(t, 101, "+79160000001", dropoffPoint)
	alsoNear := env.addCourier(t, 102, "+79160000002", pickupPoint)
	far := env.addCourier(t, 103, "+79160000003", farPoint)

	busy := env.addCourier(t, 104, "+79160000004", dropoffPoint)
	require.NoError(t, env.courierService.MarkBusy(ctx, busy))

	// курьер совпадает с заказчиком, себе заказ не предлагаем
	self := env.addCourier(t, 500, "+79160000005", dropoffPoint)

	delivery, err := env.service.CreateDelivery(ctx, "order-1")
	require.NoError(t, err)
	require.NotNil(t, delivery)

	assert.Equal(t, entities.DeliveryPending, delivery.Status)
	assert.Equal(t, "order-1", delivery.OrderID)
	require.NotNil(t, delivery.PickupPoint)
	require.NotNil(t, delivery.DropoffPoint)
	require.NotNil(t, delivery.Route)
	require.NotNil(t, delivery.EstimatedArrival)

	notifications, err := env.notifications.ListByDelivery(ctx, delivery.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	notified := map[int64]entities.NotificationStatus{}
	for _, n := range notifications {
		notified[n.CourierID] = n.Status
	}
	assert.Equal(t, entities.NotificationSent, notified[near])
	assert.Equal(t, entities.NotificationSent, notified[alsoNear])
	assert.NotContains(t, notified, far)
	assert.NotContains(t, notified, busy)
	assert.NotContains(t, notified, self)
}

func TestDispatch_CreateDelivery_OrderNotFound(t *testing.T) {
	t.Parallel()

	env := newDispatchEnv()
	_, err := env.service.CreateDelivery(context.Background(), "order-unknown")
	require.ErrorIs(t, err, dispatch.ErrOrderNotFound)
}

func TestDispatch_CreateDelivery_GeocodeDegraded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newDispatchEnv()
	env.estimator.points = map[string]entities.GeoPoint{}
	env.addCourier(t, 101, "+79160000001", dropoffPoint)

	delivery, err := env.service.CreateDelivery(ctx, "order-1")
	require.NoError(t, err)

	assert.Equal(t, entities.DeliveryPending, delivery.Status)
	assert.Nil(t, delivery.PickupPoint)
	assert.Nil(t, delivery.DropoffPoint)
	assert.Nil(t, delivery.Route)

	// без точки выдачи рассылки нет
	notifications, err := env.notifications.ListByDelivery(ctx, delivery.ID)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestDispatch_CreateDelivery_PushFailureIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newDispatchEnv()

	healthy := env.addCourier(t, 101, "+79160000001", dropoffPoint)
	broken := env.addCourier(t, 102, "+79160000002", dropoffPoint)
	env.push.failFor[broken] = true

	delivery, err := env.service.CreateDelivery(ctx, "order-1")
	require.NoError(t, err)

	notifications, err := env.notifications.ListByDelivery(ctx, delivery.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	statuses := map[int64]entities.NotificationStatus{}
	for _, n := range notifications {
		statuses[n.CourierID] = n.Status
	}
	assert.Equal(t, entities.NotificationSent, statuses[healthy])
	// неудачный пуш остаётся pending, его доберёт фоновая пересылка
	assert.Equal(t, entities.NotificationPending, statuses[broken])
}

func TestDispatch_CreateDelivery_DuplicateOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newDispatchEnv()

	_, err := env.service.CreateDelivery(ctx, "order-1")
	require.NoError(t, err)

	_, err = env.service.CreateDelivery(ctx, "order-1")
	require.ErrorIs(t, err, dispatch.ErrDeliveryExists)
}

func TestDispatch_UpdateStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name      string
		from      entities.DeliveryStatus
		target    string
		assertion require.ErrorAssertionFunc
	}{
		{
			name:      "Отмена ожидающей доставки",
			from:      entities.DeliveryPending,
			target:    "cancelled",
			assertion: require.NoError,
		},
		{
			name:   "Назначение через смену статуса запрещено",
			from:   entities.DeliveryPending,
			target: "assigned",
			assertion: func(t require.TestingT, err error, args ...interface{}) {
				require.ErrorIs(t, err, dispatch.ErrInvalidTransition, args...)
			},
		},
		{
			name:   "Доставленное не отменить",
			from:   entities.DeliveryDelivered,
			target: "cancelled",
			assertion: func(t require.TestingT, err error, args ...interface{}) {
				require.ErrorIs(t, err, dispatch.ErrInvalidTransition, args...)
			},
		},
		{
			name:   "Неизвестный статус",
			from:   entities.DeliveryPending,
			target: "lost",
			assertion: func(t require.TestingT, err error, args ...interface{}) {
				require.ErrorIs(t, err, dispatch.ErrInvalidStatus, args...)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newDispatchEnv()
			delivery, err := env.service.CreateDelivery(ctx, "order-1")
			require.NoError(t, err)

			if tt.from != entities.DeliveryPending {
				seedStatus(t, env.deliveries, delivery.ID, tt.from)
			}

			updated, err := env.service.UpdateStatus(ctx, delivery.ID, tt.target)
			tt.assertion(t, err)
			if err == nil {
				assert.Equal(t, entities.DeliveryStatus(tt.target), updated.Status)
			}
		})
	}
}

// seedStatus прогоняет доставку по таблице переходов до нужного статуса.
func seedStatus(t *testing.T, repo *inmem.DeliveryRepository, deliveryID string, target entities.DeliveryStatus) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, repo.AssignCourierIf(ctx, deliveryID, 1))
	if target == entities.DeliveryAssigned {
		return
	}
	require.NoError(t, repo.UpdateStatusIf(ctx, deliveryID, entities.DeliveryAssigned, entities.DeliveryOutForDelivery))
	if target == entities.DeliveryOutForDelivery {
		return
	}
	require.NoError(t, repo.UpdateStatusIf(ctx, deliveryID, entities.DeliveryOutForDelivery, target))
}

func TestDispatch_UpdateStatus_ReleasesCourier(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newDispatchEnv()
	courierID := env.addCourier(t, 101, "+79160000001", dropoffPoint)

	delivery, err := env.service.CreateDelivery(ctx, "order-1")
	require.NoError(t, err)

	require.NoError(t, env.deliveries.AssignCourierIf(ctx, delivery.ID, courierID))
	require.NoError(t, env.courierService.MarkBusy(ctx, courierID))

	_, err = env.service.UpdateStatus(ctx, delivery.ID, "out_for_delivery")
	require.NoError(t, err)

	_, err = env.service.UpdateStatus(ctx, delivery.ID, "delivered")
	require.NoError(t, err)

	stored, err := env.courierService.GetCourier(ctx, courierID)
	require.NoError(t, err)
	assert.Equal(t, entities.CourierAvailable, stored.Status)
}

func TestDispatch_UpdateStatus_CancelClosesNotifications(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newDispatchEnv()
	env.addCourier(t, 101, "+79160000001", dropoffPoint)

	delivery, err := env.service.CreateDelivery(ctx, "order-1")
	require.NoError(t, err)

	_, err = env.service.UpdateStatus(ctx, delivery.ID, "cancelled")
	require.NoError(t, err)

	notifications, err := env.notifications.ListByDelivery(ctx, delivery.ID)
	require.NoError(t, err)
	require.NotEmpty(t, notifications)
	for _, n := range notifications {
		assert.Equal(t, entities.NotificationCancelled, n.Status)
	}
}

func TestDispatch_GetRoute(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newDispatchEnv()

	delivery, err := env.service.CreateDelivery(ctx, "order-1")
	require.NoError(t, err)

	route, err := env.service.GetRoute(ctx, delivery.ID)
	require.NoError(t, err)
	assert.Equal(t, dropoffPoint, route.Destination)

	env.estimator.points = map[string]entities.GeoPoint{}
	env.orders.orders["order-2"] = entities.OrderSummary{
		ID:             "order-2",
		PickupAddress:  "Nowhere 1",
		DropoffAddress: "Nowhere 2",
		CustomerUserID: 501,
	}
	blind, err := env.service.CreateDelivery(ctx, "order-2")
	require.NoError(t, err)

	_, err = env.service.GetRoute(ctx, blind.ID)
	require.ErrorIs(t, err, dispatch.ErrNoRoute)
}

func TestDispatch_RedispatchPending(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newDispatchEnv()

	retryable := env.addCourier(t, 101, "+79160000001", dropoffPoint)
	stillBroken := env.addCourier(t, 102, "+79160000002", dropoffPoint)
	phoneless := env.addCourier(t, 103, "+79160000003", dropoffPoint)

	pending, err := env.service.CreateDelivery(ctx, "order-1")
	require.NoError(t, err)

	env.orders.orders["order-2"] = entities.OrderSummary{
		ID:             "order-2",
		PickupAddress:  "Tverskaya 1",
		DropoffAddress: "Arbat 10",
		CustomerUserID: 501,
	}
	closed, err := env.service.CreateDelivery(ctx, "order-2")
	require.NoError(t, err)
	_, err = env.service.UpdateStatus(ctx, closed.ID, "cancelled")
	require.NoError(t, err)

	stale := time.Now().UTC().Add(-2 * dispatch.RedispatchStaleAge)
	seeded, err := env.notifications.CreateBatch(ctx, []entities.DispatchNotification{
		{
			CourierID:  retryable,
			DeliveryID: pending.ID,
			Title:      "Новая доставка рядом",
			Status:     entities.NotificationPending,
			CreatedAt:  stale,
		},
		{
			CourierID:  stillBroken,
			DeliveryID: pending.ID,
			Title:      "Новая доставка рядом",
			Status:     entities.NotificationPending,
			CreatedAt:  stale,
		},
		{
			CourierID:  retryable,
			DeliveryID: closed.ID,
			Title:      "Новая доставка рядом",
			Status:     entities.NotificationPending,
			CreatedAt:  stale,
		},
		{
			CourierID:  phoneless,
			DeliveryID: pending.ID,
			Title:      "Новая доставка рядом",
			Status:     entities.NotificationPending,
			CreatedAt:  stale,
		},
		{
			// свежий pending в пересылку не попадает
			CourierID:  retryable,
			DeliveryID: pending.ID,
			Title:      "Новая доставка рядом",
			Status:     entities.NotificationPending,
			CreatedAt:  time.Now().UTC(),
		},
	})
	require.NoError(t, err)
	require.Len(t, seeded, 5)

	env.push.failFor[stillBroken] = true
	env.push.noDevice[phoneless] = true

	sent, err := env.service.RedispatchPending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, sent)

	statusOf := func(id int64) entities.NotificationStatus {
		stored, err := env.notifications.GetByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, stored)
		return stored.Status
	}

	assert.Equal(t, entities.NotificationSent, statusOf(seeded[0].ID))
	assert.Equal(t, entities.NotificationPending, statusOf(seeded[1].ID))
	// предложение по отменённой доставке закрывается вместо отправки
	assert.Equal(t, entities.NotificationCancelled, statusOf(seeded[2].ID))
	// без активных устройств пуш не шлём, pending остаётся до лучших времён
	assert.Equal(t, entities.NotificationPending, statusOf(seeded[3].ID))
	assert.Equal(t, entities.NotificationPending, statusOf(seeded[4].ID))
}
