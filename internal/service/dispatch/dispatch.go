package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dispatch/internal/entities"
	"dispatch/pkg/logger"
)

const (
	// DefaultNotifyRadiusKm радиус поиска свободных курьеров вокруг точки выдачи.
	DefaultNotifyRadiusKm = 5.0
	DefaultNotifyLimit    = 20

	fanoutConcurrency = 8

	// RedispatchStaleAge возраст pending-уведомления, после которого его
	// подбирает фоновая повторная рассылка.
	RedispatchStaleAge   = 2 * time.Minute
	redispatchBatchLimit = 100

	pushTitleNewDelivery = "New delivery nearby"
)

type Dispatch struct {
	repository      Repository
	notifications   NotificationRepository
	courierService  CourierService
	couriersIndex   GeoIndex
	deliveriesIndex GeoIndex
	estimator       RouteEstimator
	orders          OrderGateway
	push            PushGateway
	txManager       TxManager
	log             logger.Logger

	notifyRadiusKm float64
	notifyLimit    int
}

func New(
	repository Repository,
	notifications NotificationRepository,
	courierService CourierService,
	couriersIndex GeoIndex,
	deliveriesIndex GeoIndex,
	estimator RouteEstimator,
	orders OrderGateway,
	push PushGateway,
	txManager TxManager,
	log logger.Logger,
) *Dispatch {
	return &Dispatch{
		repository:      repository,
		notifications:   notifications,
		courierService:  courierService,
		couriersIndex:   couriersIndex,
		deliveriesIndex: deliveriesIndex,
		estimator:       estimator,
		orders:          orders,
		push:            push,
		txManager:       txManager,
		log:             log,
		notifyRadiusKm:  DefaultNotifyRadiusKm,
		notifyLimit:     DefaultNotifyLimit,
	}
}

// CreateDelivery заводит доставку по оплаченному заказу и рассылает
// предложения свободным курьерам рядом с точкой выдачи. Деградация
// геокодера или пушей не отменяет уже созданную доставку.
func (d *Dispatch) CreateDelivery(ctx context.Context, orderID string) (*entities.Delivery, error) {
	if !isValidOrderID(orderID) {
		return nil, ErrInvalidOrderID
	}

	order, err := d.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	delivery := &entities.Delivery{
		ID:             uuid.NewString(),
		OrderID:        order.ID,
		Fee:            order.Fee,
		ItemCount:      order.ItemCount,
		PickupAddress:  order.PickupAddress,
		DropoffAddress: order.DropoffAddress,
		Status:         entities.DeliveryPending,
		CustomerID:     order.CustomerUserID,
		CreatedAt:      time.Now().UTC(),
	}

	delivery, err = d.repository.Create(ctx, delivery)
	if err != nil {
		return nil, fmt.Errorf("create delivery: %w", err)
	}

	delivery = d.enrichGeo(ctx, delivery)

	if delivery.DropoffPoint == nil {
		d.log.Warn("delivery created without dropoff point, fan-out skipped",
			logger.NewField("delivery_id", delivery.ID))
		return delivery, nil
	}

	couriers, err := d.nearbyAvailableCouriers(ctx, *delivery.DropoffPoint, order.CustomerUserID)
	if err != nil {
		d.log.Error("lookup nearby couriers",
			logger.NewField("delivery_id", delivery.ID),
			logger.NewField("error", err))
		return delivery, nil
	}

	fanoutCandidates.Observe(float64(len(couriers)))
	if len(couriers) == 0 {
		d.log.Info("no available couriers nearby",
			logger.NewField("delivery_id", delivery.ID))
		return delivery, nil
	}

	created, err := d.createNotifications(ctx, delivery, couriers)
	if err != nil {
		d.log.Error("create dispatch notifications",
			logger.NewField("delivery_id", delivery.ID),
			logger.NewField("error", err))
		return delivery, nil
	}

	d.fanout(ctx, delivery, created)
	return delivery, nil
}

// enrichGeo геокодирует адреса, строит маршрут и публикует точку выдачи
// в геоиндекс доставок. Каждый шаг необязательный: что не получилось,
// то просто остаётся пустым.
func (d *Dispatch) enrichGeo(ctx context.Context, delivery *entities.Delivery) *entities.Delivery {
	pickup, err := d.estimator.Geocode(ctx, delivery.PickupAddress)
	if err != nil {
		d.log.Warn("geocode pickup address",
			logger.NewField("delivery_id", delivery.ID),
			logger.NewField("error", err))
	}
	dropoff, err := d.estimator.Geocode(ctx, delivery.DropoffAddress)
	if err != nil {
		d.log.Warn("geocode dropoff address",
			logger.NewField("delivery_id", delivery.ID),
			logger.NewField("error", err))
	}

	if pickup == nil && dropoff == nil {
		return delivery
	}

	modify := entities.DeliveryModify{
		ID:           &delivery.ID,
		PickupPoint:  pickup,
		DropoffPoint: dropoff,
	}

	if pickup != nil && dropoff != nil {
		route, err := d.estimator.Route(ctx, *pickup, *dropoff)
		if err != nil {
			d.log.Warn("build route",
				logger.NewField("delivery_id", delivery.ID),
				logger.NewField("error", err))
		}
		if route != nil {
			eta := time.Now().UTC().Add(time.Duration(route.DurationSeconds) * time.Second)
			modify.Route = route
			modify.EstimatedArrival = &eta
		}
	}

	updated, err := d.repository.UpdateGeo(ctx, modify)
	if err != nil {
		d.log.Error("persist delivery geo data",
			logger.NewField("delivery_id", delivery.ID),
			logger.NewField("error", err))
		return delivery
	}

	if updated.DropoffPoint != nil {
		if err := d.deliveriesIndex.UpsertPosition(ctx, updated.ID, *updated.DropoffPoint); err != nil {
			d.log.Warn("index delivery dropoff point",
				logger.NewField("delivery_id", updated.ID),
				logger.NewField("error", err))
		}
	}
	return updated
}

// nearbyAvailableCouriers ищет по геоиндексу курьеров вокруг точки и
// оставляет только доступных. Курьер, совпадающий с заказчиком по
// пользователю, сам себе заказ не возит.
func (d *Dispatch) nearbyAvailableCouriers(ctx context.Context, point entities.GeoPoint, customerUserID int64) ([]entities.Courier, error) {
	positions, err := d.couriersIndex.Nearby(ctx, point, d.notifyRadiusKm, d.notifyLimit)
	if err != nil {
		return nil, fmt.Errorf("nearby couriers: %w", err)
	}

	ids := make([]int64, 0, len(positions))
	for _, position := range positions {
		id, err := strconv.ParseInt(position.EntityID, 10, 64)
		if err != nil {
			d.log.Warn("skip malformed courier id in geo index",
				logger.NewField("entity_id", position.EntityID))
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	couriers, err := d.courierService.AvailableByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("filter available couriers: %w", err)
	}

	filtered := couriers[:0]
	for _, courier := range couriers {
		if courier.UserID == customerUserID {
			continue
		}
		filtered = append(filtered, courier)
	}
	return filtered, nil
}

func (d *Dispatch) createNotifications(ctx context.Context, delivery *entities.Delivery, couriers []entities.Courier) ([]entities.DispatchNotification, error) {
	now := time.Now().UTC()
	batch := make([]entities.DispatchNotification, 0, len(couriers))
	for _, courier := range couriers {
		batch = append(batch, entities.DispatchNotification{
			CourierID:  courier.ID,
			DeliveryID: delivery.ID,
			Title:      pushTitleNewDelivery,
			Body:       fmt.Sprintf("Pickup at %s, dropoff at %s", delivery.PickupAddress, delivery.DropoffAddress),
			Status:     entities.NotificationPending,
			CreatedAt:  now,
		})
	}

	var created []entities.DispatchNotification
	err := d.txManager.Do(ctx, func(ctx context.Context) error {
		var txErr error
		created, txErr = d.notifications.CreateBatch(ctx, batch)
		return txErr
	})
	if err != nil {
		return nil, fmt.Errorf("create notifications batch: %w", err)
	}
	return created, nil
}

// fanout рассылает пуши параллельно. Отказ по одному курьеру не трогает
// остальных: уведомление остаётся pending и его подберёт redispatch.
func (d *Dispatch) fanout(ctx context.Context, delivery *entities.Delivery, notifications []entities.DispatchNotification) {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(fanoutConcurrency)

	for _, notification := range notifications {
		group.Go(func() error {
			data := map[string]string{
				"delivery_id":     delivery.ID,
				"notification_id": strconv.FormatInt(notification.ID, 10),
			}
			if err := d.push.SendToCourier(groupCtx, notification.CourierID, notification.Title, notification.Body, data); err != nil {
				fanoutNotificationsTotal.WithLabelValues("failed").Inc()
				d.log.Warn("send push to courier",
					logger.NewField("courier_id", notification.CourierID),
					logger.NewField("delivery_id", delivery.ID),
					logger.NewField("error", err))
				return nil
			}

			fanoutNotificationsTotal.WithLabelValues("sent").Inc()
			if err := d.notifications.MarkSent(groupCtx, notification.ID); err != nil {
				d.log.Warn("mark notification sent",
					logger.NewField("notification_id", notification.ID),
					logger.NewField("error", err))
			}
			return nil
		})
	}

	_ = group.Wait()
}

func (d *Dispatch) GetDelivery(ctx context.Context, deliveryID string) (*entities.Delivery, error) {
	if !isValidDeliveryID(deliveryID) {
		return nil, ErrInvalidDeliveryID
	}

	delivery, err := d.repository.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("get delivery: %w", err)
	}
	return delivery, nil
}

func (d *Dispatch) ListDeliveries(ctx context.Context, filter entities.DeliveryFilter) ([]entities.Delivery, error) {
	if !isValidFilter(filter) {
		return nil, ErrInvalidFilter
	}

	deliveries, err := d.repository.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	return deliveries, nil
}

// GetRoute отдаёт маршрут доставки, если геокодирование и построение
// маршрута в своё время прошли успешно.
func (d *Dispatch) GetRoute(ctx context.Context, deliveryID string) (*entities.RouteInfo, error) {
	delivery, err := d.GetDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if delivery.Route == nil {
		return nil, ErrNoRoute
	}
	return delivery.Route, nil
}

// UpdateStatus двигает доставку по таблице переходов условной записью.
// Переход в assigned идёт только через приём предложения курьером,
// здесь он запрещён.
func (d *Dispatch) UpdateStatus(ctx context.Context, deliveryID string, status string) (*entities.Delivery, error) {
	if !isValidDeliveryID(deliveryID) {
		return nil, ErrInvalidDeliveryID
	}
	if !entities.IsValidDeliveryStatus(status) {
		return nil, ErrInvalidStatus
	}

	target := entities.DeliveryStatus(status)
	if target == entities.DeliveryAssigned {
		return nil, fmt.Errorf("%w: assignment is courier-driven", ErrInvalidTransition)
	}

	// Проигранную гонку пробуем ещё один раз с перечитанным статусом.
	for attempt := 0; attempt < 2; attempt++ {
		delivery, err := d.repository.GetByID(ctx, deliveryID)
		if err != nil {
			return nil, fmt.Errorf("get delivery: %w", err)
		}

		if !delivery.Status.CanTransitionTo(target) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, delivery.Status, target)
		}

		err = d.repository.UpdateStatusIf(ctx, deliveryID, delivery.Status, target)
		if errors.Is(err, ErrStatusConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update delivery status: %w", err)
		}

		delivery.Status = target
		d.finalizeTransition(ctx, delivery)
		return delivery, nil
	}
	return nil, ErrStatusConflict
}

// finalizeTransition побочные эффекты терминальных статусов: курьер
// снова доступен, точка выдачи уходит из геоиндекса, незакрытые
// уведомления отменяются. Всё после смены статуса и только best-effort.
func (d *Dispatch) finalizeTransition(ctx context.Context, delivery *entities.Delivery) {
	if !delivery.Status.IsTerminal() {
		return
	}

	if delivery.CourierID != nil {
		if err := d.courierService.MarkAvailable(ctx, *delivery.CourierID); err != nil {
			d.log.Warn("release courier after terminal status",
				logger.NewField("courier_id", *delivery.CourierID),
				logger.NewField("error", err))
		}
	}

	if err := d.deliveriesIndex.Remove(ctx, delivery.ID); err != nil {
		d.log.Warn("remove delivery from geo index",
			logger.NewField("delivery_id", delivery.ID),
			logger.NewField("error", err))
	}

	if delivery.Status == entities.DeliveryCancelled {
		if _, err := d.notifications.CancelPendingByDelivery(ctx, delivery.ID); err != nil {
			d.log.Warn("cancel pending notifications",
				logger.NewField("delivery_id", delivery.ID),
				logger.NewField("error", err))
		}
	}
}

// RedispatchPending повторно рассылает пуши по зависшим pending-уведомлениям.
// Уведомление могло остаться pending из-за отказа пуш-шлюза при первичной
// рассылке. Предложения по уже закрытым доставкам отменяются вместо отправки.
func (d *Dispatch) RedispatchPending(ctx context.Context) (int64, error) {
	olderThan := time.Now().UTC().Add(-RedispatchStaleAge)
	notifications, err := d.notifications.ListStalePending(ctx, olderThan, redispatchBatchLimit)
	if err != nil {
		return 0, fmt.Errorf("list stale pending notifications: %w", err)
	}
	if len(notifications) == 0 {
		return 0, nil
	}

	var sent int64
	for _, notification := range notifications {
		delivery, err := d.repository.GetByID(ctx, notification.DeliveryID)
		if err != nil {
			d.log.Warn("redispatch: get delivery",
				logger.NewField("delivery_id", notification.DeliveryID),
				logger.NewField("error", err))
			continue
		}
		if delivery.Status != entities.DeliveryPending {
			if _, err := d.notifications.CancelPendingByDelivery(ctx, delivery.ID); err != nil {
				d.log.Warn("redispatch: cancel notifications of closed delivery",
					logger.NewField("delivery_id", delivery.ID),
					logger.NewField("error", err))
			}
			continue
		}

		// курьер без активных устройств: pending оставляем до следующего
		// прохода, слать некуда
		tokens, err := d.push.ActiveDeviceTokens(ctx, notification.CourierID)
		if err != nil {
			d.log.Warn("redispatch: get active device tokens",
				logger.NewField("courier_id", notification.CourierID),
				logger.NewField("error", err))
			continue
		}
		if len(tokens) == 0 {
			continue
		}

		data := map[string]string{
			"delivery_id":     notification.DeliveryID,
			"notification_id": strconv.FormatInt(notification.ID, 10),
		}
		if err := d.push.SendToCourier(ctx, notification.CourierID, notification.Title, notification.Body, data); err != nil {
			fanoutNotificationsTotal.WithLabelValues("failed").Inc()
			d.log.Warn("redispatch: send push to courier",
				logger.NewField("courier_id", notification.CourierID),
				logger.NewField("notification_id", notification.ID),
				logger.NewField("error", err))
			continue
		}

		fanoutNotificationsTotal.WithLabelValues("sent").Inc()
		if err := d.notifications.MarkSent(ctx, notification.ID); err != nil {
			d.log.Warn("redispatch: mark notification sent",
				logger.NewField("notification_id", notification.ID),
				logger.NewField("error", err))
			continue
		}
		sent++
	}

	return sent, nil
}
