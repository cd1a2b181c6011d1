package assignment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dispatch/internal/entities"
	"dispatch/internal/service/courier"
	"dispatch/pkg/logger"
)

const (
	cancelConcurrency = 8

	pushTitleOfferClosed = "Delivery no longer available"
	pushBodyOfferClosed  = "Another courier took this delivery"
)

type Assignment struct {
	deliveries     DeliveryRepository
	notifications  NotificationRepository
	courierService CourierService
	push           PushGateway
	log            logger.Logger
}

func New(
	deliveries DeliveryRepository,
	notifications NotificationRepository,
	courierService CourierService,
	push PushGateway,
	log logger.Logger,
) *Assignment {
	return &Assignment{
		deliveries:     deliveries,
		notifications:  notifications,
		courierService: courierService,
		push:           push,
		log:            log,
	}
}

// Accept принимает предложение доставки от курьера. Победитель ровно
// один: гонку решает условная запись по доставке, проигравшие получают
// ErrAlreadyAssigned. Уведомления разъезжаются уже после назначения.
func (a *Assignment) Accept(ctx context.Context, deliveryID string, courierID int64) (*entities.Delivery, error) {
	if !isValidDeliveryID(deliveryID) {
		return nil, ErrInvalidDeliveryID
	}
	if courierID <= 0 {
		return nil, ErrInvalidCourierID
	}

	// Сначала занимаем курьера, потом условной записью боремся за
	// доставку. Проигравший возвращает курьера в available: компенсация
	// вместо отката позволяет жить и без транзакционного хранилища.
	if err := a.courierService.MarkBusy(ctx, courierID); err != nil {
		if errors.Is(err, courier.ErrStatusConflict) {
			return nil, ErrCourierUnavailable
		}
		return nil, fmt.Errorf("mark courier busy: %w", err)
	}

	if err := a.deliveries.AssignCourierIf(ctx, deliveryID, courierID); err != nil {
		if releaseErr := a.courierService.MarkAvailable(ctx, courierID); releaseErr != nil {
			a.log.Warn("release courier after lost race",
				logger.NewField("courier_id", courierID),
				logger.NewField("error", releaseErr))
		}
		if errors.Is(err, ErrAlreadyAssigned) {
			acceptRaceTotal.WithLabelValues("lost").Inc()
			return nil, ErrAlreadyAssigned
		}
		return nil, fmt.Errorf("assign courier: %w", err)
	}
	acceptRaceTotal.WithLabelValues("won").Inc()

	a.settleNotifications(ctx, deliveryID, courierID)

	delivery, err := a.deliveries.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("get delivery after accept: %w", err)
	}
	return delivery, nil
}

// settleNotifications закрывает предложение: уведомление победителя
// становится accepted, остальные незакрытые отменяются, их курьерам
// уходит пуш о том, что доставка разобрана. Всё best-effort.
func (a *Assignment) settleNotifications(ctx context.Context, deliveryID string, winnerID int64) {
	notifications, err := a.notifications.ListByDelivery(ctx, deliveryID)
	if err != nil {
		a.log.Warn("list notifications after accept",
			logger.NewField("delivery_id", deliveryID),
			logger.NewField("error", err))
		return
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(cancelConcurrency)

	for _, notification := range notifications {
		if notification.CourierID == winnerID {
			if err := a.notifications.UpdateStatus(ctx, notification.ID, entities.NotificationAccepted); err != nil {
				a.log.Warn("mark winner notification accepted",
					logger.NewField("notification_id", notification.ID),
					logger.NewField("error", err))
			}
			continue
		}

		if isClosed(notification.Status) {
			continue
		}

		group.Go(func() error {
			if err := a.notifications.UpdateStatus(groupCtx, notification.ID, entities.NotificationCancelled); err != nil {
				a.log.Warn("cancel sibling notification",
					logger.NewField("notification_id", notification.ID),
					logger.NewField("error", err))
				return nil
			}

			data := map[string]string{
				"delivery_id":     deliveryID,
				"notification_id": strconv.FormatInt(notification.ID, 10),
			}
			if err := a.push.SendToCourier(groupCtx, notification.CourierID, pushTitleOfferClosed, pushBodyOfferClosed, data); err != nil {
				a.log.Warn("send offer-closed push",
					logger.NewField("courier_id", notification.CourierID),
					logger.NewField("error", err))
			}
			return nil
		})
	}

	_ = group.Wait()
}

// Refuse отказ курьера от предложения. Идемпотентен: повторный отказ и
// отказ по уже закрытому уведомлению проходят без ошибки.
func (a *Assignment) Refuse(ctx context.Context, deliveryID string, courierID int64) error {
	if !isValidDeliveryID(deliveryID) {
		return ErrInvalidDeliveryID
	}
	if courierID <= 0 {
		return ErrInvalidCourierID
	}

	notification, err := a.notifications.GetByDeliveryAndCourier(ctx, deliveryID, courierID)
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}
	if notification == nil || isClosed(notification.Status) {
		return nil
	}

	if err := a.notifications.UpdateStatus(ctx, notification.ID, entities.NotificationRefused); err != nil {
		return fmt.Errorf("mark notification refused: %w", err)
	}
	return nil
}

// isClosed уведомление уже получило окончательный ответ.
func isClosed(status entities.NotificationStatus) bool {
	switch status {
	case entities.NotificationAccepted, entities.NotificationRefused, entities.NotificationCancelled:
		return true
	default:
		return false
	}
}

func isValidDeliveryID(deliveryID string) bool {
	_, err := uuid.Parse(deliveryID)
	return err == nil
}
