package order_paid

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/IBM/sarama"

	"dispatch/internal/service/dispatch"
	"dispatch/pkg/logger"
)

type Handler struct {
	dispatchService          Service
	log                      handlerLogger
	messageProcessingTimeout time.Duration
}

func New(log handlerLogger, dispatchService Service, timeout time.Duration) *Handler {
	handlerLog := log.With()

	return &Handler{
		dispatchService:          dispatchService,
		log:                      handlerLog,
		messageProcessingTimeout: timeout,
	}
}

func (h *Handler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *Handler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *Handler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				// Messages() закрыт — выходим
				h.log.Info("order.paid: claim.Messages() closed, exiting ConsumeClaim")
				return nil
			}

			shouldExit := h.messageProcessing(sess, message)
			if shouldExit {
				return nil
			}

		case <-sess.Context().Done():
			// Сессия закрыта (rebalance или остановка consumer group) — выходим
			h.log.Info("order.paid: session context done, exiting ConsumeClaim")
			return nil
		}
	}
}

// messageProcessing обрабатывает одно сообщение из Kafka.
// Возвращает true, если нужно прервать ConsumeClaim (при отмене контекста).
// Возвращает false для продолжения обработки следующих сообщений.
func (h *Handler) messageProcessing(sess sarama.ConsumerGroupSession, message *sarama.ConsumerMessage) bool {
	ctx, cancel := context.WithTimeout(sess.Context(), h.messageProcessingTimeout)
	defer cancel()

	var event paidEvent
	err := json.Unmarshal(message.Value, &event)
	if err != nil {
		h.log.With(
			logger.NewField("error", err),
		).Error("order.paid handler received bad message")
		sess.MarkMessage(message, "")
		return false
	}

	msgLog := h.log.With(
		logger.NewField("order", event.OrderID),
		logger.NewField("offset", message.Offset),
	)

	if event.Status != "" && event.Status != statusPaid {
		msgLog.With(
			logger.NewField("status", event.Status),
		).Info("order.paid handler skipping non-paid event")
		sess.MarkMessage(message, "")
		return false
	}

	msgLog.Info("order.paid processing")

	delivery, err := h.dispatchService.CreateDelivery(ctx, event.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			msgLog.With(
				logger.NewField("error", err),
			).Warn("order.paid handler context cancelled, message will be reprocessed")
			return true

		case errors.Is(err, dispatch.ErrDeliveryExists):
			// Повторная доставка сообщения: заказ уже обработан
			msgLog.Info("order.paid handler delivery already exists")

		case errors.Is(err, dispatch.ErrInvalidOrderID):
			msgLog.With(
				logger.NewField("error", err),
			).Error("order.paid handler bad order id in event")

		case errors.Is(err, dispatch.ErrOrderNotFound):
			msgLog.With(
				logger.NewField("error", err),
			).Warn("order.paid handler order not found")

		default:
			msgLog.With(
				logger.NewField("error", err),
			).Warn("order.paid handler failed to create delivery")
		}
		sess.MarkMessage(message, "")
		return false
	}

	msgLog.With(
		logger.NewField("delivery", delivery.ID),
		logger.NewField("status", delivery.Status.String()),
	).Info("order.paid: processed")

	sess.MarkMessage(message, "")
	return false
}
