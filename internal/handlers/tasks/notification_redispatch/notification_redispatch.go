package notification_redispatch

import (
	"context"
	"time"

	"dispatch/pkg/logger"
)

type Service interface {
	RedispatchPending(ctx context.Context) (int64, error)
}

type NotificationRedispatch struct {
	log      logger.Logger
	service  Service
	interval time.Duration
}

func New(log logger.Logger, service Service, interval time.Duration) *NotificationRedispatch {
	return &NotificationRedispatch{
		log:      log,
		service:  service,
		interval: interval,
	}
}

func (n *NotificationRedispatch) TTL() time.Duration {
	return n.interval
}

func (n *NotificationRedispatch) Do(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, n.interval)
	defer cancel()

	sent, err := n.service.RedispatchPending(ctxWithTimeout)

	if sent > 0 {
		n.log.With(
			logger.NewField("resent_notifications", sent),
		).Info("notification redispatch")
	}

	return err
}

func (n *NotificationRedispatch) Info() string {
	return "notification redispatch"
}
