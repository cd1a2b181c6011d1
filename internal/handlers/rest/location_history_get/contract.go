package location_history_get

import (
	"context"

	"dispatch/internal/geoindex"
	"dispatch/pkg/logger"
)

type handlerLogger interface {
	Info(msg string, fields ...logger.Field)
	Warn(msg string, fields ...logger.Field)
	Error(msg string, fields ...logger.Field)
	With(fields ...logger.Field) logger.Logger
}

type Service interface {
	History(ctx context.Context, courierID int64, limit int) ([]geoindex.TimedPoint, error)
}
