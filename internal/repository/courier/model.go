package courier

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type CourierDB struct {
	ID                 int64
	UserID             int64
	Name               string
	Phone              string
	Status             string
	TransportType      string
	MeanDeliverySecond int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type CourierModifyDB struct {
	ID                 *int64
	UserID             *int64
	Name               *string
	Phone              *string
	Status             *string
	TransportType      *string
	MeanDeliverySecond *int64
}
