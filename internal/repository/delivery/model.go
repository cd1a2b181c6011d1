package delivery

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

type DeliveryDB struct {
	ID               string
	OrderID          string
	Fee              int64
	ItemCount        int32
	PickupAddress    string
	DropoffAddress   string
	PickupLat        *float64
	PickupLon        *float64
	DropoffLat       *float64
	DropoffLon       *float64
	Route            []byte
	EstimatedArrival *time.Time
	Status           string
	CourierID        *int64
	CustomerID       int64
	CreatedAt        time.Time
	ScheduledFor     *time.Time
	DriverNotes      string
}
