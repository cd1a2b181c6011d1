package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"dispatch/internal/entities"
	"dispatch/internal/repository"
	"dispatch/internal/service/assignment"
	"dispatch/internal/service/dispatch"
)

var qb sq.StatementBuilderType = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const deliveryColumns = `id, order_id, fee, item_count, pickup_address, dropoff_address,
	pickup_lat, pickup_lon, dropoff_lat, dropoff_lon, route, estimated_arrival,
	status, courier_id, customer_id, created_at, scheduled_for, driver_notes`

type Repository struct {
	querier Querier
}

func New(querier Querier) *Repository {
	return &Repository{
		querier: querier,
	}
}

func (r *Repository) Create(ctx context.Context, delivery *entities.Delivery) (*entities.Delivery, error) {
	query := `INSERT INTO deliveries
		(id, order_id, fee, item_count, pickup_address, dropoff_address, status, customer_id, created_at, scheduled_for, driver_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + deliveryColumns

	row := r.querier.QueryRow(
		ctx,
		query,
		delivery.ID,
		delivery.OrderID,
		delivery.Fee,
		delivery.ItemCount,
		delivery.PickupAddress,
		delivery.DropoffAddress,
		delivery.Status.String(),
		delivery.CustomerID,
		delivery.CreatedAt,
		delivery.ScheduledFor,
		delivery.DriverNotes,
	)

	created, err := scanDelivery(row)
	if err != nil {
		if repository.IsPgErrorWithCode(err, repository.PgErrUniqueViolation) {
			return nil, dispatch.ErrDeliveryExists
		}
		return nil, fmt.Errorf("unexpected delivery repository create error: %w", err)
	}

	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*entities.Delivery, error) {
	query := `SELECT ` + deliveryColumns + `
		FROM deliveries
		WHERE id = $1`

	delivery, err := scanDelivery(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dispatch.ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("unexpected delivery repository getbyid error: %w", err)
	}

	return delivery, nil
}

func (r *Repository) List(ctx context.Context, filter entities.DeliveryFilter) ([]entities.Delivery, error) {
	builder := qb.
		Select(deliveryColumns).
		From("deliveries").
		OrderBy("created_at DESC")

	if filter.CourierID != nil {
		builder = builder.Where(sq.Eq{"courier_id": *filter.CourierID})
	}
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": filter.Status.String()})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("unexpected delivery repository list error: %w", err)
	}

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unexpected delivery repository list error: %w", err)
	}
	defer rows.Close()

	deliveryModels := make([]DeliveryDB, 0, 8)
	for rows.Next() {
		deliveryModel, err := scanDeliveryModel(rows)
		if err != nil {
			return nil, fmt.Errorf("unexpected delivery repository list error: %w", err)
		}
		deliveryModels = append(deliveryModels, *deliveryModel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unexpected delivery repository list error: %w", err)
	}

	return ToDomainList(deliveryModels), nil
}

func (r *Repository) UpdateGeo(ctx context.Context, deliveryModify entities.DeliveryModify) (*entities.Delivery, error) {
	if deliveryModify.ID == nil {
		return nil, dispatch.ErrInvalidDeliveryID
	}

	builder := qb.
		Update("deliveries")

	// опциональные поля
	if deliveryModify.PickupPoint != nil {
		builder = builder.
			Set("pickup_lat", deliveryModify.PickupPoint.Lat).
			Set("pickup_lon", deliveryModify.PickupPoint.Lon)
	}
	if deliveryModify.DropoffPoint != nil {
		builder = builder.
			Set("dropoff_lat", deliveryModify.DropoffPoint.Lat).
			Set("dropoff_lon", deliveryModify.DropoffPoint.Lon)
	}
	if deliveryModify.Route != nil {
		routeJSON, err := routeToJSON(deliveryModify.Route)
		if err != nil {
			return nil, fmt.Errorf("unexpected delivery repository updategeo error: %w", err)
		}
		builder = builder.Set("route", routeJSON)
	}
	if deliveryModify.EstimatedArrival != nil {
		builder = builder.Set("estimated_arrival", *deliveryModify.EstimatedArrival)
	}
	if deliveryModify.ScheduledFor != nil {
		builder = builder.Set("scheduled_for", *deliveryModify.ScheduledFor)
	}
	if deliveryModify.DriverNotes != nil {
		builder = builder.Set("driver_notes", *deliveryModify.DriverNotes)
	}

	builder = builder.
		Where(sq.Eq{"id": *deliveryModify.ID}).
		Suffix("RETURNING " + deliveryColumns)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("unexpected delivery repository updategeo error: %w", err)
	}

	delivery, err := scanDelivery(r.querier.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dispatch.ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("unexpected delivery repository updategeo error: %w", err)
	}

	return delivery, nil
}

// UpdateStatusIf условная запись статуса: ноль затронутых строк значит,
// что статус уже сменил кто-то другой.
func (r *Repository) UpdateStatusIf(ctx context.Context, id string, from, to entities.DeliveryStatus) error {
	query := `UPDATE deliveries
		SET status = $1
		WHERE id = $2 AND status = $3`

	tag, err := r.querier.Exec(ctx, query, to.String(), id, from.String())
	if err != nil {
		return fmt.Errorf("unexpected delivery repository updatestatusif error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return dispatch.ErrStatusConflict
	}

	return nil
}

// AssignCourierIf назначение с гарантией одного победителя: строка
// обновляется только пока доставка pending и курьер не выставлен.
func (r *Repository) AssignCourierIf(ctx context.Context, deliveryID string, courierID int64) error {
	query := `UPDATE deliveries
		SET status = $1, courier_id = $2
		WHERE id = $3 AND status = $4 AND courier_id IS NULL`

	tag, err := r.querier.Exec(
		ctx,
		query,
		entities.DeliveryAssigned.String(),
		courierID,
		deliveryID,
		entities.DeliveryPending.String(),
	)
	if err != nil {
		if repository.IsPgErrorWithCode(err, repository.PgErrForeignKeyViolation) {
			return assignment.ErrCourierUnavailable
		}
		return fmt.Errorf("unexpected delivery repository assigncourierif error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		_, err := r.GetByID(ctx, deliveryID)
		if errors.Is(err, dispatch.ErrDeliveryNotFound) {
			return assignment.ErrDeliveryNotFound
		}
		if err != nil {
			return err
		}
		return assignment.ErrAlreadyAssigned
	}

	return nil
}

func (r *Repository) GetActiveByCourier(ctx context.Context, courierID int64) (*entities.Delivery, error) {
	query := `SELECT ` + deliveryColumns + `
		FROM deliveries
		WHERE courier_id = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1`

	delivery, err := scanDelivery(r.querier.QueryRow(
		ctx,
		query,
		courierID,
		entities.DeliveryAssigned.String(),
		entities.DeliveryOutForDelivery.String(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected delivery repository getactivebycourier error: %w", err)
	}

	return delivery, nil
}

func (r *Repository) UpdateArrival(ctx context.Context, deliveryID string, arrival time.Time) error {
	query := `UPDATE deliveries
		SET estimated_arrival = $1
		WHERE id = $2`

	tag, err := r.querier.Exec(ctx, query, arrival, deliveryID)
	if err != nil {
		return fmt.Errorf("unexpected delivery repository updatearrival error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return dispatch.ErrDeliveryNotFound
	}

	return nil
}

func scanDelivery(row pgx.Row) (*entities.Delivery, error) {
	deliveryModel, err := scanDeliveryModel(row)
	if err != nil {
		return nil, err
	}
	return ToDomain(deliveryModel), nil
}

func scanDeliveryModel(row pgx.Row) (*DeliveryDB, error) {
	var deliveryModel DeliveryDB
	err := row.Scan(
		&deliveryModel.ID,
		&deliveryModel.OrderID,
		&deliveryModel.Fee,
		&deliveryModel.ItemCount,
		&deliveryModel.PickupAddress,
		&deliveryModel.DropoffAddress,
		&deliveryModel.PickupLat,
		&deliveryModel.PickupLon,
		&deliveryModel.DropoffLat,
		&deliveryModel.DropoffLon,
		&deliveryModel.Route,
		&deliveryModel.EstimatedArrival,
		&deliveryModel.Status,
		&deliveryModel.CourierID,
		&deliveryModel.CustomerID,
		&deliveryModel.CreatedAt,
		&deliveryModel.ScheduledFor,
		&deliveryModel.DriverNotes,
	)
	if err != nil {
		return nil, err
	}
	return &deliveryModel, nil
}
