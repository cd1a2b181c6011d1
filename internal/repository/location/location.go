package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dispatch/internal/entities"
	"dispatch/internal/repository"
	"dispatch/internal/service/tracking"
)

type Repository struct {
	querier Querier
}

func New(querier Querier) *Repository {
	return &Repository{
		querier: querier,
	}
}

// RecordPosition снимает признак активности со старой точки и пишет
// новую. Вызывается внутри транзакции, иначе между двумя запросами
// возможна пара активных точек.
func (r *Repository) RecordPosition(ctx context.Context, location entities.CourierLocation) error {
	deactivate := `UPDATE courier_locations
		SET active = FALSE
		WHERE courier_id = $1 AND active`

	if _, err := r.querier.Exec(ctx, deactivate, location.CourierID); err != nil {
		return fmt.Errorf("unexpected location repository recordposition error: %w", err)
	}

	insert := `INSERT INTO courier_locations (courier_id, lat, lon, recorded_at, active)
		VALUES ($1, $2, $3, $4, TRUE)`

	_, err := r.querier.Exec(
		ctx,
		insert,
		location.CourierID,
		location.Point.Lat,
		location.Point.Lon,
		location.RecordedAt,
	)
	if err != nil {
		if repository.IsPgErrorWithCode(err, repository.PgErrForeignKeyViolation) {
			return tracking.ErrInvalidCourierID
		}
		return fmt.Errorf("unexpected location repository recordposition error: %w", err)
	}

	return nil
}

func (r *Repository) Current(ctx context.Context, courierID int64) (*entities.CourierLocation, error) {
	query := `SELECT courier_id, lat, lon, recorded_at, active
		FROM courier_locations
		WHERE courier_id = $1 AND active`

	var locationModel LocationDB
	err := r.querier.QueryRow(ctx, query, courierID).
		Scan(
			&locationModel.CourierID,
			&locationModel.Lat,
			&locationModel.Lon,
			&locationModel.RecordedAt,
			&locationModel.Active,
		)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tracking.ErrLocationNotFound
		}
		return nil, fmt.Errorf("unexpected location repository current error: %w", err)
	}

	return ToDomain(&locationModel), nil
}
