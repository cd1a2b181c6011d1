package courier

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"dispatch/internal/entities"
	"dispatch/internal/repository"
	"dispatch/internal/service/courier"
)

var qb sq.StatementBuilderType = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const courierColumns = `id, user_id, name, phone, status, transport_type, mean_delivery_second, created_at, updated_at`

type Repository struct {
	querier Querier
}

func New(querier Querier) *Repository {
	return &Repository{
		querier: querier,
	}
}

func (r *Repository) Create(ctx context.Context, courierModify entities.CourierModify) (int64, error) {
	courierModifyModel := FromDomainModify(&courierModify)
	query := `INSERT INTO couriers (user_id, name, phone, status, transport_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id int64
	err := r.querier.QueryRow(
		ctx,
		query,
		courierModifyModel.UserID,
		courierModifyModel.Name,
		courierModifyModel.Phone,
		courierModifyModel.Status,
		courierModifyModel.TransportType,
	).Scan(&id)
	if err != nil {
		if repository.IsPgErrorWithCode(err, repository.PgErrUniqueViolation) {
			return 0, courier.ErrConflict
		}
		return 0, fmt.Errorf("unexpected courier repository create error: %w", err)
	}

	return id, nil
}

func (r *Repository) Update(ctx context.Context, courierModify entities.CourierModify) (*entities.Courier, error) {
	courierModifyModel := FromDomainModify(&courierModify)

	builder := qb.
		Update("couriers")

	// опциональные поля
	if courierModifyModel.UserID != nil {
		builder = builder.Set("user_id", courierModifyModel.UserID)
	}
	if courierModifyModel.Name != nil {
		builder = builder.Set("name", courierModifyModel.Name)
	}
	if courierModifyModel.Phone != nil {
		builder = builder.Set("phone", courierModifyModel.Phone)
	}
	if courierModifyModel.Status != nil {
		builder = builder.Set("status", courierModifyModel.Status)
	}
	if courierModifyModel.TransportType != nil {
		builder = builder.Set("transport_type", courierModifyModel.TransportType)
	}
	if courierModifyModel.MeanDeliverySecond != nil {
		builder = builder.Set("mean_delivery_second", courierModifyModel.MeanDeliverySecond)
	}

	builder = builder.Set("updated_at", sq.Expr("NOW()"))

	builder = builder.
		Where(sq.Eq{"id": courierModifyModel.ID}).
		Suffix("RETURNING " + courierColumns)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("unexpected courier repository update error: %w", err)
	}

	courierModel, err := scanCourier(r.querier.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, courier.ErrCourierNotFound
		}

		if repository.IsPgErrorWithCode(err, repository.PgErrUniqueViolation) {
			return nil, courier.ErrConflict
		}

		return nil, fmt.Errorf("unexpected courier repository update error: %w", err)
	}

	return ToDomain(courierModel), nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*entities.Courier, error) {
	query := `SELECT ` + courierColumns + `
		FROM couriers
		WHERE id = $1`

	courierModel, err := scanCourier(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, courier.ErrCourierNotFound
		}

		return nil, fmt.Errorf("unexpected courier repository getbyid error: %w", err)
	}

	return ToDomain(courierModel), nil
}

func (r *Repository) GetAll(ctx context.Context) ([]entities.Courier, error) {
	query := `
	SELECT ` + courierColumns + `
	FROM couriers
	ORDER BY id`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("unexpected courier repository getall error: %w", err)
	}
	defer rows.Close()

	return collectCouriers(rows)
}

func (r *Repository) ListByIDs(ctx context.Context, ids []int64) ([]entities.Courier, error) {
	if len(ids) == 0 {
		return []entities.Courier{}, nil
	}

	query, args, err := qb.
		Select(courierColumns).
		From("couriers").
		Where(sq.Eq{"id": ids}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("unexpected courier repository listbyids error: %w", err)
	}

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unexpected courier repository listbyids error: %w", err)
	}
	defer rows.Close()

	return collectCouriers(rows)
}

// SetStatusIf условная запись статуса курьера, ноль строк значит
// проигранную гонку или отсутствие курьера.
func (r *Repository) SetStatusIf(ctx context.Context, id int64, from, to entities.CourierStatusType) error {
	query := `UPDATE couriers
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`

	tag, err := r.querier.Exec(ctx, query, to.String(), id, from.String())
	if err != nil {
		return fmt.Errorf("unexpected courier repository setstatusif error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return courier.ErrStatusConflict
	}

	return nil
}

func collectCouriers(rows pgx.Rows) ([]entities.Courier, error) {
	courierModels := make([]CourierDB, 0, 8)
	for rows.Next() {
		courierModel, err := scanCourier(rows)
		if err != nil {
			return nil, fmt.Errorf("unexpected courier repository scan error: %w", err)
		}
		courierModels = append(courierModels, *courierModel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unexpected courier repository rows error: %w", err)
	}

	return ToDomainList(courierModels), nil
}

func scanCourier(row pgx.Row) (*CourierDB, error) {
	var courierModel CourierDB
	err := row.Scan(
		&courierModel.ID,
		&courierModel.UserID,
		&courierModel.Name,
		&courierModel.Phone,
		&courierModel.Status,
		&courierModel.TransportType,
		&courierModel.MeanDeliverySecond,
		&courierModel.CreatedAt,
		&courierModel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &courierModel, nil
}
