package notification

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
	"dispatch/internal/service/notification"
)

var qb sq.StatementBuilderType = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const notificationColumns = `id, courier_id, delivery_id, title, body, status, created_at, updated_at`

type Repository struct {
	querier Querier
}

func New(querier Querier) *Repository {
	return &Repository{
		querier: querier,
	}
}

func (r *Repository) CreateBatch(ctx context.Context, notifications []entities.DispatchNotification) ([]entities.DispatchNotification, error) {
	if len(notifications) == 0 {
		return []entities.DispatchNotification{}, nil
	}

	builder := qb.
		Insert("dispatch_notifications").
		Columns("courier_id", "delivery_id", "title", "body", "status", "created_at", "updated_at")

	for _, n := range notifications {
		builder = builder.Values(n.CourierID, n.DeliveryID, n.Title, n.Body, n.Status.String(), n.CreatedAt, n.CreatedAt)
	}

	query, args, err := builder.
		Suffix("RETURNING " + notificationColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("unexpected notification repository createbatch error: %w", err)
	}

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		if repository.IsPgErrorWithCode(err, repository.PgErrForeignKeyViolation) {
			return nil, assignment.ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("unexpected notification repository createbatch error: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

// MarkSent переводит pending в sent. Уведомление, на которое курьер уже
// успел ответить, не трогаем.
func (r *Repository) MarkSent(ctx context.Context, id int64) error {
	query := `UPDATE dispatch_notifications
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`

	_, err := r.querier.Exec(ctx, query, entities.NotificationSent.String(), id, entities.NotificationPending.String())
	if err != nil {
		return fmt.Errorf("unexpected notification repository marksent error: %w", err)
	}
	return nil
}

func (r *Repository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]entities.DispatchNotification, error) {
	builder := qb.
		Select(notificationColumns).
		From("dispatch_notifications").
		Where(sq.Eq{"status": entities.NotificationPending.String()}).
		Where(sq.Lt{"created_at": olderThan}).
		OrderBy("id")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("unexpected notification repository liststalepending error: %w", err)
	}

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unexpected notification repository liststalepending error: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status entities.NotificationStatus) error {
	query := `UPDATE dispatch_notifications
		SET status = $1, updated_at = NOW()
		WHERE id = $2`

	tag, err := r.querier.Exec(ctx, query, status.String(), id)
	if err != nil {
		return fmt.Errorf("unexpected notification repository updatestatus error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

func (r *Repository) CancelPendingByDelivery(ctx context.Context, deliveryID string) ([]entities.DispatchNotification, error) {
	query := `UPDATE dispatch_notifications
		SET status = $1, updated_at = NOW()
		WHERE delivery_id = $2 AND status IN ($3, $4)
		RETURNING ` + notificationColumns

	rows, err := r.querier.Query(
		ctx,
		query,
		entities.NotificationCancelled.String(),
		deliveryID,
		entities.NotificationPending.String(),
		entities.NotificationSent.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("unexpected notification repository cancelpending error: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*entities.DispatchNotification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM dispatch_notifications
		WHERE id = $1`

	notificationModel, err := scanNotification(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected notification repository getbyid error: %w", err)
	}
	return ToDomain(notificationModel), nil
}

func (r *Repository) GetByDeliveryAndCourier(ctx context.Context, deliveryID string, courierID int64) (*entities.DispatchNotification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM dispatch_notifications
		WHERE delivery_id = $1 AND courier_id = $2`

	notificationModel, err := scanNotification(r.querier.QueryRow(ctx, query, deliveryID, courierID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected notification repository getbydeliveryandcourier error: %w", err)
	}
	return ToDomain(notificationModel), nil
}

func (r *Repository) ListByDelivery(ctx context.Context, deliveryID string) ([]entities.DispatchNotification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM dispatch_notifications
		WHERE delivery_id = $1
		ORDER BY id`

	rows, err := r.querier.Query(ctx, query, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("unexpected notification repository listbydelivery error: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (r *Repository) ListByCourier(ctx context.Context, courierID int64, limit int) ([]entities.DispatchNotification, error) {
	builder := qb.
		Select(notificationColumns).
		From("dispatch_notifications").
		Where(sq.Eq{"courier_id": courierID}).
		OrderBy("created_at DESC")

	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("unexpected notification repository listbycourier error: %w", err)
	}

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unexpected notification repository listbycourier error: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM dispatch_notifications
		WHERE id = $1`

	tag, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("unexpected notification repository delete error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

func collectNotifications(rows pgx.Rows) ([]entities.DispatchNotification, error) {
	notificationModels := make([]NotificationDB, 0, 8)
	for rows.Next() {
		notificationModel, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("unexpected notification repository scan error: %w", err)
		}
		notificationModels = append(notificationModels, *notificationModel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unexpected notification repository rows error: %w", err)
	}

	return ToDomainList(notificationModels), nil
}

func scanNotification(row pgx.Row) (*NotificationDB, error) {
	var notificationModel NotificationDB
	err := row.Scan(
		&notificationModel.ID,
		&notificationModel.CourierID,
		&notificationModel.DeliveryID,
		&notificationModel.Title,
		&notificationModel.Body,
		&notificationModel.Status,
		&notificationModel.CreatedAt,
		&notificationModel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &notificationModel, nil
}
