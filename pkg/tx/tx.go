package tx

import (
	"context"

	"github.com/avito-tech/go-transaction-manager/pgxv5"
	"github.com/avito-tech/go-transaction-manager/trm/manager"
	"github.com/avito-tech/go-transaction-manager/trm/settings"
	"github.com/jackc/pgx/v5"
)

// Manager инкапсулирует логику управления транзакциями.
//
// Гонка за пару status+courier_id решается условными записями в репозитории,
// поэтому сериализуемый уровень изоляции тут не нужен: транзакции используются
// только для атомарности многострочных вставок (доставка + уведомления).
type Manager struct {
	internal *manager.Manager
}

func New(db pgxv5.Transactional) *Manager {
	return &Manager{
		internal: manager.Must(pgxv5.NewDefaultFactory(db)),
	}
}

func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	txSettings := pgxv5.MustSettings(
		settings.Must(),
		pgxv5.WithTxOptions(pgx.TxOptions{IsoLevel: pgx.ReadCommitted}),
	)
	return m.internal.DoWithSettings(ctx, txSettings, fn)
}
