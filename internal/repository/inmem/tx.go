package inmem

import "context"

// TxManager для хранилищ в памяти: транзакций нет, функция просто
// выполняется. Условные записи дают те же гарантии за счёт мьютексов.
type TxManager struct{}

func NewTxManager() *TxManager {
	return &TxManager{}
}

func (TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
