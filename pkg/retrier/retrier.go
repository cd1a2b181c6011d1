// Package retrier описывает контракт повторителя для пингов внешних
// систем и исходящих вызовов. Реализация живёт в backoff_adapter.
package retrier

import (
	"context"
	"time"
)

type Retrier interface {
	ExecuteWithContext(ctx context.Context, fn func(context.Context) error) error
}

// ShouldRetryFunc решает, имеет ли смысл повторять после данной ошибки.
type ShouldRetryFunc func(error) bool

type Config struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	Randomization   float64
	Multiplier      float64

	// nil означает "повторять любую ошибку"
	ShouldRetry ShouldRetryFunc
}
