package graceful_shutdown

import (
	"context"
	"net/http"
	"sync/atomic"
)

// Middleware отсекает новые запросы после старта graceful shutdown.
// Запросы, начатые до отмены ongoingCtx, дорабатывают до конца.
func Middleware(shuttingDown *atomic.Bool, ongoingCtx context.Context) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-ongoingCtx.Done():
				if shuttingDown.Load() {
					http.Error(w, "Service is shutting down", http.StatusServiceUnavailable)
					return
				}
			default:
			}
			next.ServeHTTP(w, r)
		})
	}
}
