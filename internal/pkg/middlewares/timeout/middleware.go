package timeout

import (
	"context"
	"net/http"
	"time"
)

// Middleware ограничивает время жизни запроса. Обработчики и репозитории
// получают дедлайн через r.Context(), дальше его тащат pgx и гейтвеи.
func Middleware(limit time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
