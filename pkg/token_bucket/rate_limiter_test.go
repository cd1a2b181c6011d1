package token_bucket_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dispatch/pkg/token_bucket"
)

func TestTokenBucket_Allow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		capacity       int
		refillRate     float64
		requestCount   int
		expectedAllows int
	}{
		{
			name:           "Все запросы проходят в пределах capacity",
			capacity:       5,
			refillRate:     10.0,
			requestCount:   5,
			expectedAllows: 5,
		},
		{
			name:           "Превышение capacity блокирует лишние запросы",
			capacity:       3,
			refillRate:     10.0,
			requestCount:   5,
			expectedAllows: 3,
		},
		{
			name:           "Нулевой capacity блокирует все запросы",
			capacity:       0,
			refillRate:     10.0,
			requestCount:   3,
			expectedAllows: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tb := token_bucket.NewTokenBucket(tt.capacity, tt.refillRate)

			allowed := 0
			for i := 0; i < tt.requestCount; i++ {
				if tb.Allow() {
					allowed++
				}
			}

			assert.Equal(t, tt.expectedAllows, allowed)
		})
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	t.Parallel()

	tb := token_bucket.NewTokenBucket(10, 10.0)
	for i := 0; i < 10; i++ {
		tb.Allow()
	}

	time.Sleep(250 * time.Millisecond)

	allowed := 0
	for i := 0; i < 3; i++ {
		if tb.Allow() {
			allowed++
		}
	}

	assert.GreaterOrEqual(t, allowed, 2)
	assert.LessOrEqual(t, allowed, 3)
}

func TestTokenBucket_Concurrent(t *testing.T) {
	t.Parallel()

	const (
		capacity     = 20
		goroutines   = 10
		requestsEach = 5
	)

	tb := token_bucket.NewTokenBucket(capacity, 0.0)

	var wg sync.WaitGroup
	var allowedCount atomic.Int64

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < requestsEach; j++ {
				if tb.Allow() {
					allowedCount.Add(1)
				}
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(capacity), allowedCount.Load(),
		"Разрешенных не больше capacity")
}
