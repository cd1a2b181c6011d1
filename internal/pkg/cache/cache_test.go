package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dispatch/internal/pkg/cache"
)

func TestCache_GetSet(t *testing.T) {
	t.Parallel()

	c := cache.New[int](time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 1)
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, got)

	c.Set("a", 2)
	got, _ = c.Get("a")
	assert.Equal(t, 2, got, "повторный Set перезаписывает значение")
}

func TestCache_Expiration(t *testing.T) {
	t.Parallel()

	c := cache.New[string](30 * time.Millisecond)

	c.Set("a", "value")
	time.Sleep(50 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok, "просроченная запись не возвращается")

	// Запись после просроченного интервала вычищает старые ключи.
	c.Set("b", "fresh")
	assert.Equal(t, 1, c.Len())
}
