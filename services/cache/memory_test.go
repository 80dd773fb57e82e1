package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	_, err := c.Get("ct_judicial_rate_limited")
	assert.True(t, errors.Is(err, ErrCacheMiss))

	require.NoError(t, c.Set("ct_judicial_rate_limited", []byte("500"), 500*time.Second))
	value, err := c.Get("ct_judicial_rate_limited")
	require.NoError(t, err)
	assert.Equal(t, "500", string(value))

	now = now.Add(499 * time.Second)
	_, err = c.Get("ct_judicial_rate_limited")
	assert.NoError(t, err)

	now = now.Add(time.Second)
	_, err = c.Get("ct_judicial_rate_limited")
	assert.True(t, errors.Is(err, ErrCacheMiss))

	require.NoError(t, c.Set("forever", []byte("x"), 0))
	require.NoError(t, c.Delete("forever"))
	_, err = c.Get("forever")
	assert.Error(t, err)
}
