package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRoundTrip(t *testing.T) {
	t.Skip("Integration test - requires Redis")

	ctx := context.Background()
	r, err := NewRedis("localhost:6379", "", 0)
	require.NoError(t, err)

	r.Set(ctx, "session:test", `{"id":1}`)
	val, ok := r.Get(ctx, "session:test")
	assert.True(t, ok)
	assert.Equal(t, `{"id":1}`, val)

	r.Remove(ctx, "session:test")
	_, ok = r.Get(ctx, "session:test")
	assert.False(t, ok)
}
