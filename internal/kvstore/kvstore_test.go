package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok := m.Get(ctx, "missing")
	assert.False(t, ok)

	m.Set(ctx, "session:abc", `{"id":1}`)
	val, ok := m.Get(ctx, "session:abc")
	assert.True(t, ok)
	assert.Equal(t, `{"id":1}`, val)

	m.Set(ctx, "session:abc", `{"id":2}`)
	val, _ = m.Get(ctx, "session:abc")
	assert.Equal(t, `{"id":2}`, val)
}

func TestMemoryRemove(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	// removing an absent key is a no-op
	m.Remove(ctx, "cart:1")

	m.Set(ctx, "cart:1", "[]")
	m.Remove(ctx, "cart:1")

	_, ok := m.Get(ctx, "cart:1")
	assert.False(t, ok)
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	m.Set(ctx, "cart:1", "a")
	m.Set(ctx, "cart:2", "b")
	m.Remove(ctx, "cart:1")

	val, ok := m.Get(ctx, "cart:2")
	assert.True(t, ok)
	assert.Equal(t, "b", val)
}
