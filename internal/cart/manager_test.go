package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhir4j/skillnation/internal/kvstore"
	"github.com/dhir4j/skillnation/internal/models"
)

func courseItem(id int64, price string) models.CartItem {
	return models.CartItem{
		ID:    id,
		Title: "Course",
		Price: decimal.RequireFromString(price),
	}
}

func TestAddIsIdempotentPerCourse(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kvstore.NewMemory(), 7)

	m.Add(ctx, courseItem(1, "4999"))
	m.Add(ctx, courseItem(1, "4999"))
	m.Add(ctx, courseItem(2, "5499"))

	assert.Equal(t, 2, m.Count())
	assert.True(t, m.TotalAmount().Equal(decimal.RequireFromString("10498")),
		"total was %s", m.TotalAmount())
}

func TestRemoveDropsExactlyThatItem(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kvstore.NewMemory(), 7)

	m.Add(ctx, courseItem(1, "4999"))
	m.Add(ctx, courseItem(2, "5499"))
	m.Add(ctx, courseItem(3, "6999"))

	m.Remove(ctx, 2)

	require.Equal(t, 2, m.Count())
	items := m.Items()
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, int64(3), items[1].ID)
	assert.True(t, m.TotalAmount().Equal(decimal.RequireFromString("11998")))

	// removing an absent ID changes nothing
	m.Remove(ctx, 42)
	assert.Equal(t, 2, m.Count())
}

func TestCartRoundTripsThroughStore(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()

	m := NewManager(kv, 7)
	m.Add(ctx, courseItem(1, "4999"))
	m.Add(ctx, courseItem(2, "5499"))

	restored := NewManager(kv, 7)
	restored.Restore(ctx)

	require.Equal(t, 2, restored.Count())
	assert.Equal(t, int64(1), restored.Items()[0].ID)
	assert.True(t, restored.TotalAmount().Equal(decimal.RequireFromString("10498")))
}

func TestRestoreDiscardsCorruptPayload(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	kv.Set(ctx, "cart:7", "{not json")

	m := NewManager(kv, 7)
	m.Restore(ctx)

	assert.Equal(t, 0, m.Count())
	_, ok := kv.Get(ctx, "cart:7")
	assert.False(t, ok, "corrupt entry should be removed")
}

func TestClearRemovesPersistedEntry(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()

	m := NewManager(kv, 7)
	m.Add(ctx, courseItem(1, "4999"))
	m.Clear(ctx)

	assert.Equal(t, 0, m.Count())
	assert.True(t, m.TotalAmount().IsZero())
	_, ok := kv.Get(ctx, "cart:7")
	assert.False(t, ok)
}

func TestCartsAreScopedPerUser(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()

	a := NewManager(kv, 1)
	a.Add(ctx, courseItem(1, "4999"))

	b := NewManager(kv, 2)
	b.Restore(ctx)

	assert.Equal(t, 0, b.Count())
}
