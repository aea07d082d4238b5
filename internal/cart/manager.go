// Package cart owns the ordered collection of course snapshots a user has
// selected. Items are unique by course ID and one unit each; totals are
// derived fresh on every read. State is persisted through the kvstore
// adapter after each mutation.
package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dhir4j/skillnation/internal/kvstore"
	"github.com/dhir4j/skillnation/internal/models"
	"github.com/dhir4j/skillnation/internal/util"
)

// Manager holds one user's cart
type Manager struct {
	store  kvstore.Store
	key    string
	items  []models.CartItem
	logger *zap.Logger
}

// NewManager creates a cart manager for the given user
func NewManager(store kvstore.Store, userID int64) *Manager {
	return &Manager{
		store:  store,
		key:    fmt.Sprintf("cart:%d", userID),
		logger: util.NamedLogger("cart"),
	}
}

// Restore loads persisted items. Malformed payloads are discarded and the
// offending key removed; the cart is simply empty afterwards.
func (m *Manager) Restore(ctx context.Context) {
	raw, ok := m.store.Get(ctx, m.key)
	if !ok {
		m.items = nil
		return
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		m.logger.Warn("discarding corrupt cart payload", zap.Error(err))
		m.store.Remove(ctx, m.key)
		m.items = nil
		return
	}

	m.items = items
}

// Add appends a snapshot to the cart. Adding an item whose ID is already
// present is a no-op: the catalog models one unit per course.
func (m *Manager) Add(ctx context.Context, item models.CartItem) {
	for _, existing := range m.items {
		if existing.ID == item.ID {
			return
		}
	}

	m.items = append(m.items, item)
	m.persist(ctx)

	util.CartItemsAddedTotal.Inc()
	m.logger.Info("Item added to cart",
		zap.Int64("course_id", item.ID),
		zap.Int("count", len(m.items)))
}

// Remove deletes the item with the given ID; absent IDs are a no-op
func (m *Manager) Remove(ctx context.Context, id int64) {
	for i, item := range m.items {
		if item.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			m.persist(ctx)
			util.CartItemsRemovedTotal.Inc()
			return
		}
	}
}

// Clear empties the cart and removes the persisted entry
func (m *Manager) Clear(ctx context.Context) {
	m.items = nil
	m.store.Remove(ctx, m.key)
	util.CartsClearedTotal.Inc()
}

// Items returns the cart contents in insertion order
func (m *Manager) Items() []models.CartItem {
	out := make([]models.CartItem, len(m.items))
	copy(out, m.items)
	return out
}

// Count returns the number of items
func (m *Manager) Count() int {
	return len(m.items)
}

// TotalAmount sums the item prices exactly
func (m *Manager) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range m.items {
		total = total.Add(item.Price)
	}
	return total
}

func (m *Manager) persist(ctx context.Context) {
	payload, err := json.Marshal(m.items)
	if err != nil {
		m.logger.Error("failed to encode cart", zap.Error(err))
		return
	}
	m.store.Set(ctx, m.key, string(payload))
}
