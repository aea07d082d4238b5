// Package worker finalizes orders after settlement. The checkout flow
// publishes PAYMENT_SETTLED when the simulated gateway confirms; this worker
// consumes it, marks the order paid then completed, and announces the result.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dhir4j/skillnation/internal/broker"
	"github.com/dhir4j/skillnation/internal/models"
	"github.com/dhir4j/skillnation/internal/util"
)

// OrderFinalizer is the slice of the orders store the worker needs.
type OrderFinalizer interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
	CompleteOrder(ctx context.Context, orderID int64) error
}

// CompletionPublisher announces finalized orders.
type CompletionPublisher interface {
	PublishOrderCompleted(ctx context.Context, event *models.OrderCompletedEvent) error
}

// SettlementWorker consumes settlement events and finalizes orders
type SettlementWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	orders       OrderFinalizer
	events       CompletionPublisher
	logger       *zap.Logger
}

// NewSettlementWorker creates a settlement worker
func NewSettlementWorker(consumer *broker.Consumer, orders OrderFinalizer, events CompletionPublisher) *SettlementWorker {
	w := &SettlementWorker{
		consumer: consumer,
		orders:   orders,
		events:   events,
		logger:   util.NamedLogger("settlement-worker"),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnPaymentSettled(w.HandlePaymentSettled)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *SettlementWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting settlement worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *SettlementWorker) Stop() error {
	w.logger.Info("Stopping settlement worker")
	return w.consumer.Close()
}

// HandlePaymentSettled finalizes the order for a settled payment. Redelivered
// events are skipped via the processed_events table.
func (w *SettlementWorker) HandlePaymentSettled(ctx context.Context, event *models.PaymentSettledEvent) error {
	ctx, span := util.StartSpan(ctx, "SettlementWorker.HandlePaymentSettled")
	defer span.End()

	processed, err := w.orders.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	w.logger.Info("Finalizing settled order",
		zap.Int64("order_id", event.OrderID),
		zap.String("reference", event.Reference))

	if err := w.orders.UpdateOrderStatus(ctx, event.OrderID, models.OrderStatusPaid); err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}

	if err := w.orders.CompleteOrder(ctx, event.OrderID); err != nil {
		return fmt.Errorf("failed to complete order: %w", err)
	}

	util.OrdersCompletedTotal.Inc()

	completed := &models.OrderCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCompleted,
			Timestamp: time.Now(),
		},
		OrderID: event.OrderID,
		UserID:  event.UserID,
	}
	if err := w.events.PublishOrderCompleted(ctx, completed); err != nil {
		w.logger.Error("Failed to publish OrderCompleted event", zap.Error(err))
	}

	if err := w.orders.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		w.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	w.logger.Info("Order completed", zap.Int64("order_id", event.OrderID))
	return nil
}
