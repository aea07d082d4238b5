// Package checkout models the guarded, multi-step flow that turns cart
// contents into a submitted payment reference and, after simulated
// settlement, an empty cart. A Flow is transient: it is never persisted and
// dies with navigation away or completion.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dhir4j/skillnation/internal/cart"
	"github.com/dhir4j/skillnation/internal/models"
	"github.com/dhir4j/skillnation/internal/session"
	"github.com/dhir4j/skillnation/internal/util"
	"github.com/shopspring/decimal"
)

var (
	// ErrLoginRequired means no current user exists; callers redirect to login.
	ErrLoginRequired = errors.New("login required")
	// ErrEmptyCart means there is nothing to pay for; callers redirect to the catalog.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidReference means the submitted reference failed validation; the
	// flow stays in PAYMENT with an inline error set.
	ErrInvalidReference = errors.New("invalid payment reference")
)

// referencePattern: UPI-style reference of exactly 12 decimal digits
var referencePattern = regexp.MustCompile(`^[0-9]{12}$`)

// OrderRecorder persists the order created when a reference is accepted.
type OrderRecorder interface {
	CreateCourseOrder(ctx context.Context, userID int64, items []models.CartItem, total decimal.Decimal, reference string) (*models.Order, error)
}

// Publisher is the narrow slice of the event publisher the flow needs.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishPaymentSubmitted(ctx context.Context, event *models.PaymentSubmittedEvent) error
	PublishPaymentSettled(ctx context.Context, event *models.PaymentSettledEvent) error
}

// Flow is one user's checkout state machine.
type Flow struct {
	mu      sync.Mutex
	sess    *session.Manager
	cart    *cart.Manager
	orders  OrderRecorder
	events  Publisher
	gateway SettlementGateway
	logger  *zap.Logger

	step      Step
	reference string
	inlineErr string
	order     *models.Order

	cancel context.CancelFunc
	done   chan struct{}
}

// New starts a flow at OVERVIEW. The entry guard requires a current user and
// a non-empty cart; both are re-read from storage here and on every
// subsequent operation, since either can change out-of-band.
func New(ctx context.Context, sess *session.Manager, crt *cart.Manager, orders OrderRecorder, events Publisher, gateway SettlementGateway) (*Flow, error) {
	f := &Flow{
		sess:    sess,
		cart:    crt,
		orders:  orders,
		events:  events,
		gateway: gateway,
		logger:  util.NamedLogger("checkout"),
		step:    StepOverview,
		done:    make(chan struct{}),
	}

	if err := f.guard(ctx); err != nil {
		return nil, err
	}

	util.CheckoutsStartedTotal.Inc()
	f.logger.Info("Checkout started",
		zap.Int64("user_id", sess.User().ID),
		zap.Int("items", crt.Count()))
	return f, nil
}

// guard re-evaluates the entry conditions against freshly restored state.
// The cart condition only applies before PROCESSING: settlement itself
// empties the cart.
func (f *Flow) guard(ctx context.Context) error {
	f.sess.Restore(ctx)
	if f.sess.User() == nil {
		util.CheckoutsRejectedTotal.WithLabelValues("no_session").Inc()
		return ErrLoginRequired
	}

	if f.step == StepOverview || f.step == StepPayment {
		f.cart.Restore(ctx)
		if f.cart.Count() == 0 {
			util.CheckoutsRejectedTotal.WithLabelValues("empty_cart").Inc()
			return ErrEmptyCart
		}
	}
	return nil
}

// ProceedToPayment moves OVERVIEW -> PAYMENT. No validation is needed:
// amount and identity are already known.
func (f *Flow) ProceedToPayment(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.guard(ctx); err != nil {
		return err
	}
	if f.step != StepOverview {
		return fmt.Errorf("cannot proceed to payment from %s", f.step)
	}

	f.step = StepPayment
	f.inlineErr = ""
	return nil
}

// Back moves PAYMENT -> OVERVIEW, discarding any entered reference. The cart
// is untouched.
func (f *Flow) Back(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.guard(ctx); err != nil {
		return err
	}
	if f.step != StepPayment {
		return fmt.Errorf("cannot go back from %s", f.step)
	}

	f.step = StepOverview
	f.reference = ""
	f.inlineErr = ""
	return nil
}

// SubmitReference validates the payment reference and, on success, records
// the order, moves to PROCESSING and schedules settlement. On a malformed
// reference the flow stays in PAYMENT with the inline error set.
func (f *Flow) SubmitReference(ctx context.Context, reference string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ctx, span := util.StartSpan(ctx, "checkout.SubmitReference")
	defer span.End()

	if err := f.guard(ctx); err != nil {
		return err
	}
	if f.step != StepPayment {
		return fmt.Errorf("cannot submit a reference from %s", f.step)
	}

	if !referencePattern.MatchString(reference) {
		f.inlineErr = "payment reference must be exactly 12 digits"
		util.PaymentReferencesRejectedTotal.Inc()
		return ErrInvalidReference
	}

	user := f.sess.User()
	items := f.cart.Items()
	total := f.cart.TotalAmount()

	order, err := f.orders.CreateCourseOrder(ctx, user.ID, items, total, reference)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return fmt.Errorf("failed to record order: %w", err)
	}
	util.OrdersCreatedTotal.Inc()

	f.order = order
	f.reference = reference
	f.inlineErr = ""
	f.step = StepProcessing
	util.PaymentsSubmittedTotal.Inc()

	f.publishSubmitted(ctx, order, items)

	// settlement runs on its own cancellable context so navigation away can
	// abort it before it completes the checkout
	settleCtx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.done = make(chan struct{})
	go f.settle(settleCtx, order, total, f.done)

	f.logger.Info("Payment reference accepted",
		zap.Int64("order_id", order.ID),
		zap.String("reference", reference))
	return nil
}

func (f *Flow) publishSubmitted(ctx context.Context, order *models.Order, items []models.CartItem) {
	eventItems := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		eventItems = append(eventItems, models.OrderItemData{
			CourseID:  item.ID,
			Title:     item.Title,
			UnitPrice: item.Price,
		})
	}

	created := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Items:       eventItems,
	}
	if err := f.events.PublishOrderCreated(ctx, created); err != nil {
		f.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	submitted := &models.PaymentSubmittedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentSubmitted,
			Timestamp: time.Now(),
		},
		OrderID:   order.ID,
		UserID:    order.UserID,
		Amount:    order.TotalAmount,
		Reference: order.PaymentReference,
	}
	if err := f.events.PublishPaymentSubmitted(ctx, submitted); err != nil {
		f.logger.Error("Failed to publish PaymentSubmitted event", zap.Error(err))
	}
}

// settle waits for the gateway confirmation, then clears the cart and
// finishes the flow. PROCESSING -> COMPLETE is the only transition with
// externally visible side effects.
func (f *Flow) settle(ctx context.Context, order *models.Order, total decimal.Decimal, done chan struct{}) {
	defer close(done)
	start := time.Now()

	err := f.gateway.Settle(ctx, order.PaymentReference, total)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			f.logger.Info("Settlement cancelled", zap.Int64("order_id", order.ID))
			return
		}
		// gateway rejection returns the flow to PAYMENT with an inline error
		f.step = StepPayment
		f.reference = ""
		f.inlineErr = "payment could not be verified, try again"
		f.logger.Warn("Settlement rejected",
			zap.Int64("order_id", order.ID), zap.Error(err))
		return
	}

	sideCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f.cart.Clear(sideCtx)
	f.step = StepComplete

	util.PaymentsSettledTotal.Inc()
	util.SettlementLatency.Observe(time.Since(start).Seconds())

	settled := &models.PaymentSettledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentSettled,
			Timestamp: time.Now(),
		},
		OrderID:   order.ID,
		UserID:    order.UserID,
		Amount:    total,
		Reference: order.PaymentReference,
	}
	if err := f.events.PublishPaymentSettled(sideCtx, settled); err != nil {
		f.logger.Error("Failed to publish PaymentSettled event", zap.Error(err))
	}

	f.logger.Info("Checkout complete", zap.Int64("order_id", order.ID))
}

// Cancel aborts an in-flight settlement. Safe to call in any state.
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
	}
}

// Step returns the current step
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Reference returns the recorded payment reference, empty before submission
func (f *Flow) Reference() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reference
}

// Err returns the inline validation error, empty when there is none
func (f *Flow) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inlineErr
}

// Order returns the recorded order once a reference has been accepted
func (f *Flow) Order() *models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.order
}

// Done is closed when settlement finishes, whether completed, rejected or
// cancelled.
func (f *Flow) Done() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}
