package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhir4j/skillnation/internal/cart"
	"github.com/dhir4j/skillnation/internal/kvstore"
	"github.com/dhir4j/skillnation/internal/models"
	"github.com/dhir4j/skillnation/internal/session"
)

type fakeRecorder struct {
	mu     sync.Mutex
	nextID int64
	orders []*models.Order
	err    error
}

func (r *fakeRecorder) CreateCourseOrder(_ context.Context, userID int64, items []models.CartItem, total decimal.Decimal, reference string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.nextID++
	order := &models.Order{
		ID:               r.nextID,
		UserID:           userID,
		TotalAmount:      total,
		Status:           models.OrderStatusPaymentPending,
		PaymentReference: reference,
	}
	r.orders = append(r.orders, order)
	return order, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePublisher) record(eventType string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *fakePublisher) PublishOrderCreated(_ context.Context, _ *models.OrderCreatedEvent) error {
	return p.record(models.EventTypeOrderCreated)
}

func (p *fakePublisher) PublishPaymentSubmitted(_ context.Context, _ *models.PaymentSubmittedEvent) error {
	return p.record(models.EventTypePaymentSubmitted)
}

func (p *fakePublisher) PublishPaymentSettled(_ context.Context, _ *models.PaymentSettledEvent) error {
	return p.record(models.EventTypePaymentSettled)
}

func (p *fakePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	copy(out, p.events)
	return out
}

// rejectGateway refuses every reference.
type rejectGateway struct{}

func (rejectGateway) Settle(context.Context, string, decimal.Decimal) error {
	return ErrPaymentNotFound
}

type flowFixture struct {
	kv     kvstore.Store
	sess   *session.Manager
	cart   *cart.Manager
	orders *fakeRecorder
	events *fakePublisher
}

func newFixture(t *testing.T) *flowFixture {
	t.Helper()
	ctx := context.Background()

	kv := kvstore.NewMemory()
	sess := session.NewManager(kv, &session.DemoIssuer{}, "")
	user, err := sess.Login(ctx, "buyer@example.com", "pw")
	require.NoError(t, err)

	crt := cart.NewManager(kv, user.ID)
	crt.Add(ctx, models.CartItem{ID: 1, Title: "Full Stack Web Development", Price: decimal.NewFromInt(4999)})
	crt.Add(ctx, models.CartItem{ID: 3, Title: "Data Science Fundamentals", Price: decimal.NewFromInt(6999)})

	return &flowFixture{
		kv:     kv,
		sess:   sess,
		cart:   crt,
		orders: &fakeRecorder{},
		events: &fakePublisher{},
	}
}

func (fx *flowFixture) start(t *testing.T, gateway SettlementGateway) *Flow {
	t.Helper()
	flow, err := New(context.Background(), fx.sess, fx.cart, fx.orders, fx.events, gateway)
	require.NoError(t, err)
	return flow
}

func waitDone(t *testing.T, flow *Flow) {
	t.Helper()
	select {
	case <-flow.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("settlement did not finish in time")
	}
}

func TestNewRequiresSession(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	sess := session.NewManager(kv, &session.DemoIssuer{}, "")
	crt := cart.NewManager(kv, 1)

	_, err := New(ctx, sess, crt, &fakeRecorder{}, &fakePublisher{}, &DemoGateway{})
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestNewRequiresNonEmptyCart(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.cart.Clear(ctx)

	_, err := New(ctx, fx.sess, fx.cart, fx.orders, fx.events, &DemoGateway{})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestProceedAndBack(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	flow := fx.start(t, &DemoGateway{})

	assert.Equal(t, StepOverview, flow.Step())

	require.NoError(t, flow.ProceedToPayment(ctx))
	assert.Equal(t, StepPayment, flow.Step())

	// a rejected reference is kept as inline error state
	err := flow.SubmitReference(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.NotEmpty(t, flow.Err())

	// going back discards the error and any entered reference
	require.NoError(t, flow.Back(ctx))
	assert.Equal(t, StepOverview, flow.Step())
	assert.Empty(t, flow.Reference())
	assert.Empty(t, flow.Err())
}

func TestTransitionsRejectWrongStep(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	flow := fx.start(t, &DemoGateway{})

	assert.Error(t, flow.Back(ctx), "cannot go back from OVERVIEW")
	assert.Error(t, flow.SubmitReference(ctx, "123456789012"), "cannot submit from OVERVIEW")

	require.NoError(t, flow.ProceedToPayment(ctx))
	assert.Error(t, flow.ProceedToPayment(ctx), "cannot proceed twice")
}

func TestReferenceValidation(t *testing.T) {
	cases := []struct {
		name      string
		reference string
		valid     bool
	}{
		{"twelve digits", "123456789012", true},
		{"all zeros", "000000000000", true},
		{"too short", "12345", false},
		{"too long", "1234567890123", false},
		{"letter in tail", "12345678901a", false},
		{"empty", "", false},
		{"embedded space", "123456 89012", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			fx := newFixture(t)
			flow := fx.start(t, &DemoGateway{})
			require.NoError(t, flow.ProceedToPayment(ctx))

			err := flow.SubmitReference(ctx, tc.reference)
			if tc.valid {
				require.NoError(t, err)
				assert.Equal(t, StepProcessing, flow.Step())
				assert.Equal(t, tc.reference, flow.Reference())
			} else {
				assert.ErrorIs(t, err, ErrInvalidReference)
				assert.Equal(t, StepPayment, flow.Step(), "invalid reference must not advance the flow")
				assert.NotEmpty(t, flow.Err())
				assert.Empty(t, fx.orders.orders, "no order may be recorded for an invalid reference")
			}
		})
	}
}

func TestSettlementCompletesCheckoutAndClearsCart(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	flow := fx.start(t, &DemoGateway{Delay: 5 * time.Millisecond})

	require.NoError(t, flow.ProceedToPayment(ctx))
	require.NoError(t, flow.SubmitReference(ctx, "123456789012"))
	assert.Equal(t, StepProcessing, flow.Step())

	waitDone(t, flow)

	assert.Equal(t, StepComplete, flow.Step())

	order := flow.Order()
	require.NotNil(t, order)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(11998)),
		"order total was %s", order.TotalAmount)
	assert.Equal(t, "123456789012", order.PaymentReference)

	// completion empties the cart, in storage too
	restored := cart.NewManager(fx.kv, order.UserID)
	restored.Restore(ctx)
	assert.Equal(t, 0, restored.Count())

	assert.Equal(t, []string{
		models.EventTypeOrderCreated,
		models.EventTypePaymentSubmitted,
		models.EventTypePaymentSettled,
	}, fx.events.published())
}

func TestGatewayRejectionReturnsToPayment(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	flow := fx.start(t, rejectGateway{})

	require.NoError(t, flow.ProceedToPayment(ctx))
	require.NoError(t, flow.SubmitReference(ctx, "123456789012"))

	waitDone(t, flow)

	assert.Equal(t, StepPayment, flow.Step())
	assert.NotEmpty(t, flow.Err())
	assert.Empty(t, flow.Reference())

	// the cart survives a rejected settlement
	fx.cart.Restore(ctx)
	assert.Equal(t, 2, fx.cart.Count())
}

func TestCancelAbortsSettlement(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	flow := fx.start(t, &DemoGateway{Delay: time.Minute})

	require.NoError(t, flow.ProceedToPayment(ctx))
	require.NoError(t, flow.SubmitReference(ctx, "123456789012"))

	flow.Cancel()
	waitDone(t, flow)

	assert.Equal(t, StepProcessing, flow.Step(), "a cancelled settlement leaves the flow where it was")

	fx.cart.Restore(ctx)
	assert.Equal(t, 2, fx.cart.Count(), "cancellation must not clear the cart")

	published := fx.events.published()
	assert.NotContains(t, published, models.EventTypePaymentSettled)
}

func TestOutOfBandLogoutBlocksTransitions(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	flow := fx.start(t, &DemoGateway{})

	fx.sess.Logout(ctx)

	err := flow.ProceedToPayment(ctx)
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestOutOfBandCartClearBlocksTransitions(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	flow := fx.start(t, &DemoGateway{})

	fx.cart.Clear(ctx)

	err := flow.ProceedToPayment(ctx)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestResubmitAfterRejectionSettles(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	flow := fx.start(t, &DemoGateway{Delay: 5 * time.Millisecond})

	require.NoError(t, flow.ProceedToPayment(ctx))
	assert.ErrorIs(t, flow.SubmitReference(ctx, "bad"), ErrInvalidReference)

	require.NoError(t, flow.SubmitReference(ctx, "999999999999"))
	waitDone(t, flow)

	assert.Equal(t, StepComplete, flow.Step())
	assert.Empty(t, flow.Err())
}

func TestFullPurchaseJourney(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()

	// login
	sess := session.NewManager(kv, &session.DemoIssuer{}, "")
	user, err := sess.Login(ctx, "journey@example.com", "pw")
	require.NoError(t, err)

	// pick one course
	crt := cart.NewManager(kv, user.ID)
	crt.Add(ctx, models.CartItem{ID: 5, Title: "Cloud Computing with AWS", Price: decimal.NewFromInt(6499)})
	require.Equal(t, 1, crt.Count())

	orders := &fakeRecorder{}
	events := &fakePublisher{}
	flow, err := New(ctx, sess, crt, orders, events, &DemoGateway{Delay: 5 * time.Millisecond})
	require.NoError(t, err)

	require.NoError(t, flow.ProceedToPayment(ctx))
	require.NoError(t, flow.SubmitReference(ctx, "424242424242"))
	waitDone(t, flow)

	require.Equal(t, StepComplete, flow.Step())
	require.Len(t, orders.orders, 1)
	assert.True(t, orders.orders[0].TotalAmount.Equal(decimal.NewFromInt(6499)))

	crt.Restore(ctx)
	assert.Equal(t, 0, crt.Count())
}
