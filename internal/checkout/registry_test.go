package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryPutGetRemove(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Get(1)
	assert.False(t, ok)

	fx := newFixture(t)
	flow := fx.start(t, &DemoGateway{})
	r.Put(1, flow)

	got, ok := r.Get(1)
	require.True(t, ok)
	assert.Same(t, flow, got)

	_, ok = r.Get(2)
	assert.False(t, ok, "flows are per user")

	r.Remove(1)
	_, ok = r.Get(1)
	assert.False(t, ok)

	// removing an absent entry is a no-op
	r.Remove(1)
}

func TestRegistryRemoveCancelsInFlightSettlement(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	fx := newFixture(t)
	flow := fx.start(t, &DemoGateway{Delay: time.Minute})
	require.NoError(t, flow.ProceedToPayment(ctx))
	require.NoError(t, flow.SubmitReference(ctx, "123456789012"))

	r.Put(fx.sess.User().ID, flow)
	r.Remove(fx.sess.User().ID)

	waitDone(t, flow)
	assert.NotEqual(t, StepComplete, flow.Step())
}
