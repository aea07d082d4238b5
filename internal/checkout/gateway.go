package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrPaymentNotFound is returned by a gateway that could not match the
// submitted reference to a received payment.
var ErrPaymentNotFound = errors.New("payment not found")

// SettlementGateway confirms that a submitted payment reference settled.
// Settle blocks until confirmation or ctx cancellation. The demo gateway
// below accepts anything; a production gateway verifies against the payment
// provider and returns ErrPaymentNotFound on mismatch, which sends the flow
// back to the payment step.
type SettlementGateway interface {
	Settle(ctx context.Context, reference string, amount decimal.Decimal) error
}

// DemoGateway settles every reference after a fixed delay. No verification
// happens; the delay stands in for the provider's asynchronous confirmation.
type DemoGateway struct {
	Delay time.Duration
}

func (g *DemoGateway) Settle(ctx context.Context, _ string, _ decimal.Decimal) error {
	if g.Delay <= 0 {
		return nil
	}
	select {
	case <-time.After(g.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
