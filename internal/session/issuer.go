package session

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dhir4j/skillnation/internal/models"
)

// Outcome is the tagged result of an identity issuance attempt.
type Outcome int

const (
	OutcomeAuthenticated Outcome = iota
	OutcomeInvalidCredentials
	OutcomeServiceUnavailable
)

// IssueRequest carries the submitted credentials. Name is empty on login and
// set on register.
type IssueRequest struct {
	Name     string
	Email    string
	Password string
}

// IssueResult carries the outcome and, when authenticated, the user record.
type IssueResult struct {
	Outcome Outcome
	User    *models.User
}

// IdentityIssuer converts submitted credentials into an identity. The demo
// issuer fabricates one; a real implementation verifies against a credential
// store and may return InvalidCredentials or ServiceUnavailable.
type IdentityIssuer interface {
	Issue(ctx context.Context, req IssueRequest) (IssueResult, error)
}

// DemoIssuer fabricates a trusted identity from unverified input after a
// simulated network round trip. It never rejects non-empty credentials; the
// password is not inspected at all.
type DemoIssuer struct {
	// Latency models the network round trip of a real auth service.
	Latency time.Duration
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// lastIssuedID keeps fabricated IDs strictly increasing: two issuances within
// the same millisecond must not share an identity.
var lastIssuedID int64

func nextID(ts time.Time) int64 {
	id := ts.UnixMilli()
	for {
		prev := atomic.LoadInt64(&lastIssuedID)
		if id <= prev {
			id = prev + 1
		}
		if atomic.CompareAndSwapInt64(&lastIssuedID, prev, id) {
			return id
		}
	}
}

func (d *DemoIssuer) Issue(ctx context.Context, req IssueRequest) (IssueResult, error) {
	if req.Email == "" || req.Password == "" {
		return IssueResult{Outcome: OutcomeInvalidCredentials}, nil
	}

	if d.Latency > 0 {
		select {
		case <-time.After(d.Latency):
		case <-ctx.Done():
			return IssueResult{}, ctx.Err()
		}
	}

	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	ts := now()

	name := req.Name
	if name == "" {
		// login has no name field; use the local part of the email
		name = strings.SplitN(req.Email, "@", 2)[0]
	}

	return IssueResult{
		Outcome: OutcomeAuthenticated,
		User: &models.User{
			ID:        nextID(ts),
			Name:      name,
			Email:     req.Email,
			CreatedAt: ts,
		},
	}, nil
}
