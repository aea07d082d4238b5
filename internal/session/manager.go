// Package session owns the current authenticated-user identity for one
// client session. Identity is persisted through the kvstore adapter so it
// survives reloads, and is fabricated by an IdentityIssuer in this build.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dhir4j/skillnation/internal/kvstore"
	"github.com/dhir4j/skillnation/internal/models"
	"github.com/dhir4j/skillnation/internal/util"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrServiceUnavailable = errors.New("auth service unavailable")
)

// Manager holds the current user for one client session, keyed by bearer
// token. Consumers read the user; only the manager mutates it.
type Manager struct {
	store   kvstore.Store
	issuer  IdentityIssuer
	token   string
	current *models.User
	loading bool
	logger  *zap.Logger
}

// NewManager creates a session manager. An empty token means a fresh session;
// a token is issued on the first successful login or register.
func NewManager(store kvstore.Store, issuer IdentityIssuer, token string) *Manager {
	return &Manager{
		store:   store,
		issuer:  issuer,
		token:   token,
		loading: true,
		logger:  util.NamedLogger("session"),
	}
}

func (m *Manager) sessionKey() string {
	return fmt.Sprintf("session:%s", m.token)
}

// Restore loads the persisted user for this token. A corrupt payload is
// removed and treated as absent; no error ever reaches the caller. The
// loading flag is cleared exactly once per call, on every path.
func (m *Manager) Restore(ctx context.Context) {
	defer func() { m.loading = false }()

	if m.token == "" {
		return
	}

	raw, ok := m.store.Get(ctx, m.sessionKey())
	if !ok {
		m.current = nil
		return
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.ID == 0 {
		m.logger.Warn("discarding corrupt session payload", zap.Error(err))
		m.store.Remove(ctx, m.sessionKey())
		m.current = nil
		return
	}

	m.current = &user
}

// Login authenticates with email and password. The demo issuer accepts any
// non-empty credentials after a simulated round trip; callers must not
// assume the password was verified.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "session.Login")
	defer span.End()

	result, err := m.issuer.Issue(ctx, IssueRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("identity issuance failed: %w", err)
	}
	if err := m.establish(ctx, result); err != nil {
		return nil, err
	}

	util.LoginsTotal.Inc()
	m.logger.Info("User logged in", zap.Int64("user_id", m.current.ID))
	return m.current, nil
}

// Register creates and authenticates a new identity with the supplied name.
func (m *Manager) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "session.Register")
	defer span.End()

	result, err := m.issuer.Issue(ctx, IssueRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("identity issuance failed: %w", err)
	}
	if err := m.establish(ctx, result); err != nil {
		return nil, err
	}

	util.RegistrationsTotal.Inc()
	m.logger.Info("User registered", zap.Int64("user_id", m.current.ID))
	return m.current, nil
}

func (m *Manager) establish(ctx context.Context, result IssueResult) error {
	switch result.Outcome {
	case OutcomeAuthenticated:
	case OutcomeInvalidCredentials:
		return ErrInvalidCredentials
	default:
		return ErrServiceUnavailable
	}

	if m.token == "" {
		m.token = uuid.New().String()
	}

	payload, err := json.Marshal(result.User)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	m.store.Set(ctx, m.sessionKey(), string(payload))

	m.current = result.User
	m.loading = false
	return nil
}

// Logout clears the persisted session and the current user. Calling it when
// already logged out is a no-op success.
func (m *Manager) Logout(ctx context.Context) {
	if m.current == nil && m.token == "" {
		return
	}
	if m.token != "" {
		m.store.Remove(ctx, m.sessionKey())
	}
	if m.current != nil {
		util.LogoutsTotal.Inc()
		m.logger.Info("User logged out", zap.Int64("user_id", m.current.ID))
	}
	m.current = nil
}

// User returns the current user, or nil when logged out
func (m *Manager) User() *models.User {
	return m.current
}

// Token returns the bearer token for this session, empty until first login
func (m *Manager) Token() string {
	return m.token
}

// Loading reports whether the initial restore has not yet completed
func (m *Manager) Loading() bool {
	return m.loading
}
