package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/cataloghq/idkit/errors"
	"github.com/cataloghq/idkit/logger"
	"github.com/cataloghq/idkit/store"
)

// Governor manages the lifecycle of login sessions.
type Governor struct {
	sessions store.Sessions
	cfg      Config
	log      *logger.Logger
	now      func() time.Time
}

// NewGovernor creates a governor over the given session store.
func NewGovernor(cfg Config, sessions store.Sessions, log *logger.Logger) (*Governor, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Get("session")
	}
	return &Governor{
		sessions: sessions,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}, nil
}

// Timeout returns the configured session lifetime.
func (g *Governor) Timeout() time.Duration {
	return g.cfg.SessionTimeout
}

// Create records a new session for the user and returns it. The caller
// is expected to follow up with EnforceLimit.
func (g *Governor) Create(ctx context.Context, email, ipAddress, userAgent string) (*store.Session, error) {
	now := g.now().UTC()
	s := &store.Session{
		SessionID:    uuid.NewString(),
		UserEmail:    email,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(g.cfg.SessionTimeout),
	}
	if err := g.sessions.CreateSession(ctx, s); err != nil {
		return nil, apperrors.StoreError("create session").WithCause(err)
	}
	g.log.Debug("session created", logger.Fields(
		logger.FieldEmail, email,
		logger.FieldSessionID, s.SessionID,
	))
	return s, nil
}

// EnforceLimit evicts the user's oldest sessions until the count is
// within the configured cap. Returns the number of evicted sessions.
func (g *Governor) EnforceLimit(ctx context.Context, email string) (int, error) {
	all, err := g.sessions.ListSessions(ctx, email)
	if err != nil {
		return 0, apperrors.StoreError("list sessions").WithCause(err)
	}
	if len(all) <= g.cfg.MaxConcurrentSessions {
		return 0, nil
	}

	// ListSessions orders by last activity, newest first. The tail past
	// the cap is the eviction set.
	excess := all[g.cfg.MaxConcurrentSessions:]
	ids := make([]string, len(excess))
	for i, s := range excess {
		ids[i] = s.SessionID
	}
	if err := g.sessions.DeleteSessions(ctx, ids); err != nil {
		return 0, apperrors.StoreError("evict sessions").WithCause(err)
	}
	g.log.Info("evicted sessions over the concurrency cap", logger.Fields(
		logger.FieldEmail, email,
		"evicted", len(ids),
	))
	return len(ids), nil
}

// Touch stamps the session's last activity.
func (g *Governor) Touch(ctx context.Context, sessionID string) error {
	err := g.sessions.TouchSession(ctx, sessionID, g.now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("session " + sessionID)
		}
		return apperrors.StoreError("touch session").WithCause(err)
	}
	return nil
}

// Get returns a session by id.
func (g *Governor) Get(ctx context.Context, sessionID string) (*store.Session, error) {
	s, err := g.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("session " + sessionID)
		}
		return nil, apperrors.StoreError("get session").WithCause(err)
	}
	return s, nil
}

// List returns the user's sessions, most recently active first.
func (g *Governor) List(ctx context.Context, email string) ([]*store.Session, error) {
	all, err := g.sessions.ListSessions(ctx, email)
	if err != nil {
		return nil, apperrors.StoreError("list sessions").WithCause(err)
	}
	return all, nil
}

// DeleteExpired removes sessions past their expiry and returns the
// count. Safe to run repeatedly.
func (g *Governor) DeleteExpired(ctx context.Context) (int, error) {
	n, err := g.sessions.DeleteExpiredSessions(ctx, g.now().UTC())
	if err != nil {
		return 0, apperrors.StoreError("delete expired sessions").WithCause(err)
	}
	if n > 0 {
		g.log.Info("swept expired sessions", logger.Fields("deleted", n))
	}
	return n, nil
}

// DeleteUserSessions removes every session belonging to the user.
func (g *Governor) DeleteUserSessions(ctx context.Context, email string) (int, error) {
	n, err := g.sessions.DeleteUserSessions(ctx, email)
	if err != nil {
		return 0, apperrors.StoreError("delete user sessions").WithCause(err)
	}
	return n, nil
}
