package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/cataloghq/idkit/auth"
	"github.com/cataloghq/idkit/auth/mfa"
	"github.com/cataloghq/idkit/auth/oauth"
	"github.com/cataloghq/idkit/auth/password"
	"github.com/cataloghq/idkit/auth/token"
	"github.com/cataloghq/idkit/authz"
	"github.com/cataloghq/idkit/encryption"
	"github.com/cataloghq/idkit/logger"
	"github.com/cataloghq/idkit/observability"
	"github.com/cataloghq/idkit/session"
	"github.com/cataloghq/idkit/store"
)

// Core is the assembled identity core. Every field is live and safe
// for concurrent use.
type Core struct {
	Name    string
	Version string

	Store    store.Store
	Hasher   password.Hasher
	Crypt    *encryption.TokenEncryption
	Issuer   *token.Service
	Broker   *oauth.Broker
	Resolver *authz.Resolver
	Sessions *session.Governor
	MFA      *mfa.Verifier
	Auth     *auth.Authenticator

	Logger *logger.Logger

	tracing       *sdktrace.TracerProvider
	sweepInterval time.Duration
	stopSweep     chan struct{}
	sweepOnce     sync.Once
	wg            sync.WaitGroup
}

// New validates the configuration and wires every subsystem in
// dependency order.
func New(cfg Config, opts ...Option) (*Core, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	o := resolveOptions(opts)

	log := o.logger
	if log == nil {
		logger.Init(cfg.Logging)
		log = logger.Get("bootstrap")
	}

	st := o.store
	if st == nil {
		st = store.NewMemory()
		log.Warn("no store injected, using the in-memory store")
	}

	var tracing *sdktrace.TracerProvider
	if cfg.Tracing != nil {
		tp, err := observability.InitTracer(context.Background(), cfg.Name, cfg.Version, *cfg.Tracing, log)
		if err != nil {
			return nil, err
		}
		tracing = tp
	}

	enc, err := encryption.New(cfg.Encryption)
	if err != nil {
		return nil, err
	}
	crypt := encryption.NewTokenEncryption(enc, nil)

	issuer, err := token.NewService(cfg.Auth.Token)
	if err != nil {
		return nil, err
	}
	hasher := password.NewHasher(cfg.Auth.Password)
	resolver := authz.NewResolver(st, nil)

	governor, err := session.NewGovernor(cfg.Sessions, st, nil)
	if err != nil {
		return nil, err
	}
	verifier, err := mfa.NewVerifier(cfg.Auth.MFA, st, crypt, nil)
	if err != nil {
		return nil, err
	}

	var broker *oauth.Broker
	if cfg.Auth.OAuth != nil && len(cfg.Auth.OAuth.Providers) > 0 {
		broker, err = oauth.NewBroker(*cfg.Auth.OAuth, nil)
		if err != nil {
			return nil, err
		}
	}

	authenticator, err := auth.New(auth.Deps{
		Store:    st,
		Issuer:   issuer,
		Hasher:   hasher,
		Resolver: resolver,
		Sessions: governor,
		MFA:      verifier,
		Broker:   broker,
		Crypt:    crypt,
	})
	if err != nil {
		return nil, err
	}

	core := &Core{
		Name:          cfg.Name,
		Version:       cfg.Version,
		Store:         st,
		Hasher:        hasher,
		Crypt:         crypt,
		Issuer:        issuer,
		Broker:        broker,
		Resolver:      resolver,
		Sessions:      governor,
		MFA:           verifier,
		Auth:          authenticator,
		Logger:        log,
		tracing:       tracing,
		sweepInterval: o.sweepInterval,
		stopSweep:     make(chan struct{}),
	}

	NewSummary(&cfg, broker).Display(log)
	core.startSweeper()
	return core, nil
}

// startSweeper runs the periodic cleanup of expired sessions and token
// metadata. Disabled when the interval is zero.
func (c *Core) startSweeper() {
	if c.sweepInterval <= 0 {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Sweep(context.Background())
			case <-c.stopSweep:
				return
			}
		}
	}()
}

// Sweep removes expired sessions and token metadata once. The periodic
// sweeper calls this on its interval; callers can also run it manually.
func (c *Core) Sweep(ctx context.Context) {
	sessions, err := c.Sessions.DeleteExpired(ctx)
	if err != nil {
		c.Logger.Warn("session sweep failed", logger.Fields(logger.FieldError, err.Error()))
	}
	tokens, err := c.Store.DeleteExpiredTokens(ctx, time.Now().UTC())
	if err != nil {
		c.Logger.Warn("token metadata sweep failed", logger.Fields(logger.FieldError, err.Error()))
	}
	if sessions > 0 || tokens > 0 {
		c.Logger.Info("sweep complete", logger.Fields(
			"sessions_deleted", sessions,
			"tokens_deleted", tokens,
		))
	}
}

// Close stops the background sweeper and flushes any pending trace
// export. Safe to call more than once.
func (c *Core) Close() {
	c.sweepOnce.Do(func() { close(c.stopSweep) })
	c.wg.Wait()
	if c.tracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.tracing.Shutdown(ctx); err != nil {
			c.Logger.Warn("trace export shutdown failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}
}
