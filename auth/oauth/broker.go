package oauth

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/cataloghq/idkit/errors"
	"github.com/cataloghq/idkit/httpclient"
	"github.com/cataloghq/idkit/logger"
	"github.com/cataloghq/idkit/observability"
)

// Broker owns the configured providers and the CSRF state lifecycle. It
// is the only type the rest of the core talks to for federated login.
type Broker struct {
	providers map[string]Provider
	sealer    *StateSealer
	tracer    trace.Tracer
	log       *logger.Logger
}

// NewBroker builds providers from config and wires them to one shared
// HTTP client.
func NewBroker(cfg Config, log *logger.Logger) (*Broker, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.InvalidConfig(err.Error())
	}
	if log == nil {
		log = logger.Get("oauth")
	}

	client, err := httpclient.New(httpclient.Config{Timeout: cfg.HTTPTimeout, TLS: cfg.TLS})
	if err != nil {
		return nil, err
	}

	providers := make(map[string]Provider, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		switch pc.Kind {
		case KindGoogle:
			providers[name] = NewGoogle(name, pc, client)
		case KindGitHub:
			providers[name] = NewGitHub(name, pc, client)
		case KindOIDC:
			providers[name] = NewOIDC(name, pc, client)
		}
	}

	return &Broker{
		providers: providers,
		sealer:    NewStateSealer(cfg.StateSecret, cfg.StateMaxAge),
		tracer:    otel.Tracer("idkit/auth/oauth"),
		log:       log,
	}, nil
}

// Provider returns the named provider.
func (b *Broker) Provider(name string) (Provider, error) {
	p, ok := b.providers[name]
	if !ok {
		return nil, apperrors.NotFound("unknown identity provider: " + name)
	}
	return p, nil
}

// Providers lists the configured provider names.
func (b *Broker) Providers() []string {
	names := make([]string, 0, len(b.providers))
	for name := range b.providers {
		names = append(names, name)
	}
	return names
}

// BeginFlow seals a state token and returns the provider authorization
// URL to redirect the user to. OIDC providers resolve their endpoints
// here on first use.
func (b *Broker) BeginFlow(ctx context.Context, providerName, redirectURI string) (authURL, state string, err error) {
	p, err := b.Provider(providerName)
	if err != nil {
		return "", "", err
	}
	state, err = b.sealer.Seal(providerName, redirectURI)
	if err != nil {
		return "", "", apperrors.Internal("seal authorization state").WithCause(err)
	}

	opts := []AuthURLOption{}
	if redirectURI != "" {
		opts = append(opts, WithRedirectURI(redirectURI))
	}
	authURL, err = p.AuthURL(ctx, state, opts...)
	if err != nil {
		return "", "", err
	}
	return authURL, state, nil
}

// CompleteFlow validates the callback state, exchanges the code, and
// fetches the normalized profile.
func (b *Broker) CompleteFlow(ctx context.Context, providerName, state, code string) (*Profile, *Token, error) {
	ctx, span := b.tracer.Start(ctx, "oauth.CompleteFlow",
		trace.WithAttributes(attribute.String("oauth.provider", providerName)))
	defer span.End()

	p, err := b.Provider(providerName)
	if err != nil {
		return nil, nil, err
	}

	st, err := b.sealer.Verify(state, providerName)
	if err != nil {
		b.log.Warn("rejected oauth callback state", logger.Fields(
			logger.FieldProvider, providerName,
			logger.FieldError, err.Error(),
		))
		return nil, nil, err
	}

	var opts []ExchangeOption
	if st.RedirectURI != "" {
		opts = append(opts, WithExchangeRedirectURI(st.RedirectURI))
	}
	tok, err := p.Exchange(ctx, code, opts...)
	if err != nil {
		observability.SpanError(ctx, err)
		return nil, nil, err
	}

	profile, err := p.FetchProfile(ctx, tok.AccessToken)
	if err != nil {
		observability.SpanError(ctx, err)
		return nil, nil, err
	}

	b.log.Info("completed oauth flow", logger.Fields(
		logger.FieldProvider, providerName,
		logger.FieldEmail, profile.Email,
	))
	return profile, tok, nil
}

// VerifyState exposes state verification for callers that manage the
// exchange themselves.
func (b *Broker) VerifyState(state, providerName string) (*State, error) {
	return b.sealer.Verify(state, providerName)
}
