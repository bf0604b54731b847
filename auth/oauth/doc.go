// Package oauth brokers federated login against OAuth2 and OIDC identity
// providers.
//
// Google and GitHub are built in with their published endpoints; any
// standards-compliant provider works through the generic OIDC
// implementation, which discovers its endpoints from
// {issuer}/.well-known/openid-configuration and caches the result.
//
// CSRF state is a short-lived signed JWT carrying the provider name, a
// nonce, and the redirect URI, so the callback can be validated without
// server-side state. Profiles from all providers are normalized to the
// same Profile shape before the rest of the core sees them.
package oauth
