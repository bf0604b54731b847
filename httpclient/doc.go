// Package httpclient is the outbound HTTP client used to reach OAuth
// token, userinfo, and discovery endpoints.
//
// It wraps net/http with a declarative Request type, per-client defaults
// (base URL, headers, auth), and typed error classification so callers can
// distinguish connection failures from 4xx/5xx responses without reading
// status codes inline.
package httpclient
