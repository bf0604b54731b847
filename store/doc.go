// Package store defines the graph-store collaborator contract for the
// identity core and provides an in-memory reference implementation.
//
// The production backing store is a property graph: principals, roles,
// groups, permissions, and credentials are nodes connected by HAS_ROLE,
// MEMBER_OF, ASSIGNED_ROLE, INHERITS_FROM, GRANTS, CAN_ACCESS, ISSUED_TO,
// SESSION_FOR, MFA_FOR and OWNED_BY relationships, keyed by unique fields
// (email, slug, jti, key_id). The identity core only depends on the
// interfaces in this package; wiring a real graph driver happens outside.
//
// Memory implements the full contract behind a mutex and is used by tests
// and single-process deployments.
package store
