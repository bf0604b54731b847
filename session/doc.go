// Package session governs interactive login sessions: creation with a
// bounded lifetime, activity stamping, a per-user concurrency cap, and
// expired-session sweeps.
//
// The cap is a soft bound. EnforceLimit reads then deletes without a
// version check, so two concurrent logins may transiently exceed the
// limit by one until either caller runs again.
package session
