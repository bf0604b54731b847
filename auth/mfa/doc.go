// Package mfa implements time-based one-time-password verification for
// login step-up, with hashed single-use backup codes as the fallback.
//
// TOTP secrets are encrypted before storage and backup codes are stored
// only as SHA-256 digests; the plaintext codes are returned exactly once
// at setup.
package mfa
