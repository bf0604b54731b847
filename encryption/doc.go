// Package encryption protects secrets at rest: OAuth provider tokens and
// TOTP seeds are encrypted before they reach the store.
//
// Two AEAD ciphers are available behind the Encryptor interface,
// AES-256-GCM (default) and ChaCha20-Poly1305. TokenEncryption wraps an
// Encryptor with the nil-transparent contract the rest of the core relies
// on: encrypting nil yields nil, and decryption never fails the caller.
// Values written before the current scheme went through a double
// base64 encoding; DecryptToken still understands them.
package encryption
