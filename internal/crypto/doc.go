// Package crypto implements the message-level cryptography used by veilchat.
//
// Contents
//
//   - RSA-2048 identity key pairs with base64 DER encoding
//     (GenerateKeyPair, DecodePublicKey, DecodePrivateKey)
//   - Hybrid dual-wrap message encryption: a fresh AES-256-GCM content key
//     per message, wrapped with RSA-OAEP/SHA-256 for both sender and
//     recipient (EncryptFor, Decrypt)
//   - Public-key fingerprints for out-of-band identity verification
//     (Fingerprint)
//
// # Notes
//
// All operations are stateless, single-shot transforms and safe for
// concurrent use. Functions that consume randomness accept an io.Reader so
// tests can supply a deterministic source; nil selects crypto/rand. Callers
// should treat returned secrets as sensitive and rely on memzero.Zero when
// practical to reduce their lifetime in memory.
package crypto
