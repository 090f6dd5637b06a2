// Package recovery implements passphrase-based escrow of the private key.
//
// At registration a 12-word passphrase is drawn from the BIP-39 English
// wordlist (2048 words, 128 bits of entropy plus checksum). An Argon2id key
// derived from the passphrase and a fresh random salt seals the encoded
// private key with XChaCha20-Poly1305. The resulting blob is safe to hand
// to the relay for indefinite storage: without the exact passphrase it is
// meaningless, and the salt and KDF parameters embedded in the blob make
// recovery self-contained.
//
// The passphrase is surfaced through a single-use Phrase value and is not
// retained by this package after creation.
package recovery
