package crypto

import "errors"

var (
	// ErrKeyGeneration is returned when the randomness source or the RSA
	// algorithm is unavailable. Retrying does not help.
	ErrKeyGeneration = errors.New("key generation failed")

	// ErrMalformedKey is returned when an encoded key cannot be decoded.
	ErrMalformedKey = errors.New("malformed key")

	// ErrMalformedEnvelope is returned when an envelope field is not valid
	// base64 or has an impossible size.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrEncryption is returned when sealing a message fails, including
	// when either public key is malformed.
	ErrEncryption = errors.New("encryption failed")

	// ErrKeyUnwrap is returned when the wrapped content key cannot be
	// recovered with the given private key (wrong key, corruption or
	// tampering).
	ErrKeyUnwrap = errors.New("content key unwrap failed")

	// ErrDecryption is returned when the AEAD tag does not verify
	// (tampered or corrupted envelope). No partial plaintext is returned.
	ErrDecryption = errors.New("decryption failed")
)
