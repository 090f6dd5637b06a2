package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"veilchat/internal/domain"
	"veilchat/internal/util/memzero"
)

const (
	// ContentKeyBytes is the size of the one-time symmetric content key.
	ContentKeyBytes = 32
	// NonceBytes is the GCM nonce size.
	NonceBytes = 12
)

// Role selects which wrapped key an envelope is opened with.
type Role string

const (
	// RoleSender opens an envelope with the sender's private key.
	RoleSender Role = "sender"
	// RoleRecipient opens an envelope with the recipient's private key.
	RoleRecipient Role = "recipient"
)

// EncryptFor seals plaintext for both parties of a conversation.
//
// A fresh 256-bit content key and a fresh 96-bit nonce are generated per
// call, never reused. The plaintext is sealed with AES-256-GCM, then the
// content key is wrapped twice with RSA-OAEP/SHA-256: once under the
// sender's public key and once under the recipient's. The dual wrap lets
// the sender re-read their own sent messages on any device holding only
// their private key, without the relay ever learning the content key.
// random may be nil to use crypto/rand.
func EncryptFor(
	random io.Reader,
	plaintext []byte,
	kind domain.EnvelopeKind,
	senderPublicKey string,
	recipientPublicKey string,
) (domain.Envelope, error) {
	if random == nil {
		random = rand.Reader
	}
	if !kind.Valid() {
		return domain.Envelope{}, fmt.Errorf("%w: unknown kind %q", ErrEncryption, kind)
	}

	senderPub, err := DecodePublicKey(senderPublicKey)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("%w: sender key: %v", ErrEncryption, err)
	}
	recipientPub, err := DecodePublicKey(recipientPublicKey)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("%w: recipient key: %v", ErrEncryption, err)
	}

	contentKey := make([]byte, ContentKeyBytes)
	if _, err := io.ReadFull(random, contentKey); err != nil {
		return domain.Envelope{}, fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	defer memzero.Zero(contentKey)

	nonce := make([]byte, NonceBytes)
	if _, err := io.ReadFull(random, nonce); err != nil {
		return domain.Envelope{}, fmt.Errorf("%w: %v", ErrEncryption, err)
	}

	aead, err := newGCM(contentKey)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	senderWrapped, err := rsa.EncryptOAEP(sha256.New(), random, senderPub, contentKey, nil)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("%w: wrap for sender: %v", ErrEncryption, err)
	}
	recipientWrapped, err := rsa.EncryptOAEP(sha256.New(), random, recipientPub, contentKey, nil)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("%w: wrap for recipient: %v", ErrEncryption, err)
	}

	return domain.Envelope{
		Kind:         kind,
		Ciphertext:   B64(ciphertext),
		SenderKey:    B64(senderWrapped),
		RecipientKey: B64(recipientWrapped),
		Nonce:        B64(nonce),
		Timestamp:    time.Now().Unix(),
	}, nil
}

// Decrypt opens an envelope with the wrapped key matching role.
//
// Failure kinds are distinct: ErrKeyUnwrap when the private key does not
// recover the content key, ErrDecryption when the AEAD tag does not verify.
// Either way no partial plaintext is ever returned; callers render a
// neutral placeholder.
func Decrypt(env domain.Envelope, role Role, privateKeyEncoded string) ([]byte, error) {
	priv, err := DecodePrivateKey(privateKeyEncoded)
	if err != nil {
		return nil, err
	}

	var wrappedEncoded string
	switch role {
	case RoleSender:
		wrappedEncoded = env.SenderKey
	case RoleRecipient:
		wrappedEncoded = env.RecipientKey
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrMalformedEnvelope, role)
	}

	wrapped, err := FromB64(wrappedEncoded)
	if err != nil {
		return nil, fmt.Errorf("%w: wrapped key: %v", ErrMalformedEnvelope, err)
	}
	ciphertext, err := FromB64(env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext: %v", ErrMalformedEnvelope, err)
	}
	nonce, err := FromB64(env.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", ErrMalformedEnvelope, err)
	}
	if len(nonce) != NonceBytes {
		return nil, fmt.Errorf("%w: nonce size %d", ErrMalformedEnvelope, len(nonce))
	}

	contentKey, err := rsa.DecryptOAEP(sha256.New(), nil, priv, wrapped, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnwrap, err)
	}
	defer memzero.Zero(contentKey)
	if len(contentKey) != ContentKeyBytes {
		return nil, fmt.Errorf("%w: content key size %d", ErrKeyUnwrap, len(contentKey))
	}

	aead, err := newGCM(contentKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return plain, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
