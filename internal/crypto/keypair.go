package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"io"

	"veilchat/internal/domain"
)

// KeyBits is the RSA modulus size for identity key pairs.
const KeyBits = 2048

// GenerateKeyPair returns a fresh RSA-2048 key pair encoded for transport:
// PKIX DER base64 for the public key, PKCS#8 DER base64 for the private key.
// random may be nil to use crypto/rand.
func GenerateKeyPair(random io.Reader) (domain.KeyPair, error) {
	if random == nil {
		random = rand.Reader
	}
	key, err := rsa.GenerateKey(random, KeyBits)
	if err != nil {
		return domain.KeyPair{}, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return domain.KeyPair{}, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	priv, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return domain.KeyPair{}, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	return domain.KeyPair{
		PublicKey:  B64(pub),
		PrivateKey: B64(priv),
	}, nil
}

// DecodePublicKey parses a base64 PKIX encoded RSA public key.
func DecodePublicKey(encoded string) (*rsa.PublicKey, error) {
	der, err := FromB64(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key", ErrMalformedKey)
	}
	return pub, nil
}

// DecodePrivateKey parses a base64 PKCS#8 encoded RSA private key.
func DecodePrivateKey(encoded string) (*rsa.PrivateKey, error) {
	der, err := FromB64(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA private key", ErrMalformedKey)
	}
	return priv, nil
}

// PublicKeyOf rebuilds the encoded public key from an encoded private key.
// Used after recovery, when only the private half came back from escrow.
func PublicKeyOf(privateKeyEncoded string) (string, error) {
	priv, err := DecodePrivateKey(privateKeyEncoded)
	if err != nil {
		return "", err
	}
	pub, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	return B64(pub), nil
}
