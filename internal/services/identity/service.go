package identity

import (
	"context"
	"fmt"
	"unicode"

	"veilchat/internal/crypto"
	"veilchat/internal/domain"
	"veilchat/internal/recovery"
)

// minPassphraseLength defines the minimum number of characters required for
// the local keystore passphrase.
const minPassphraseLength = 12

// ErrWeakPassphrase is returned when the local passphrase fails the strength
// policy.
var ErrWeakPassphrase = fmt.Errorf(
	"passphrase is too weak (must be at least %d characters and include upper, lower, "+
		"number, and symbol)",
	minPassphraseLength,
)

// RegisterResult is what a successful registration hands back to the caller:
// the fingerprint to verify out of band, and the recovery phrase, readable
// exactly once.
type RegisterResult struct {
	Fingerprint    domain.Fingerprint
	RecoveryPhrase *recovery.Phrase
}

// Service manages identity creation, registration and login.
type Service struct {
	ids      domain.IdentityStore
	sessions domain.SessionStore
	relay    domain.RelayClient
}

// New returns an identity service backed by the given stores and relay.
func New(ids domain.IdentityStore, sessions domain.SessionStore, relay domain.RelayClient) *Service {
	return &Service{ids: ids, sessions: sessions, relay: relay}
}

// Register creates a fresh identity and account.
//
// Flow: generate the RSA key pair, seal the private key into the passphrase
// escrow package, register {username, password, publicKey, wrappedPrivateKey}
// with the relay, then persist the identity locally encrypted under
// localPassphrase. The relay receives only the public key and the sealed
// escrow blob.
func (s *Service) Register(
	ctx context.Context,
	username domain.Username,
	password string,
	localPassphrase string,
) (RegisterResult, error) {
	if !isSecurePassphrase(localPassphrase) {
		return RegisterResult{}, ErrWeakPassphrase
	}

	keys, err := crypto.GenerateKeyPair(nil)
	if err != nil {
		return RegisterResult{}, err
	}
	pkg, err := recovery.CreatePackage(nil, keys.PrivateKey)
	if err != nil {
		return RegisterResult{}, err
	}

	sess, err := s.relay.Register(ctx, domain.RegisterRequest{
		Username:          username,
		Password:          password,
		PublicKey:         keys.PublicKey,
		WrappedPrivateKey: pkg.WrappedPrivateKey,
	})
	if err != nil {
		return RegisterResult{}, err
	}

	id := domain.Identity{Username: username, Keys: keys}
	if err := s.ids.SaveIdentity(localPassphrase, id); err != nil {
		return RegisterResult{}, err
	}
	if err := s.sessions.SaveSession(sess); err != nil {
		return RegisterResult{}, err
	}

	return RegisterResult{
		Fingerprint:    domain.Fingerprint(crypto.Fingerprint(keys.PublicKey)),
		RecoveryPhrase: pkg.Phrase,
	}, nil
}

// Login authenticates against the relay and stores the session token.
func (s *Service) Login(ctx context.Context, username domain.Username, password string) error {
	sess, err := s.relay.Login(ctx, username, password)
	if err != nil {
		return err
	}
	return s.sessions.SaveSession(sess)
}

// Fingerprint returns the fingerprint of the local public key.
func (s *Service) Fingerprint(localPassphrase string) (domain.Fingerprint, error) {
	id, err := s.ids.LoadIdentity(localPassphrase)
	if err != nil {
		return "", err
	}
	return domain.Fingerprint(crypto.Fingerprint(id.Keys.PublicKey)), nil
}

// FingerprintOf fetches a peer's public key from the relay and returns its
// fingerprint for out-of-band comparison.
func (s *Service) FingerprintOf(ctx context.Context, username domain.Username) (domain.Fingerprint, error) {
	pub, err := s.relay.FetchPublicKey(ctx, username)
	if err != nil {
		return "", err
	}
	return domain.Fingerprint(crypto.Fingerprint(pub)), nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}
