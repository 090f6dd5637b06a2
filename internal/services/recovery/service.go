package recovery

import (
	"context"
	"fmt"

	"veilchat/internal/crypto"
	"veilchat/internal/domain"
	escrow "veilchat/internal/recovery"
)

// ErrMalformedPassphrase is returned by the structural pre-check before any
// network call: wrong word count or a word outside the known wordlist.
var ErrMalformedPassphrase = fmt.Errorf(
	"recovery passphrase must be %d words from the recovery wordlist", escrow.PhraseWords,
)

// Service rebuilds an identity from the relay-held escrow blob.
type Service struct {
	ids      domain.IdentityStore
	sessions domain.SessionStore
	relay    domain.RelayClient
}

// New returns a recovery service backed by the given stores and relay.
func New(ids domain.IdentityStore, sessions domain.SessionStore, relay domain.RelayClient) *Service {
	return &Service{ids: ids, sessions: sessions, relay: relay}
}

// Recover restores the account on this device.
//
// Flow: reset the account password on the relay (which returns the escrowed
// wrapped private key and a fresh session), open the escrow blob locally
// with the user's recovery passphrase, rebuild the key pair and persist it
// encrypted under newLocalPassphrase. This is the only path that
// reconstructs a private key on a new device.
func (s *Service) Recover(
	ctx context.Context,
	username domain.Username,
	newPassword string,
	passphrase string,
	newLocalPassphrase string,
) (domain.Fingerprint, error) {
	if !escrow.ValidatePassphrase(passphrase) {
		return "", ErrMalformedPassphrase
	}

	resp, err := s.relay.RecoverAccount(ctx, username, newPassword)
	if err != nil {
		return "", err
	}

	privateKey, err := escrow.RecoverPrivateKey(resp.WrappedPrivateKey, passphrase)
	if err != nil {
		return "", err
	}
	publicKey, err := crypto.PublicKeyOf(privateKey)
	if err != nil {
		return "", err
	}

	id := domain.Identity{
		Username: username,
		Keys:     domain.KeyPair{PublicKey: publicKey, PrivateKey: privateKey},
	}
	if err := s.ids.SaveIdentity(newLocalPassphrase, id); err != nil {
		return "", err
	}
	if err := s.sessions.SaveSession(domain.Session{Username: username, Token: resp.Token}); err != nil {
		return "", err
	}
	return domain.Fingerprint(crypto.Fingerprint(publicKey)), nil
}

// CheckPassphrase reports whether a candidate passphrase is structurally
// plausible. It is a UX pre-check only; correctness is proven by Recover.
func (s *Service) CheckPassphrase(candidate string) bool {
	return escrow.ValidatePassphrase(candidate)
}
