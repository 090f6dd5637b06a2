package message

import (
	"context"
	"errors"
	"fmt"

	"veilchat/internal/crypto"
	"veilchat/internal/domain"
)

// ErrNotLoggedIn indicates there is no stored relay session.
var ErrNotLoggedIn = errors.New("not logged in; run register or login first")

// Service sends and receives messages over the relay using the hybrid
// dual-wrap cipher.
type Service struct {
	ids      domain.IdentityStore
	sessions domain.SessionStore
	relay    domain.RelayClient
}

// New constructs a message service with the given stores and relay client.
func New(ids domain.IdentityStore, sessions domain.SessionStore, relay domain.RelayClient) *Service {
	return &Service{ids: ids, sessions: sessions, relay: relay}
}

// Send encrypts plaintext for the peer and posts the envelope.
//
// The peer's public key is fetched from the relay, the payload is sealed
// under a one-time content key wrapped for both us and the peer, and only
// ciphertext plus wrapped keys leave the device.
func (s *Service) Send(
	ctx context.Context,
	localPassphrase string,
	to domain.Username,
	kind domain.EnvelopeKind,
	plaintext []byte,
) error {
	id, err := s.ids.LoadIdentity(localPassphrase)
	if err != nil {
		return err
	}
	sess, ok, err := s.sessions.LoadSession()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotLoggedIn
	}

	peerPub, err := s.relay.FetchPublicKey(ctx, to)
	if err != nil {
		return fmt.Errorf("fetch public key for %q: %w", to, err)
	}

	env, err := crypto.EncryptFor(nil, plaintext, kind, id.Keys.PublicKey, peerPub)
	if err != nil {
		return err
	}
	env.From = id.Username
	env.To = to
	return s.relay.SendEnvelope(ctx, sess.Token, env)
}

// Receive fetches up to limit envelopes exchanged with peer and decrypts
// them.
//
// Our role per envelope depends on direction: envelopes we sent are opened
// via the sender-wrapped key, envelopes addressed to us via the
// recipient-wrapped key. A decrypt failure does not abort the batch: the
// message is returned with DecryptErr set and empty plaintext, so the
// caller can render a placeholder while telemetry still sees the distinct
// failure kind.
func (s *Service) Receive(
	ctx context.Context,
	localPassphrase string,
	peer domain.Username,
	limit int,
) ([]domain.DecryptedMessage, error) {
	id, err := s.ids.LoadIdentity(localPassphrase)
	if err != nil {
		return nil, err
	}
	sess, ok, err := s.sessions.LoadSession()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotLoggedIn
	}

	envs, err := s.relay.FetchEnvelopes(ctx, sess.Token, peer, limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.DecryptedMessage, 0, len(envs))
	for _, env := range envs {
		role := crypto.RoleRecipient
		if env.From == id.Username {
			role = crypto.RoleSender
		}

		msg := domain.DecryptedMessage{
			From:      env.From,
			To:        env.To,
			Kind:      env.Kind,
			Timestamp: env.Timestamp,
		}
		plain, err := crypto.Decrypt(env, role, id.Keys.PrivateKey)
		if err != nil {
			msg.DecryptErr = err
		} else {
			msg.Plaintext = plain
		}
		out = append(out, msg)
	}
	return out, nil
}

// Watch subscribes to live delivery and decrypts envelopes as they
// arrive. The returned channel closes when ctx is cancelled or the
// subscription drops; callers reconcile missed messages with Receive.
func (s *Service) Watch(ctx context.Context, localPassphrase string) (<-chan domain.DecryptedMessage, error) {
	id, err := s.ids.LoadIdentity(localPassphrase)
	if err != nil {
		return nil, err
	}
	sess, ok, err := s.sessions.LoadSession()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotLoggedIn
	}

	envs, err := s.relay.Subscribe(ctx, sess.Token)
	if err != nil {
		return nil, err
	}

	out := make(chan domain.DecryptedMessage)
	go func() {
		defer close(out)
		for env := range envs {
			msg := domain.DecryptedMessage{
				From:      env.From,
				To:        env.To,
				Kind:      env.Kind,
				Timestamp: env.Timestamp,
			}
			plain, err := crypto.Decrypt(env, crypto.RoleRecipient, id.Keys.PrivateKey)
			if err != nil {
				msg.DecryptErr = err
			} else {
				msg.Plaintext = plain
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Conversations lists message history summaries for the logged-in user.
func (s *Service) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	sess, ok, err := s.sessions.LoadSession()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return s.relay.Conversations(ctx, sess.Token)
}

// Delete tombstones a message on the relay. The envelope itself is
// immutable; deletion is a flag owned by the storage layer.
func (s *Service) Delete(ctx context.Context, id string) error {
	sess, ok, err := s.sessions.LoadSession()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotLoggedIn
	}
	return s.relay.DeleteEnvelope(ctx, sess.Token, id)
}
