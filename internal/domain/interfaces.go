package domain

import "context"

// RelayClient is how the client talks to the relay server, all with context.
// The relay only ever sees ciphertext, public keys and escrow blobs.
type RelayClient interface {
	Register(ctx context.Context, req RegisterRequest) (Session, error)
	Login(ctx context.Context, username Username, password string) (Session, error)
	RecoverAccount(ctx context.Context, username Username, newPassword string) (RecoverResponse, error)

	FetchPublicKey(ctx context.Context, username Username) (string, error)

	SendEnvelope(ctx context.Context, token string, env Envelope) error
	FetchEnvelopes(ctx context.Context, token string, peer Username, limit int) ([]Envelope, error)
	Conversations(ctx context.Context, token string) ([]Conversation, error)
	DeleteEnvelope(ctx context.Context, token string, id string) error

	// Subscribe yields envelopes addressed to the session's user as they
	// arrive. The channel closes when ctx is cancelled or the connection
	// drops; delivery is best effort and callers reconcile with
	// FetchEnvelopes.
	Subscribe(ctx context.Context, token string) (<-chan Envelope, error)
}

// IdentityStore persists the local identity, encrypted at rest under the
// local passphrase.
type IdentityStore interface {
	SaveIdentity(passphrase string, id Identity) error
	LoadIdentity(passphrase string) (Identity, error)
}

// SessionStore persists the current relay session token.
type SessionStore interface {
	SaveSession(s Session) error
	LoadSession() (Session, bool, error)
	ClearSession() error
}
