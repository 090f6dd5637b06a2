package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"veilchat/internal/crypto"
	"veilchat/internal/domain"
)

// FakeRelay is an in-memory domain.RelayClient with the same observable
// behaviour as the real relay: accounts, bearer tokens, envelope storage
// with tombstones and unread counts. It never inspects ciphertext.
type FakeRelay struct {
	mu       sync.Mutex
	accounts map[domain.Username]*fakeAccount
	tokens   map[string]domain.Username
	messages []domain.Envelope
	deleted  map[string]bool
	unread   map[domain.Username]map[domain.Username]int64
	subs     map[domain.Username][]chan domain.Envelope
	nextTok  int
	nextID   int
}

type fakeAccount struct {
	password          string
	publicKey         string
	wrappedPrivateKey string
	createdAt         int64
}

var errFakeUnauthorized = errors.New("fake relay: unauthorized")

// NewFakeRelay returns an empty in-memory relay.
func NewFakeRelay() *FakeRelay {
	return &FakeRelay{
		accounts: make(map[domain.Username]*fakeAccount),
		tokens:   make(map[string]domain.Username),
		deleted:  make(map[string]bool),
		unread:   make(map[domain.Username]map[domain.Username]int64),
		subs:     make(map[domain.Username][]chan domain.Envelope),
	}
}

// WrappedKeyOf exposes the stored escrow blob for assertions.
func (f *FakeRelay) WrappedKeyOf(u domain.Username) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.accounts[u]
	if !ok {
		return "", false
	}
	return acct.wrappedPrivateKey, true
}

func (f *FakeRelay) Register(_ context.Context, req domain.RegisterRequest) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.accounts[req.Username]; exists {
		return domain.Session{}, errors.New("fake relay: username taken")
	}
	f.accounts[req.Username] = &fakeAccount{
		password:          req.Password,
		publicKey:         req.PublicKey,
		wrappedPrivateKey: req.WrappedPrivateKey,
	}
	return f.issueLocked(req.Username), nil
}

func (f *FakeRelay) Login(_ context.Context, username domain.Username, password string) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acct, ok := f.accounts[username]
	if !ok || acct.password != password {
		return domain.Session{}, errFakeUnauthorized
	}
	return f.issueLocked(username), nil
}

func (f *FakeRelay) RecoverAccount(_ context.Context, username domain.Username, newPassword string) (domain.RecoverResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acct, ok := f.accounts[username]
	if !ok {
		return domain.RecoverResponse{}, errors.New("fake relay: unknown user")
	}
	acct.password = newPassword
	sess := f.issueLocked(username)
	return domain.RecoverResponse{
		WrappedPrivateKey: acct.wrappedPrivateKey,
		Account: domain.Account{
			Username:  username,
			PublicKey: acct.publicKey,
			CreatedAt: acct.createdAt,
		},
		Token: sess.Token,
	}, nil
}

func (f *FakeRelay) FetchPublicKey(_ context.Context, username domain.Username) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acct, ok := f.accounts[username]
	if !ok {
		return "", errors.New("fake relay: unknown user")
	}
	return acct.publicKey, nil
}

func (f *FakeRelay) SendEnvelope(_ context.Context, token string, env domain.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	me, ok := f.tokens[token]
	if !ok || me != env.From {
		return errFakeUnauthorized
	}
	f.nextID++
	env.ID = fmt.Sprintf("msg-%d", f.nextID)
	f.messages = append(f.messages, env)

	if f.unread[env.To] == nil {
		f.unread[env.To] = make(map[domain.Username]int64)
	}
	f.unread[env.To][env.From]++

	for _, ch := range f.subs[env.To] {
		select {
		case ch <- env:
		default:
		}
	}
	return nil
}

func (f *FakeRelay) Subscribe(ctx context.Context, token string) (<-chan domain.Envelope, error) {
	f.mu.Lock()
	me, ok := f.tokens[token]
	if !ok {
		f.mu.Unlock()
		return nil, errFakeUnauthorized
	}
	ch := make(chan domain.Envelope, 16)
	f.subs[me] = append(f.subs[me], ch)
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, other := range f.subs[me] {
			if other == ch {
				f.subs[me] = append(f.subs[me][:i], f.subs[me][i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (f *FakeRelay) FetchEnvelopes(_ context.Context, token string, peer domain.Username, limit int) ([]domain.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	me, ok := f.tokens[token]
	if !ok {
		return nil, errFakeUnauthorized
	}
	var out []domain.Envelope
	for _, env := range f.messages {
		if f.deleted[env.ID] {
			continue
		}
		between := (env.From == me && env.To == peer) || (env.From == peer && env.To == me)
		if !between {
			continue
		}
		out = append(out, env)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if f.unread[me] != nil {
		f.unread[me][peer] = 0
	}
	return out, nil
}

func (f *FakeRelay) Conversations(_ context.Context, token string) ([]domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	me, ok := f.tokens[token]
	if !ok {
		return nil, errFakeUnauthorized
	}
	last := make(map[domain.Username]int64)
	for _, env := range f.messages {
		if f.deleted[env.ID] {
			continue
		}
		var peer domain.Username
		switch me {
		case env.From:
			peer = env.To
		case env.To:
			peer = env.From
		default:
			continue
		}
		if env.Timestamp > last[peer] {
			last[peer] = env.Timestamp
		}
	}
	out := make([]domain.Conversation, 0, len(last))
	for peer, ts := range last {
		out = append(out, domain.Conversation{
			Peer:          peer,
			LastTimestamp: ts,
			Unread:        f.unread[me][peer],
		})
	}
	return out, nil
}

func (f *FakeRelay) DeleteEnvelope(_ context.Context, token string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tokens[token]; !ok {
		return errFakeUnauthorized
	}
	f.deleted[id] = true
	return nil
}

// TamperCiphertext flips one byte of the newest stored envelope's
// ciphertext, simulating relay-side corruption or tampering.
func (f *FakeRelay) TamperCiphertext(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.messages) == 0 {
		t.Fatal("no stored envelope to tamper with")
	}
	env := &f.messages[len(f.messages)-1]
	raw, err := crypto.FromB64(env.Ciphertext)
	if err != nil {
		t.Fatalf("decode ciphertext: %v", err)
	}
	raw[0] ^= 0x01
	env.Ciphertext = crypto.B64(raw)
}

func (f *FakeRelay) issueLocked(username domain.Username) domain.Session {
	f.nextTok++
	tok := fmt.Sprintf("tok-%d", f.nextTok)
	f.tokens[tok] = username
	return domain.Session{Username: username, Token: tok}
}

// Compile-time assertion that FakeRelay implements domain.RelayClient.
var _ domain.RelayClient = (*FakeRelay)(nil)
