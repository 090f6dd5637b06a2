package server

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"veilchat/internal/domain"
	"veilchat/internal/relay"
	"veilchat/internal/relay/storage"
)

type memUsers struct {
	users map[string]*storage.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]*storage.User{}} }

func (m *memUsers) Create(_ context.Context, u *storage.User) error {
	if _, ok := m.users[u.Username]; ok {
		return errors.New("duplicate username")
	}
	copied := *u
	m.users[u.Username] = &copied
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*storage.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, username string, hash []byte) error {
	u, ok := m.users[username]
	if !ok {
		return errors.New("no such user")
	}
	u.PasswordHash = hash
	return nil
}

type memMessages struct {
	msgs []*storage.Message
}

func (m *memMessages) Insert(_ context.Context, msg *storage.Message) (string, error) {
	msg.ID = primitive.NewObjectID()
	copied := *msg
	m.msgs = append(m.msgs, &copied)
	return msg.ID.Hex(), nil
}

func (m *memMessages) ListBetween(_ context.Context, a, b string, limit int64) ([]*storage.Message, error) {
	var out []*storage.Message
	for _, msg := range m.msgs {
		if msg.Deleted {
			continue
		}
		if (msg.From == a && msg.To == b) || (msg.From == b && msg.To == a) {
			out = append(out, msg)
		}
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (m *memMessages) ListForUser(_ context.Context, username string) ([]*storage.Message, error) {
	var out []*storage.Message
	for _, msg := range m.msgs {
		if msg.Deleted {
			continue
		}
		if msg.From == username || msg.To == username {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memMessages) Tombstone(_ context.Context, id, requester string) error {
	for _, msg := range m.msgs {
		if msg.ID.Hex() == id && (msg.From == requester || msg.To == requester) {
			msg.Deleted = true
			return nil
		}
	}
	return storage.ErrNotFound
}

type memSessions struct {
	seq    int
	tokens map[string]string
	unread map[string]int64
}

func newMemSessions() *memSessions {
	return &memSessions{tokens: map[string]string{}, unread: map[string]int64{}}
}

func (m *memSessions) Issue(_ context.Context, username string) (string, error) {
	m.seq++
	token := "tok-" + username + "-" + string(rune('a'+m.seq))
	m.tokens[token] = username
	return token, nil
}

func (m *memSessions) Lookup(_ context.Context, token string) (string, error) {
	username, ok := m.tokens[token]
	if !ok {
		return "", storage.ErrNoSession
	}
	return username, nil
}

func (m *memSessions) IncrUnread(_ context.Context, to, from string) error {
	m.unread[to+"/"+from]++
	return nil
}

func (m *memSessions) ResetUnread(_ context.Context, me, peer string) error {
	delete(m.unread, me+"/"+peer)
	return nil
}

func (m *memSessions) Unread(_ context.Context, me, peer string) (int64, error) {
	return m.unread[me+"/"+peer], nil
}

func newTestRelay(t *testing.T) (*relay.Client, func()) {
	t.Helper()
	srv := New(nil, newMemUsers(), &memMessages{}, newMemSessions())
	ts := httptest.NewServer(srv.Router())
	return relay.NewClient(ts.URL, ts.Client()), ts.Close
}

func register(t *testing.T, c *relay.Client, username, password string) domain.Session {
	t.Helper()
	sess, err := c.Register(context.Background(), domain.RegisterRequest{
		Username:          domain.Username(username),
		Password:          password,
		PublicKey:         "pub-" + username,
		WrappedPrivateKey: "escrow-" + username,
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	if sess.Token == "" {
		t.Fatalf("register %s: empty token", username)
	}
	return sess
}

func send(t *testing.T, c *relay.Client, token, from, to, ciphertext string) {
	t.Helper()
	err := c.SendEnvelope(context.Background(), token, domain.Envelope{
		From:         domain.Username(from),
		To:           domain.Username(to),
		Kind:         domain.KindText,
		Ciphertext:   ciphertext,
		SenderKey:    "sk",
		RecipientKey: "rk",
		Nonce:        "n",
	})
	if err != nil {
		t.Fatalf("send %s -> %s: %v", from, to, err)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	c, done := newTestRelay(t)
	defer done()
	ctx := context.Background()

	register(t, c, "alice", "hunter2!")

	if _, err := c.Register(ctx, domain.RegisterRequest{
		Username: "alice", Password: "x", PublicKey: "p", WrappedPrivateKey: "w",
	}); err == nil {
		t.Fatal("duplicate register succeeded")
	}

	if _, err := c.Login(ctx, "alice", "wrong"); err == nil {
		t.Fatal("login with wrong password succeeded")
	}
	if _, err := c.Login(ctx, "nobody", "hunter2!"); err == nil {
		t.Fatal("login for unknown account succeeded")
	}

	sess, err := c.Login(ctx, "alice", "hunter2!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Username != "alice" || sess.Token == "" {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestFetchPublicKey(t *testing.T) {
	c, done := newTestRelay(t)
	defer done()
	ctx := context.Background()

	register(t, c, "alice", "hunter2!")

	key, err := c.FetchPublicKey(ctx, "alice")
	if err != nil {
		t.Fatalf("fetch key: %v", err)
	}
	if key != "pub-alice" {
		t.Fatalf("got key %q", key)
	}
	if _, err := c.FetchPublicKey(ctx, "nobody"); err == nil {
		t.Fatal("fetch key for unknown account succeeded")
	}
}

func TestSendAndFetchMessages(t *testing.T) {
	c, done := newTestRelay(t)
	defer done()
	ctx := context.Background()

	alice := register(t, c, "alice", "hunter2!")
	bob := register(t, c, "bob", "hunter2!")

	send(t, c, alice.Token, "alice", "bob", "ct-1")
	send(t, c, bob.Token, "bob", "alice", "ct-2")

	envs, err := c.FetchEnvelopes(ctx, bob.Token, "alice", 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(envs) != 2 {
		t.Fatalf("got %d envelopes, want 2", len(envs))
	}
	if envs[0].Ciphertext != "ct-1" || envs[1].Ciphertext != "ct-2" {
		t.Fatalf("wrong order or content: %+v", envs)
	}
	for _, env := range envs {
		if env.ID == "" || env.Timestamp == 0 {
			t.Fatalf("envelope missing relay fields: %+v", env)
		}
	}

	one, err := c.FetchEnvelopes(ctx, bob.Token, "alice", 1)
	if err != nil {
		t.Fatalf("fetch limited: %v", err)
	}
	if len(one) != 1 {
		t.Fatalf("got %d envelopes, want 1", len(one))
	}
}

func TestSendRejections(t *testing.T) {
	c, done := newTestRelay(t)
	defer done()
	ctx := context.Background()

	alice := register(t, c, "alice", "hunter2!")

	// No session.
	err := c.SendEnvelope(ctx, "", domain.Envelope{From: "alice", To: "alice"})
	if err == nil {
		t.Fatal("unauthenticated send succeeded")
	}

	// Forged sender.
	err = c.SendEnvelope(ctx, alice.Token, domain.Envelope{
		From: "bob", To: "alice", Kind: domain.KindText,
		Ciphertext: "c", SenderKey: "s", RecipientKey: "r", Nonce: "n",
	})
	if err == nil {
		t.Fatal("send with forged sender succeeded")
	}

	// Unknown recipient.
	err = c.SendEnvelope(ctx, alice.Token, domain.Envelope{
		From: "alice", To: "nobody", Kind: domain.KindText,
		Ciphertext: "c", SenderKey: "s", RecipientKey: "r", Nonce: "n",
	})
	if err == nil {
		t.Fatal("send to unknown recipient succeeded")
	}

	// Missing wrapped keys.
	err = c.SendEnvelope(ctx, alice.Token, domain.Envelope{
		From: "alice", To: "alice", Kind: domain.KindText, Ciphertext: "c",
	})
	if err == nil {
		t.Fatal("send of malformed envelope succeeded")
	}
}

func TestConversationsAndUnread(t *testing.T) {
	c, done := newTestRelay(t)
	defer done()
	ctx := context.Background()

	alice := register(t, c, "alice", "hunter2!")
	bob := register(t, c, "bob", "hunter2!")

	send(t, c, alice.Token, "alice", "bob", "ct-1")
	send(t, c, alice.Token, "alice", "bob", "ct-2")

	convs, err := c.Conversations(ctx, bob.Token)
	if err != nil {
		t.Fatalf("conversations: %v", err)
	}
	if len(convs) != 1 {
		t.Fatalf("got %d conversations, want 1", len(convs))
	}
	if convs[0].Peer != "alice" || convs[0].Unread != 2 {
		t.Fatalf("unexpected conversation %+v", convs[0])
	}

	// Fetching the history clears the counter.
	if _, err := c.FetchEnvelopes(ctx, bob.Token, "alice", 0); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	convs, err = c.Conversations(ctx, bob.Token)
	if err != nil {
		t.Fatalf("conversations: %v", err)
	}
	if convs[0].Unread != 0 {
		t.Fatalf("unread not reset: %+v", convs[0])
	}
}

func TestRecoverRotatesPassword(t *testing.T) {
	c, done := newTestRelay(t)
	defer done()
	ctx := context.Background()

	register(t, c, "alice", "old-password")

	resp, err := c.RecoverAccount(ctx, "alice", "new-password")
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if resp.WrappedPrivateKey != "escrow-alice" {
		t.Fatalf("got escrow blob %q", resp.WrappedPrivateKey)
	}
	if resp.Account.Username != "alice" || resp.Account.PublicKey != "pub-alice" {
		t.Fatalf("unexpected account %+v", resp.Account)
	}
	if resp.Token == "" {
		t.Fatal("recover issued no session token")
	}

	if _, err := c.Login(ctx, "alice", "old-password"); err == nil {
		t.Fatal("old password still accepted after recovery")
	}
	if _, err := c.Login(ctx, "alice", "new-password"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}

	if _, err := c.RecoverAccount(ctx, "nobody", "x"); err == nil {
		t.Fatal("recover for unknown account succeeded")
	}
}

func TestWebsocketPush(t *testing.T) {
	c, done := newTestRelay(t)
	defer done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := register(t, c, "alice", "hunter2!")
	bob := register(t, c, "bob", "hunter2!")

	ch, err := c.Subscribe(ctx, bob.Token)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := c.Subscribe(ctx, "bad-token"); err == nil {
		t.Fatal("subscribe with bad token succeeded")
	}

	send(t, c, alice.Token, "alice", "bob", "ct-live")

	select {
	case env, ok := <-ch:
		if !ok {
			t.Fatal("subscription closed early")
		}
		if env.From != "alice" || env.Ciphertext != "ct-live" {
			t.Fatalf("got %+v", env)
		}
		if env.ID == "" || env.Timestamp == 0 {
			t.Fatalf("pushed envelope missing relay fields: %+v", env)
		}
	case <-ctx.Done():
		t.Fatal("no envelope pushed")
	}
}

func TestDeleteMessage(t *testing.T) {
	c, done := newTestRelay(t)
	defer done()
	ctx := context.Background()

	alice := register(t, c, "alice", "hunter2!")
	bob := register(t, c, "bob", "hunter2!")
	eve := register(t, c, "eve", "hunter2!")

	send(t, c, alice.Token, "alice", "bob", "ct-1")

	envs, err := c.FetchEnvelopes(ctx, bob.Token, "alice", 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	id := envs[0].ID

	if err := c.DeleteEnvelope(ctx, eve.Token, id); err == nil {
		t.Fatal("third party deleted a message")
	}
	if err := c.DeleteEnvelope(ctx, bob.Token, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	envs, err = c.FetchEnvelopes(ctx, alice.Token, "bob", 0)
	if err != nil {
		t.Fatalf("fetch after delete: %v", err)
	}
	if len(envs) != 0 {
		t.Fatalf("tombstoned message still listed: %+v", envs)
	}

	if err := c.DeleteEnvelope(ctx, bob.Token, "no-such-id"); err == nil {
		t.Fatal("delete of unknown id succeeded")
	}
}
