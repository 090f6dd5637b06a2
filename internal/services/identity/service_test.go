package identity_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"veilchat/internal/recovery"
	"veilchat/internal/services/identity"
	"veilchat/internal/store"
	"veilchat/internal/testutil"
)

const goodPassphrase = "Correct-Horse-42!"

func newService(t *testing.T, relay *testutil.FakeRelay) *identity.Service {
	t.Helper()
	home := t.TempDir()
	return identity.New(
		store.NewIdentityFileStore(home),
		store.NewSessionFileStore(home),
		relay,
	)
}

func TestRegister_CreatesAccountAndLocalIdentity(t *testing.T) {
	relay := testutil.NewFakeRelay()
	home := t.TempDir()
	ids := store.NewIdentityFileStore(home)
	svc := identity.New(ids, store.NewSessionFileStore(home), relay)

	res, err := svc.Register(context.Background(), "alice", "pw", goodPassphrase)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Fingerprint is present and matches what a peer would compute.
	fromRelay, err := svc.FingerprintOf(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FingerprintOf: %v", err)
	}
	if res.Fingerprint == "" || res.Fingerprint != fromRelay {
		t.Fatalf("fingerprint mismatch: %q vs %q", res.Fingerprint, fromRelay)
	}

	// The relay holds an escrow blob it cannot open, and the recovery
	// phrase opens it to exactly the local private key.
	phrase, err := res.RecoveryPhrase.Reveal()
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if len(strings.Fields(phrase)) != recovery.PhraseWords {
		t.Fatalf("phrase has wrong word count: %q", phrase)
	}
	wrapped, ok := relay.WrappedKeyOf("alice")
	if !ok {
		t.Fatal("relay has no escrow blob")
	}
	recovered, err := recovery.RecoverPrivateKey(wrapped, phrase)
	if err != nil {
		t.Fatalf("RecoverPrivateKey: %v", err)
	}
	id, err := ids.LoadIdentity(goodPassphrase)
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	if recovered != id.Keys.PrivateKey {
		t.Fatal("escrowed key differs from stored private key")
	}

	// Phrase is single use.
	if _, err := res.RecoveryPhrase.Reveal(); !errors.Is(err, recovery.ErrPhraseConsumed) {
		t.Fatalf("second Reveal: want ErrPhraseConsumed, got %v", err)
	}
}

func TestRegister_RejectsWeakPassphrase(t *testing.T) {
	svc := newService(t, testutil.NewFakeRelay())

	for _, weak := range []string{"", "short1!A", "alllowercaseletters", "NoSymbolsOrDigits"} {
		_, err := svc.Register(context.Background(), "alice", "pw", weak)
		if !errors.Is(err, identity.ErrWeakPassphrase) {
			t.Fatalf("passphrase %q: want ErrWeakPassphrase, got %v", weak, err)
		}
	}
}

func TestLogin_StoresSession(t *testing.T) {
	relay := testutil.NewFakeRelay()
	home := t.TempDir()
	sessions := store.NewSessionFileStore(home)
	svc := identity.New(store.NewIdentityFileStore(home), sessions, relay)

	if _, err := svc.Register(context.Background(), "alice", "pw", goodPassphrase); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	sess, ok, err := sessions.LoadSession()
	if err != nil || !ok {
		t.Fatalf("session not stored: ok=%v err=%v", ok, err)
	}
	if sess.Username != "alice" || sess.Token == "" {
		t.Fatalf("bad session %+v", sess)
	}

	if err := svc.Login(context.Background(), "alice", "wrong"); err == nil {
		t.Fatal("login with wrong password succeeded")
	}
}
