package recovery_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"veilchat/internal/domain"
	escrow "veilchat/internal/recovery"
	"veilchat/internal/services/identity"
	"veilchat/internal/services/message"
	recoverysvc "veilchat/internal/services/recovery"
	"veilchat/internal/store"
	"veilchat/internal/testutil"
)

const passphrase = "Correct-Horse-42!"

func TestRecover_RestoresIdentityOnNewDevice(t *testing.T) {
	relay := testutil.NewFakeRelay()
	ctx := context.Background()

	// Original device: register and note the recovery phrase.
	oldHome := t.TempDir()
	oldIDs := store.NewIdentityFileStore(oldHome)
	idsvc := identity.New(oldIDs, store.NewSessionFileStore(oldHome), relay)
	res, err := idsvc.Register(ctx, "alice", "pw", passphrase)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	phrase, err := res.RecoveryPhrase.Reveal()
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	original, err := oldIDs.LoadIdentity(passphrase)
	if err != nil {
		t.Fatalf("load original identity: %v", err)
	}

	// Bob messages alice before the device loss.
	bobHome := t.TempDir()
	bobIDs := store.NewIdentityFileStore(bobHome)
	bobSessions := store.NewSessionFileStore(bobHome)
	if _, err := identity.New(bobIDs, bobSessions, relay).Register(ctx, "bob", "pw", passphrase); err != nil {
		t.Fatalf("register bob: %v", err)
	}
	bobMsgs := message.New(bobIDs, bobSessions, relay)
	if err := bobMsgs.Send(ctx, passphrase, "alice", domain.KindText, []byte("pre-loss message")); err != nil {
		t.Fatalf("bob send: %v", err)
	}

	// Device loss: a brand new home directory, nothing but the phrase.
	newHome := t.TempDir()
	newIDs := store.NewIdentityFileStore(newHome)
	newSessions := store.NewSessionFileStore(newHome)
	rec := recoverysvc.New(newIDs, newSessions, relay)

	fp, err := rec.Recover(ctx, "alice", "new-pw", phrase, passphrase)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}

	restored, err := newIDs.LoadIdentity(passphrase)
	if err != nil {
		t.Fatalf("load restored identity: %v", err)
	}
	if restored.Keys.PrivateKey != original.Keys.PrivateKey {
		t.Fatal("restored private key differs from original")
	}
	if restored.Keys.PublicKey != original.Keys.PublicKey {
		t.Fatal("restored public key differs from original")
	}
	if fp == "" {
		t.Fatal("empty fingerprint after recovery")
	}

	// The restored key decrypts history that predates the recovery.
	aliceMsgs := message.New(newIDs, newSessions, relay)
	got, err := aliceMsgs.Receive(ctx, passphrase, "bob", 0)
	if err != nil {
		t.Fatalf("receive after recovery: %v", err)
	}
	if len(got) != 1 || got[0].DecryptErr != nil {
		t.Fatalf("history unreadable after recovery: %+v", got)
	}
	if string(got[0].Plaintext) != "pre-loss message" {
		t.Fatalf("got %q", got[0].Plaintext)
	}

	// The old password no longer works; the new one does.
	if _, err := relay.Login(ctx, "alice", "pw"); err == nil {
		t.Fatal("old password still valid after recovery")
	}
	if _, err := relay.Login(ctx, "alice", "new-pw"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestRecover_WrongPhraseFails(t *testing.T) {
	relay := testutil.NewFakeRelay()
	ctx := context.Background()

	home := t.TempDir()
	idsvc := identity.New(store.NewIdentityFileStore(home), store.NewSessionFileStore(home), relay)
	res, err := idsvc.Register(ctx, "alice", "pw", passphrase)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	phrase, _ := res.RecoveryPhrase.Reveal()

	words := strings.Fields(phrase)
	if words[0] != "abandon" {
		words[0] = "abandon"
	} else {
		words[0] = "zoo"
	}
	wrong := strings.Join(words, " ")

	newHome := t.TempDir()
	rec := recoverysvc.New(store.NewIdentityFileStore(newHome), store.NewSessionFileStore(newHome), relay)
	_, err = rec.Recover(ctx, "alice", "new-pw", wrong, passphrase)
	if !errors.Is(err, escrow.ErrRecoveryAuthentication) {
		t.Fatalf("want ErrRecoveryAuthentication, got %v", err)
	}
}

func TestRecover_StructuralPreCheck(t *testing.T) {
	rec := recoverysvc.New(nil, nil, testutil.NewFakeRelay())

	_, err := rec.Recover(context.Background(), "alice", "pw", "only three words", passphrase)
	if !errors.Is(err, recoverysvc.ErrMalformedPassphrase) {
		t.Fatalf("want ErrMalformedPassphrase, got %v", err)
	}

	if rec.CheckPassphrase("only three words") {
		t.Fatal("structural check accepted a 3-word phrase")
	}
}
