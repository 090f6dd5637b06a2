package store_test

import (
	"errors"
	"testing"

	"veilchat/internal/domain"
	"veilchat/internal/store"
)

func TestIdentity_SaveLoad_OK(t *testing.T) {
	home := t.TempDir()
	pass := "correct horse"

	var ids domain.IdentityStore = store.NewIdentityFileStore(home)

	id := domain.Identity{
		Username: "alice",
		Keys: domain.KeyPair{
			PublicKey:  "pub-material",
			PrivateKey: "priv-material",
		},
	}

	if err := ids.SaveIdentity(pass, id); err != nil {
		t.Fatalf("save identity: %v", err)
	}

	got, err := ids.LoadIdentity(pass)
	if err != nil {
		t.Fatalf("load identity: %v", err)
	}
	if got != id {
		t.Fatalf("mismatch after load: %+v", got)
	}
}

func TestIdentity_WrongPassphrase_Fails(t *testing.T) {
	home := t.TempDir()
	var ids domain.IdentityStore = store.NewIdentityFileStore(home)

	id := domain.Identity{Username: "alice", Keys: domain.KeyPair{PublicKey: "p", PrivateKey: "s"}}

	if err := ids.SaveIdentity("correct", id); err != nil {
		t.Fatalf("save identity: %v", err)
	}
	if _, err := ids.LoadIdentity("wrong"); err == nil {
		t.Fatal("expected error with wrong passphrase")
	}
}

func TestIdentity_Missing(t *testing.T) {
	ids := store.NewIdentityFileStore(t.TempDir())
	if _, err := ids.LoadIdentity("any"); !errors.Is(err, store.ErrNoIdentity) {
		t.Fatalf("want ErrNoIdentity, got %v", err)
	}
}

func TestSession_SaveLoadClear(t *testing.T) {
	home := t.TempDir()
	var sessions domain.SessionStore = store.NewSessionFileStore(home)

	if _, ok, err := sessions.LoadSession(); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	want := domain.Session{Username: "alice", Token: "tok-123"}
	if err := sessions.SaveSession(want); err != nil {
		t.Fatalf("save session: %v", err)
	}
	got, ok, err := sessions.LoadSession()
	if err != nil || !ok {
		t.Fatalf("load session: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if err := sessions.ClearSession(); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	if _, ok, _ := sessions.LoadSession(); ok {
		t.Fatal("session survived clear")
	}
	if err := sessions.ClearSession(); err != nil {
		t.Fatalf("clear on empty store: %v", err)
	}
}
