package crypto_test

import (
	"strings"
	"testing"

	"veilchat/internal/crypto"
)

func TestFingerprint_Deterministic(t *testing.T) {
	kp := makeKeyPair(t)
	a := crypto.Fingerprint(kp.PublicKey)
	b := crypto.Fingerprint(kp.PublicKey)
	if a != b {
		t.Fatalf("fingerprint not deterministic: %q vs %q", a, b)
	}
}

func TestFingerprint_Format(t *testing.T) {
	fp := crypto.Fingerprint(makeKeyPair(t).PublicKey)
	groups := strings.Split(fp, " ")
	if len(groups) != 16 {
		t.Fatalf("got %d groups, want 16", len(groups))
	}
	for _, g := range groups {
		if len(g) != 4 {
			t.Fatalf("group %q is not 4 chars", g)
		}
	}
}

func TestFingerprint_DistinctKeysDoNotCollide(t *testing.T) {
	seen := make(map[string]string)
	for i := 0; i < 8; i++ {
		kp := makeKeyPair(t)
		fp := crypto.Fingerprint(kp.PublicKey)
		if prev, ok := seen[fp]; ok && prev != kp.PublicKey {
			t.Fatalf("fingerprint collision between distinct keys: %q", fp)
		}
		seen[fp] = kp.PublicKey
	}
}
