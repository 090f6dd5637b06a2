package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// fingerprintGroup is the width of each display group.
const fingerprintGroup = 4

// Fingerprint returns a human-comparable digest of an encoded public key.
//
// It is a pure function of the full key material: the SHA-256 digest of the
// encoded key, rendered as space-separated groups of four hex characters.
// Two parties computing it over the same key always get the same string, so
// it can be compared out of band to detect a substituted key.
func Fingerprint(publicKeyEncoded string) string {
	sum := sha256.Sum256([]byte(publicKeyEncoded))
	hexDigest := hex.EncodeToString(sum[:])

	groups := make([]string, 0, len(hexDigest)/fingerprintGroup)
	for i := 0; i < len(hexDigest); i += fingerprintGroup {
		groups = append(groups, hexDigest[i:i+fingerprintGroup])
	}
	return strings.Join(groups, " ")
}
