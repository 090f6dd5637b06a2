package recovery

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"veilchat/internal/util/memzero"
)

const (
	// PhraseWords is the fixed passphrase length.
	PhraseWords = 12
	// entropyBytes feeds the 12-word mnemonic (128 bits + checksum).
	entropyBytes = 16

	blobVersion = 1
	kdfName     = "argon2id"
	saltBytes   = 16

	// Argon2id cost parameters. Slow on purpose: a stolen escrow blob must
	// not be cheap to grind offline even though the passphrase entropy is
	// the primary defence.
	kdfTime     = 2
	kdfMemoryKB = 64 * 1024
	kdfThreads  = 1
)

var (
	// ErrRecoveryAuthentication is the single failure returned when an
	// escrow blob cannot be opened. Wrong passphrase and corrupted data
	// are deliberately indistinguishable.
	ErrRecoveryAuthentication = errors.New("recovery failed")
)

// Package is the result of escrow creation. WrappedPrivateKey is an opaque
// base64 string safe to store on the relay; the Phrase can be read once.
type Package struct {
	Phrase            *Phrase
	WrappedPrivateKey string
}

// blob is the self-contained escrow format, base64-wrapped JSON so it can
// travel as a single opaque text field.
type blob struct {
	Version     int    `json:"v"`
	KDF         string `json:"kdf"`
	KDFTime     uint32 `json:"kdf_time"`
	KDFMemoryKB uint32 `json:"kdf_memory_kb"`
	KDFThreads  uint8  `json:"kdf_threads"`
	Salt        []byte `json:"salt"`
	Nonce       []byte `json:"nonce"`
	Ciphertext  []byte `json:"ciphertext"`
}

// CreatePackage generates a fresh 12-word passphrase and seals the encoded
// private key under a key derived from it. random may be nil to use
// crypto/rand. The cleartext passphrase lives only inside the returned
// single-use Phrase.
func CreatePackage(random io.Reader, privateKeyEncoded string) (*Package, error) {
	if random == nil {
		random = rand.Reader
	}

	entropy := make([]byte, entropyBytes)
	if _, err := io.ReadFull(random, entropy); err != nil {
		return nil, fmt.Errorf("generate passphrase entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("generate passphrase: %w", err)
	}
	memzero.Zero(entropy)

	salt := make([]byte, saltBytes)
	if _, err := io.ReadFull(random, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key := deriveKey(mnemonic, salt)
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(random, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	ciphertext := aead.Seal(nil, nonce, []byte(privateKeyEncoded), nil)

	raw, err := json.Marshal(blob{
		Version:     blobVersion,
		KDF:         kdfName,
		KDFTime:     kdfTime,
		KDFMemoryKB: kdfMemoryKB,
		KDFThreads:  kdfThreads,
		Salt:        salt,
		Nonce:       nonce,
		Ciphertext:  ciphertext,
	})
	if err != nil {
		return nil, err
	}

	return &Package{
		Phrase:            newPhrase(mnemonic),
		WrappedPrivateKey: base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// ValidatePassphrase is a structural pre-check: exactly PhraseWords words,
// all drawn from the known wordlist. It proves nothing cryptographically;
// the real test is whether RecoverPrivateKey succeeds.
func ValidatePassphrase(candidate string) bool {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(candidate)))
	if len(words) != PhraseWords {
		return false
	}
	known := wordSet()
	for _, w := range words {
		if !known[w] {
			return false
		}
	}
	return true
}

// RecoverPrivateKey re-derives the wrapping key from candidate and the salt
// embedded in wrapped, and opens the sealed private key. Every failure path
// collapses to ErrRecoveryAuthentication so a caller probing the escrow
// cannot tell a wrong passphrase from corrupted data.
func RecoverPrivateKey(wrapped, candidate string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return "", ErrRecoveryAuthentication
	}
	var b blob
	if err := json.Unmarshal(raw, &b); err != nil {
		return "", ErrRecoveryAuthentication
	}
	if b.Version != blobVersion || b.KDF != kdfName {
		return "", ErrRecoveryAuthentication
	}

	key := argon2.IDKey(
		[]byte(normalize(candidate)),
		b.Salt,
		b.KDFTime,
		b.KDFMemoryKB,
		b.KDFThreads,
		chacha20poly1305.KeySize,
	)
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", ErrRecoveryAuthentication
	}
	plain, err := aead.Open(nil, b.Nonce, b.Ciphertext, nil)
	if err != nil {
		return "", ErrRecoveryAuthentication
	}
	return string(plain), nil
}

func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey(
		[]byte(normalize(passphrase)),
		salt,
		kdfTime,
		kdfMemoryKB,
		kdfThreads,
		chacha20poly1305.KeySize,
	)
}

// normalize collapses whitespace and case so a re-typed passphrase derives
// the same key as the generated one.
func normalize(passphrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(passphrase)), " ")
}

var (
	wordSetOnce sync.Once
	knownWords  map[string]bool
)

func wordSet() map[string]bool {
	wordSetOnce.Do(func() {
		list := bip39.GetWordList()
		knownWords = make(map[string]bool, len(list))
		for _, w := range list {
			knownWords[w] = true
		}
	})
	return knownWords
}
