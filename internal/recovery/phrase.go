package recovery

import (
	"errors"
	"sync"

	"veilchat/internal/util/memzero"
)

// ErrPhraseConsumed is returned when a Phrase is revealed more than once.
var ErrPhraseConsumed = errors.New("recovery phrase already revealed")

// Phrase wraps the cleartext recovery passphrase with a read-at-most-once
// contract. The words exist in memory only until Reveal is called; after
// that the buffer is wiped and further reads fail. This keeps the
// display-once requirement in the type system instead of in convention.
type Phrase struct {
	mu       sync.Mutex
	words    []byte
	consumed bool
}

func newPhrase(words string) *Phrase {
	return &Phrase{words: []byte(words)}
}

// Reveal returns the passphrase exactly once and wipes the internal copy.
func (p *Phrase) Reveal() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.consumed {
		return "", ErrPhraseConsumed
	}
	p.consumed = true

	out := string(p.words)
	memzero.Zero(p.words)
	p.words = nil
	return out, nil
}
