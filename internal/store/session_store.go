package store

import (
	"os"
	"path/filepath"
	"sync"

	"veilchat/internal/domain"
)

const sessionFilename = "session.json"

// SessionFileStore persists the current relay session token. The token is
// a bearer credential but not key material, so it is stored as plain JSON
// with owner-only permissions.
type SessionFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewSessionFileStore returns a SessionFileStore rooted at dir.
func NewSessionFileStore(dir string) *SessionFileStore {
	return &SessionFileStore{dir: dir}
}

// SaveSession writes the session to disk.
func (s *SessionFileStore) SaveSession(sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(filepath.Join(s.dir, sessionFilename), sess, 0o600)
}

// LoadSession reads the session; ok is false when none is stored.
func (s *SessionFileStore) LoadSession() (domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sess domain.Session
	if err := readJSON(filepath.Join(s.dir, sessionFilename), &sess); err != nil {
		return domain.Session{}, false, err
	}
	if sess.Token == "" {
		return domain.Session{}, false, nil
	}
	return sess, true, nil
}

// ClearSession removes the stored session, if any.
func (s *SessionFileStore) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, sessionFilename))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Compile-time assertion that SessionFileStore implements domain.SessionStore.
var _ domain.SessionStore = (*SessionFileStore)(nil)
