package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Session caches unlocked keys in a 0600 file so repeated commands do not
// prompt for the keyring passphrase.
//
//	macOS:   ~/Library/Caches/nftctl/session.json
//	Linux:   ~/.cache/nftctl/session.json
//	Windows: %LocalAppData%\nftctl\session.json
type Session struct {
	path string
}

// NewSession uses the session file at path.
func NewSession(path string) *Session {
	return &Session{path: path}
}

// DefaultSession uses the per-user cache directory.
func DefaultSession() *Session {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return NewSession(filepath.Join(dir, keychainService, "session.json"))
}

// Path returns the session file location.
func (s *Session) Path() string { return s.path }

// load returns an empty map (never nil) on any error.
func (s *Session) load() map[string]string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return make(map[string]string)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return make(map[string]string)
	}
	return m
}

func (s *Session) save(m map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return err
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(s.path, 0o600)
}

// Get returns a cached key for ref.
func (s *Session) Get(ref string) (string, bool) {
	v, ok := s.load()[ref]
	return v, ok
}

// Has reports whether the wallet name has a cached key.
func (s *Session) Has(name string) bool {
	_, ok := s.Get(keyRef(name))
	return ok
}

// Put caches a key for ref.
func (s *Session) Put(ref, hexKey string) error {
	m := s.load()
	m[ref] = hexKey
	return s.save(m)
}

// Remove evicts ref from the cache.
func (s *Session) Remove(ref string) error {
	m := s.load()
	if _, ok := m[ref]; !ok {
		return nil
	}
	delete(m, ref)
	return s.save(m)
}

// Clear deletes the session file.
func (s *Session) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Active reports whether any key is cached.
func (s *Session) Active() bool {
	return len(s.load()) > 0
}
