package wallet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
)

const keychainService = "nftctl"

// Environment variables read by the keystore.
const (
	// KeyEnv, when set, overrides every stored key. Meant for CI.
	KeyEnv = "NFTCTL_PRIVATE_KEY"
	// PassphraseEnv unlocks the encrypted file backend without a prompt.
	PassphraseEnv = "NFTCTL_KEYRING_PASSPHRASE"
)

// ErrKeyNotFound is returned when no key is stored under a reference.
var ErrKeyNotFound = errors.New("key not found")

// KeyStore stores private keys by reference.
type KeyStore interface {
	Store(name, hexKey string) (string, error)
	Retrieve(ref string) (string, error)
	Delete(ref string) error
}

// Keystore wraps OS keychain access with a session cache in front of it.
type Keystore struct {
	ring    keyring.Keyring
	session *Session
}

// OpenKeystore opens the OS keychain, falling back to an encrypted file
// store under dir/keys.
func OpenKeystore(dir string, session *Session) *Keystore {
	fileDir := filepath.Join(dir, "keys")
	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
		FileDir:                  fileDir,
		FilePasswordFunc:         passphrase,
	}

	// On Linux without a desktop session only the file backend works.
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		ring, _ = keyring.Open(keyring.Config{
			ServiceName:      keychainService,
			AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
			FileDir:          fileDir,
			FilePasswordFunc: passphrase,
		})
	}
	return &Keystore{ring: ring, session: session}
}

// NewFileKeystore opens an encrypted file keystore in dir with a fixed
// passphrase.
func NewFileKeystore(dir, pass string, session *Session) (*Keystore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      keychainService,
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          dir,
		FilePasswordFunc: keyring.FixedStringPrompt(pass),
	})
	if err != nil {
		return nil, fmt.Errorf("opening file keystore: %w", err)
	}
	return &Keystore{ring: ring, session: session}, nil
}

func passphrase(prompt string) (string, error) {
	if p := os.Getenv(PassphraseEnv); p != "" {
		return p, nil
	}
	return keyring.TerminalPrompt(prompt)
}

// Store saves a private key for a wallet name and returns its reference.
func (k *Keystore) Store(name, hexKey string) (string, error) {
	if k.ring == nil {
		return "", errors.New("keystore not available")
	}
	ref := keyRef(name)
	err := k.ring.Set(keyring.Item{
		Key:   ref,
		Data:  []byte(normaliseHexKey(hexKey)),
		Label: "nftctl wallet " + name,
	})
	if err != nil {
		return "", fmt.Errorf("keychain store: %w", err)
	}
	return ref, nil
}

// Retrieve returns the key for ref. KeyEnv wins over the session cache,
// which wins over the keychain.
func (k *Keystore) Retrieve(ref string) (string, error) {
	if v := os.Getenv(KeyEnv); v != "" {
		return normaliseHexKey(v), nil
	}
	if k.session != nil {
		if v, ok := k.session.Get(ref); ok {
			return v, nil
		}
	}
	if k.ring == nil {
		return "", errors.New("keystore not available")
	}
	item, err := k.ring.Get(ref)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return normaliseHexKey(string(item.Data)), nil
}

// Unlock copies the key for ref into the session cache.
func (k *Keystore) Unlock(ref string) error {
	if k.session == nil {
		return errors.New("no session cache configured")
	}
	v, err := k.Retrieve(ref)
	if err != nil {
		return err
	}
	return k.session.Put(ref, v)
}

// Delete removes a stored key and evicts it from the session.
func (k *Keystore) Delete(ref string) error {
	if k.session != nil {
		_ = k.session.Remove(ref)
	}
	if k.ring == nil {
		return nil
	}
	if err := k.ring.Remove(ref); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}

// InMemoryKeystore keeps keys in memory (for tests).
type InMemoryKeystore struct {
	data map[string]string
}

// NewInMemoryKeystore creates an in-memory keystore.
func NewInMemoryKeystore() *InMemoryKeystore {
	return &InMemoryKeystore{data: make(map[string]string)}
}

func (k *InMemoryKeystore) Store(name, hexKey string) (string, error) {
	ref := keyRef(name)
	k.data[ref] = normaliseHexKey(hexKey)
	return ref, nil
}

func (k *InMemoryKeystore) Retrieve(ref string) (string, error) {
	v, ok := k.data[ref]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	}
	return v, nil
}

func (k *InMemoryKeystore) Delete(ref string) error {
	delete(k.data, ref)
	return nil
}

func keyRef(name string) string { return keychainService + "." + name }

// normaliseHexKey trims whitespace and a 0x/0X prefix.
func normaliseHexKey(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
