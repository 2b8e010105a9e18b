// Package keyring provides secure credential storage.
// It uses the system keyring when available, falling back to
// encrypted local file storage when not.
package keyring

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yllada/vpn-toggle/common"
	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// serviceName is the identifier used in the system keyring.
	serviceName = "vpn-toggle"

	saltSize = 16

	// Argon2id parameters for the local file key.
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// Store keeps OpenVPN credentials keyed by configuration path.
// It implements common.CredentialStore.
type Store struct {
	service string
	file    string

	mu       sync.Mutex
	probed   bool
	useLocal bool
	local    map[string]common.Credentials
	loaded   bool
}

// Option configures a Store.
type Option func(*Store)

// WithFile sets the path of the encrypted fallback file.
func WithFile(path string) Option {
	return func(s *Store) {
		s.file = path
	}
}

// WithLocalOnly skips the system keyring.
func WithLocalOnly() Option {
	return func(s *Store) {
		s.probed = true
		s.useLocal = true
	}
}

// New creates a credential store.
func New(opts ...Option) *Store {
	s := &Store{
		service: serviceName,
		local:   make(map[string]common.Credentials),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.file == "" {
		if dir, err := common.GetConfigDir(); err == nil {
			s.file = filepath.Join(dir, common.CredentialsFileName)
		}
	}
	return s
}

// UsesSystemKeyring reports whether credentials go to the system keyring.
func (s *Store) UsesSystemKeyring() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probeLocked()
	return !s.useLocal
}

// probeLocked checks once whether the system keyring accepts writes.
func (s *Store) probeLocked() {
	if s.probed {
		return
	}
	s.probed = true

	testKey := serviceName + "-test-init"
	if err := keyring.Set(s.service, testKey, "test"); err != nil {
		common.LogWarn("System keyring unavailable, using encrypted file: %v", err)
		s.useLocal = true
		return
	}
	keyring.Delete(s.service, testKey)
}

// Store saves credentials for a configuration.
func (s *Store) Store(configPath string, creds common.Credentials) error {
	if configPath == "" {
		return errors.New("config path cannot be empty")
	}
	if creds.Username == "" {
		return errors.New("username cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.probeLocked()

	if !s.useLocal {
		data, err := json.Marshal(creds)
		if err != nil {
			return err
		}
		err = keyring.Set(s.service, configPath, string(data))
		if err == nil {
			return nil
		}
		// Fallback to local storage
		common.LogWarn("Keyring write failed, using encrypted file: %v", err)
		s.useLocal = true
	}

	if err := s.loadLocked(); err != nil {
		return err
	}
	s.local[configPath] = creds
	return s.saveLocked()
}

// Get retrieves credentials for a configuration.
func (s *Store) Get(configPath string) (common.Credentials, error) {
	if configPath == "" {
		return common.Credentials{}, errors.New("config path cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.probeLocked()

	if !s.useLocal {
		data, err := keyring.Get(s.service, configPath)
		if err == nil {
			var creds common.Credentials
			if err := json.Unmarshal([]byte(data), &creds); err != nil {
				return common.Credentials{}, fmt.Errorf("%w: %w", common.ErrCredentialStorage, err)
			}
			return creds, nil
		}
		if !errors.Is(err, keyring.ErrNotFound) {
			common.LogWarn("Keyring read failed: %v", err)
		}
	}

	// Try local storage as fallback
	if err := s.loadLocked(); err != nil {
		return common.Credentials{}, err
	}
	creds, exists := s.local[configPath]
	if !exists {
		return common.Credentials{}, common.ErrCredentialsNotFound
	}
	return creds, nil
}

// Delete removes credentials for a configuration.
func (s *Store) Delete(configPath string) error {
	if configPath == "" {
		return errors.New("config path cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.probeLocked()

	if !s.useLocal {
		if err := keyring.Delete(s.service, configPath); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			common.LogWarn("Keyring delete failed: %v", err)
		}
	}

	if err := s.loadLocked(); err != nil {
		return err
	}
	if _, exists := s.local[configPath]; !exists {
		return nil
	}
	delete(s.local, configPath)
	return s.saveLocked()
}

// Exists checks if credentials exist for a configuration.
func (s *Store) Exists(configPath string) bool {
	_, err := s.Get(configPath)
	return err == nil
}

// loadLocked reads the encrypted file once.
func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}

	data, err := os.ReadFile(s.file)
	if errors.Is(err, os.ErrNotExist) {
		s.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrCredentialStorage, err)
	}

	plaintext, err := decrypt(data, machineSecret())
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, &s.local); err != nil {
		return fmt.Errorf("%w: %w", common.ErrCredentialStorage, err)
	}
	s.loaded = true
	return nil
}

// saveLocked writes the encrypted file.
func (s *Store) saveLocked() error {
	data, err := json.Marshal(s.local)
	if err != nil {
		return err
	}

	encrypted, err := encrypt(data, machineSecret())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.file), 0700); err != nil {
		return fmt.Errorf("%w: %w", common.ErrCredentialStorage, err)
	}
	if err := os.WriteFile(s.file, encrypted, 0600); err != nil {
		return fmt.Errorf("%w: %w", common.ErrCredentialStorage, err)
	}
	return nil
}

// machineSecret returns the passphrase the file key is derived from.
func machineSecret() []byte {
	hostname, _ := os.Hostname()
	return []byte(fmt.Sprintf("%s-%s-%s-%d", serviceName, hostname, getMachineID(), os.Getuid()))
}

func getMachineID() string {
	// Try to read machine-id
	data, err := os.ReadFile("/etc/machine-id")
	if err == nil {
		return strings.TrimSpace(string(data))
	}
	// Fallback
	return "default-machine-id"
}

func deriveKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}

// encrypt seals plaintext as base64(salt | nonce | ciphertext).
func encrypt(plaintext, secret []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrEncryption, err)
	}

	aead, err := chacha20poly1305.NewX(deriveKey(secret, salt))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrEncryption, err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrEncryption, err)
	}

	out := append(salt, nonce...)
	out = aead.Seal(out, nonce, plaintext, salt)
	return []byte(base64.StdEncoding.EncodeToString(out)), nil
}

func decrypt(data, secret []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecryption, err)
	}

	if len(raw) < saltSize+chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("%w: ciphertext too short", common.ErrDecryption)
	}

	salt := raw[:saltSize]
	nonce := raw[saltSize : saltSize+chacha20poly1305.NonceSizeX]
	ciphertext := raw[saltSize+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(deriveKey(secret, salt))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecryption, err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, salt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecryption, err)
	}
	return plaintext, nil
}
