package session

import (
	"sync"

	"github.com/awnumar/memguard"
)

// TokenStore holds the session token for the lifetime of the process. The
// token lives in a memguard enclave, never touches disk, and is gone when the
// process exits. A new launch always starts without one.
type TokenStore struct {
	mu      sync.Mutex
	enclave *memguard.Enclave
}

func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Set replaces the held token. An empty token clears the store.
func (s *TokenStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" {
		s.enclave = nil
		return
	}
	s.enclave = memguard.NewEnclave([]byte(token))
}

// Get returns the held token. ok is false when no token is held.
func (s *TokenStore) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enclave == nil {
		return "", false
	}
	buf, err := s.enclave.Open()
	if err != nil {
		return "", false
	}
	defer buf.Destroy()
	return string(buf.Bytes()), true
}

// Purge drops the held token, if any.
func (s *TokenStore) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enclave = nil
}

// Held reports whether a token is currently stored.
func (s *TokenStore) Held() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enclave != nil
}
