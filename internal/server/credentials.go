//go:generate go run go.uber.org/mock/mockgen -source=credentials.go -destination=../mocks/mock_credentials.go -package=mocks

// Package server stores the username to secret mapping issued by registration
// and consumed by the handshake.
package server

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// CredentialStore maps usernames to their current secret. Implementations
// must be safe for concurrent use, and TryCompareAndSwap must be atomic with
// respect to other calls for the same username.
type CredentialStore interface {
	// TryInsert adds username with secret unless username already exists.
	TryInsert(username, secret string) bool
	// TryGet returns the current secret of username.
	TryGet(username string) (string, bool)
	// TryCompareAndSwap replaces the secret of username with newSecret only if
	// it is still oldSecret.
	TryCompareAndSwap(username, oldSecret, newSecret string) bool
	// TryRemove deletes username and reports whether it was present.
	TryRemove(username string) bool
	// Usernames lists the registered usernames in sorted order.
	Usernames() []string
}

// MemoryCredentialStore is the in-process CredentialStore. Rotation uses the
// map's compare-and-swap, so unrelated logins never contend on a shared lock.
type MemoryCredentialStore struct {
	users sync.Map // username -> secret
}

var _ CredentialStore = (*MemoryCredentialStore)(nil)

// NewMemoryCredentialStore creates an empty store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (s *MemoryCredentialStore) TryInsert(username, secret string) bool {
	_, loaded := s.users.LoadOrStore(username, secret)
	return !loaded
}

func (s *MemoryCredentialStore) TryGet(username string) (string, bool) {
	v, ok := s.users.Load(username)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (s *MemoryCredentialStore) TryCompareAndSwap(username, oldSecret, newSecret string) bool {
	return s.users.CompareAndSwap(username, oldSecret, newSecret)
}

func (s *MemoryCredentialStore) TryRemove(username string) bool {
	_, ok := s.users.LoadAndDelete(username)
	return ok
}

func (s *MemoryCredentialStore) Usernames() []string {
	names := make([]string, 0)
	s.users.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	slices.Sort(names)
	return names
}

// NewSecret generates an opaque one-time secret.
func NewSecret() string {
	return uuid.NewString()
}
