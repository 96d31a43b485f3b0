// Package store implements the process-lifetime session/address cache.
// Entries are created lazily on first inbound event and never evicted;
// repeated writes for the same identifier are last-write-wins.
package store

import (
	"sync"

	"github.com/broidkit/skype-bridge/internal/skype"
)

// Store caches the last-seen routing address and user record per
// platform identifier. Reads and writes for different keys may
// interleave freely.
type Store struct {
	mu        sync.RWMutex
	addresses map[string]skype.Address
	users     map[string]skype.ChannelAccount
}

// New creates an empty store.
func New() *Store {
	return &Store{
		addresses: make(map[string]skype.Address),
		users:     make(map[string]skype.ChannelAccount),
	}
}

// PutAddress records the routing address for an address identifier.
func (s *Store) PutAddress(id string, address skype.Address) {
	if id == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses[id] = address
}

// Address returns the cached routing address for an identifier.
func (s *Store) Address(id string) (skype.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	address, ok := s.addresses[id]
	return address, ok
}

// PutUser records the user record for a user identifier.
func (s *Store) PutUser(id string, user skype.ChannelAccount) {
	if id == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = user
}

// User returns the cached user record for an identifier.
func (s *Store) User(id string) (skype.ChannelAccount, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	return user, ok
}

// Users returns a snapshot of all cached user records.
func (s *Store) Users() []skype.ChannelAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]skype.ChannelAccount, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	return users
}

// AddressCount returns the number of cached addresses.
func (s *Store) AddressCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.addresses)
}
