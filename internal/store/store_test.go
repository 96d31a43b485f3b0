package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/broidkit/skype-bridge/internal/skype"
)

func TestPutAndGetAddress(t *testing.T) {
	s := New()

	if _, ok := s.Address("a1"); ok {
		t.Fatal("empty store should miss")
	}

	s.PutAddress("a1", skype.Address{ID: "a1", ChannelID: "skype"})

	address, ok := s.Address("a1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if address.ChannelID != "skype" {
		t.Fatalf("channelId = %q, want %q", address.ChannelID, "skype")
	}
}

func TestLastWriteWins(t *testing.T) {
	s := New()

	s.PutUser("u1", skype.ChannelAccount{ID: "u1", Name: "Bob"})
	s.PutUser("u1", skype.ChannelAccount{ID: "u1", Name: "Robert"})

	user, ok := s.User("u1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if user.Name != "Robert" {
		t.Fatalf("name = %q, want %q", user.Name, "Robert")
	}
}

func TestEmptyIdentifierIgnored(t *testing.T) {
	s := New()

	s.PutAddress("", skype.Address{ID: "x"})
	s.PutUser("", skype.ChannelAccount{ID: "x"})

	if s.AddressCount() != 0 {
		t.Fatal("empty address identifier should not be cached")
	}
	if len(s.Users()) != 0 {
		t.Fatal("empty user identifier should not be cached")
	}
}

func TestUsersSnapshot(t *testing.T) {
	s := New()
	s.PutUser("u1", skype.ChannelAccount{ID: "u1"})
	s.PutUser("u2", skype.ChannelAccount{ID: "u2"})

	if got := len(s.Users()); got != 2 {
		t.Fatalf("len(Users) = %d, want 2", got)
	}
}

func TestInterleavedPutsForDifferentKeys(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("a%d", i)
			s.PutAddress(id, skype.Address{ID: id})
			if _, ok := s.Address(id); !ok {
				t.Errorf("missing address %s", id)
			}
		}(i)
	}
	wg.Wait()

	if s.AddressCount() != 16 {
		t.Fatalf("AddressCount = %d, want 16", s.AddressCount())
	}
}
