package identity

import (
	"testing"

	"taskticker-api/domain"
)

func TestSessionStartsLoading(t *testing.T) {
	s := NewSession()
	if !s.Loading() {
		t.Fatal("new session should be loading")
	}
	if s.Identity() != nil {
		t.Fatal("new session should have no identity")
	}
}

func TestSessionFirstNotificationEndsLoading(t *testing.T) {
	s := NewSession()
	s.Set(nil)
	if s.Loading() {
		t.Fatal("session should have left the loading phase")
	}
	if s.Identity() != nil {
		t.Fatal("nil notification should mean logged out")
	}
}

func TestSessionSetNotifiesSubscribers(t *testing.T) {
	s := NewSession()

	var got []*domain.Identity
	unsubscribe := s.Subscribe(func(id *domain.Identity) {
		got = append(got, id)
	})

	if len(got) != 0 {
		t.Fatal("subscriber must not fire while loading")
	}

	s.Set(&domain.Identity{ID: "u1", Email: "a@x.com"})
	if len(got) != 1 || got[0] == nil || got[0].ID != "u1" {
		t.Fatalf("expected one login notification, got %+v", got)
	}

	s.Set(nil)
	if len(got) != 2 || got[1] != nil {
		t.Fatalf("expected logout notification, got %+v", got)
	}

	unsubscribe()
	s.Set(&domain.Identity{ID: "u2"})
	if len(got) != 2 {
		t.Fatal("unsubscribed callback must not fire")
	}
}

func TestSessionSubscribeAfterResolveFiresImmediately(t *testing.T) {
	s := NewSession()
	s.Set(&domain.Identity{ID: "u1"})

	var got *domain.Identity
	fired := false
	s.Subscribe(func(id *domain.Identity) {
		fired = true
		got = id
	})
	if !fired || got == nil || got.ID != "u1" {
		t.Fatalf("expected immediate notification with current identity, got fired=%v id=%+v", fired, got)
	}
}

func TestSessionIdentityReturnsCopy(t *testing.T) {
	s := NewAuthenticatedSession(domain.Identity{ID: "u1", Email: "a@x.com"})
	first := s.Identity()
	first.Email = "mutated@x.com"
	if s.Identity().Email != "a@x.com" {
		t.Fatal("mutating the returned identity must not affect the session")
	}
}

func TestAuthenticatedSessionIsResolved(t *testing.T) {
	s := NewAuthenticatedSession(domain.Identity{ID: "u1"})
	if s.Loading() {
		t.Fatal("authenticated session must not be loading")
	}
	if id := s.Identity(); id == nil || id.ID != "u1" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}
