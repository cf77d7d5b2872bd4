package authstate

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryLoginLogout(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if got := m.Snapshot(); got.IsAuthenticated || got.User != nil {
		t.Fatalf("expected unauthenticated snapshot, got %+v", got)
	}

	res, err := m.Login(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !res.Success || res.User == nil || res.User.Email != "a@b.com" {
		t.Fatalf("unexpected login result %+v", res)
	}

	snap := m.Snapshot()
	if !snap.IsAuthenticated || snap.Email() != "a@b.com" {
		t.Fatalf("expected authenticated snapshot, got %+v", snap)
	}

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if m.Snapshot().IsAuthenticated {
		t.Fatal("expected unauthenticated after logout")
	}

	logins, logouts := m.Calls()
	if logins != 1 || logouts != 1 {
		t.Fatalf("expected 1/1 calls, got %d/%d", logins, logouts)
	}
}

func TestMemoryLoginEmptyIdentifier(t *testing.T) {
	m := NewMemory()
	if _, err := m.Login(context.Background(), ""); !errors.Is(err, ErrEmptyIdentifier) {
		t.Fatalf("expected ErrEmptyIdentifier, got %v", err)
	}
}

func TestMemoryResolverRejects(t *testing.T) {
	m := NewMemory().WithResolver(func(string) (string, bool) { return "", false })

	res, err := m.Login(context.Background(), "ticket")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.Success || res.Code == "" {
		t.Fatalf("expected unsuccessful result with code, got %+v", res)
	}
	if m.Snapshot().IsAuthenticated {
		t.Fatal("rejected login must not authenticate")
	}
}

func TestSnapshotCopiesAreIndependent(t *testing.T) {
	m := NewMemory()
	m.Set(Snapshot{IsAuthenticated: true, User: &User{Email: "x@y.z"}})

	snap := m.Snapshot()
	snap.User.Email = "mutated"

	if got := m.Snapshot().Email(); got != "x@y.z" {
		t.Fatalf("snapshot leaked internal state, got %q", got)
	}
}

func TestSetNormalisesInvalidSnapshot(t *testing.T) {
	m := NewMemory()
	m.Set(Snapshot{IsAuthenticated: true})

	if m.Snapshot().IsAuthenticated {
		t.Fatal("authenticated without user must be normalised to unauthenticated")
	}
}

func TestRejectionErrorUnwraps(t *testing.T) {
	var err error = &RejectionError{Code: "invalid_code", Message: "Wrong code."}
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected")
	}
	var rej *RejectionError
	if !errors.As(err, &rej) || rej.Message != "Wrong code." {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if err.Error() != "request rejected: invalid_code" {
		t.Fatalf("unexpected text %q", err.Error())
	}
}
