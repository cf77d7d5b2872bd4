package authstate

import (
	"context"
	"errors"
	"sync"
)

// User is the authenticated principal as exposed to presentation code.
type User struct {
	Email string `json:"email"`
}

// Snapshot is a point-in-time copy of the provider's authentication state.
//
// IsAuthenticated implies User != nil. Providers must uphold this; [Snapshot.Valid]
// reports whether they did.
type Snapshot struct {
	IsAuthenticated bool
	User            *User
}

// Valid reports whether the snapshot honours IsAuthenticated => User != nil.
func (s Snapshot) Valid() bool {
	return !s.IsAuthenticated || s.User != nil
}

// Email returns the authenticated user's email, or "" when unauthenticated.
func (s Snapshot) Email() string {
	if !s.IsAuthenticated || s.User == nil {
		return ""
	}
	return s.User.Email
}

// LoginResult is the outcome reported by [Provider.Login].
//
// Code is a machine-readable failure code and Message a human-readable one; both
// are empty on success.
type LoginResult struct {
	Success bool
	User    *User
	Code    string
	Message string
}

// Provider owns the authoritative authentication state.
type Provider interface {
	Snapshot() Snapshot
	Login(ctx context.Context, identifier string) (LoginResult, error)
	Logout(ctx context.Context) error
}

// ErrEmptyIdentifier is returned by [Memory.Login] when identifier is blank.
var ErrEmptyIdentifier = errors.New("empty login identifier")

// Memory is a mutex-guarded in-process [Provider].
//
// Login resolves the identifier to an email through the configured resolver; the
// default resolver treats the identifier itself as the email.
type Memory struct {
	mu       sync.RWMutex
	snapshot Snapshot
	resolve  func(identifier string) (string, bool)

	logins  int
	logouts int
}

// NewMemory returns an unauthenticated in-memory provider.
func NewMemory() *Memory {
	return &Memory{
		resolve: func(identifier string) (string, bool) {
			return identifier, true
		},
	}
}

// WithResolver replaces the identifier-to-email resolver. A resolver returning
// false makes Login report an unsuccessful result.
func (m *Memory) WithResolver(resolve func(identifier string) (string, bool)) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	if resolve != nil {
		m.resolve = resolve
	}
	return m
}

func (m *Memory) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySnapshot(m.snapshot)
}

// Set replaces the held snapshot. Setting IsAuthenticated without a user is
// normalised to unauthenticated.
func (m *Memory) Set(s Snapshot) {
	if !s.Valid() {
		s = Snapshot{}
	}
	m.mu.Lock()
	m.snapshot = copySnapshot(s)
	m.mu.Unlock()
}

func (m *Memory) Login(ctx context.Context, identifier string) (LoginResult, error) {
	if err := ctx.Err(); err != nil {
		return LoginResult{}, err
	}
	if identifier == "" {
		return LoginResult{}, ErrEmptyIdentifier
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins++

	email, ok := m.resolve(identifier)
	if !ok {
		return LoginResult{Success: false, Code: "invalid_identifier", Message: "Login failed."}, nil
	}

	user := &User{Email: email}
	m.snapshot = Snapshot{IsAuthenticated: true, User: user}
	return LoginResult{Success: true, User: &User{Email: email}}, nil
}

func (m *Memory) Logout(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.logouts++
	m.snapshot = Snapshot{}
	m.mu.Unlock()
	return nil
}

// Calls returns how many times Login and Logout were invoked.
func (m *Memory) Calls() (logins, logouts int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.logins, m.logouts
}

func copySnapshot(s Snapshot) Snapshot {
	out := Snapshot{IsAuthenticated: s.IsAuthenticated}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}
