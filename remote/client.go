package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/MrEthical07/authflow/authstate"
	"github.com/MrEthical07/authflow/internal/token"
	"github.com/MrEthical07/authflow/internal/transport"
	"github.com/MrEthical07/authflow/invitation"
)

// Client bundles the three collaborators over one HTTP client.
type Client struct {
	Invitations *InvitationClient
	Codes       *CodeClient
	Auth        *AuthManager

	http *transport.Client
}

// New validates cfg and builds the collaborators.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	hc := transport.New(transport.Config{
		Timeout:    cfg.Timeout,
		DNSCache:   cfg.DNSCache,
		DNSRefresh: cfg.DNSRefresh,
	})
	return &Client{
		Invitations: &InvitationClient{cfg: cfg, http: hc.Client},
		Codes:       &CodeClient{cfg: cfg, http: hc.Client},
		Auth:        &AuthManager{cfg: cfg, http: hc.Client},
		http:        hc,
	}, nil
}

// Close releases the HTTP client.
func (c *Client) Close() {
	c.http.Close()
}

type requiredResponse struct {
	Enabled bool `json:"enabled"`
}

type codeRequest struct {
	Code string `json:"code"`
}

// InvitationClient implements [invitation.Client].
type InvitationClient struct {
	cfg  Config
	http *http.Client
}

func (c *InvitationClient) Required(ctx context.Context) (bool, error) {
	var out requiredResponse
	err := transport.DoJSON(ctx, c.http, http.MethodGet, c.cfg.endpoint(c.cfg.Paths.InvitationRequired), nil, &out)
	if err != nil {
		return false, protocolError(err, invitation.ErrTransport)
	}
	return out.Enabled, nil
}

func (c *InvitationClient) Validate(ctx context.Context, code string) (invitation.ValidateResult, error) {
	var out invitation.ValidateResult
	err := transport.DoJSON(ctx, c.http, http.MethodPost, c.cfg.endpoint(c.cfg.Paths.InvitationValidate), codeRequest{Code: code}, &out)
	if err != nil {
		return invitation.ValidateResult{}, protocolError(err, invitation.ErrTransport)
	}
	return out, nil
}

// protocolError wraps status and decode failures with sentinel. Network errors
// pass through.
func protocolError(err, sentinel error) error {
	if errors.Is(err, transport.ErrStatus) || errors.Is(err, transport.ErrDecode) {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	return err
}

type sendCodeRequest struct {
	Email          string `json:"email"`
	InvitationCode string `json:"invitation_code,omitempty"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyResponse is the body of a verification response.
type VerifyResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// CodeClient implements [authstate.CodeSender].
type CodeClient struct {
	cfg  Config
	http *http.Client
}

func (c *CodeClient) SendCode(ctx context.Context, email, invitationCode string) error {
	err := transport.DoJSON(ctx, c.http, http.MethodPost, c.cfg.endpoint(c.cfg.Paths.SendCode),
		sendCodeRequest{Email: email, InvitationCode: invitationCode}, nil)
	return rejection(err)
}

// VerifyCode returns the session token issued for email.
func (c *CodeClient) VerifyCode(ctx context.Context, email, code string) (string, error) {
	var out VerifyResponse
	err := transport.DoJSON(ctx, c.http, http.MethodPost, c.cfg.endpoint(c.cfg.Paths.Verify),
		verifyRequest{Email: email, Code: code}, &out)
	if err != nil {
		return "", rejection(err)
	}
	if !out.Success || out.Token == "" {
		return "", &authstate.RejectionError{Code: out.Code, Message: out.Message}
	}
	return out.Token, nil
}

// rejection turns a 4xx response into an authstate.RejectionError, reading
// code and message from its body when present.
func rejection(err error) error {
	if err == nil {
		return nil
	}
	var se *transport.StatusError
	if !errors.As(err, &se) || se.Code < 400 || se.Code > 499 {
		return err
	}
	var body VerifyResponse
	_ = json.Unmarshal(se.Body, &body)
	if body.Code == "" {
		body.Code = strings.ReplaceAll(strings.ToLower(http.StatusText(se.Code)), " ", "_")
	}
	return &authstate.RejectionError{Code: body.Code, Message: body.Message}
}

// AuthManager is an [authstate.Provider] backed by a session token.
//
// Login takes the token returned by [CodeClient.VerifyCode]. The token's email
// claim is read without verifying the signature; the server remains the only
// authority on the token.
type AuthManager struct {
	cfg  Config
	http *http.Client

	mu       sync.RWMutex
	token    string
	snapshot authstate.Snapshot
}

func (a *AuthManager) Snapshot() authstate.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := a.snapshot
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Token returns the held session token, or "".
func (a *AuthManager) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *AuthManager) Login(ctx context.Context, identifier string) (authstate.LoginResult, error) {
	if err := ctx.Err(); err != nil {
		return authstate.LoginResult{}, err
	}
	if identifier == "" {
		return authstate.LoginResult{}, authstate.ErrEmptyIdentifier
	}
	email, err := token.EmailFromUnverified(identifier)
	if err != nil {
		return authstate.LoginResult{Success: false, Code: "invalid_token", Message: "Login failed."}, nil
	}

	a.mu.Lock()
	a.token = identifier
	a.snapshot = authstate.Snapshot{IsAuthenticated: true, User: &authstate.User{Email: email}}
	a.mu.Unlock()
	return authstate.LoginResult{Success: true, User: &authstate.User{Email: email}}, nil
}

// Logout clears local state first, then tells the server. The local state is
// cleared even when the server call fails.
func (a *AuthManager) Logout(ctx context.Context) error {
	a.mu.Lock()
	tok := a.token
	a.token = ""
	a.snapshot = authstate.Snapshot{}
	a.mu.Unlock()

	if tok == "" {
		return nil
	}
	return transport.DoJSON(ctx, a.http, http.MethodPost, a.cfg.endpoint(a.cfg.Paths.Logout), nil, nil, transport.WithBearer(tok))
}
