// Package devserver implements the invitation and login-code endpoints used by
// remote.Client, backed by Redis. It exists for local development and
// end-to-end tests.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authflow/authstate"
	"github.com/MrEthical07/authflow/internal"
	"github.com/MrEthical07/authflow/internal/rate"
	"github.com/MrEthical07/authflow/internal/stores"
	"github.com/MrEthical07/authflow/internal/token"
	"github.com/MrEthical07/authflow/remote"
)

const (
	DefaultCodeTTL    = 10 * time.Minute
	DefaultCodeDigits = 6
	maxRequestBytes   = 64 << 10
)

// Mailer delivers a login code.
type Mailer func(ctx context.Context, email, code string) error

// Config configures a Server.
type Config struct {
	// InvitationRequired makes send-code require a live invitation code and
	// verify redeem it.
	InvitationRequired bool
	CodeTTL            time.Duration
	CodeDigits         int
	MaxCodeAttempts    int
	Paths              remote.Paths
	Token              token.Config
	Limit              rate.Config
	Mailer             Mailer
	Logger             *slog.Logger
}

// Server holds the endpoint handlers.
type Server struct {
	cfg         Config
	invitations *stores.InvitationStore
	challenges  *stores.ChallengeStore
	limiter     *rate.Limiter
	tokens      *token.Manager
	logger      *slog.Logger
}

func New(rdb redis.UniversalClient, cfg Config) (*Server, error) {
	if rdb == nil {
		return nil, errors.New("devserver: redis client required")
	}
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = DefaultCodeTTL
	}
	if cfg.CodeDigits == 0 {
		cfg.CodeDigits = DefaultCodeDigits
	}
	if cfg.Paths == (remote.Paths{}) {
		cfg.Paths = remote.DefaultPaths()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Mailer == nil {
		logger := cfg.Logger
		cfg.Mailer = func(_ context.Context, email, code string) error {
			logger.Info("devserver: login code", "email", email, "code", code)
			return nil
		}
	}

	tokens, err := token.NewManager(cfg.Token)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:         cfg,
		invitations: stores.NewInvitationStore(rdb, ""),
		challenges:  stores.NewChallengeStore(rdb, "", cfg.MaxCodeAttempts),
		limiter:     rate.New(rdb, cfg.Limit),
		tokens:      tokens,
		logger:      cfg.Logger,
	}, nil
}

// AddInvitation registers code with uses redemptions.
func (s *Server) AddInvitation(ctx context.Context, code string, uses int, ttl time.Duration) error {
	return s.invitations.Add(ctx, code, uses, ttl)
}

// NewInvitation generates and registers a random code.
func (s *Server) NewInvitation(ctx context.Context, uses int, ttl time.Duration) (string, error) {
	code, err := internal.NewInvitationCode(8)
	if err != nil {
		return "", err
	}
	if err := s.invitations.Add(ctx, code, uses, ttl); err != nil {
		return "", err
	}
	return code, nil
}

// Handler routes every endpoint in cfg.Paths.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+s.cfg.Paths.InvitationRequired, s.handleRequired)
	mux.HandleFunc("POST "+s.cfg.Paths.InvitationValidate, s.handleValidate)
	mux.HandleFunc("POST "+s.cfg.Paths.SendCode, s.handleSendCode)
	mux.HandleFunc("POST "+s.cfg.Paths.Verify, s.handleVerify)
	mux.Handle("POST "+s.cfg.Paths.Logout, Guard(s.tokens)(http.HandlerFunc(s.handleLogout)))
	return mux
}

type failure struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleRequired(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": s.cfg.InvitationRequired})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decode(w, r, &req) {
		return
	}
	if !s.allow(w, r, "invitation", clientIP(r)) {
		return
	}

	err := s.invitations.Check(r.Context(), req.Code)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"valid": true})
	case errors.Is(err, stores.ErrInvitationNotFound), errors.Is(err, stores.ErrInvitationExhausted):
		writeJSON(w, http.StatusOK, map[string]any{"valid": false, "error": "Invalid invitation code"})
	default:
		s.unavailable(w, "validate invitation", err)
	}
}

func (s *Server) handleSendCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email          string `json:"email"`
		InvitationCode string `json:"invitation_code"`
	}
	if !decode(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		writeJSON(w, http.StatusBadRequest, failure{Code: "invalid_email", Message: "Please enter a valid email address."})
		return
	}
	if !s.allow(w, r, "send", email) {
		return
	}

	ctx := r.Context()
	invite := ""
	if s.cfg.InvitationRequired {
		invite = strings.TrimSpace(req.InvitationCode)
		if err := s.invitations.Check(ctx, invite); err != nil {
			s.invitationFailure(w, "check invitation", err)
			return
		}
	}

	code, err := internal.NewOTP(s.cfg.CodeDigits)
	if err != nil {
		s.unavailable(w, "generate code", err)
		return
	}
	if err := s.challenges.Save(ctx, email, code, invite, s.cfg.CodeTTL); err != nil {
		s.unavailable(w, "save challenge", err)
		return
	}
	if err := s.cfg.Mailer(ctx, email, code); err != nil {
		s.unavailable(w, "deliver code", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if !decode(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !s.allow(w, r, "verify", email) {
		return
	}

	ctx := r.Context()
	invite, err := s.challenges.Consume(ctx, email, strings.TrimSpace(req.Code))
	switch {
	case err == nil:
	case errors.Is(err, stores.ErrChallengeMismatch), errors.Is(err, stores.ErrChallengeNotFound):
		writeJSON(w, http.StatusOK, failure{Code: "invalid_code", Message: "Invalid verification code. Please try again."})
		return
	case errors.Is(err, stores.ErrChallengeAttemptsExceeded):
		writeJSON(w, http.StatusOK, failure{Code: "attempts_exceeded", Message: "Too many attempts. Request a new code."})
		return
	default:
		s.unavailable(w, "consume challenge", err)
		return
	}

	// A use is spent only once a login code is confirmed.
	if s.cfg.InvitationRequired {
		if _, err := s.invitations.Redeem(ctx, invite); err != nil {
			s.invitationFailure(w, "redeem invitation", err)
			return
		}
	}

	tok, err := s.tokens.Issue(email)
	if err != nil {
		s.unavailable(w, "issue token", err)
		return
	}
	_ = s.limiter.Reset(ctx, "verify", email)
	writeJSON(w, http.StatusOK, remote.VerifyResponse{Success: true, Token: tok})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		s.logger.Debug("devserver: logout", "email", claims.Email)
	}
	w.WriteHeader(http.StatusNoContent)
}

// allow applies the rate limit and writes the refusal. It reports whether the
// request may continue.
func (s *Server) allow(w http.ResponseWriter, r *http.Request, scope, subject string) bool {
	err := s.limiter.Allow(r.Context(), scope, subject)
	switch {
	case err == nil:
		return true
	case errors.Is(err, rate.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, failure{Code: "rate_limited", Message: "Too many requests. Please wait and try again."})
	default:
		s.unavailable(w, "rate limit", err)
	}
	return false
}

// invitationFailure writes the refusal for a missing or spent invitation code.
func (s *Server) invitationFailure(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, stores.ErrInvitationUnavailable) {
		s.unavailable(w, op, err)
		return
	}
	writeJSON(w, http.StatusForbidden, failure{Code: authstate.CodeInvitationRequired, Message: "A valid invitation code is required."})
}

func (s *Server) unavailable(w http.ResponseWriter, op string, err error) {
	s.logger.Error("devserver: "+op+" failed", "error", err)
	writeJSON(w, http.StatusServiceUnavailable, failure{Code: "unavailable"})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, failure{Code: "bad_request", Message: fmt.Sprintf("malformed body: %v", err)})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
