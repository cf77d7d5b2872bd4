package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrInvitationNotFound    = errors.New("invitation code not found")
	ErrInvitationExhausted   = errors.New("invitation code has no uses left")
	ErrInvitationUnavailable = errors.New("invitation redis unavailable")
)

// redeemInvitationLua atomically spends one use of an invitation code.
// KEYS[1] = code key
//
// Returns the remaining uses, or an error string: "not_found", "exhausted".
var redeemInvitationLua = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
  return {err='not_found'}
end
if tonumber(v) <= 0 then
  redis.call('DEL', KEYS[1])
  return {err='exhausted'}
end
local n = redis.call('DECR', KEYS[1])
if n <= 0 then
  redis.call('DEL', KEYS[1])
end
return n
`)

// InvitationStore keeps invitation codes keyed by digest.
type InvitationStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewInvitationStore(redisClient redis.UniversalClient, prefix string) *InvitationStore {
	if prefix == "" {
		prefix = "afi"
	}
	return &InvitationStore{redis: redisClient, prefix: prefix}
}

func (s *InvitationStore) key(code string) string {
	return s.prefix + ":" + digest(strings.TrimSpace(code))
}

// Add registers code with uses redemptions. A zero ttl never expires.
func (s *InvitationStore) Add(ctx context.Context, code string, uses int, ttl time.Duration) error {
	if strings.TrimSpace(code) == "" || uses <= 0 {
		return fmt.Errorf("invitation: code and a positive use count are required")
	}
	if err := s.redis.Set(ctx, s.key(code), uses, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvitationUnavailable, err)
	}
	return nil
}

// Check reports whether code exists with at least one use left. It does not
// spend a use.
func (s *InvitationStore) Check(ctx context.Context, code string) error {
	n, err := s.redis.Get(ctx, s.key(code)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrInvitationNotFound
		}
		return fmt.Errorf("%w: %v", ErrInvitationUnavailable, err)
	}
	if n <= 0 {
		return ErrInvitationExhausted
	}
	return nil
}

// Redeem spends one use of code and returns the uses left.
func (s *InvitationStore) Redeem(ctx context.Context, code string) (int, error) {
	res, err := redeemInvitationLua.Run(ctx, s.redis, []string{s.key(code)}).Int64()
	if err != nil {
		switch err.Error() {
		case "not_found":
			return 0, ErrInvitationNotFound
		case "exhausted":
			return 0, ErrInvitationExhausted
		default:
			return 0, fmt.Errorf("%w: %v", ErrInvitationUnavailable, err)
		}
	}
	return int(res), nil
}
