package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrChallengeNotFound         = errors.New("verification challenge not found")
	ErrChallengeMismatch         = errors.New("verification code mismatch")
	ErrChallengeAttemptsExceeded = errors.New("verification attempts exceeded")
	ErrChallengeUnavailable      = errors.New("verification redis unavailable")
)

// consumeChallengeLua checks a code against the pending challenge.
// KEYS[1] = challenge key
// ARGV[1] = provided code digest
// ARGV[2] = max attempts
//
// Returns the invitation code saved with the challenge on success, or an error string: "not_found", "mismatch",
// "attempts_exceeded". The challenge is deleted on success and when the
// attempt cap is reached.
var consumeChallengeLua = redis.NewScript(`
local h = redis.call('HGET', KEYS[1], 'h')
if not h then
  return {err='not_found'}
end
if h ~= ARGV[1] then
  local a = redis.call('HINCRBY', KEYS[1], 'a', 1)
  if a >= tonumber(ARGV[2]) then
    redis.call('DEL', KEYS[1])
    return {err='attempts_exceeded'}
  end
  return {err='mismatch'}
end
local i = redis.call('HGET', KEYS[1], 'i') or ''
redis.call('DEL', KEYS[1])
return i
`)

// ChallengeStore keeps one pending verification code per email.
type ChallengeStore struct {
	redis       redis.UniversalClient
	prefix      string
	maxAttempts int
}

func NewChallengeStore(redisClient redis.UniversalClient, prefix string, maxAttempts int) *ChallengeStore {
	if prefix == "" {
		prefix = "afc"
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &ChallengeStore{redis: redisClient, prefix: prefix, maxAttempts: maxAttempts}
}

func (s *ChallengeStore) key(email string) string {
	return s.prefix + ":" + digest(normalizeEmail(email))
}

// Save replaces any pending challenge for email. invite is the invitation
// code the challenge was requested with, empty when none was needed.
func (s *ChallengeStore) Save(ctx context.Context, email, code, invite string, ttl time.Duration) error {
	key := s.key(email)
	_, err := s.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, "h", digest(code), "a", 0, "i", invite)
		p.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
	}
	return nil
}

// Consume verifies code for email and returns the invitation code saved with
// the challenge.
func (s *ChallengeStore) Consume(ctx context.Context, email, code string) (string, error) {
	invite, err := consumeChallengeLua.Run(ctx, s.redis, []string{s.key(email)}, digest(code), s.maxAttempts).Text()
	if err == nil {
		return invite, nil
	}
	switch err.Error() {
	case "not_found":
		return "", ErrChallengeNotFound
	case "mismatch":
		return "", ErrChallengeMismatch
	case "attempts_exceeded":
		return "", ErrChallengeAttemptsExceeded
	default:
		return "", fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
	}
}
