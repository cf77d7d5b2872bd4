package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestInvitationRedeemCountsUses(t *testing.T) {
	_, rdb := newTestRedis(t)
	s := NewInvitationStore(rdb, "")
	ctx := context.Background()

	if err := s.Add(ctx, "ABC123", 2, 0); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Check(ctx, " ABC123 "); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if n, err := s.Redeem(ctx, "ABC123"); err != nil || n != 1 {
		t.Fatalf("first Redeem = %d, %v", n, err)
	}
	if n, err := s.Redeem(ctx, "ABC123"); err != nil || n != 0 {
		t.Fatalf("second Redeem = %d, %v", n, err)
	}
	if _, err := s.Redeem(ctx, "ABC123"); !errors.Is(err, ErrInvitationNotFound) {
		t.Fatalf("expected ErrInvitationNotFound after last use, got %v", err)
	}
	if err := s.Check(ctx, "ABC123"); !errors.Is(err, ErrInvitationNotFound) {
		t.Fatalf("expected spent code to be gone, got %v", err)
	}
}

func TestInvitationStoresDigestOnly(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewInvitationStore(rdb, "inv")
	if err := s.Add(context.Background(), "SECRET1", 1, time.Hour); err != nil {
		t.Fatalf("Add: %v", err)
	}
	for _, k := range mr.Keys() {
		if k == "inv:SECRET1" {
			t.Fatalf("code stored in clear")
		}
	}
	if ttl := mr.TTL(s.key("SECRET1")); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}
}

func TestInvitationExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewInvitationStore(rdb, "")
	ctx := context.Background()
	if err := s.Add(ctx, "TEMP", 1, time.Minute); err != nil {
		t.Fatalf("Add: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if err := s.Check(ctx, "TEMP"); !errors.Is(err, ErrInvitationNotFound) {
		t.Fatalf("expected expired code to be missing, got %v", err)
	}
}

func TestInvitationUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewInvitationStore(rdb, "")
	mr.Close()
	if err := s.Check(context.Background(), "X"); !errors.Is(err, ErrInvitationUnavailable) {
		t.Fatalf("expected ErrInvitationUnavailable, got %v", err)
	}
}

func TestChallengeConsume(t *testing.T) {
	_, rdb := newTestRedis(t)
	s := NewChallengeStore(rdb, "", 3)
	ctx := context.Background()

	if err := s.Save(ctx, "A@B.com", "123456", "", time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := s.Consume(ctx, "a@b.com", "000000"); !errors.Is(err, ErrChallengeMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	invite, err := s.Consume(ctx, " a@b.com", "123456")
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if invite != "" {
		t.Fatalf("expected no invitation code, got %q", invite)
	}
	if _, err := s.Consume(ctx, "a@b.com", "123456"); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected single use, got %v", err)
	}
}

func TestChallengeAttemptCap(t *testing.T) {
	_, rdb := newTestRedis(t)
	s := NewChallengeStore(rdb, "", 2)
	ctx := context.Background()

	if err := s.Save(ctx, "a@b.com", "123456", "", time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := s.Consume(ctx, "a@b.com", "1"); !errors.Is(err, ErrChallengeMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if _, err := s.Consume(ctx, "a@b.com", "2"); !errors.Is(err, ErrChallengeAttemptsExceeded) {
		t.Fatalf("expected attempts exceeded, got %v", err)
	}
	if _, err := s.Consume(ctx, "a@b.com", "123456"); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected challenge deleted at the cap, got %v", err)
	}
}

func TestChallengeSaveReplaces(t *testing.T) {
	_, rdb := newTestRedis(t)
	s := NewChallengeStore(rdb, "", 5)
	ctx := context.Background()

	_ = s.Save(ctx, "a@b.com", "111111", "", time.Minute)
	_ = s.Save(ctx, "a@b.com", "222222", "INV1", time.Minute)
	if _, err := s.Consume(ctx, "a@b.com", "111111"); !errors.Is(err, ErrChallengeMismatch) {
		t.Fatalf("expected old code rejected, got %v", err)
	}
	invite, err := s.Consume(ctx, "a@b.com", "222222")
	if err != nil {
		t.Fatalf("expected new code accepted, got %v", err)
	}
	if invite != "INV1" {
		t.Fatalf("expected the latest invitation code, got %q", invite)
	}
}
