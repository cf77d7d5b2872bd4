package internal

import (
	"strings"
	"testing"
)

func TestNewOTP(t *testing.T) {
	for _, digits := range []int{6, 8, 10} {
		otp, err := NewOTP(digits)
		if err != nil {
			t.Fatalf("NewOTP(%d): %v", digits, err)
		}
		if len(otp) != digits {
			t.Fatalf("expected %d digits, got %q", digits, otp)
		}
		if strings.Trim(otp, "0123456789") != "" {
			t.Fatalf("expected digits only, got %q", otp)
		}
	}
	if _, err := NewOTP(5); err == nil {
		t.Fatalf("expected error for short otp")
	}
}

func TestNewInvitationCode(t *testing.T) {
	code, err := NewInvitationCode(8)
	if err != nil {
		t.Fatalf("NewInvitationCode: %v", err)
	}
	if len(code) != 8 || strings.Trim(code, invitationAlphabet) != "" {
		t.Fatalf("unexpected code %q", code)
	}
	if _, err := NewInvitationCode(40); err == nil {
		t.Fatalf("expected error for long code")
	}
}
