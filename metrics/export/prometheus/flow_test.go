package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/authflow"
	"github.com/MrEthical07/authflow/authstate"
	"github.com/MrEthical07/authflow/invitation"
	"github.com/MrEthical07/authflow/syncstate"
	"github.com/MrEthical07/authflow/view"
)

type openGate struct{}

func (openGate) Required(context.Context) (bool, error) { return false, nil }
func (openGate) Validate(context.Context, string) (invitation.ValidateResult, error) {
	return invitation.ValidateResult{}, nil
}

type nopCodes struct{}

func (nopCodes) SendCode(context.Context, string, string) error { return nil }
func (nopCodes) VerifyCode(context.Context, string, string) (string, error) {
	return "", nil
}

type idle struct{}

type nopStop struct{}

func (nopStop) Stop() {}

func (idle) Every(time.Duration, func()) syncstate.Stopper { return nopStop{} }
func (idle) After(time.Duration, func()) syncstate.Stopper { return nopStop{} }

func newFlow(t *testing.T) *authflow.Flow {
	t.Helper()
	f, err := authflow.New().
		WithDocument(view.NewLayout(view.Layout{IDs: view.DefaultIDs()})).
		WithAuthProvider(authstate.NewMemory()).
		WithInvitationClient(openGate{}).
		WithCodeSender(nopCodes{}).
		WithScheduler(idle{}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(f.Close)
	return f
}
