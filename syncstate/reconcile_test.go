package syncstate

import (
	"testing"

	"github.com/MrEthical07/authflow/authstate"
)

func TestReconcile(t *testing.T) {
	signedIn := authstate.Snapshot{IsAuthenticated: true, User: &authstate.User{Email: "a@b.com"}}
	signedOut := authstate.Snapshot{}

	tests := []struct {
		name string
		snap authstate.Snapshot
		pres Presentation
		want Plan
	}{
		{
			name: "signed in and consistent",
			snap: signedIn,
			pres: Presentation{UserInfoVisible: true, EmailText: "a@b.com"},
			want: Plan{},
		},
		{
			name: "signed in with links showing",
			snap: signedIn,
			pres: Presentation{LinksVisible: true, UserInfoVisible: true},
			want: Plan{NeedsSync: true, ShowUserInfo: true, SetEmail: true, Email: "a@b.com"},
		},
		{
			name: "signed in with user info hidden",
			snap: signedIn,
			pres: Presentation{},
			want: Plan{NeedsSync: true, ShowUserInfo: true, SetEmail: true, Email: "a@b.com"},
		},
		{
			name: "signed out and consistent",
			snap: signedOut,
			pres: Presentation{LinksVisible: true},
			want: Plan{},
		},
		{
			name: "signed out with user info showing",
			snap: signedOut,
			pres: Presentation{LinksVisible: true, UserInfoVisible: true},
			want: Plan{NeedsSync: true, ShowLinks: true},
		},
		{
			name: "signed out with links hidden",
			snap: signedOut,
			pres: Presentation{},
			want: Plan{NeedsSync: true, ShowLinks: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Reconcile(tc.snap, tc.pres); got != tc.want {
				t.Fatalf("Reconcile() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestReconcileStaleEmailAloneIsConsistent(t *testing.T) {
	snap := authstate.Snapshot{IsAuthenticated: true, User: &authstate.User{Email: "new@b.com"}}
	plan := Reconcile(snap, Presentation{UserInfoVisible: true, EmailText: "old@b.com"})
	if plan.NeedsSync {
		t.Fatalf("email text is not one of the visibility predicates")
	}
}
