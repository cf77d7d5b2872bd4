package syncstate

import "github.com/MrEthical07/authflow/authstate"

// Presentation is what the page currently shows.
type Presentation struct {
	LinksVisible    bool
	UserInfoVisible bool
	EmailText       string
}

// Plan describes the mutations required to make the page match a snapshot.
// When NeedsSync is false the page already matches and nothing is applied.
type Plan struct {
	NeedsSync    bool
	ShowLinks    bool
	ShowUserInfo bool
	SetEmail     bool
	Email        string
}

// Reconcile compares a snapshot with the page.
//
// The page is inconsistent when it is authenticated but shows the links or
// hides the user info, or unauthenticated but shows the user info or hides
// the links.
func Reconcile(s authstate.Snapshot, p Presentation) Plan {
	auth := s.IsAuthenticated
	needsSync := (auth && p.LinksVisible) ||
		(auth && !p.UserInfoVisible) ||
		(!auth && p.UserInfoVisible) ||
		(!auth && !p.LinksVisible)

	if !needsSync {
		return Plan{}
	}
	if auth {
		return Plan{
			NeedsSync:    true,
			ShowLinks:    false,
			ShowUserInfo: true,
			SetEmail:     true,
			Email:        s.Email(),
		}
	}
	return Plan{
		NeedsSync:    true,
		ShowLinks:    true,
		ShowUserInfo: false,
	}
}
