package authflow

import (
	"github.com/MrEthical07/authflow/authstate"
	"github.com/MrEthical07/authflow/invitation"
	"github.com/MrEthical07/authflow/step"
	"github.com/MrEthical07/authflow/syncstate"
)

// AuthStateProvider owns the authoritative authentication state.
type AuthStateProvider = authstate.Provider

// AuthSnapshot is a point-in-time copy of the provider's state.
type AuthSnapshot = authstate.Snapshot

// User is the authenticated principal.
type User = authstate.User

// LoginResult is the outcome of AuthStateProvider.Login.
type LoginResult = authstate.LoginResult

// CodeSender sends and verifies the emailed login code.
type CodeSender = authstate.CodeSender

// InvitationClient performs the invitation required-check and validation.
type InvitationClient = invitation.Client

// StepSwitcher changes the visible step. *Flow implements it.
type StepSwitcher = step.Switcher

// SyncState is a copy of the presentation reconciler's retry bookkeeping.
type SyncState = syncstate.AttemptState

// Scheduler runs the reconciler's timers.
type Scheduler = syncstate.Scheduler
