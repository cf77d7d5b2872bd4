package invitation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/authflow/step"
	"github.com/MrEthical07/authflow/view"
)

// State is the invitation gate state for one flow session.
type State uint8

const (
	Uninitialized State = iota
	Checking
	Gated
	Bypassed
	Verified
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Checking:
		return "checking"
	case Gated:
		return "gated"
	case Bypassed:
		return "bypassed"
	case Verified:
		return "verified"
	default:
		return "unknown"
	}
}

// ValidateResult is the decoded body of a validation response.
type ValidateResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Client performs the two remote calls the gate depends on.
//
// Validate returns an error wrapping [ErrTransport] for non-2xx statuses and
// malformed bodies; any other error is treated as a network failure.
type Client interface {
	Required(ctx context.Context) (bool, error)
	Validate(ctx context.Context, code string) (ValidateResult, error)
}

// ProgressMarker marks a progress indicator complete.
type ProgressMarker interface {
	MarkRankComplete(rank int)
}

// Metrics holds the metric ids passed to Deps.MetricInc.
type Metrics struct {
	Required     int
	Bypassed     int
	FailOpen     int
	Accepted     int
	Rejected     int
	NetworkError int
	Stale        int
}

// Events holds the event type names passed to Deps.EmitEvent.
type Events struct {
	Checked  string
	Verified string
	Rejected string
}

// Deps groups the collaborators of a Manager. Nil functions are replaced by no-ops.
type Deps struct {
	Switcher step.Switcher
	Progress ProgressMarker
	Document view.Document

	InputID  string
	ErrorID  string
	SubmitID string

	Logger *slog.Logger
	Now    func() time.Time

	MetricInc      func(int)
	ObserveLatency func(time.Duration)
	EmitEvent      func(ctx context.Context, eventType string, success bool, err error, metadata func() map[string]string)

	Metrics Metrics
	Events  Events
}

func normalizeDeps(d *Deps) {
	if d.Switcher == nil {
		d.Switcher = step.SwitcherFunc(func(step.Step) {})
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.MetricInc == nil {
		d.MetricInc = func(int) {}
	}
	if d.ObserveLatency == nil {
		d.ObserveLatency = func(time.Duration) {}
	}
	if d.EmitEvent == nil {
		d.EmitEvent = func(context.Context, string, bool, error, func() map[string]string) {}
	}
	ids := view.DefaultIDs()
	if d.InputID == "" {
		d.InputID = ids.InvitationInput
	}
	if d.ErrorID == "" {
		d.ErrorID = ids.InvitationError
	}
}

// Manager owns the invitation state of one flow session. It is safe for
// concurrent use.
type Manager struct {
	client Client
	deps   Deps

	mu       sync.Mutex
	state    State
	enabled  bool
	verified bool
	code     string
	seq      uint64
	lastErr  string
}

// New returns an uninitialized manager.
func New(client Client, deps Deps) *Manager {
	normalizeDeps(&deps)
	return &Manager{client: client, deps: deps}
}

// Init runs the remote required-check once per session and switches to the
// invitation step when gated, or straight to the email step otherwise. Calling
// Init again without Reset returns the settled state without another check.
func (m *Manager) Init(ctx context.Context) State {
	m.mu.Lock()
	if m.state != Uninitialized {
		st := m.state
		m.mu.Unlock()
		return st
	}
	m.state = Checking
	seq := m.seq
	m.mu.Unlock()

	enabled := false
	failOpen := false
	if m.client == nil {
		failOpen = true
	} else if required, err := m.client.Required(ctx); err != nil {
		failOpen = true
	} else {
		enabled = required
	}

	m.mu.Lock()
	if seq != m.seq {
		// Reset ran while the check was in flight.
		st := m.state
		m.mu.Unlock()
		return st
	}
	m.enabled = enabled
	if enabled {
		m.state = Gated
	} else {
		m.state = Bypassed
	}
	st := m.state
	m.mu.Unlock()

	if failOpen {
		m.deps.MetricInc(m.deps.Metrics.FailOpen)
		m.deps.Logger.Debug("invitation: required-check unavailable, continuing ungated")
	}
	m.deps.EmitEvent(ctx, m.deps.Events.Checked, true, nil, func() map[string]string {
		return map[string]string{
			"state":     st.String(),
			"fail_open": fmt.Sprint(failOpen),
		}
	})

	if enabled {
		m.deps.MetricInc(m.deps.Metrics.Required)
		m.clearError()
		m.deps.Switcher.SwitchStep(step.Invitation)
		m.focusInput()
	} else {
		m.deps.MetricInc(m.deps.Metrics.Bypassed)
		m.deps.Switcher.SwitchStep(step.Email)
	}
	m.deps.Logger.Debug("invitation: initialized", "state", st.String())
	return st
}

// Submit validates raw against the server. Whitespace is trimmed; an empty code
// fails locally. On success the gate moves to Verified, the flow switches to the
// email step, and the first progress indicator is marked complete.
func (m *Manager) Submit(ctx context.Context, raw string) error {
	code := strings.TrimSpace(raw)

	m.mu.Lock()
	switch m.state {
	case Verified:
		m.mu.Unlock()
		return nil
	case Gated:
	default:
		m.mu.Unlock()
		return ErrNotGated
	}
	if code == "" {
		m.mu.Unlock()
		m.showError(MessageEmptyCode)
		m.focusInput()
		return ErrEmptyCode
	}
	m.seq++
	seq := m.seq
	m.code = code
	m.mu.Unlock()

	if m.client == nil {
		return m.fail(ctx, seq, MessageNetwork, m.deps.Metrics.NetworkError, ErrNetwork)
	}

	m.setBusy(true)
	start := m.deps.Now()
	res, err := m.client.Validate(ctx, code)
	m.deps.ObserveLatency(m.deps.Now().Sub(start))

	m.mu.Lock()
	if seq != m.seq {
		m.mu.Unlock()
		m.deps.MetricInc(m.deps.Metrics.Stale)
		m.deps.Logger.Debug("invitation: discarded superseded response", "seq", seq)
		return ErrStaleResponse
	}

	switch {
	case err == nil && res.Valid:
		m.verified = true
		m.state = Verified
		m.mu.Unlock()

		m.setBusy(false)
		m.clearError()
		m.deps.MetricInc(m.deps.Metrics.Accepted)
		m.deps.EmitEvent(ctx, m.deps.Events.Verified, true, nil, nil)
		m.deps.Logger.Debug("invitation: verified")

		m.deps.Switcher.SwitchStep(step.Email)
		if m.deps.Progress != nil {
			m.deps.Progress.MarkRankComplete(1)
		}
		return nil

	case err != nil && !errors.Is(err, ErrTransport):
		m.mu.Unlock()
		return m.fail(ctx, seq, MessageNetwork, m.deps.Metrics.NetworkError, fmt.Errorf("%w: %v", ErrNetwork, err))

	default:
		m.mu.Unlock()
		msg := MessageInvalid
		if err == nil && strings.TrimSpace(res.Error) != "" {
			msg = strings.TrimSpace(res.Error)
		}
		return m.fail(ctx, seq, msg, m.deps.Metrics.Rejected, ErrCodeRejected)
	}
}

// fail clears the held code, shows msg, and clears and refocuses the input.
func (m *Manager) fail(ctx context.Context, seq uint64, msg string, metric int, err error) error {
	m.mu.Lock()
	if seq == m.seq {
		m.code = ""
	}
	m.mu.Unlock()

	m.setBusy(false)
	m.showError(msg)
	if input := m.element(m.deps.InputID); input != nil {
		input.SetValue("")
	}
	m.focusInput()

	m.deps.MetricInc(metric)
	m.deps.EmitEvent(ctx, m.deps.Events.Rejected, false, err, nil)
	return err
}

// Reset returns the manager to Uninitialized. Any in-flight response is discarded.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.state = Uninitialized
	m.enabled = false
	m.verified = false
	m.code = ""
	m.seq++
	m.mu.Unlock()

	m.setBusy(false)
	m.clearError()
	if input := m.element(m.deps.InputID); input != nil {
		input.SetValue("")
	}
}

// State returns the current gate state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsInvitationEnabled reports whether the server required an invitation.
func (m *Manager) IsInvitationEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// IsInvitationRequired reports whether the flow is still blocked on a code.
func (m *Manager) IsInvitationRequired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled && !m.verified
}

// InvitationCode returns the held code. ok is false when invitations are not
// enabled for this session, in which case the code is not applicable.
func (m *Manager) InvitationCode() (code string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled {
		return "", false
	}
	return m.code, true
}

// LastError returns the message currently shown for the invitation step, or "".
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) element(id string) view.Element {
	if m.deps.Document == nil || id == "" {
		return nil
	}
	return m.deps.Document.Element(id)
}

func (m *Manager) showError(msg string) {
	m.mu.Lock()
	m.lastErr = msg
	m.mu.Unlock()
	if el := m.element(m.deps.ErrorID); el != nil {
		el.SetText(msg)
		el.SetHidden(false)
	}
}

func (m *Manager) clearError() {
	m.mu.Lock()
	m.lastErr = ""
	m.mu.Unlock()
	if el := m.element(m.deps.ErrorID); el != nil {
		el.SetText("")
		el.SetHidden(true)
	}
}

func (m *Manager) focusInput() {
	if input := m.element(m.deps.InputID); input != nil {
		input.Focus()
	}
}

func (m *Manager) setBusy(busy bool) {
	el := m.element(m.deps.SubmitID)
	if el == nil {
		return
	}
	if busy {
		el.SetAttr("disabled", "disabled")
		return
	}
	el.SetAttr("disabled", "")
}
