package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"

	"github.com/MrEthical07/authflow/authstate"
	internalaudit "github.com/MrEthical07/authflow/internal/audit"
	"github.com/MrEthical07/authflow/invitation"
	"github.com/MrEthical07/authflow/progress"
	"github.com/MrEthical07/authflow/step"
	"github.com/MrEthical07/authflow/syncstate"
	"github.com/MrEthical07/authflow/view"
)

// Flow is the onboarding orchestrator for one page session.
type Flow struct {
	id     string
	cfg    Config
	logger *slog.Logger

	doc      view.Document
	ids      view.IDs
	progress *progress.Manager
	gate     *invitation.Manager
	sync     *syncstate.Manager
	auth     AuthStateProvider
	codes    CodeSender

	metrics *Metrics
	events  *internalaudit.Dispatcher
	closers []func()

	mu      sync.Mutex
	started bool
	closed  bool
	current step.Step
	email   string
	errText string
}

// ID returns the flow session id attached to every event.
func (f *Flow) ID() string {
	return f.id
}

// Start runs the invitation check and shows the first step: invitation when
// the server requires a code, email otherwise. Start is idempotent.
func (f *Flow) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.started {
		f.mu.Unlock()
		return nil
	}
	f.started = true
	f.mu.Unlock()

	f.metrics.Inc(MetricFlowStarted)
	f.emit(ctx, EventFlowStarted, true, nil, nil)

	checkCtx, cancel := context.WithTimeout(ctx, f.cfg.Invitation.CheckTimeout)
	defer cancel()
	st := f.gate.Init(checkCtx)
	f.logger.Debug("flow: started", "flow_id", f.id, "invitation", st.String())
	return nil
}

// SubmitInvitationCode validates code against the server. On success the flow
// moves to the email step and the first indicator is marked complete.
func (f *Flow) SubmitInvitationCode(ctx context.Context, code string) error {
	if err := f.ready(); err != nil {
		return err
	}
	f.clearError()
	validateCtx, cancel := context.WithTimeout(ctx, f.cfg.Invitation.ValidateTimeout)
	defer cancel()
	return fromInvitation(f.gate.Submit(validateCtx, code))
}

// SubmitEmail validates raw locally and asks the server to send a login code.
// On success the flow moves to the verify step.
func (f *Flow) SubmitEmail(ctx context.Context, raw string) error {
	if err := f.ready(); err != nil {
		return err
	}
	if f.gate.IsInvitationRequired() {
		f.showError(MessageInvitationRequired)
		return ErrInvitationRequired
	}
	if f.CurrentStep() != step.Email {
		return ErrWrongStep
	}

	email, ok := normalizeEmail(raw)
	if !ok {
		f.metrics.Inc(MetricEmailInvalid)
		f.showError(MessageInvalidEmail)
		f.focus(f.ids.EmailInput)
		return ErrInvalidEmail
	}
	f.metrics.Inc(MetricEmailSubmitted)

	invite, _ := f.gate.InvitationCode()
	f.setBusy(f.ids.EmailInput, true)
	err := f.codes.SendCode(ctx, email, invite)
	f.setBusy(f.ids.EmailInput, false)
	if err != nil {
		f.metrics.Inc(MetricCodeSendFailure)
		if invitationLost(err) {
			f.regate(ctx)
		}
		err = f.remoteFailure(err, MessageSendFailed, ErrRejected)
		f.emit(ctx, EventCodeSendFailed, false, err, nil)
		f.logger.Debug("flow: send code failed", "flow_id", f.id, "error", eventErrorCode(err))
		return err
	}

	f.mu.Lock()
	f.email = email
	f.mu.Unlock()

	f.metrics.Inc(MetricCodeSent)
	f.emit(ctx, EventCodeSent, true, nil, nil)
	f.SwitchStep(step.Verify)
	f.focus(f.ids.CodeInput)
	return nil
}

// SubmitVerificationCode checks the emailed code, logs the user in, and moves
// to the success step.
func (f *Flow) SubmitVerificationCode(ctx context.Context, raw string) error {
	if err := f.ready(); err != nil {
		return err
	}
	if f.CurrentStep() != step.Verify {
		return ErrWrongStep
	}
	code := strings.TrimSpace(raw)
	if code == "" {
		f.showError(MessageEmptyCode)
		f.focus(f.ids.CodeInput)
		return ErrEmptyCode
	}

	f.mu.Lock()
	email := f.email
	f.mu.Unlock()

	f.setBusy(f.ids.CodeInput, true)
	identifier, err := f.codes.VerifyCode(ctx, email, code)
	f.setBusy(f.ids.CodeInput, false)
	if err != nil {
		f.metrics.Inc(MetricVerifyFailure)
		lost := invitationLost(err)
		if lost {
			f.regate(ctx)
		}
		err = f.remoteFailure(err, MessageCodeRejected, ErrCodeRejected)
		f.clearInput(f.ids.CodeInput)
		if !lost {
			f.focus(f.ids.CodeInput)
		}
		f.emit(ctx, EventVerifyFailed, false, err, nil)
		return err
	}
	f.metrics.Inc(MetricVerifySuccess)

	if identifier == "" {
		identifier = email
	}
	res, err := f.auth.Login(ctx, identifier)
	if err != nil || !res.Success {
		f.metrics.Inc(MetricLoginFailure)
		msg := MessageLoginFailed
		if err == nil && strings.TrimSpace(res.Message) != "" {
			msg = strings.TrimSpace(res.Message)
		}
		f.showError(msg)
		loginErr := ErrLoginFailed
		if err != nil {
			loginErr = fmt.Errorf("%w: %v", ErrLoginFailed, err)
		}
		f.emit(ctx, EventLoginFailed, false, loginErr, func() map[string]string {
			return map[string]string{"code": res.Code}
		})
		return loginErr
	}

	f.metrics.Inc(MetricLoginSuccess)
	f.emit(ctx, EventLoginSucceeded, true, nil, nil)
	f.logger.Debug("flow: login succeeded", "flow_id", f.id)

	f.SwitchStep(step.Success)
	f.progress.MarkComplete()
	if f.sync != nil {
		f.sync.ForceSync()
	}
	return nil
}

// Back returns from the verify step to the email step so another address can
// be used.
func (f *Flow) Back(ctx context.Context) error {
	if err := f.ready(); err != nil {
		return err
	}
	if f.CurrentStep() != step.Verify {
		return ErrWrongStep
	}
	f.clearInput(f.ids.CodeInput)
	f.SwitchStep(step.Email)
	f.focus(f.ids.EmailInput)
	return nil
}

// Logout signs the user out, resets every step, and runs the invitation check
// again. Local state is reset even when the provider reports an error, which
// is returned.
func (f *Flow) Logout(ctx context.Context) error {
	if err := f.ready(); err != nil {
		return err
	}

	logoutErr := f.auth.Logout(ctx)
	f.metrics.Inc(MetricLogout)
	f.emit(ctx, EventLogout, logoutErr == nil, logoutErr, nil)

	f.mu.Lock()
	f.email = ""
	f.current = ""
	f.mu.Unlock()

	f.clearInput(f.ids.EmailInput)
	f.clearInput(f.ids.CodeInput)
	f.progress.Reset()
	f.gate.Reset()
	if f.sync != nil {
		f.sync.ForceSync()
	}

	checkCtx, cancel := context.WithTimeout(ctx, f.cfg.Invitation.CheckTimeout)
	defer cancel()
	f.gate.Init(checkCtx)

	if logoutErr != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, logoutErr)
	}
	return nil
}

// SwitchStep shows the panel for s, hides the others, clears the error
// display, and updates the progress bar.
func (f *Flow) SwitchStep(s step.Step) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	from := f.current
	f.current = s
	f.errText = ""
	f.mu.Unlock()

	for name, id := range f.ids.Panels {
		if el := f.element(id); el != nil {
			el.SetHidden(name != string(s))
		}
	}
	f.hideError()
	f.progress.UpdateProgressBar(s)

	direction := stepDirection(f.progress.Steps(), from, s)
	f.metrics.Inc(MetricStepSwitched)
	f.emit(context.Background(), EventStepSwitched, true, nil, func() map[string]string {
		return map[string]string{"from": string(from), "to": string(s), "direction": direction}
	})
	f.logger.Debug("flow: step switched", "flow_id", f.id, "from", string(from), "to", string(s), "direction", direction)
}

// CurrentStep returns the visible step, or "" before Start.
func (f *Flow) CurrentStep() step.Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Email returns the address the last code was sent to.
func (f *Flow) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// ErrorMessage returns the message currently shown to the user, or "". The
// flow error display wins; on the invitation step the invitation field error
// is reported when the flow has none.
func (f *Flow) ErrorMessage() string {
	f.mu.Lock()
	msg, current := f.errText, f.current
	f.mu.Unlock()
	if msg == "" && current == step.Invitation {
		return f.gate.LastError()
	}
	return msg
}

// InvitationRequired reports whether the flow is blocked on an invitation code.
func (f *Flow) InvitationRequired() bool {
	return f.gate.IsInvitationRequired()
}

// OnVisibilityChange forwards a page visibility change to the reconciler.
func (f *Flow) OnVisibilityChange(visible bool) {
	if f.sync != nil {
		f.sync.OnVisibilityChange(visible)
	}
}

// OnFocus forwards a window focus event to the reconciler.
func (f *Flow) OnFocus() {
	if f.sync != nil {
		f.sync.OnFocus()
	}
}

// ForceSync restarts presentation reconciliation.
func (f *Flow) ForceSync() {
	if f.sync != nil {
		f.sync.ForceSync()
	}
}

// SyncState returns the reconciler's bookkeeping. ok is false when sync is disabled.
func (f *Flow) SyncState() (state SyncState, ok bool) {
	if f.sync == nil {
		return SyncState{}, false
	}
	return f.sync.State(), true
}

// MetricsSnapshot returns a copy of every counter.
func (f *Flow) MetricsSnapshot() MetricsSnapshot {
	return f.metrics.Snapshot()
}

// EventStats returns the event dispatcher counters, all zero when events are
// disabled.
func (f *Flow) EventStats() EventStats {
	return f.events.Stats()
}

// Close stops reconciliation, flushes pending events, and releases any HTTP
// client the builder created. Later operations return ErrClosed.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.mu.Unlock()

	if f.sync != nil {
		f.sync.Close()
	}
	f.events.Close()
	for _, c := range f.closers {
		c()
	}
}

func (f *Flow) ready() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if !f.started {
		return ErrNotReady
	}
	return nil
}

// remoteFailure shows the message for a failed remote call and returns the
// classified error: rejected wraps refusals, ErrNetwork everything else.
func (f *Flow) remoteFailure(err error, fallback string, rejected error) error {
	var rej *authstate.RejectionError
	if errors.As(err, &rej) {
		msg := fallback
		if strings.TrimSpace(rej.Message) != "" {
			msg = strings.TrimSpace(rej.Message)
		}
		f.showError(msg)
		if errors.Is(err, rejected) {
			return err
		}
		return fmt.Errorf("%w: %w", rejected, err)
	}
	f.showError(MessageNetwork)
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// stepDirection names how a switch moves through the step order: forward,
// back, or same. It is empty when either step is unknown.
func stepDirection(steps *step.Registry, from, to step.Step) string {
	order, err := steps.Compare(from, to)
	if err != nil {
		return ""
	}
	switch order {
	case -1:
		return "forward"
	case 1:
		return "back"
	default:
		return "same"
	}
}

// invitationLost reports whether the server refused the held invitation code.
func invitationLost(err error) bool {
	var rej *authstate.RejectionError
	return errors.As(err, &rej) && rej.Code == authstate.CodeInvitationRequired
}

// regate drops the accepted invitation and asks the server again, showing the
// invitation step when it still requires a code.
func (f *Flow) regate(ctx context.Context) {
	f.logger.Debug("flow: invitation refused, checking again", "flow_id", f.id)
	f.gate.Reset()
	checkCtx, cancel := context.WithTimeout(ctx, f.cfg.Invitation.CheckTimeout)
	defer cancel()
	f.gate.Init(checkCtx)
}

// fromInvitation maps invitation errors onto this package's sentinels while
// keeping the original in the chain.
func fromInvitation(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, invitation.ErrEmptyCode):
		return fmt.Errorf("%w: %w", ErrEmptyCode, err)
	case errors.Is(err, invitation.ErrCodeRejected):
		return fmt.Errorf("%w: %w", ErrCodeRejected, err)
	case errors.Is(err, invitation.ErrNetwork):
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	case errors.Is(err, invitation.ErrNotGated):
		return fmt.Errorf("%w: %w", ErrWrongStep, err)
	case errors.Is(err, invitation.ErrStaleResponse):
		return fmt.Errorf("%w: %w", ErrStaleResponse, err)
	default:
		return err
	}
}

// normalizeEmail trims raw and accepts a bare addr-spec with a dotted domain.
func normalizeEmail(raw string) (string, bool) {
	email := strings.TrimSpace(raw)
	if email == "" || len(email) > 254 {
		return "", false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", false
	}
	at := strings.LastIndexByte(email, '@')
	if at < 1 || !strings.Contains(email[at+1:], ".") {
		return "", false
	}
	return email, true
}

func (f *Flow) element(id string) view.Element {
	if f.doc == nil || id == "" {
		return nil
	}
	return f.doc.Element(id)
}

func (f *Flow) showError(msg string) {
	f.mu.Lock()
	f.errText = msg
	f.mu.Unlock()
	if el := f.element(f.ids.FlowError); el != nil {
		el.SetText(msg)
		el.SetHidden(false)
	}
}

func (f *Flow) clearError() {
	f.mu.Lock()
	f.errText = ""
	f.mu.Unlock()
	f.hideError()
}

func (f *Flow) hideError() {
	if el := f.element(f.ids.FlowError); el != nil {
		el.SetText("")
		el.SetHidden(true)
	}
}

func (f *Flow) focus(id string) {
	if el := f.element(id); el != nil {
		el.Focus()
	}
}

func (f *Flow) clearInput(id string) {
	if el := f.element(id); el != nil {
		el.SetValue("")
	}
}

func (f *Flow) setBusy(id string, busy bool) {
	el := f.element(id)
	if el == nil {
		return
	}
	if busy {
		el.SetAttr("disabled", "disabled")
		return
	}
	el.SetAttr("disabled", "")
}
