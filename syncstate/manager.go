package syncstate

import (
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/MrEthical07/authflow/authstate"
	"github.com/MrEthical07/authflow/view"
)

const (
	DefaultInterval    = 100 * time.Millisecond
	DefaultTimeout     = 3 * time.Second
	DefaultMaxAttempts = 30
)

// SnapshotSource reads the authoritative authentication state.
type SnapshotSource interface {
	Snapshot() authstate.Snapshot
}

// AttemptState is a copy of the manager's retry bookkeeping.
type AttemptState struct {
	AttemptsMade int
	MaxAttempts  int
	Synced       bool
	Polling      bool
}

// Metrics holds the metric ids passed to Deps.MetricInc.
type Metrics struct {
	Pass            int
	Correction      int
	NotReady        int
	PollingCanceled int
}

// Deps configures a Manager. Zero durations and attempt counts fall back to the
// package defaults.
type Deps struct {
	Source   SnapshotSource
	Document view.Document

	LinksID    string
	UserInfoID string
	EmailID    string

	Scheduler   Scheduler
	Interval    time.Duration
	Timeout     time.Duration
	MaxAttempts int

	Logger    *slog.Logger
	MetricInc func(int)
	Metrics   Metrics
}

func normalizeDeps(d *Deps) {
	ids := view.DefaultIDs()
	if d.LinksID == "" {
		d.LinksID = ids.Links
	}
	if d.UserInfoID == "" {
		d.UserInfoID = ids.UserInfo
	}
	if d.EmailID == "" {
		d.EmailID = ids.UserEmail
	}
	if d.Scheduler == nil {
		d.Scheduler = SystemScheduler{}
	}
	if d.Interval <= 0 {
		d.Interval = DefaultInterval
	}
	if d.Timeout <= 0 {
		d.Timeout = DefaultTimeout
	}
	if d.MaxAttempts <= 0 {
		d.MaxAttempts = DefaultMaxAttempts
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MetricInc == nil {
		d.MetricInc = func(int) {}
	}
}

// Manager keeps the signed-in/signed-out presentation consistent with a
// SnapshotSource.
type Manager struct {
	deps Deps

	// passMu serializes reconciliation passes.
	passMu sync.Mutex
	source SnapshotSource

	attempts *atomic.Int64
	synced   *atomic.Bool
	closed   *atomic.Bool

	timerMu  sync.Mutex
	gen      uint64
	poll     Stopper
	backstop Stopper
}

// New builds a manager, runs one pass, and starts polling if that pass did
// not converge.
func New(deps Deps) *Manager {
	normalizeDeps(&deps)
	m := &Manager{
		deps:     deps,
		source:   deps.Source,
		attempts: atomic.NewInt64(0),
		synced:   atomic.NewBool(false),
		closed:   atomic.NewBool(false),
	}
	m.start()
	return m
}

// PerformSync runs one reconciliation pass and reports whether the page is
// synced afterwards. Missing source or elements leave the state unchanged.
func (m *Manager) PerformSync() bool {
	if m.closed.Load() {
		return m.synced.Load()
	}

	m.passMu.Lock()
	attempts := m.attempts.Inc()
	m.deps.MetricInc(m.deps.Metrics.Pass)
	m.pass()
	synced := m.synced.Load()
	m.passMu.Unlock()

	if synced || attempts >= int64(m.deps.MaxAttempts) {
		m.stopPolling()
	}
	return synced
}

// pass does the work of one attempt. passMu must be held.
func (m *Manager) pass() {
	if m.source == nil || m.deps.Document == nil {
		m.notReady("source")
		return
	}
	links := m.deps.Document.Element(m.deps.LinksID)
	info := m.deps.Document.Element(m.deps.UserInfoID)
	email := m.deps.Document.Element(m.deps.EmailID)
	if links == nil || info == nil || email == nil {
		m.notReady("elements")
		return
	}

	snap := m.source.Snapshot()
	plan := Reconcile(snap, Presentation{
		LinksVisible:    !links.Hidden(),
		UserInfoVisible: !info.Hidden(),
		EmailText:       email.Text(),
	})
	if plan.NeedsSync {
		Apply(plan, links, info, email)
		m.deps.MetricInc(m.deps.Metrics.Correction)
		m.deps.Logger.Debug("sync: presentation corrected", "authenticated", snap.IsAuthenticated)
	}
	m.synced.Store(true)
}

func (m *Manager) notReady(what string) {
	m.deps.MetricInc(m.deps.Metrics.NotReady)
	m.deps.Logger.Debug("sync: not ready", "missing", what, "attempt", m.attempts.Load())
}

// Apply performs plan on the three presentation elements.
func Apply(plan Plan, links, info, email view.Element) {
	if !plan.NeedsSync {
		return
	}
	links.SetHidden(!plan.ShowLinks)
	info.SetHidden(!plan.ShowUserInfo)
	if plan.SetEmail {
		email.SetText(plan.Email)
	}
}

// OnVisibilityChange runs one pass when the page becomes visible.
func (m *Manager) OnVisibilityChange(visible bool) {
	if visible {
		m.PerformSync()
	}
}

// OnFocus runs one pass.
func (m *Manager) OnFocus() {
	m.PerformSync()
}

// ForceSync clears the attempt state and starts over as if newly constructed.
func (m *Manager) ForceSync() {
	if m.closed.Load() {
		return
	}
	m.stopPolling()
	m.passMu.Lock()
	m.attempts.Store(0)
	m.synced.Store(false)
	m.passMu.Unlock()
	m.start()
}

// Close stops polling. Later passes, including lifecycle-triggered ones, are no-ops.
func (m *Manager) Close() {
	if m.closed.Swap(true) {
		return
	}
	m.stopPolling()
}

// State returns a copy of the attempt bookkeeping.
func (m *Manager) State() AttemptState {
	m.timerMu.Lock()
	polling := m.poll != nil
	m.timerMu.Unlock()
	return AttemptState{
		AttemptsMade: int(m.attempts.Load()),
		MaxAttempts:  m.deps.MaxAttempts,
		Synced:       m.synced.Load(),
		Polling:      polling,
	}
}

func (m *Manager) start() {
	if m.PerformSync() {
		return
	}
	if m.attempts.Load() >= int64(m.deps.MaxAttempts) {
		return
	}

	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if m.closed.Load() || m.poll != nil {
		return
	}
	m.gen++
	gen := m.gen
	m.poll = m.deps.Scheduler.Every(m.deps.Interval, func() {
		if m.current(gen) {
			m.PerformSync()
		}
	})
	m.backstop = m.deps.Scheduler.After(m.deps.Timeout, func() {
		if m.current(gen) {
			m.deps.Logger.Debug("sync: backstop timeout reached", "attempts", m.attempts.Load())
			m.stopPolling()
		}
	})
}

// current reports whether gen is the active polling generation.
func (m *Manager) current(gen uint64) bool {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	return m.poll != nil && m.gen == gen
}

func (m *Manager) stopPolling() {
	m.timerMu.Lock()
	poll, backstop := m.poll, m.backstop
	m.poll, m.backstop = nil, nil
	m.gen++
	m.timerMu.Unlock()

	if poll != nil {
		poll.Stop()
		m.deps.MetricInc(m.deps.Metrics.PollingCanceled)
	}
	if backstop != nil {
		backstop.Stop()
	}
}
