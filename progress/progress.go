// Package progress renders the onboarding progress bar from the current flow step.
//
// Every operation is a silent no-op when the bar element or the step config is
// missing, so the manager can be invoked before the page has finished loading.
package progress

import (
	"log/slog"
	"strconv"
	"sync"

	"github.com/MrEthical07/authflow/step"
	"github.com/MrEthical07/authflow/view"
)

// IndicatorState is the computed visual state of one indicator.
type IndicatorState struct {
	Rank      int
	Completed bool
	Active    bool
}

// Compute returns the state of n indicators, ranked 1..n, for current.
//
// An indicator at rank R is completed when R < currentRank, when current is
// verify and R == currentRank, or when current is success. It is active when
// R == currentRank and current is not success.
func Compute(current step.Step, cfg step.Config, n int) []IndicatorState {
	out := make([]IndicatorState, n)
	for i := 0; i < n; i++ {
		r := i + 1
		order := step.CompareRanks(r, cfg.Rank)
		out[i] = IndicatorState{
			Rank: r,
			Completed: order < 0 ||
				(current == step.Verify && order == 0) ||
				current == step.Success,
			Active: order == 0 && current != step.Success,
		}
	}
	return out
}

// Manager drives the progress bar.
type Manager struct {
	mu      sync.Mutex
	doc     view.Document
	steps   *step.Registry
	barID   string
	fillID  string
	current step.Step
	logger  *slog.Logger
}

// Options configures a Manager.
type Options struct {
	BarID  string
	FillID string
	Logger *slog.Logger
}

// New returns a manager rendering into doc using the step table in steps. A nil
// registry is replaced by [step.NewRegistry].
func New(doc view.Document, steps *step.Registry, opts Options) *Manager {
	if steps == nil {
		steps = step.NewRegistry()
	}
	if opts.BarID == "" {
		opts.BarID = view.DefaultIDs().ProgressBar
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		doc:    doc,
		steps:  steps,
		barID:  opts.BarID,
		fillID: opts.FillID,
		logger: opts.Logger,
	}
}

// Steps exposes the registry the manager renders from.
func (m *Manager) Steps() *step.Registry {
	return m.steps
}

// Current returns the last step passed to UpdateProgressBar.
func (m *Manager) Current() step.Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// UpdateProgressBar fully recomputes every indicator for s.
func (m *Manager) UpdateProgressBar(s step.Step) {
	cfg, ok := m.steps.Lookup(s)
	if !ok {
		m.logger.Debug("progress: unknown step ignored", "step", string(s))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	indicators := m.indicators()
	if indicators == nil {
		return
	}
	m.current = s

	for i, st := range Compute(s, cfg, len(indicators)) {
		render(indicators[i], st.Completed, st.Active)
	}
	m.setFill(cfg.Percent)
}

// MarkComplete forces every indicator into the completed state.
func (m *Manager) MarkComplete() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ind := range m.indicators() {
		render(ind, true, false)
	}
	m.setFill(step.MaxPercent)
}

// MarkRankComplete forces the indicator at rank into the completed state and
// leaves the others untouched.
func (m *Manager) MarkRankComplete(rank int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	indicators := m.indicators()
	if rank < 1 || rank > len(indicators) {
		return
	}
	ind := indicators[rank-1]
	render(ind, true, ind.HasClass(view.ClassActive))
}

// Reset clears active and completed state from every indicator. The step table
// is left untouched.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ind := range m.indicators() {
		render(ind, false, false)
	}
	m.current = ""
	m.setFill(0)
}

// AddStepConfig registers or overwrites a step. Nothing is re-rendered.
func (m *Manager) AddStepConfig(name step.Step, percent, rank int) error {
	return m.steps.Add(name, percent, rank)
}

func (m *Manager) indicators() []view.Element {
	if m.doc == nil {
		return nil
	}
	bar := m.doc.Element(m.barID)
	if bar == nil {
		return nil
	}
	return bar.Children()
}

func (m *Manager) setFill(percent int) {
	if m.doc == nil || m.fillID == "" {
		return
	}
	if fill := m.doc.Element(m.fillID); fill != nil {
		fill.SetAttr("style", "width: "+strconv.Itoa(percent)+"%")
	}
}

// render applies one indicator state. Exactly one of the two icons stays visible.
func render(ind view.Element, completed, active bool) {
	if ind == nil {
		return
	}
	view.SetClass(ind, view.ClassCompleted, completed)
	view.SetClass(ind, view.ClassActive, active)

	if icon := view.ChildWithClass(ind, view.ClassIconComplete); icon != nil {
		icon.SetHidden(!completed)
	}
	if icon := view.ChildWithClass(ind, view.ClassIconIncomplete); icon != nil {
		icon.SetHidden(completed)
	}
}
