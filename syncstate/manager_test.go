package syncstate

import (
	"sync"
	"testing"
	"time"

	"github.com/neilotoole/slogt"

	"github.com/MrEthical07/authflow/authstate"
	"github.com/MrEthical07/authflow/view"
)

type fakeTask struct {
	every   time.Duration
	next    time.Duration
	f       func()
	stopped bool
}

// fakeScheduler runs callbacks synchronously from Advance.
type fakeScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	tasks []*fakeTask
}

type fakeStopper struct {
	s *fakeScheduler
	t *fakeTask
}

func (f fakeStopper) Stop() {
	f.s.mu.Lock()
	f.t.stopped = true
	f.s.mu.Unlock()
}

func (s *fakeScheduler) Every(d time.Duration, f func()) Stopper {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTask{every: d, next: s.now + d, f: f}
	s.tasks = append(s.tasks, t)
	return fakeStopper{s, t}
}

func (s *fakeScheduler) After(d time.Duration, f func()) Stopper {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTask{next: s.now + d, f: f}
	s.tasks = append(s.tasks, t)
	return fakeStopper{s, t}
}

// Advance moves the clock forward by d, firing due callbacks in time order.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	end := s.now + d
	s.mu.Unlock()
	for {
		s.mu.Lock()
		var due *fakeTask
		for _, t := range s.tasks {
			if t.stopped || t.next > end {
				continue
			}
			if due == nil || t.next < due.next {
				due = t
			}
		}
		if due == nil {
			s.now = end
			s.mu.Unlock()
			return
		}
		s.now = due.next
		if due.every > 0 {
			due.next += due.every
		} else {
			due.stopped = true
		}
		f := due.f
		s.mu.Unlock()
		f()
	}
}

func (s *fakeScheduler) active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.stopped {
			n++
		}
	}
	return n
}

func newTestManager(t *testing.T, src SnapshotSource, page *view.Page, sched *fakeScheduler) *Manager {
	t.Helper()
	deps := Deps{
		Source:      src,
		Scheduler:   sched,
		Interval:    100 * time.Millisecond,
		Timeout:     3 * time.Second,
		MaxAttempts: 5,
		Logger:      slogt.New(t),
	}
	if page != nil {
		deps.Document = page
	}
	m := New(deps)
	t.Cleanup(m.Close)
	return m
}

func authenticated(email string) *authstate.Memory {
	p := authstate.NewMemory()
	p.Set(authstate.Snapshot{IsAuthenticated: true, User: &authstate.User{Email: email}})
	return p
}

func TestSyncCorrectsUnauthenticatedPresentation(t *testing.T) {
	ids := view.DefaultIDs()
	page := view.NewLayout(view.Layout{IDs: ids})
	sched := &fakeScheduler{}

	m := newTestManager(t, authenticated("a@b.com"), page, sched)

	if !page.Node(ids.Links).Hidden() {
		t.Fatalf("expected links hidden")
	}
	if page.Node(ids.UserInfo).Hidden() {
		t.Fatalf("expected user info visible")
	}
	if got := page.Node(ids.UserEmail).Text(); got != "a@b.com" {
		t.Fatalf("expected email text a@b.com, got %q", got)
	}
	st := m.State()
	if !st.Synced || st.AttemptsMade != 1 || st.Polling {
		t.Fatalf("unexpected state after first pass: %+v", st)
	}
	if sched.active() != 0 {
		t.Fatalf("expected no scheduled callbacks, got %d", sched.active())
	}
}

func TestSyncConsistentPageMakesNoWrites(t *testing.T) {
	page := view.NewLayout(view.Layout{IDs: view.DefaultIDs()})
	before := page.Writes()

	m := newTestManager(t, authstate.NewMemory(), page, &fakeScheduler{})

	if page.Writes() != before {
		t.Fatalf("expected no writes on a consistent page, got %d", page.Writes()-before)
	}
	if st := m.State(); !st.Synced || st.AttemptsMade != 1 {
		t.Fatalf("expected synced on first pass, got %+v", st)
	}
}

func TestSyncLogoutRestoresLinks(t *testing.T) {
	ids := view.DefaultIDs()
	page := view.NewLayout(view.Layout{IDs: ids})
	src := authenticated("a@b.com")
	m := newTestManager(t, src, page, &fakeScheduler{})

	src.Set(authstate.Snapshot{})
	m.PerformSync()

	if page.Node(ids.Links).Hidden() {
		t.Fatalf("expected links visible after logout")
	}
	if !page.Node(ids.UserInfo).Hidden() {
		t.Fatalf("expected user info hidden after logout")
	}
}

func TestSyncStopsAtAttemptCeiling(t *testing.T) {
	ids := view.DefaultIDs()
	page := view.NewLayout(view.Layout{IDs: ids, Omit: []string{ids.UserInfo}})
	sched := &fakeScheduler{}

	m := newTestManager(t, authenticated("a@b.com"), page, sched)
	if st := m.State(); st.Synced || !st.Polling {
		t.Fatalf("expected polling after a not-ready pass, got %+v", st)
	}

	sched.Advance(2 * time.Second)

	st := m.State()
	if st.AttemptsMade != 5 {
		t.Fatalf("expected 5 attempts, got %d", st.AttemptsMade)
	}
	if st.Polling || st.Synced {
		t.Fatalf("expected polling stopped unsynced, got %+v", st)
	}
	if sched.active() != 0 {
		t.Fatalf("expected timers canceled, got %d active", sched.active())
	}

	m.OnVisibilityChange(true)
	if got := m.State().AttemptsMade; got != 6 {
		t.Fatalf("expected exactly one more pass, got %d attempts", got)
	}
	m.OnVisibilityChange(false)
	if got := m.State().AttemptsMade; got != 6 {
		t.Fatalf("hidden page should not trigger a pass, got %d attempts", got)
	}
}

func TestSyncConvergesWhenElementsResolveLate(t *testing.T) {
	ids := view.DefaultIDs()
	page := view.NewLayout(view.Layout{IDs: ids, Omit: []string{ids.UserInfo}})
	sched := &fakeScheduler{}
	m := newTestManager(t, authenticated("late@b.com"), page, sched)

	sched.Advance(200 * time.Millisecond)
	page.Add(ids.UserInfo).SetHidden(true)
	sched.Advance(100 * time.Millisecond)

	st := m.State()
	if !st.Synced || st.Polling {
		t.Fatalf("expected synced and idle, got %+v", st)
	}
	if st.AttemptsMade != 4 {
		t.Fatalf("expected 4 attempts, got %d", st.AttemptsMade)
	}
	if page.Node(ids.UserInfo).Hidden() {
		t.Fatalf("expected user info shown")
	}
	if got := page.Node(ids.UserEmail).Text(); got != "late@b.com" {
		t.Fatalf("unexpected email text %q", got)
	}
}

func TestSyncBackstopCancelsPolling(t *testing.T) {
	ids := view.DefaultIDs()
	page := view.NewLayout(view.Layout{IDs: ids, Omit: []string{ids.Links}})
	sched := &fakeScheduler{}
	m := New(Deps{
		Source:      authstate.NewMemory(),
		Document:    page,
		Scheduler:   sched,
		Interval:    time.Second,
		Timeout:     1500 * time.Millisecond,
		MaxAttempts: 100,
		Logger:      slogt.New(t),
	})
	defer m.Close()

	sched.Advance(10 * time.Second)

	st := m.State()
	if st.Polling {
		t.Fatalf("expected backstop to cancel polling")
	}
	if st.AttemptsMade != 2 {
		t.Fatalf("expected initial pass plus one tick, got %d", st.AttemptsMade)
	}
}

func TestSyncWithoutSourceIsNotReady(t *testing.T) {
	ids := view.DefaultIDs()
	page := view.NewLayout(view.Layout{IDs: ids})
	sched := &fakeScheduler{}
	m := newTestManager(t, nil, page, sched)

	if st := m.State(); st.Synced || !st.Polling {
		t.Fatalf("expected not-ready polling without a source, got %+v", st)
	}
	sched.Advance(100 * time.Millisecond)
	if m.State().Synced {
		t.Fatalf("expected no sync without a source")
	}
	if page.Node(ids.Links).Hidden() {
		t.Fatalf("expected the presentation untouched")
	}
}

func TestSyncForceSyncResets(t *testing.T) {
	ids := view.DefaultIDs()
	page := view.NewLayout(view.Layout{IDs: ids, Omit: []string{ids.UserEmail}})
	sched := &fakeScheduler{}
	m := newTestManager(t, authenticated("a@b.com"), page, sched)

	sched.Advance(time.Second)
	if st := m.State(); st.AttemptsMade != 5 || st.Polling {
		t.Fatalf("expected exhausted attempts, got %+v", st)
	}

	m.ForceSync()
	if st := m.State(); st.AttemptsMade != 1 || !st.Polling || st.Synced {
		t.Fatalf("expected fresh polling after force sync, got %+v", st)
	}

	page.Add(ids.UserEmail)
	sched.Advance(100 * time.Millisecond)
	if st := m.State(); !st.Synced || st.AttemptsMade != 2 {
		t.Fatalf("expected synced on second pass, got %+v", st)
	}
}

func TestSyncCloseStopsEverything(t *testing.T) {
	ids := view.DefaultIDs()
	page := view.NewLayout(view.Layout{IDs: ids, Omit: []string{ids.Links}})
	sched := &fakeScheduler{}
	m := newTestManager(t, authstate.NewMemory(), page, sched)

	m.Close()
	m.Close()
	sched.Advance(time.Second)
	m.OnFocus()
	m.ForceSync()

	if got := m.State().AttemptsMade; got != 1 {
		t.Fatalf("expected no passes after close, got %d", got)
	}
	if sched.active() != 0 {
		t.Fatalf("expected timers canceled on close")
	}
}

func TestSyncMetrics(t *testing.T) {
	ids := view.DefaultIDs()
	page := view.NewLayout(view.Layout{IDs: ids, Omit: []string{ids.Links}})
	sched := &fakeScheduler{}
	counts := map[int]int{}
	m := New(Deps{
		Source:      authenticated("a@b.com"),
		Document:    page,
		Scheduler:   sched,
		MaxAttempts: 3,
		Logger:      slogt.New(t),
		MetricInc:   func(id int) { counts[id]++ },
		Metrics:     Metrics{Pass: 1, Correction: 2, NotReady: 3, PollingCanceled: 4},
	})
	defer m.Close()

	sched.Advance(time.Second)
	page.Add(ids.Links)
	m.OnFocus()

	if counts[1] != 4 || counts[3] != 3 || counts[2] != 1 || counts[4] != 1 {
		t.Fatalf("unexpected metric counts: %v", counts)
	}
}

func TestSystemSchedulerStop(t *testing.T) {
	var mu sync.Mutex
	ticks := 0
	s := SystemScheduler{}
	stop := s.Every(5*time.Millisecond, func() {
		mu.Lock()
		ticks++
		mu.Unlock()
	})
	fired := make(chan struct{})
	s.After(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("after callback did not fire")
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := ticks
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("every callback did not fire")
		}
		time.Sleep(time.Millisecond)
	}
	stop.Stop()
	stop.Stop()

	canceled := s.After(time.Hour, func() { t.Errorf("canceled callback ran") })
	canceled.Stop()
}
