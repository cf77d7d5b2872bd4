package syncstate

import (
	"sync"
	"time"
)

// Stopper cancels a scheduled callback. Stop is idempotent and must not wait
// for a running callback to return.
type Stopper interface {
	Stop()
}

// Scheduler runs callbacks later.
type Scheduler interface {
	// Every runs f every d until stopped.
	Every(d time.Duration, f func()) Stopper
	// After runs f once after d unless stopped first.
	After(d time.Duration, f func()) Stopper
}

// SystemScheduler schedules on the wall clock.
type SystemScheduler struct{}

func (SystemScheduler) Every(d time.Duration, f func()) Stopper {
	t := &ticker{t: time.NewTicker(d), done: make(chan struct{})}
	go t.run(f)
	return t
}

func (SystemScheduler) After(d time.Duration, f func()) Stopper {
	return timer{time.AfterFunc(d, f)}
}

type ticker struct {
	t    *time.Ticker
	done chan struct{}
	once sync.Once
}

func (t *ticker) run(f func()) {
	for {
		select {
		case <-t.t.C:
			select {
			case <-t.done:
				return
			default:
			}
			f()
		case <-t.done:
			return
		}
	}
}

func (t *ticker) Stop() {
	t.once.Do(func() {
		t.t.Stop()
		close(t.done)
	})
}

type timer struct {
	t *time.Timer
}

func (t timer) Stop() {
	t.t.Stop()
}
