package audit

import (
	"context"

	"go.uber.org/atomic"
)

// Config controls dispatcher buffering.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Stats counts what happened to emitted events.
type Stats struct {
	Delivered uint64
	Dropped   uint64
	// Failed counts events whose sink panicked.
	Failed uint64
}

// Dispatcher hands events to a sink from one background goroutine, so a slow
// sink never stalls a step switch.
type Dispatcher struct {
	queue      chan Event
	dropIfFull bool
	sink       Sink

	stop     context.CancelFunc
	stopped  <-chan struct{}
	finished chan struct{}
	closing  *atomic.Bool

	delivered *atomic.Uint64
	dropped   *atomic.Uint64
	failed    *atomic.Uint64
}

// NewDispatcher starts a dispatcher. It returns nil when cfg is disabled; every
// method is safe on a nil Dispatcher.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	ctx, stop := context.WithCancel(context.Background())
	d := &Dispatcher{
		queue:      make(chan Event, cfg.BufferSize),
		dropIfFull: cfg.DropIfFull,
		sink:       sink,
		stop:       stop,
		stopped:    ctx.Done(),
		finished:   make(chan struct{}),
		closing:    atomic.NewBool(false),
		delivered:  atomic.NewUint64(0),
		dropped:    atomic.NewUint64(0),
		failed:     atomic.NewUint64(0),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.finished)
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		case <-d.stopped:
			d.drain()
			return
		}
	}
}

// drain delivers what was queued before Close.
func (d *Dispatcher) drain() {
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ev Event) {
	defer func() {
		if recover() != nil {
			d.failed.Inc()
		}
	}()
	d.sink.Emit(context.Background(), ev)
	d.delivered.Inc()
}

// Emit queues ev. With DropIfFull a full queue drops the event and counts it;
// otherwise Emit waits for room, ctx, or Close.
func (d *Dispatcher) Emit(ctx context.Context, ev Event) {
	if d == nil || d.closing.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropIfFull {
		select {
		case d.queue <- ev:
		case <-d.stopped:
		default:
			d.dropped.Inc()
		}
		return
	}

	select {
	case d.queue <- ev:
	case <-ctx.Done():
	case <-d.stopped:
	}
}

// Close stops accepting events and returns once the queue is delivered.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	if !d.closing.Swap(true) {
		d.stop()
	}
	<-d.finished
}

// Stats returns the counters. A nil Dispatcher reports zeros.
func (d *Dispatcher) Stats() Stats {
	if d == nil {
		return Stats{}
	}
	return Stats{
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
		Failed:    d.failed.Load(),
	}
}
