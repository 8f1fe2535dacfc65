package server

import (
	"sync"

	"wordrush/internal/game"
)

type eventSink func(game.Event)

// dispatcher decouples room transitions from delivery. Emit only appends to
// an in-memory queue, so it is safe to call with a room locked; a single
// goroutine hands events to every sink in the order they were emitted.
type dispatcher struct {
	sinks []eventSink

	mu      sync.Mutex
	queue   []game.Event
	closed  bool
	wake    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

var _ game.Emitter = (*dispatcher)(nil)

func newDispatcher(sinks ...eventSink) *dispatcher {
	d := &dispatcher{
		sinks:   sinks,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) Emit(events ...game.Event) {
	if len(events) == 0 {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, events...)
	d.mu.Unlock()
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) run() {
	defer close(d.stopped)
	for {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		closed := d.closed
		d.mu.Unlock()

		for _, e := range batch {
			for _, sink := range d.sinks {
				sink(e)
			}
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-d.wake
	}
}

// Close stops accepting events and returns once everything queued so far has
// been delivered.
func (d *dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		select {
		case d.wake <- struct{}{}:
		default:
		}
	})
	<-d.stopped
}
