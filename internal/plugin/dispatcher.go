package plugin

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the number of events a Dispatcher buffers.
const DefaultQueueSize = 32

// Dispatcher runs subscribed plugins for pointer events on one background
// worker, so a slow plugin never blocks the tracking loop. Events arriving
// while the queue is full are dropped.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	logger   *slog.Logger

	mu      sync.Mutex
	queue   chan Event
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

// NewDispatcher starts a dispatcher. queueSize <= 0 uses DefaultQueueSize
// and a nil logger uses slog.Default().
func NewDispatcher(manager *Manager, executor *Executor, queueSize int, logger *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		manager:  manager,
		executor: executor,
		logger:   logger,
		queue:    make(chan Event, queueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Dispatch queues events without blocking. It returns false if any event
// was dropped or the dispatcher is closed.
func (d *Dispatcher) Dispatch(events ...Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}

	ok := true
	for _, e := range events {
		select {
		case d.queue <- e:
		default:
			d.dropped.Add(1)
			ok = false
		}
	}
	return ok
}

// Dropped returns how many events were discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Close stops accepting events, cancels the running plugin and waits for
// the worker to exit. Queued events are discarded.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		d.cancel()
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for e := range d.queue {
		if d.ctx.Err() != nil {
			continue
		}
		for _, p := range d.manager.Subscribers(e.Type) {
			d.execute(p, e)
		}
	}
}

func (d *Dispatcher) execute(p *Plugin, e Event) {
	req := &Request{
		Event:  e.Type,
		Hand:   e.Hand,
		Time:   e.Time,
		Pose:   e.Pose,
		Config: p.Manifest.Config,
	}
	resp, err := d.executor.Execute(d.ctx, p, req)
	if err != nil {
		d.logger.Warn("plugin failed", "plugin", p.Manifest.Name, "event", string(e.Type), "error", err)
		return
	}
	if !resp.Success {
		d.logger.Warn("plugin reported an error", "plugin", p.Manifest.Name, "event", string(e.Type), "error", resp.Error)
		return
	}
	d.logger.Debug("plugin ran", "plugin", p.Manifest.Name, "event", string(e.Type), "hand", e.Hand.String())
}
