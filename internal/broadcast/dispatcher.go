package broadcast

import (
	"context"
	"log/slog"
	"sync"
)

// DispatcherConfig holds configuration for the Dispatcher.
type DispatcherConfig struct {
	QueueSize int // Pending payloads before Publish starts dropping
}

// DefaultDispatcherConfig returns default configuration.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		QueueSize: 1024,
	}
}

// DispatcherStats contains runtime statistics.
type DispatcherStats struct {
	Published int64
	Rejected  int64
	Queue     QueueStats
}

// Dispatcher accepts payloads from the change listener and broadcasts them
// from its own goroutine, in arrival order.
type Dispatcher struct {
	cfg      DispatcherConfig
	logger   *slog.Logger
	registry *Registry
	queue    *Queue[string]

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	published int64
	rejected  int64
}

// NewDispatcher creates a dispatcher that feeds registry.
func NewDispatcher(cfg DispatcherConfig, registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		queue:    NewQueue[string](cfg.QueueSize),
	}
}

// Start begins draining the queue.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(1)
	go d.dispatchLoop()

	// Receive blocks on a condition variable, so wake it when ctx ends.
	go func() {
		<-d.ctx.Done()
		d.queue.Close()
	}()

	d.logger.Info("dispatcher started", "queue_size", d.cfg.QueueSize)
	return nil
}

// Stop shuts the dispatcher down. Payloads still queued are discarded.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.logger.Info("stopping dispatcher")

	if d.cancel != nil {
		d.cancel()
	}
	d.queue.Close()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("dispatcher stopped")
	case <-ctx.Done():
		d.logger.Warn("dispatcher stop timed out")
	}
	return nil
}

// Publish queues payload for broadcast. It never blocks.
// Returns false when the queue is full or the dispatcher is stopped.
func (d *Dispatcher) Publish(payload string) bool {
	ok := d.queue.Send(payload)

	d.mu.Lock()
	if ok {
		d.published++
	} else {
		d.rejected++
	}
	d.mu.Unlock()

	if !ok {
		d.logger.Warn("dispatch queue full or closed, dropping notification", "queue_size", d.cfg.QueueSize)
	}
	return ok
}

// Stats returns current statistics.
func (d *Dispatcher) Stats() DispatcherStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DispatcherStats{
		Published: d.published,
		Rejected:  d.rejected,
		Queue:     d.queue.Stats(),
	}
}

// dispatchLoop is the single broadcasting goroutine.
func (d *Dispatcher) dispatchLoop() {
	defer d.wg.Done()

	for {
		payload, ok := d.queue.Receive()
		if !ok {
			return
		}
		if d.ctx.Err() != nil {
			return
		}

		res := d.registry.Broadcast([]byte(payload))
		d.logger.Debug("broadcast",
			"targets", res.Targets,
			"delivered", res.Delivered,
			"dropped", res.Dropped,
		)
	}
}
