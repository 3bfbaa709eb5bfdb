package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type job struct {
	recipient    string
	notification Notification
}

// Dispatcher hands notifications to a Sink on a pool of workers. Delivery
// is best effort: a full queue or a failing sink drops the notification.
type Dispatcher struct {
	sink    Sink
	jobs    chan job
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts workers goroutines draining a queue of queueSize
func NewDispatcher(sink Sink, workers, queueSize int, logger *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	d := &Dispatcher{
		sink:    sink,
		jobs:    make(chan job, queueSize),
		timeout: 10 * time.Second,
		logger:  logger,
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Notify queues a notification without blocking the caller
func (d *Dispatcher) Notify(recipient string, n Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("Dropping notification after shutdown",
			zap.String("type", string(n.Type)),
			zap.String("recipient", recipient))
		return
	}

	select {
	case d.jobs <- job{recipient: recipient, notification: n}:
	default:
		d.logger.Warn("Notification queue full, dropping",
			zap.String("type", string(n.Type)),
			zap.String("recipient", recipient))
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sink.Deliver(ctx, j.recipient, j.notification); err != nil {
		d.logger.Warn("Failed to deliver notification",
			zap.String("type", string(j.notification.Type)),
			zap.String("recipient", j.recipient),
			zap.String("source", j.notification.Metadata.SourceUID),
			zap.Error(err))
	}
}

// Close stops accepting notifications and waits for queued ones to be delivered
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
}
