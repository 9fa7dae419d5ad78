package orchestrator

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultEmitTimeout is how long Emit waits on a full channel before dropping.
const DefaultEmitTimeout = 100 * time.Millisecond

// EventEmitter delivers events to one subscriber over a buffered channel.
// A full channel gets a short grace period before the event is dropped.
// Close may be called more than once; events emitted after Close are dropped.
type EventEmitter struct {
	mu           sync.RWMutex
	closed       bool
	events       chan Event
	timeout      time.Duration
	logger       *zap.Logger
	droppedCount atomic.Uint64
}

// NewEventEmitter creates a new EventEmitter with the given buffer size.
func NewEventEmitter(bufferSize int, logger *zap.Logger) *EventEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventEmitter{
		events:  make(chan Event, bufferSize),
		timeout: DefaultEmitTimeout,
		logger:  logger,
	}
}

// Emit sends an event, dropping it if the subscriber does not drain the
// channel within the timeout.
func (e *EventEmitter) Emit(event Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		e.droppedCount.Add(1)
		return
	}

	select {
	case e.events <- event:
		return
	default:
	}

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()
	select {
	case e.events <- event:
		return
	case <-timer.C:
		count := e.droppedCount.Add(1)
		if count%10 == 1 { // every 10th drop
			e.logger.Warn("event channel full, dropped event",
				zap.Uint64("total_dropped", count),
				zap.String("type", string(event.Type)),
				zap.String("request_id", event.RequestID))
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns a read-only channel of events.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the events channel. It waits for in-flight Emit calls.
func (e *EventEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.events)
}
