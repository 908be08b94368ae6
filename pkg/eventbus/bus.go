// Package eventbus implements the engine's execution event bus: a
// bounded, multi-subscriber, lossy broadcast channel. There is no
// off-the-shelf Go equivalent of Rust's tokio::sync::broadcast in the
// retrieved pack, so the per-subscriber buffered channels and dispatch
// here are hand-built on channels and a mutex; the panic-safe dispatch
// (recover around each send, and around each mirror publish goroutine) is
// grounded on the teacher's observer.Manager.Notify.
package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/flowengine/pkg/logging"
	"github.com/flowforge/flowengine/pkg/value"
)

// Mirror is an optional external durable stream an event bus can mirror
// every emitted event to (e.g. NATS, standing in for the original
// implementation's Apache Iggy stream). A Mirror must never be allowed to
// back-pressure the in-process broadcast path; Bus enforces this by never
// waiting on it synchronously.
type Mirror interface {
	Publish(ctx context.Context, event ExecutionEvent) error
}

const defaultSubscriberBuffer = 64

// Bus is a single-writer-per-event, multi-subscriber broadcast channel
// with bounded per-subscriber capacity. Receivers that fall behind lose
// older events; this is a contractual, not accidental, property.
type Bus struct {
	mu          sync.Mutex
	subscribers map[int64]*Receiver
	nextID      int64
	capacity    int
	mirror      Mirror
	log         *logging.Logger
}

// New creates a Bus with the given default per-subscriber buffer
// capacity (the spec's "bounded capacity; configurable; default 1000").
func New(capacity int, log *logging.Logger) *Bus {
	if capacity <= 0 {
		capacity = 1000
	}
	if log == nil {
		log = logging.New(logging.Config{Level: "error"})
	}
	return &Bus{
		subscribers: make(map[int64]*Receiver),
		capacity:    capacity,
		log:         log,
	}
}

// SetMirror attaches an optional external durable mirror. Passing nil
// detaches any existing mirror.
func (b *Bus) SetMirror(m Mirror) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mirror = m
}

// Receiver is an independent subscriber cursor. Each Receiver has its own
// buffered channel; a full channel causes the oldest queued event to be
// dropped in favor of the newest (lossy broadcast).
type Receiver struct {
	id     int64
	events chan ExecutionEvent
	bus    *Bus
}

// Events returns the channel events are delivered on.
func (r *Receiver) Events() <-chan ExecutionEvent { return r.events }

// Close detaches the receiver from the bus and closes its channel.
func (r *Receiver) Close() {
	r.bus.mu.Lock()
	defer r.bus.mu.Unlock()
	if _, ok := r.bus.subscribers[r.id]; ok {
		delete(r.bus.subscribers, r.id)
		close(r.events)
	}
}

// Subscribe produces a new independent Receiver.
func (b *Bus) Subscribe() *Receiver {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := &Receiver{
		id:     b.nextID,
		events: make(chan ExecutionEvent, b.capacity),
		bus:    b,
	}
	b.nextID++
	b.subscribers[r.id] = r
	return r
}

// Emit delivers event to every current subscriber, non-blocking. A
// subscriber whose buffer is full has its oldest queued event dropped to
// make room for this one; Emit never
// blocks on a slow or gone subscriber, and never fails because of one.
func (b *Bus) Emit(event ExecutionEvent) {
	b.mu.Lock()
	mirror := b.mirror
	receivers := make([]*Receiver, 0, len(b.subscribers))
	for _, r := range b.subscribers {
		receivers = append(receivers, r)
	}
	b.mu.Unlock()

	for _, r := range receivers {
		dispatch(r, event)
	}

	if mirror != nil {
		go b.publishToMirror(mirror, event)
	}
}

// dispatch attempts a non-blocking send; it never blocks the emitter and
// recovers from a send-on-closed-channel race with Close.
func dispatch(r *Receiver, event ExecutionEvent) {
	defer func() { recover() }()
	select {
	case r.events <- event:
	default:
		// Buffer full: drop the oldest queued event, then retry once.
		select {
		case <-r.events:
		default:
		}
		select {
		case r.events <- event:
		default:
		}
	}
}

func (b *Bus) publishToMirror(m Mirror, event ExecutionEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Errorf("event bus mirror panicked: %v", r)
		}
	}()
	if err := m.Publish(context.Background(), event); err != nil {
		b.log.WithError(err).Warn("event bus mirror publish failed")
	}
}

// Emitter partially applies (execution_id, node_id) so a node can emit
// NodeEvents without re-specifying routing on every call.
type Emitter struct {
	bus         *Bus
	executionID uuid.UUID
	nodeID      uuid.UUID
}

// NewEmitter builds an Emitter bound to one (execution, node) pair.
func (b *Bus) NewEmitter(executionID, nodeID uuid.UUID) *Emitter {
	return &Emitter{bus: b, executionID: executionID, nodeID: nodeID}
}

func (e *Emitter) emit(node *NodeEvent) {
	nid := e.nodeID
	e.bus.Emit(ExecutionEvent{
		Type:        EventNodeEvent,
		ExecutionID: e.executionID,
		NodeID:      &nid,
		Timestamp:   time.Now(),
		Node:        node,
	})
}

// Info emits an informational NodeEvent.
func (e *Emitter) Info(message string) { e.emit(&NodeEvent{Type: NodeEventInfo, Message: message}) }

// Warn emits a warning NodeEvent.
func (e *Emitter) Warn(message string) {
	e.emit(&NodeEvent{Type: NodeEventWarning, Message: message})
}

// Progress emits a progress NodeEvent.
func (e *Emitter) Progress(percent float64, message string) {
	e.emit(&NodeEvent{Type: NodeEventProgress, Percent: percent, Message: message})
}

// Data emits a streaming data NodeEvent for a named port.
func (e *Emitter) Data(port string, v value.Value) {
	e.emit(&NodeEvent{Type: NodeEventData, Port: port, Value: v})
}
