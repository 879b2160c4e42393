package progress

import (
	"sync"
	"time"
)

// Stage identifies a point in the review lifecycle. Stage values appear
// verbatim in JSON output and the serve-mode event stream.
type Stage string

const (
	StageStarted        Stage = "started"
	StageFetching       Stage = "fetching"
	StageFetched        Stage = "fetched"
	StageAnalyzingFile  Stage = "analyzing_file"
	StageFileAnalyzed   Stage = "file_analyzed"
	StageAgentAnalyzing Stage = "agent_analyzing"
	StageAgentCompleted Stage = "agent_completed"
	StageSummarizing    Stage = "summarizing"
	StagePosting        Stage = "posting"
	StageCompleted      Stage = "completed"
	StageError          Stage = "error"
)

// Event is one progress notification. Seq is assigned by the bus and is
// strictly increasing in publish order, including across dropped events,
// so a consumer can detect gaps.
type Event struct {
	Seq       uint64         `json:"seq"`
	Stage     Stage          `json:"stage"`
	Message   string         `json:"message,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// DefaultBuffer is the event buffer capacity used when none is given.
const DefaultBuffer = 256

// Bus carries progress events from one producer to one consumer over a
// bounded buffer. Publish never blocks: when the buffer is full the
// oldest buffered event is discarded to make room and the drop counter
// is incremented. A consumer that needs every event must keep draining
// Events(); a slow or absent consumer costs old events, never producer
// throughput.
//
// The bus supports a single consumer. Fan-out to multiple observers is
// layered on top by that consumer (see the server run store).
type Bus struct {
	mu      sync.Mutex
	ch      chan Event
	seq     uint64
	dropped uint64
	closed  bool
}

// NewBus returns a bus with the given buffer capacity. A non-positive
// capacity means DefaultBuffer.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{ch: make(chan Event, buffer)}
}

// Publish stamps the event with the next sequence number and current
// time and enqueues it without blocking. Publishing on a closed bus is a
// no-op counted as a drop.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	ev.Seq = b.seq
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if b.closed {
		b.dropped++
		return
	}

	select {
	case b.ch <- ev:
		return
	default:
	}
	// Buffer full: discard the oldest event to keep the newest. The
	// consumer may race us for it, so both receive and resend are
	// non-blocking.
	select {
	case <-b.ch:
		b.dropped++
	default:
	}
	select {
	case b.ch <- ev:
	default:
		b.dropped++
	}
}

// Emit publishes a stage with a message and optional payload.
func (b *Bus) Emit(stage Stage, message string, payload map[string]any) {
	b.Publish(Event{Stage: stage, Message: message, Payload: payload})
}

// Events returns the receive side of the bus. The channel is closed by
// Close after all buffered events, so ranging over it drains everything
// that was published before the close.
func (b *Bus) Events() <-chan Event {
	return b.ch
}

// Close marks the bus finished and closes the event channel. Buffered
// events remain readable. Close is idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.ch)
}

// Dropped reports how many events were discarded because the buffer was
// full or the bus was closed.
func (b *Bus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
