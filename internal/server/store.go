package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/quorum/internal/progress"
	"github.com/dshills/quorum/internal/review"
)

// listenerBuffer is the per-listener event channel capacity.
const listenerBuffer = 64

// Engine starts one review run. The serve command wires the production
// engine (provider, GitHub client, cache); tests substitute stubs.
// Start must publish progress to bus and close it at the terminal event,
// then return the final report.
type Engine interface {
	Start(ctx context.Context, req RunRequest, bus *progress.Bus) (*review.Report, error)
}

// RunRequest describes one run the server wants started.
type RunRequest struct {
	ID           string
	Target       review.Target
	Agents       []review.AgentSpec
	Instructions string
	Post         bool
}

// Store tracks review runs in memory. Each run owns a progress bus whose
// single consumer is the store's drain goroutine; stream clients are fed
// from the replay log fan-out, never from the bus directly.
type Store struct {
	engine Engine
	buffer int
	logf   func(format string, args ...any)

	mu   sync.RWMutex
	runs map[string]*Run
}

// NewStore returns an empty store. buffer sizes each run's progress bus.
func NewStore(engine Engine, buffer int, logf func(format string, args ...any)) *Store {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Store{
		engine: engine,
		buffer: buffer,
		runs:   make(map[string]*Run),
		logf:   logf,
	}
}

// Start registers a run and launches it in the background.
func (s *Store) Start(req RunRequest) *Run {
	if req.ID == "" {
		req.ID = newRunID()
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &Run{
		ID:        req.ID,
		Target:    req.Target,
		cancel:    cancel,
		drained:   make(chan struct{}),
		listeners: make(map[int]chan progress.Event),
	}

	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()

	bus := progress.NewBus(s.buffer)

	go func() {
		for ev := range bus.Events() {
			run.append(ev)
		}
		close(run.drained)
	}()

	go func() {
		rep, err := s.engine.Start(ctx, req, bus)
		bus.Close()
		// Wait until every published event is in the replay log so the
		// report never becomes visible before its own terminal event.
		<-run.drained
		run.finish(rep, err)
		if err != nil {
			s.logf("run %s failed: %v", run.ID, err)
		}
	}()

	return run
}

// Get returns the run with the given id.
func (s *Store) Get(id string) (*Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	return run, ok
}

// Run is one tracked review: a replay log of its progress events, the
// stream listeners attached to it, and, once finished, its report.
type Run struct {
	ID     string
	Target review.Target

	cancel  context.CancelFunc
	drained chan struct{}

	mu        sync.Mutex
	events    []progress.Event
	listeners map[int]chan progress.Event
	nextID    int
	finished  bool
	report    *review.Report
	err       error
	dropped   uint64
}

// append records an event and fans it out to every attached listener
// without blocking. A full listener loses its oldest event; sequence
// numbers let the client notice the gap.
func (r *Run) append(ev progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, ev)
	for _, ch := range r.listeners {
		select {
		case ch <- ev:
			continue
		default:
		}
		select {
		case <-ch:
			r.dropped++
		default:
		}
		select {
		case ch <- ev:
		default:
			r.dropped++
		}
	}
}

// Attach returns a copy of everything already emitted plus a live
// channel for what follows. The live channel closes when the run
// finishes. Callers must invoke detach when their client goes away:
// abandoning a still-running review whose last listener just left
// cancels the run context.
func (r *Run) Attach() (replay []progress.Event, live <-chan progress.Event, detach func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	replay = append([]progress.Event(nil), r.events...)
	if r.finished {
		ch := make(chan progress.Event)
		close(ch)
		return replay, ch, func() {}
	}

	id := r.nextID
	r.nextID++
	ch := make(chan progress.Event, listenerBuffer)
	r.listeners[id] = ch
	return replay, ch, func() { r.detach(id) }
}

func (r *Run) detach(id int) {
	r.mu.Lock()
	ch, ok := r.listeners[id]
	if ok {
		delete(r.listeners, id)
		close(ch)
	}
	abandoned := ok && !r.finished && len(r.listeners) == 0
	r.mu.Unlock()

	if abandoned {
		r.cancel()
	}
}

// finish stores the terminal result and closes all listeners. In-flight
// cancellation still ends here: the engine finalizes a cancelled run
// into a report rather than abandoning it.
func (r *Run) finish(rep *review.Report, err error) {
	r.mu.Lock()
	r.finished = true
	r.report = rep
	r.err = err
	for id, ch := range r.listeners {
		delete(r.listeners, id)
		close(ch)
	}
	r.mu.Unlock()

	r.cancel()
}

// Done reports whether the run has reached its terminal state.
func (r *Run) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

// Result returns the terminal report and error. Valid once Done.
func (r *Run) Result() (*review.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report, r.err
}

// Dropped reports how many events were discarded across slow listeners.
func (r *Run) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

func newRunID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
