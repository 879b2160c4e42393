package server

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/quorum/internal/config"
	"github.com/dshills/quorum/internal/review"
)

// rosterDebounce is how long the watcher waits for file events to settle
// before reloading. Editors produce several writes and renames per save.
const rosterDebounce = 250 * time.Millisecond

// debouncer coalesces rapid triggers into a single callback invocation:
// only the last callback scheduled within the window runs.
type debouncer struct {
	duration time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	seq      uint64
}

func newDebouncer(duration time.Duration) *debouncer {
	return &debouncer{duration: duration}
}

func (d *debouncer) trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		// Only the most recently scheduled callback may run; Stop can
		// return false when the old timer has already fired.
		current := seq == d.seq
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			callback()
		}
	})
}

func (d *debouncer) cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// rosterWatcher hot-reloads a roster file. Reload failures keep the
// previous roster.
type rosterWatcher struct {
	watcher  *fsnotify.Watcher
	debounce *debouncer
	done     chan struct{}
}

// watchRoster watches the roster file's directory (editors replace files
// by rename, which silently drops a watch on the file itself) and calls
// reload with the new agent set after each settled change.
func watchRoster(path string, debounce time.Duration, reload func([]review.AgentSpec), logf func(format string, args ...any)) (*rosterWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating roster watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &rosterWatcher{
		watcher:  fw,
		debounce: newDebouncer(debounce),
		done:     make(chan struct{}),
	}
	target := filepath.Clean(path)

	go func() {
		defer close(w.done)
		for {
			select {
			case ev, open := <-fw.Events:
				if !open {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
					continue
				}
				w.debounce.trigger(func() {
					agents, err := config.LoadRoster(path)
					if err != nil {
						logf("roster reload failed, keeping previous roster: %v", err)
						return
					}
					reload(agents)
					logf("roster reloaded: %d agents", len(agents))
				})
			case err, open := <-fw.Errors:
				if !open {
					return
				}
				logf("roster watcher: %v", err)
			}
		}
	}()

	return w, nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *rosterWatcher) Close() {
	w.debounce.cancel()
	w.watcher.Close()
	<-w.done
}
