package completion

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gsd-build/gsd/internal/event"
	"github.com/gsd-build/gsd/internal/logging"
	"github.com/gsd-build/gsd/internal/plan"
)

// debounceInterval coalesces the bursts of events editors and agents produce
// for a single file write.
const debounceInterval = 50 * time.Millisecond

// Watcher publishes a MarkerWrittenEvent when a summary for a known plan
// appears in a phase directory. It only observes; the Tracker remains the
// authority on completion.
type Watcher struct {
	watcher *fsnotify.Watcher
	bus     *event.Bus
	logger  *logging.Logger

	// marker file name -> plan ID
	markers map[string]string

	mu       sync.Mutex
	seen     map[string]bool // marker file names already reported
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

// NewWatcher watches dir for the summaries of units. Summaries that already
// exist when the watcher starts are not reported.
func NewWatcher(dir string, units []plan.Unit, bus *event.Bus, logger *logging.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	w := &Watcher{
		watcher: fw,
		bus:     bus,
		logger:  logger,
		markers: make(map[string]string, len(units)),
		seen:    make(map[string]bool),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	tracker := NewTracker()
	for _, u := range units {
		w.markers[u.MarkerID()] = u.ID
		if tracker.IsComplete(u) {
			w.seen[u.MarkerID()] = true
		}
	}
	return w, nil
}

// Start begins processing filesystem events.
func (w *Watcher) Start() {
	if w.started.CompareAndSwap(false, true) {
		go w.watchLoop()
	}
}

// Stop stops the watcher and waits for its loop to exit. It is safe to call
// more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
		if w.started.Load() {
			<-w.doneCh
		}
	})
}

func (w *Watcher) watchLoop() {
	defer close(w.doneCh)

	debounce := time.NewTimer(debounceInterval)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := make(map[string]struct{})

	for {
		select {
		case <-w.stopCh:
			w.flush(pending)
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if _, known := w.markers[filepath.Base(ev.Name)]; !known {
				continue
			}
			pending[ev.Name] = struct{}{}
			debounce.Reset(debounceInterval)

		case <-debounce.C:
			w.flush(pending)
			pending = make(map[string]struct{})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("marker watcher error", "error", err.Error())
		}
	}
}

func (w *Watcher) flush(pending map[string]struct{}) {
	for path := range pending {
		w.handle(path)
	}
}

// handle reports a marker once, and only after it exists as a file.
func (w *Watcher) handle(path string) {
	name := filepath.Base(path)
	unitID := w.markers[name]
	if !NewTracker().IsComplete(plan.Unit{MarkerPath: path}) {
		return
	}

	w.mu.Lock()
	if w.seen[name] {
		w.mu.Unlock()
		return
	}
	w.seen[name] = true
	w.mu.Unlock()

	w.logger.Debug("summary written", "unit_id", unitID, "path", path)
	if w.bus != nil {
		w.bus.Publish(event.NewMarkerWrittenEvent(unitID, path))
	}
}
