package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driving"
	"github.com/custodia-labs/diligence/internal/logger"
)

// DefaultSettle is how long a file must stay unchanged before it is uploaded.
const DefaultSettle = 500 * time.Millisecond

// Registrar accepts uploads. driving.CorpusManager satisfies it.
type Registrar interface {
	Register(ctx context.Context, upload domain.Upload) (driving.Registration, error)
}

// Event reports the outcome of uploading one file from the watched folder.
type Event struct {
	// Path is the file that was uploaded.
	Path string

	// Registration is set when Err is nil.
	Registration driving.Registration

	// Err is set when the file could not be read or registered.
	Err error
}

// Watcher uploads every file that appears in a folder, including the files
// already there when it starts. Writes are coalesced: a file is uploaded
// once it has been quiet for the settle period.
type Watcher struct {
	dir     string
	corpus  Registrar
	settle  time.Duration
	watcher *fsnotify.Watcher

	events chan Event
	ready  chan string
	timers map[string]*time.Timer

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  bool
}

// NewWatcher creates a watcher for dir. A zero settle uses DefaultSettle.
func NewWatcher(dir string, corpus Registrar, settle time.Duration) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &Watcher{
		dir:     dir,
		corpus:  corpus,
		settle:  settle,
		watcher: fsw,
		events:  make(chan Event, 16),
		ready:   make(chan string),
		timers:  make(map[string]*time.Timer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Dir returns the watched folder.
func (w *Watcher) Dir() string {
	return w.dir
}

// Events returns upload outcomes. The channel is closed when the watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start uploads the folder's current files and begins watching for new ones.
// It returns once the watch is established.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	existing, err := Scan(w.dir)
	if err != nil {
		return err
	}

	w.started = true
	go w.run(ctx, existing)
	return nil
}

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stop)
		err = w.watcher.Close()
		if w.started {
			<-w.done
		} else {
			close(w.events)
		}
	})
	return err
}

func (w *Watcher) run(ctx context.Context, existing []string) {
	defer close(w.done)
	defer close(w.events)
	defer w.stopTimers()

	logger.Debug("watching %s (%d existing files)", w.dir, len(existing))
	for _, path := range existing {
		if !w.upload(ctx, path) {
			return
		}
	}

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case path := <-w.ready:
			delete(w.timers, path)
			if !w.upload(ctx, path) {
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch %s: %v", w.dir, err)
		}
	}
}

// handle schedules an upload for created or written files.
func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if ignored(event.Name) {
		return
	}
	if info, err := os.Stat(event.Name); err != nil || !info.Mode().IsRegular() {
		return
	}

	if timer, ok := w.timers[event.Name]; ok {
		timer.Reset(w.settle)
		return
	}
	path := event.Name
	w.timers[path] = time.AfterFunc(w.settle, func() {
		select {
		case w.ready <- path:
		case <-w.stop:
		}
	})
}

// upload reads and registers path, then reports the outcome.
// It returns false once the watcher is stopping.
func (w *Watcher) upload(ctx context.Context, path string) bool {
	event := Event{Path: path}

	upload, err := Load(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return true
	case err != nil:
		event.Err = err
	default:
		event.Registration, event.Err = w.corpus.Register(ctx, upload)
	}

	if event.Err != nil {
		logger.Debug("watch: %s: %v", path, event.Err)
	} else {
		logger.Debug("watch: registered %s (duplicate=%t)", path, event.Registration.Duplicate)
	}

	select {
	case w.events <- event:
		return true
	case <-w.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

func (w *Watcher) stopTimers() {
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
}
