// Package watcher reports changes to individual files, debounced into
// batches. Files are watched through their parent directory so that
// atomic replace-by-rename writes are seen.
package watcher

import (
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ErrStopped is returned by AddFile after Stop.
var ErrStopped = errors.New("watcher stopped")

// Op is the kind of change seen for a file.
type Op string

const (
	OpWrite  Op = "write"
	OpRemove Op = "remove"
)

// Change is the latest change to one file within a batch.
type Change struct {
	Path string    `json:"path"`
	Op   Op        `json:"op"`
	At   time.Time `json:"at"`
}

// Handler receives each batch of changes, ordered by path. It runs on the
// watcher's goroutine; Stop waits for it to return.
type Handler func(changes []Change)

// Config holds watcher configuration.
type Config struct {
	// Quiet is how long no events must arrive before a batch is delivered.
	Quiet time.Duration
	// MaxWait bounds how long a batch is held while events keep arriving.
	MaxWait time.Duration
}

// DefaultConfig returns default watcher configuration.
func DefaultConfig() Config {
	return Config{
		Quiet:   500 * time.Millisecond,
		MaxWait: 5 * time.Second,
	}
}

// Watcher monitors a set of files.
type Watcher struct {
	fs      *fsnotify.Watcher
	config  Config
	handler Handler
	logger  zerolog.Logger

	mu      sync.Mutex
	files   map[string]bool // absolute file paths
	dirs    map[string]bool // watched parent directories
	stopped bool

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher delivering batches to handler. Call Stop to
// release it.
func New(config Config, handler Handler, logger zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	def := DefaultConfig()
	if config.Quiet <= 0 {
		config.Quiet = def.Quiet
	}
	if config.MaxWait < config.Quiet {
		config.MaxWait = max(def.MaxWait, config.Quiet)
	}

	w := &Watcher{
		fs:      fsw,
		config:  config,
		handler: handler,
		logger:  logger.With().Str("component", "watcher").Logger(),
		files:   make(map[string]bool),
		dirs:    make(map[string]bool),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// AddFile starts reporting changes to path. The file need not exist yet,
// but its directory must.
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return ErrStopped
	}
	if !w.dirs[dir] {
		if err := w.fs.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
	}
	w.files[abs] = true

	w.logger.Debug().Str("path", abs).Msg("Watching file")
	return nil
}

// Files returns the watched files, sorted.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	files := make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Stop ends watching. Pending changes are delivered before it returns.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	w.mu.Unlock()

	close(w.done)
	w.wg.Wait()
	return w.fs.Close()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	pending := make(map[string]Change)
	var quiet, deadline <-chan time.Time

	flush := func() {
		quiet, deadline = nil, nil
		if len(pending) == 0 {
			return
		}
		batch := make([]Change, 0, len(pending))
		for _, c := range pending {
			batch = append(batch, c)
		}
		sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
		clear(pending)

		if w.handler != nil {
			w.handler(batch)
		}
	}

	for {
		select {
		case <-w.done:
			flush()
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				flush()
				return
			}
			change, ok := w.toChange(event)
			if !ok {
				continue
			}
			if len(pending) == 0 {
				deadline = time.After(w.config.MaxWait)
			}
			pending[change.Path] = change
			quiet = time.After(w.config.Quiet)

		case err, ok := <-w.fs.Errors:
			if !ok {
				flush()
				return
			}
			w.logger.Warn().Err(err).Msg("Watcher error")

		case <-quiet:
			flush()

		case <-deadline:
			flush()
		}
	}
}

// toChange maps an fsnotify event on a watched file. Chmod-only events and
// other files in the directory are dropped.
func (w *Watcher) toChange(event fsnotify.Event) (Change, bool) {
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	watched := w.files[path]
	w.mu.Unlock()
	if !watched {
		return Change{}, false
	}

	var op Op
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		op = OpWrite
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = OpRemove
	default:
		return Change{}, false
	}
	return Change{Path: path, Op: op, At: time.Now()}, true
}
