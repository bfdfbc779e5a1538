// Package watch re-runs conversions when OBJ files change on disk.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Handler is called once per settled change with the changed file path.
// Calls are serialized on the Run goroutine.
type Handler func(path string)

// Options configures a Watcher.
type Options struct {
	// Debounce is how long a file must stay quiet before Handler runs.
	Debounce time.Duration
	// Pattern matches base names case-insensitively; empty means "*.obj".
	Pattern string
	Logger  *zap.Logger
}

// Watcher watches directory trees for created or written files.
type Watcher struct {
	fsw     *fsnotify.Watcher
	handler Handler
	pattern string
	delay   time.Duration
	log     *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	fire    chan string
	done    chan struct{}
	closed  bool
}

// New creates a watcher that reports matching files to h.
func New(opts Options, h Handler) (*Watcher, error) {
	if h == nil {
		return nil, errors.New("watch: nil handler")
	}
	pattern := strings.ToLower(opts.Pattern)
	if pattern == "" {
		pattern = "*.obj"
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsw:     fsw,
		handler: h,
		pattern: pattern,
		delay:   opts.Debounce,
		log:     log,
		pending: make(map[string]*time.Timer),
		fire:    make(chan string),
		done:    make(chan struct{}),
	}, nil
}

// Add starts watching root and every directory below it.
func (w *Watcher) Add(root string) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return errors.New("watch: watcher already closed")
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				return err
			}
			w.log.Debug("watching", zap.String("dir", path))
		}
		return nil
	})
}

// Run dispatches events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.close()

	for {
		select {
		case e, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(e)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", zap.Error(err))

		case path := <-w.fire:
			w.mu.Lock()
			delete(w.pending, path)
			w.mu.Unlock()
			w.handler(path)

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) handleEvent(e fsnotify.Event) {
	if e.Op&fsnotify.Create != 0 {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			if err := w.Add(e.Name); err != nil {
				w.log.Warn("can't watch new directory", zap.String("dir", e.Name), zap.Error(err))
			}
			w.scheduleExisting(e.Name)
			return
		}
	}

	if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !w.matches(e.Name) {
		return
	}
	w.schedule(e.Name)
}

func (w *Watcher) matches(path string) bool {
	ok, _ := filepath.Match(w.pattern, strings.ToLower(filepath.Base(path)))
	return ok
}

// scheduleExisting schedules matching files that were already inside a
// directory when it appeared, since their own Create events were never
// delivered.
func (w *Watcher) scheduleExisting(dir string) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && w.matches(path) {
			w.schedule(path)
		}
		return nil
	})
	if err != nil {
		w.log.Warn("can't scan new directory", zap.String("dir", dir), zap.Error(err))
	}
}

// schedule (re)starts the quiet-period timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.delay)
		return
	}
	w.pending[path] = time.AfterFunc(w.delay, func() {
		select {
		case w.fire <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	for _, t := range w.pending {
		t.Stop()
	}
	close(w.done)
	w.fsw.Close()
}
