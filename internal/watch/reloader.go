// Package watch hot-reloads a schema file into a shared registry.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	dlcheck "github.com/reoring/dlcheck"
	"github.com/reoring/dlcheck/internal/logging"
	"github.com/reoring/dlcheck/schemafile"
)

// Reloader keeps the registry loaded from a schema file and swaps in a new
// one whenever the file changes. A file that fails to load leaves the
// previous registry active.
type Reloader struct {
	path    string
	current atomic.Pointer[dlcheck.Registry]
	watcher *fsnotify.Watcher
	mu      sync.Mutex // serializes reloads
	log     zerolog.Logger

	Debounce time.Duration
	OnReload func(reg *dlcheck.Registry, err error)
}

// NewReloader loads path and prepares a watcher on its directory. The
// initial load must succeed.
func NewReloader(path string) (*Reloader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	reg, err := schemafile.Load(absPath)
	if err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}
	r := &Reloader{
		path:     absPath,
		watcher:  fsWatcher,
		log:      logging.WithComponent("watch"),
		Debounce: 200 * time.Millisecond,
	}
	r.current.Store(reg)
	return r, nil
}

// Registry returns the active registry.
func (r *Reloader) Registry() *dlcheck.Registry {
	return r.current.Load()
}

// Path returns the watched schema file.
func (r *Reloader) Path() string { return r.path }

// Reload loads the schema file now and swaps it in on success.
func (r *Reloader) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := schemafile.Load(r.path)
	if err != nil {
		r.log.Error().Err(err).Str("path", r.path).Msg("Schema reload failed, keeping previous registry")
	} else {
		r.current.Store(reg)
		r.log.Info().Str("path", r.path).Strs("events", reg.Names()).Msg("Schema registry reloaded")
	}
	if r.OnReload != nil {
		r.OnReload(reg, err)
	}
	return err
}

// Run watches the schema file until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			r.watcher.Close()
			return ctx.Err()

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if abs, err := filepath.Abs(event.Name); err != nil || abs != r.path {
				continue
			}

			// Debounce rapid changes
			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(r.Debounce, func() { _ = r.Reload() })
			timerMu.Unlock()

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warn().Err(err).Str("path", r.path).Msg("Watcher error")
		}
	}
}

// Close stops the watcher.
func (r *Reloader) Close() error {
	return r.watcher.Close()
}
