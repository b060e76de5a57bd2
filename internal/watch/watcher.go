// Package watch marks the index stale when the organized directory
// changes behind the engine's back. It never rescans on its own; the
// session decides when a rebuild is worth it.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// debounce collapses editor save bursts into one staleness event.
const debounce = 500 * time.Millisecond

// Watcher observes a root directory and its subdirectories.
type Watcher struct {
	fsw     *fsnotify.Watcher
	onStale func()
	logger  zerolog.Logger
}

// New starts watching root and every non-hidden subdirectory. onStale
// fires at most once per debounce window, from the watcher goroutine.
func New(root string, onStale func(), logger zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fsw: fsw, onStale: onStale, logger: logger}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run consumes events until the context ends or the watcher closes.
func (w *Watcher) Run(ctx context.Context) {
	var timer *time.Timer
	pending := make(chan struct{}, 1)
	fire := func() {
		select {
		case pending <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-pending:
			w.onStale()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			// New folders join the watch set so moves into them are seen.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.fsw.Add(ev.Name)
				}
			}
			w.logger.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("watch.event")
			if timer == nil {
				timer = time.AfterFunc(debounce, fire)
			} else {
				timer.Reset(debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watch.error")
		}
	}
}

func (w *Watcher) Close() error { return w.fsw.Close() }
