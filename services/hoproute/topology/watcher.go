// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package topology

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadHandler receives each successfully parsed version of the file.
type ReloadHandler func(ctx context.Context, doc *Document)

// WatcherOptions configures the Watcher.
type WatcherOptions struct {
	// DebounceWindow is how long to wait for more writes before reloading.
	// Default: 250ms
	DebounceWindow time.Duration

	// Logger receives reload failures and watch errors.
	// Default: discard.
	Logger *slog.Logger
}

// DefaultWatcherOptions returns sensible defaults.
func DefaultWatcherOptions() WatcherOptions {
	return WatcherOptions{
		DebounceWindow: 250 * time.Millisecond,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Watcher reloads a topology document whenever its file changes.
//
// # Description
//
// Watches the file's parent directory, because editors often replace a
// file by rename instead of writing it in place. Events for other files
// are ignored. A burst of events collapses into a single reload once the
// debounce window passes quietly.
//
// A document that fails to parse or validate is logged and dropped; the
// handler only ever sees valid documents.
//
// # Thread Safety
//
// Safe for concurrent use. The handler is called from a single goroutine.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	handler  ReloadHandler
	debounce time.Duration
	logger   *slog.Logger

	events   chan struct{}
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	watching bool
}

// NewWatcher creates a watcher for a single topology file.
//
// # Inputs
//
//   - path: Topology file to watch. Its extension selects the format.
//   - handler: Called with each valid reloaded document.
//   - opts: Optional configuration (nil uses defaults).
//
// # Outputs
//
//   - *Watcher: Ready to Start.
//   - error: Non-nil if the format is unsupported or fsnotify fails.
func NewWatcher(path string, handler ReloadHandler, opts *WatcherOptions) (*Watcher, error) {
	if _, err := FormatFromPath(path); err != nil {
		return nil, err
	}

	defaults := DefaultWatcherOptions()
	if opts == nil {
		opts = &defaults
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = defaults.DebounceWindow
	}
	if opts.Logger == nil {
		opts.Logger = defaults.Logger
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		path:     abs,
		watcher:  fw,
		handler:  handler,
		debounce: opts.DebounceWindow,
		logger:   opts.Logger.With(slog.String("topology", abs)),
		events:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Start begins watching. It returns immediately.
//
// Watching stops when ctx is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watching {
		return nil
	}

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}
	w.watching = true

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop stops the watcher and waits for the reload goroutine to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		wasWatching := w.watching
		w.watching = false
		w.mu.Unlock()

		if wasWatching {
			<-w.stopped
		}
	})
}

// IsWatching returns true if the watcher is active.
func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

// Reload parses the file now and calls the handler if it is valid.
func (w *Watcher) Reload(ctx context.Context) error {
	doc, err := Load(w.path)
	if err != nil {
		return err
	}
	if w.handler != nil {
		w.handler(ctx, doc)
	}
	return nil
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			// A pending signal already covers this event.
			select {
			case w.events <- struct{}{}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("topology watch error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	defer close(w.stopped)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-w.events:
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer, timerC = nil, nil
			if err := w.Reload(ctx); err != nil {
				w.logger.Warn("topology reload failed", slog.String("error", err.Error()))
				continue
			}
			w.logger.Info("topology reloaded")
		}
	}
}
