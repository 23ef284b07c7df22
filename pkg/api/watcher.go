package api

// This file implements the file watcher behind "lowerjs build --watch". It
// uses the platform's file system notifications through fsnotify.
//
// Editors often save by writing a new file and renaming it over the old one,
// which drops a watch placed on the file itself. So the watcher watches the
// directories that contain the files and filters events by path instead.

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Changes that arrive within this window of each other are reported together
const watchDebounce = 100 * time.Millisecond

type watcher struct {
	fsw     *fsnotify.Watcher
	files   map[string]bool
	pending map[string]bool
	options WatchOptions
}

func watchImpl(ctx context.Context, paths []string, options WatchOptions) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("Could not start watching: %w", err)
	}
	defer fsw.Close()

	w := &watcher{
		fsw:     fsw,
		files:   make(map[string]bool),
		pending: make(map[string]bool),
		options: options,
	}

	dirs := make(map[string]bool)
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("Invalid path %q: %w", path, err)
		}
		w.files[absPath] = true
		if dir := filepath.Dir(absPath); !dirs[dir] {
			dirs[dir] = true
			if err := fsw.Add(dir); err != nil {
				return fmt.Errorf("Could not watch %q: %w", dir, err)
			}
		}
	}

	return w.loop(ctx)
}

func (w *watcher) loop(ctx context.Context) error {
	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			path := filepath.Clean(event.Name)
			if !w.files[path] {
				continue
			}
			w.pending[path] = true
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if w.options.OnError != nil {
				w.options.OnError(err)
			}

		case <-timerC:
			timer, timerC = nil, nil
			changed := make([]string, 0, len(w.pending))
			for path := range w.pending {
				changed = append(changed, path)
			}
			sort.Strings(changed)
			clear(w.pending)
			if w.options.OnChange != nil {
				w.options.OnChange(changed)
			}
		}
	}
}
