// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.astrophena.name/base/logger"

	"github.com/fsnotify/fsnotify"
)

// debouncer delays execution of a function until a specified duration has
// passed without any new events.
type debouncer struct {
	d  time.Duration
	mu sync.Mutex
	f  func()
	t  *time.Timer
}

// newDebouncer creates a new debouncer.
func newDebouncer(d time.Duration, f func()) *debouncer {
	return &debouncer{
		d: d,
		f: f,
	}
}

// Do schedules a function to be executed.
func (d *debouncer) Do() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t != nil {
		d.t.Stop()
	}

	d.t = time.AfterFunc(d.d, d.f)
}

// Stop cancels the scheduled execution, if any.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t != nil {
		d.t.Stop()
	}
}

// watcher reports changes of the site sources and the manifest.
type watcher struct {
	w        *fsnotify.Watcher
	src      string
	manifest string // empty if the manifest isn't watched
}

func newWatcher(src, manifest string) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &watcher{
		w:   fw,
		src: filepath.Clean(src),
	}
	if err := w.addRecursive(w.src); err != nil {
		fw.Close()
		return nil, err
	}
	// Watch the directory rather than the file itself, so the manifest
	// survives editors replacing it on save.
	if manifest != "" {
		w.manifest = filepath.Clean(manifest)
		if err := fw.Add(filepath.Dir(w.manifest)); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *watcher) Close() error {
	return w.w.Close()
}

func (w *watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.w.Add(path)
	})
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

// isManifest reports whether path is the watched manifest.
func (w *watcher) isManifest(path string) bool {
	return w.manifest != "" && filepath.Clean(path) == w.manifest
}

// isSource reports whether path is inside the source directory.
func (w *watcher) isSource(path string) bool {
	rel, err := filepath.Rel(w.src, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// run calls onChange for each relevant change until ctx is canceled.
// manifestChanged reports whether the change touched the manifest.
func (w *watcher) run(ctx context.Context, onChange func(manifestChanged bool)) {
	logger.Info(ctx, "started watching for new changes", slog.String("src", w.src))

	for {
		select {
		case event, ok := <-w.w.Events:
			if !ok {
				return
			}
			isManifest := w.isManifest(event.Name)
			if !isManifest && !w.isSource(event.Name) {
				continue
			}
			if !shouldRebuild(event.Name, event.Op) {
				continue
			}
			// Pick up directories created after the watch started.
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() && !skipDir(fi.Name()) {
					if err := w.addRecursive(event.Name); err != nil {
						logger.Error(ctx, "failed to watch new directory", slog.String("name", event.Name), slog.Any("err", err))
					}
				}
			}
			logger.Info(ctx, "detected change, scheduling build",
				slog.String("name", event.Name),
				slog.Any("op", event.Op),
			)
			onChange(isManifest)
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			logger.Error(ctx, "watcher error", slog.Any("err", err))
		case <-ctx.Done():
			return
		}
	}
}

// Copied from
// https://github.com/brandur/modulir/blob/1ff912fdc45a79cb4d8d9f199d213ae9c3598cbd/watch.go#L201.
func shouldRebuild(path string, op fsnotify.Op) bool {
	base := filepath.Base(path)

	// Mac OS' worst mistake.
	if base == ".DS_Store" {
		return false
	}

	// Vim creates this temporary file to see whether it can write into a target
	// directory. It screws up our watching algorithm, so ignore it.
	if base == "4913" {
		return false
	}

	// A special case, but ignore creates on files that look like Vim backups.
	if strings.HasSuffix(base, "~") {
		return false
	}

	if op&fsnotify.Create != 0 {
		return true
	}

	if op&fsnotify.Remove != 0 {
		return true
	}

	if op&fsnotify.Write != 0 {
		return true
	}

	/*
		Ignore everything else. Rationale:

		* chmod: we don't really care about these as they won't affect build
		output (unless potentially we no longer can read the file, but we'll go
		down that path if it ever becomes a problem).

		* rename: will produce a following create event as well, so just listen
		for that instead.
	*/
	return false
}
