// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestShouldRebuild(t *testing.T) {
	cases := map[string]struct {
		path string
		op   fsnotify.Op
		want bool
	}{
		"macOS garbage":   {".DS_Store", fsnotify.Create, false},
		"vim temp file":   {"lololol/4913", fsnotify.Write, false},
		"vim backup file": {"src/index.md~", fsnotify.Create, false},
		"file creation":   {"src/index.md", fsnotify.Create, true},
		"file removal":    {"src/index.md", fsnotify.Remove, true},
		"file write":      {"src/index.md", fsnotify.Write, true},
		"ignore chmod":    {"src/index.md", fsnotify.Chmod, false},
		"ignore rename":   {"src/index.md", fsnotify.Rename, false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := shouldRebuild(tc.path, tc.op)
			if got != tc.want {
				t.Fatalf("shouldRebuild(%q, %+v): want %v, got %v", tc.path, tc.op, tc.want, got)
			}
		})
	}
}

func TestDebouncer(t *testing.T) {
	var calls atomic.Int32
	d := newDebouncer(50*time.Millisecond, func() { calls.Add(1) })

	for range 10 {
		d.Do()
	}
	time.Sleep(300 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("want 1 call after a burst, got %d", got)
	}

	d.Do()
	d.Stop()
	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("stopped debouncer still fired: %d calls", got)
	}
}

func TestWatcherPaths(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	for _, d := range []string{"src/es", "src/.git", "src/node_modules/pkg"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	mpath := filepath.Join(dir, "site.yaml")

	w, err := newWatcher(src, mpath)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	watched := make(map[string]bool)
	for _, p := range w.w.WatchList() {
		watched[p] = true
	}
	for p, want := range map[string]bool{
		src:                                    true,
		filepath.Join(src, "es"):               true,
		filepath.Join(src, ".git"):             false,
		filepath.Join(src, "node_modules"):     false,
		filepath.Join(src, "node_modules/pkg"): false,
		dir:                                    true,
	} {
		if watched[p] != want {
			t.Errorf("watching %s: want %v, got %v", p, want, watched[p])
		}
	}

	cases := []struct {
		path                 string
		isSource, isManifest bool
	}{
		{filepath.Join(src, "index.md"), true, false},
		{filepath.Join(src, "es", "index.js"), true, false},
		{mpath, false, true},
		{filepath.Join(dir, "README.md"), false, false},
		{filepath.Join(dir, "src-other", "a.js"), false, false},
	}
	for _, tc := range cases {
		if got := w.isSource(tc.path); got != tc.isSource {
			t.Errorf("isSource(%q): want %v, got %v", tc.path, tc.isSource, got)
		}
		if got := w.isManifest(tc.path); got != tc.isManifest {
			t.Errorf("isManifest(%q): want %v, got %v", tc.path, tc.isManifest, got)
		}
	}
}

func TestWatcherRun(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	mpath := filepath.Join(dir, "site.yaml")

	w, err := newWatcher(src, mpath)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan bool, 16)
	go w.run(ctx, func(manifestChanged bool) { changes <- manifestChanged })

	expect := func(want bool) {
		t.Helper()
		select {
		case got := <-changes:
			if got != want {
				t.Fatalf("manifestChanged: want %v, got %v", want, got)
			}
		case <-time.After(10 * time.Second):
			t.Fatal("no change reported")
		}
	}

	if err := os.WriteFile(filepath.Join(src, "index.md"), []byte("# Hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	expect(false)

	if err := os.WriteFile(mpath, []byte("name: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	for {
		// Writes may come as several events.
		select {
		case got := <-changes:
			if got {
				return
			}
		case <-time.After(10 * time.Second):
			t.Fatal("manifest change wasn't reported")
		}
	}
}
