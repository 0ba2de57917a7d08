// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"maps"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.astrophena.name/base/logger"
	"go.astrophena.name/minimal/internal/bundle"
	"go.astrophena.name/minimal/internal/document"
	"go.astrophena.name/minimal/internal/manifest"
)

// Serve starts a development server on a provided host:port. Builds are kept
// in memory and redone when sources or the manifest change; open pages are
// reloaded after each build.
func Serve(ctx context.Context, c *Config, addr string) error {
	c.setDefaults()

	s, err := newDevServer(c)
	if err != nil {
		return err
	}
	defer s.close()

	w, err := newWatcher(c.Src, c.ManifestPath)
	if err != nil {
		return err
	}
	defer w.Close()

	// It's better to have a bit of delay, so that we don't start building
	// the site on each keystroke.
	d := newDebouncer(250*time.Millisecond, func() { s.rebuild(ctx) })
	defer d.Stop()

	go w.run(ctx, func(manifestChanged bool) {
		if manifestChanged {
			s.manifestChanged.Store(true)
		}
		d.Do()
	})

	return serve(ctx, addr, s, func() {
		logger.Info(ctx, "performing an initial build")
		go s.rebuild(ctx)
	})
}

// devServer serves builds from memory, falling back to the source directory.
type devServer struct {
	manifestChanged atomic.Bool

	mu sync.Mutex // held during builds, guards c and b
	c  Config
	b  *bundle.Bundler

	state *buildState
	live  *liveHub
	disk  fs.FS
}

func newDevServer(c *Config) (*devServer, error) {
	if c.Manifest == nil {
		return nil, errNoManifest
	}
	b, err := bundle.New(c.bundleOptions())
	if err != nil {
		return nil, err
	}
	return &devServer{
		c:     *c,
		b:     b,
		state: newBuildState(),
		live:  newLiveHub(),
		disk:  os.DirFS(c.Src),
	}, nil
}

func (s *devServer) close() {
	s.live.close()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.b.Close()
}

// rebuild builds the site, releases queued requests and reloads open pages.
func (s *devServer) rebuild(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.begin()
	snap := s.build(ctx)
	s.state.finish(snap)

	if snap.err != nil {
		logger.Error(ctx, "build failed", slog.Any("err", snap.err))
	} else {
		logger.Info(ctx, "completed build, reloading", slog.Int("files", len(snap.files)))
	}
	s.live.reload(ctx)
}

func (s *devServer) build(ctx context.Context) *snapshot {
	if s.manifestChanged.Swap(false) {
		if err := s.reloadManifest(ctx); err != nil {
			// Try again on the next change.
			s.manifestChanged.Store(true)
			return &snapshot{err: err}
		}
	}

	res, err := s.b.Build(ctx)
	if err != nil {
		return &snapshot{err: err}
	}
	doc, err := s.c.document(true)
	if err != nil {
		return &snapshot{err: err}
	}

	files := maps.Clone(res.Files)
	files["/index.html"] = doc
	return &snapshot{files: files}
}

func (s *devServer) reloadManifest(ctx context.Context) error {
	m, err := manifest.Load(s.c.ManifestPath)
	if err != nil {
		return err
	}
	c := s.c
	c.Manifest = m
	b, err := bundle.New(c.bundleOptions())
	if err != nil {
		return err
	}
	s.b.Close()
	s.b = b
	s.c = c
	logger.Info(ctx, "reloaded manifest", slog.String("path", s.c.ManifestPath))
	return nil
}

func (s *devServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCommonHeaders(w)
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	p := r.URL.Path
	if p == document.LivePath {
		s.live.ServeHTTP(w, r)
		return
	}
	if p == "/" {
		p = "/index.html"
	}
	p = path.Clean(p)

	// All files await a build.
	snap, err := s.state.wait(r.Context())
	if err != nil {
		return
	}
	if snap.err != nil {
		var berr *bundle.Error
		if errors.As(snap.err, &berr) {
			http.Error(w, "Bundler Build Error\n\n"+strings.Join(berr.Messages, "\n\n"), http.StatusInternalServerError)
			return
		}
		http.Error(w, "Build Error\n\n"+snap.err.Error(), http.StatusInternalServerError)
		return
	}

	data, ok := snap.files[p]
	if !ok {
		data, err = s.readDisk(p)
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		} else if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	logger.Info(r.Context(), "serving", slog.String("path", p))
	w.Header().Set("Content-Type", contentType(p))
	w.Write(data)
}

// readDisk reads a file from the source directory. Directories are reported
// as not existing.
func (s *devServer) readDisk(p string) ([]byte, error) {
	name := strings.TrimPrefix(p, "/")
	if !fs.ValidPath(name) {
		return nil, fs.ErrNotExist
	}
	fi, err := fs.Stat(s.disk, name)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fs.ErrNotExist
	}
	return fs.ReadFile(s.disk, name)
}

// contentType returns the Content-Type for the named file.
func contentType(name string) string {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".js", ".es":
		return "application/javascript; charset=utf-8"
	case ".map", ".json":
		return "application/json; charset=utf-8"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}
