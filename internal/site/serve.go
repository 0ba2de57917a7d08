// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"strings"
	"syscall"
	"time"

	"go.astrophena.name/base/logger"
)

var serveReadyHook func(addr string) // used in tests, called when the server started serving

// listen listens on addr. If the port is already in use, another free port on
// the same host is picked.
func listen(ctx context.Context, addr string) (net.Listener, error) {
	l, err := net.Listen("tcp", addr)
	if err == nil || !errors.Is(err, syscall.EADDRINUSE) {
		return l, err
	}
	host, port, serr := net.SplitHostPort(addr)
	if serr != nil {
		return nil, err
	}
	logger.Info(ctx, "port is busy, picking another one", slog.String("port", port))
	return net.Listen("tcp", net.JoinHostPort(host, "0"))
}

// serve serves h on addr until ctx is canceled. If onListen is not nil, it's
// called once the listener is ready.
func serve(ctx context.Context, addr string, h http.Handler, onListen func()) error {
	l, err := listen(ctx, addr)
	if err != nil {
		return err
	}
	defer l.Close()
	logger.Info(ctx, "listening for HTTP requests", slog.String("addr", "http://"+l.Addr().String()))

	httpSrv := &http.Server{Handler: h}
	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(l); err != nil {
			if err != http.ErrServerClosed {
				errCh <- err
			}
		}
	}()

	if onListen != nil {
		onListen()
	}
	if serveReadyHook != nil {
		serveReadyHook(l.Addr().String())
	}

	select {
	case <-ctx.Done():
		logger.Info(ctx, "gracefully shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return httpSrv.Shutdown(shutdownCtx)
}

// setCommonHeaders sets headers that are sent with every response.
func setCommonHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Headers", "*")
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", http.MethodGet)
	h.Set("Cache-Control", "no-cache")
}

// Preview builds the site and serves the result on a provided host:port
// without watching for changes.
func Preview(ctx context.Context, c *Config, addr string) error {
	c.setDefaults()

	logger.Info(ctx, "performing a build")
	if err := Build(ctx, c); err != nil {
		return err
	}

	return serve(ctx, addr, &staticHandler{fs: os.DirFS(c.Dst)}, nil)
}

// staticHandler serves a built site from fs.
type staticHandler struct {
	fs fs.FS
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCommonHeaders(w)
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	switch p := r.URL.Path; {
	case p == "/":
		h.serveFile(w, r, "index.html", "text/html; charset=utf-8")
	case p == "/index.css":
		h.serveFile(w, r, "index.css", "text/css; charset=utf-8")
	case p == "/index.js":
		h.serveFile(w, r, "index.js", "application/javascript; charset=utf-8")
	case path.Ext(p) != "":
		h.serveFile(w, r, strings.TrimPrefix(path.Clean(p), "/"), "")
	default:
		h.serveNotFound(w, r)
	}
}

// serveFile serves the named file. If contentType is empty, it's derived from
// the file name.
func (h *staticHandler) serveFile(w http.ResponseWriter, r *http.Request, name, contentType string) {
	d, err := fs.Stat(h.fs, name)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
		h.serveNotFound(w, r)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if d.IsDir() {
		h.serveNotFound(w, r)
		return
	}

	b, err := fs.ReadFile(h.fs, name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logger.Info(r.Context(), "serving", slog.String("path", r.URL.Path))
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	http.ServeContent(w, r, d.Name(), d.ModTime(), bytes.NewReader(b))
}

func (h *staticHandler) serveNotFound(w http.ResponseWriter, r *http.Request) {
	f, err := h.fs.Open("404.html")
	if errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	io.Copy(w, f)
}
