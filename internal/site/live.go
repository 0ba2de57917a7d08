// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.astrophena.name/base/logger"

	"github.com/gorilla/websocket"
)

const liveWriteTimeout = 5 * time.Second

// liveHub keeps websocket connections of open pages and tells them to reload.
type liveHub struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newLiveHub() *liveHub {
	return &liveHub{
		upgrader: websocket.Upgrader{
			// The development server allows any origin anyway.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

func (h *liveHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error(r.Context(), "live reload upgrade failed", slog.Any("err", err))
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
	defer h.remove(conn)

	// Pages never send anything, read only to notice when they go away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *liveHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
	conn.Close()
}

// len returns the number of connected pages.
func (h *liveHub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// reload tells every connected page to reload.
func (h *liveHub) reload(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, []byte("reload")); err != nil {
			logger.Info(ctx, "dropping live reload connection", slog.Any("err", err))
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

// close disconnects every page.
func (h *liveHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
}
