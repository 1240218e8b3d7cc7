// SPDX-License-Identifier: MIT
package transport

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	applog "github.com/zfurman56/live-spectrum/internal/log"
)

// WebSocketTransport broadcasts spectrum frames as JSON to connected
// WebSocket clients with rate limiting to prevent overwhelming clients or
// the network.
//
// Thread Safety:
// - Uses a mutex for client map access
// - Handles concurrent connections safely
// - Send is only called from the publisher goroutine
type WebSocketTransport struct {
	clients      map[*websocket.Conn]bool
	clientsMutex sync.Mutex
	upgrader     websocket.Upgrader
	server       *http.Server

	lastSend        time.Time
	minSendInterval time.Duration
}

// NewWebSocketTransport creates the transport and starts an HTTP server on
// addr (e.g. ":8080") serving WebSocket upgrades at /spectrum.
// minSendInterval caps the broadcast rate; frames arriving faster are
// silently dropped. Zero disables the cap.
func NewWebSocketTransport(addr string, minSendInterval time.Duration) *WebSocketTransport {
	t := &WebSocketTransport{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // local tooling, any origin may connect
			},
		},
		minSendInterval: minSendInterval,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/spectrum", t.handleWebSocket)
	t.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		applog.Infof("WebSocketTransport: Listening on %s", addr)
		if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
			applog.Errorf("WebSocketTransport: Server error: %v", err)
		}
	}()

	return t
}

// handleWebSocket upgrades the HTTP connection, registers the client, and
// starts a goroutine that reaps the client when its connection drops.
func (t *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketTransport: Upgrade error: %v", err)
		return
	}

	t.clientsMutex.Lock()
	t.clients[conn] = true
	clientCount := len(t.clients)
	t.clientsMutex.Unlock()
	applog.Infof("WebSocketTransport: Client connected (%d active)", clientCount)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				t.clientsMutex.Lock()
				delete(t.clients, conn)
				t.clientsMutex.Unlock()
				conn.Close()
				applog.Debugf("WebSocketTransport: Client disconnected: %v", err)
				return
			}
		}
	}()
}

// Send broadcasts the frame as JSON to every connected client. Frames that
// arrive within minSendInterval of the previous broadcast are dropped.
// Clients whose writes fail are closed and removed.
func (t *WebSocketTransport) Send(frame Frame) error {
	now := time.Now()
	if now.Sub(t.lastSend) < t.minSendInterval {
		return nil // rate limited, skip this frame
	}
	t.lastSend = now

	t.clientsMutex.Lock()
	defer t.clientsMutex.Unlock()

	for client := range t.clients {
		if err := client.WriteJSON(frame); err != nil {
			client.Close()
			delete(t.clients, client)
			applog.Debugf("WebSocketTransport: Dropping client after write error: %v", err)
		}
	}
	return nil
}

// Close shuts down the HTTP server and disconnects all clients.
// Thread-safe and idempotent.
func (t *WebSocketTransport) Close() error {
	t.clientsMutex.Lock()
	for client := range t.clients {
		client.Close()
		delete(t.clients, client)
	}
	t.clientsMutex.Unlock()

	return t.server.Close()
}

var _ Transport = (*WebSocketTransport)(nil)
