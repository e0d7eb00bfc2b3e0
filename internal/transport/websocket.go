package transport

import (
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"audiovis/internal/analyzer"
	applog "audiovis/internal/log"
)

// WebSocket broadcasts snapshots as JSON to every client connected on
// /spectrum. Sends are decoupled from the frame loop through a buffered
// channel; when the channel is full the frame is dropped rather than
// blocking the analyzer.
type WebSocket struct {
	listener  net.Listener
	server    *http.Server
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan analyzer.Snapshot
	done      chan struct{}
}

// NewWebSocket starts a broadcaster listening on addr (e.g. ":8080").
func NewWebSocket(addr string) (*WebSocket, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	ws := &WebSocket{
		listener: listener,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local visualization clients only
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan analyzer.Snapshot, 256),
		done:      make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/spectrum", ws.handleConnection)
	ws.server = &http.Server{Handler: mux}

	go func() {
		applog.Infof("Transport: websocket listening on %s", listener.Addr())
		if err := ws.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			applog.Errorf("Transport: websocket server: %v", err)
		}
	}()
	go ws.run()

	return ws, nil
}

// Addr returns the bound listen address, useful when addr was ":0".
func (ws *WebSocket) Addr() net.Addr { return ws.listener.Addr() }

func (ws *WebSocket) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Errorf("Transport: websocket upgrade: %v", err)
		return
	}

	ws.clientsMu.Lock()
	ws.clients[conn] = true
	total := len(ws.clients)
	ws.clientsMu.Unlock()
	applog.Infof("Transport: websocket client connected, total: %d", total)

	// Reads are only used to detect disconnection.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				ws.dropClient(conn)
				return
			}
		}
	}()
}

func (ws *WebSocket) dropClient(conn *websocket.Conn) {
	ws.clientsMu.Lock()
	if ws.clients[conn] {
		delete(ws.clients, conn)
		applog.Infof("Transport: websocket client disconnected, total: %d", len(ws.clients))
	}
	ws.clientsMu.Unlock()
	conn.Close()
}

func (ws *WebSocket) run() {
	for {
		select {
		case snap := <-ws.broadcast:
			ws.clientsMu.Lock()
			for conn := range ws.clients {
				if err := conn.WriteJSON(snap); err != nil {
					applog.Errorf("Transport: websocket write: %v", err)
					delete(ws.clients, conn)
					conn.Close()
				}
			}
			ws.clientsMu.Unlock()
		case <-ws.done:
			return
		}
	}
}

// Send queues the snapshot for broadcast, dropping it if the queue is full.
func (ws *WebSocket) Send(snap analyzer.Snapshot) error {
	select {
	case ws.broadcast <- snap:
	default:
		// A stalled broadcaster should not stall the analyzer.
	}
	return nil
}

// Close shuts down the server and all client connections.
func (ws *WebSocket) Close() error {
	close(ws.done)

	ws.clientsMu.Lock()
	for conn := range ws.clients {
		conn.Close()
	}
	ws.clients = make(map[*websocket.Conn]bool)
	ws.clientsMu.Unlock()

	return ws.server.Close()
}

var _ Transport = (*WebSocket)(nil)
