// Package ui exposes the kiosk state to the front-end over a
// websocket: status broadcasts out, an activate command in. The core
// renders nothing itself.
package ui

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// StatusEvent is pushed to every connected front-end on each mode
// transition.
type StatusEvent struct {
	Kind  string `json:"kind"`
	Mode  string `json:"mode"`
	Label string `json:"label"`
}

// Command is what the front-end may send back.
type Command struct {
	Cmd string `json:"cmd"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// local kiosk page only
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Bridge fans status events out to connected front-ends and forwards
// their activate commands to the controller.
type Bridge struct {
	log        *slog.Logger
	onActivate func()

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	last  *StatusEvent
}

func NewBridge(onActivate func(), logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		log:        logger,
		onActivate: onActivate,
		conns:      make(map[*websocket.Conn]struct{}),
	}
}

// Broadcast sends the current mode and label to every connection.
// Broken connections are dropped.
func (b *Bridge) Broadcast(mode, label string) {
	ev := StatusEvent{Kind: "status", Mode: mode, Label: label}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = &ev
	for conn := range b.conns {
		if err := conn.WriteJSON(ev); err != nil {
			b.log.Warn("dropping front-end connection", "err", err)
			conn.Close()
			delete(b.conns, conn)
		}
	}
}

// Handler upgrades an HTTP request and serves the connection until the
// peer goes away.
func (b *Bridge) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.log.Warn("websocket upgrade failed", "err", err)
			return
		}

		// replay and registration share the lock with Broadcast, so a
		// connection is never written from two goroutines at once
		b.mu.Lock()
		if b.last != nil {
			conn.WriteJSON(*b.last)
		}
		b.conns[conn] = struct{}{}
		b.mu.Unlock()

		go b.readLoop(conn)
	})
}

// Serve runs a blocking HTTP server with the bridge mounted at /ws.
func (b *Bridge) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", b.Handler())
	return http.ListenAndServe(addr, mux)
}

func (b *Bridge) readLoop(conn *websocket.Conn) {
	defer func() {
		b.mu.Lock()
		delete(b.conns, conn)
		b.mu.Unlock()
		conn.Close()
	}()

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		switch cmd.Cmd {
		case "activate":
			if b.onActivate != nil {
				b.onActivate()
			}
		default:
			b.log.Warn("unknown front-end command", "cmd", cmd.Cmd)
		}
	}
}
