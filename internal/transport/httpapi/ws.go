package httpapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sentinela/internal/bootstrap/logging"
	"sentinela/internal/errs"
)

// refreshSignal is the message pushed to every connected panel when the
// snapshot changes; clients re-fetch through the JSON API on receipt.
const refreshSignal = "refresh"

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// hub fans one text message out to every connected websocket client. Slow
// clients are dropped rather than allowed to stall the broadcast.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan string
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]chan string)}
}

func (h *hub) add(conn *websocket.Conn) chan string {
	ch := make(chan string, 4)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *hub) broadcast(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- msg:
		default:
			delete(h.clients, conn)
			close(ch)
			_ = conn.Close()
		}
	}
}

// handleWebsocket upgrades the connection and streams refresh signals until
// the client goes away. The session token is checked before upgrading.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if _, err := s.svc.Sessions().Get(token); err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing or unknown session token"})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn(r.Context(), "websocket upgrade failed",
			slog.String("component", "httpapi"),
			slog.Any("err", errs.Loggable(err)),
		)
		return
	}

	ch := s.hub.add(conn)
	defer func() {
		s.hub.remove(conn)
		_ = conn.Close()
	}()

	// Drain reads so close frames and pings are processed.
	go func() {
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				s.hub.remove(conn)
				return
			}
		}
	}()

	for msg := range ch {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if writeErr := conn.WriteMessage(websocket.TextMessage, []byte(msg)); writeErr != nil {
			return
		}
	}
}
