package watch

import (
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/wyldephyre/nexus-arcanum/backend/internal/model/game"
)

// Hub fans appended turns out to websocket spectators. It satisfies the
// engine's TurnPublisher interface; Publish never blocks the turn path, a
// spectator that cannot keep up is dropped.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]map[*watcher]struct{}
	upgrader websocket.Upgrader
}

type watcher struct {
	send chan game.Turn
}

// NewHub creates an empty spectator hub.
func NewHub() *Hub {
	return &Hub{
		watchers: make(map[string]map[*watcher]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the spectator endpoint.
func (h *Hub) RegisterRoutes(r chi.Router) {
	r.Get("/watch/{sessionID}", h.handleWatch)
}

// Publish delivers a turn to every spectator of the session. Slow spectators
// miss the turn rather than stalling the sender.
func (h *Hub) Publish(sessionID string, turn game.Turn) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for w := range h.watchers[sessionID] {
		select {
		case w.send <- turn:
		default:
			log.Printf("[watch] dropping turn for slow spectator session=%s", sessionID)
		}
	}
}

func (h *Hub) handleWatch(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[watch] upgrade failed for session=%s: %v", sessionID, err)
		return
	}

	wa := &watcher{send: make(chan game.Turn, 16)}
	h.add(sessionID, wa)
	log.Printf("[watch] spectator joined session=%s", sessionID)

	defer func() {
		h.remove(sessionID, wa)
		conn.Close()
		log.Printf("[watch] spectator left session=%s", sessionID)
	}()

	// Reader goroutine only to observe close; spectators never send.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case turn := <-wa.send:
			if err := conn.WriteJSON(turn); err != nil {
				return
			}
		}
	}
}

func (h *Hub) add(sessionID string, w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watchers[sessionID] == nil {
		h.watchers[sessionID] = make(map[*watcher]struct{})
	}
	h.watchers[sessionID][w] = struct{}{}
}

func (h *Hub) remove(sessionID string, w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.watchers[sessionID], w)
	if len(h.watchers[sessionID]) == 0 {
		delete(h.watchers, sessionID)
	}
}
