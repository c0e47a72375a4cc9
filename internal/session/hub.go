package session

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/trussvision/trussvision/backend-go/internal/typeid"
)

// DefaultMaxSessions bounds concurrent editors when the config leaves it unset.
const DefaultMaxSessions = 64

type HubConfig struct {
	MaxSessions    int
	OriginPatterns []string // host patterns accepted by the websocket upgrade
	Session        Options
}

// Hub tracks live editor sessions, one per websocket connection. Sessions
// are independent; the hub never routes messages between them.
type Hub struct {
	mu          sync.RWMutex
	clients     map[string]*Client // session id -> client
	register    chan *Client
	unregister  chan *Client
	done        chan struct{}
	stopOnce    sync.Once
	maxSessions int
	origins     []string
	opts        Options
	logger      *slog.Logger
}

func NewHub(cfg HubConfig, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	return &Hub{
		clients:     make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
		maxSessions: cfg.MaxSessions,
		origins:     cfg.OriginPatterns,
		opts:        cfg.Session,
		logger:      logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

// Stop ends the run loop and closes every live connection. The close
// handshakes run concurrently and Stop returns once all of them finished.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.RLock()
		clients := make([]*Client, 0, len(h.clients))
		for _, c := range h.clients {
			clients = append(clients, c)
		}
		h.mu.RUnlock()

		var wg sync.WaitGroup
		for _, c := range clients {
			wg.Add(1)
			go func(c *Client) {
				defer wg.Done()
				c.conn.Close(websocket.StatusGoingAway, "server shutting down")
			}(c)
		}
		wg.Wait()
		h.logger.Info("session hub stopped", "sessions", len(clients))
	})
}

// Register hands a client to the run loop. It reports false once the hub
// has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		h.removeClient(client)
	}
}

// Count returns the number of live sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	if len(h.clients) >= h.maxSessions {
		h.mu.Unlock()
		h.logger.Warn("session limit reached", "max", h.maxSessions)
		go client.conn.Close(websocket.StatusTryAgainLater, "too many sessions")
		return
	}
	h.clients[client.SessionID()] = client
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("session opened", "session", client.SessionID(), "client", client.ClientID, "sessions", n)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	cur, ok := h.clients[client.SessionID()]
	if !ok || cur != client {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.SessionID())
	close(client.send)
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("session closed", "session", client.SessionID(), "sessions", n)
}

// ServeHTTP upgrades the request and runs a fresh editor session on it until
// the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Count() >= h.maxSessions {
		http.Error(w, "too many sessions", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.logger.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(h, conn, typeid.NewSessionID(), uuid.New().String())
	if !h.Register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	payload, _ := json.Marshal(WelcomePayload{
		SessionID: client.SessionID(),
		ClientID:  client.ClientID,
	})
	client.Send(&Message{Type: TypeWelcome, SessionID: client.SessionID(), Payload: payload})
	client.session.Sync()

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
