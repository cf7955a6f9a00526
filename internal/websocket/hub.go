package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog"

	"github.com/reelworthy/api/internal/logging"
	"github.com/reelworthy/api/internal/model"
)

// Client represents a WebSocket client subscribed to one job
type Client struct {
	JobID string
	Conn  *websocket.Conn
	Send  chan []byte
}

// Hub maintains active WebSocket connections grouped by job ID and
// pushes job progress to them. Polling stays the primary interface; the
// hub is a convenience layer on top of the same snapshots.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	mu  sync.RWMutex
	log zerolog.Logger
}

type broadcastMessage struct {
	jobID   string
	payload []byte
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
		log:        logging.WithComponent("ws"),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.JobID] == nil {
				h.clients[client.JobID] = make(map[*Client]bool)
			}
			h.clients[client.JobID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.JobID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.clients, client.JobID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			if clients, ok := h.clients[msg.jobID]; ok {
				for client := range clients {
					select {
					case client.Send <- msg.payload:
					default:
						close(client.Send)
						delete(clients, client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// HandleConnection pumps messages to one connection until it drops.
func (h *Hub) HandleConnection(conn *websocket.Conn, jobID string) {
	client := &Client{
		JobID: jobID,
		Conn:  conn,
		Send:  make(chan []byte, 16),
	}
	h.register <- client
	defer func() { h.unregister <- client }()

	for payload := range client.Send {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// BroadcastProgress sends a progress update to all job subscribers
func (h *Hub) BroadcastProgress(jobID string, progress int, status model.JobStatus, step string) {
	h.send(jobID, model.WSProgressMessage{
		Type:        model.WSMessageTypeProgress,
		JobID:       jobID,
		Progress:    progress,
		Status:      status,
		CurrentStep: step,
	})
}

// BroadcastComplete sends the final clip list to all job subscribers
func (h *Hub) BroadcastComplete(jobID string, results []model.ClipResult) {
	h.send(jobID, model.WSCompleteMessage{
		Type:    model.WSMessageTypeComplete,
		JobID:   jobID,
		Results: results,
	})
}

// BroadcastError sends a failure message to all job subscribers
func (h *Hub) BroadcastError(jobID, errMsg string) {
	h.send(jobID, model.WSErrorMessage{
		Type:  model.WSMessageTypeError,
		JobID: jobID,
		Error: errMsg,
	})
}

func (h *Hub) send(jobID string, msg interface{}) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal ws message")
		return
	}
	select {
	case h.broadcast <- &broadcastMessage{jobID: jobID, payload: payload}:
	default:
		h.log.Warn().Str("job_id", jobID).Msg("ws broadcast queue full, dropping message")
	}
}
