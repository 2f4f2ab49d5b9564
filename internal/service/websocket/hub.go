package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"partcounter/internal/logger"
)

// Message types pushed to viewers.
const (
	MessageFrame     = "frame"
	MessageCounts    = "counts"
	MessageCrossings = "crossings"
	MessageReset     = "reset"
)

const writeWait = 5 * time.Second

// Message is the envelope of every viewer message.
type Message struct {
	Type    string      `json:"type"`
	Camera  string      `json:"camera,omitempty"`
	Payload interface{} `json:"payload"`
}

// HubService fans broadcast messages out to every registered viewer connection.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

// NewHubService creates a hub whose broadcast queue holds queueSize messages.
func NewHubService(queueSize int, logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, queueSize),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes every
// client. Run must be called at most once.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", total)

		case message := <-h.broadcast:
			h.send(message)
		}
	}
}

func (h *HubService) send(message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Error("Error sending message: %v", err)
			delete(h.clients, client)
			client.Close()
		}
	}
}

// Register adds a viewer. Once the hub has stopped the connection is closed instead.
func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		if client != nil {
			client.Close()
		}
	}
}

// Unregister removes and closes a viewer. It does not block after the hub has stopped.
func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
		if client != nil {
			client.Close()
		}
	}
}

// Done is closed when Run returns.
func (h *HubService) Done() <-chan struct{} {
	return h.done
}

// Broadcast queues a raw message. It never blocks; when the queue is full the
// message is dropped and false is returned.
func (h *HubService) Broadcast(message []byte) bool {
	select {
	case h.broadcast <- message:
		return true
	default:
		h.logger.Warning("Broadcast queue full, dropping message")
		return false
	}
}

// BroadcastMessage encodes msg as JSON and queues it.
func (h *HubService) BroadcastMessage(msg Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Error encoding %s message: %v", msg.Type, err)
		return false
	}
	return h.Broadcast(data)
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
