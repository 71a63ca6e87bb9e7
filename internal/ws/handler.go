package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/music-streaming-system/internal/auth"
	"github.com/music-streaming-system/internal/library"
	"github.com/music-streaming-system/pkg/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, implement proper origin checking
	},
}

// TrackSelectedMessage is sent by a client tab when the user picks a track;
// it is fanned out to the user's other sessions so they stay in sync.
type TrackSelectedMessage struct {
	VideoID string `json:"videoId"`
	Title   string `json:"title"`
}

// EventStream is the slice of the event client the handler uses. Nil means
// the event stream is disabled and fan-out stays in-process.
type EventStream interface {
	PublishEvent(ctx context.Context, eventType events.EventType, userID int, payload interface{}) error
	ConsumeEvents(ctx context.Context, handler func(events.Event) error) error
}

type Handler struct {
	// Map of userID -> map of connectionID -> *websocket.Conn
	users   map[int]map[string]*websocket.Conn
	mu      sync.RWMutex
	events  EventStream
	library *library.Service
	log     *log.Logger

	consumeOnce    sync.Once
	consumeBackoff time.Duration
}

func NewHandler(eventStream EventStream, libraryService *library.Service) *Handler {
	return &Handler{
		users:          make(map[int]map[string]*websocket.Conn),
		events:         eventStream,
		library:        libraryService,
		log:            log.WithPrefix("ws"),
		consumeBackoff: 5 * time.Second,
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	externalID := c.GetString(auth.ContextExternalID)
	user, err := h.library.ResolveUser(c.Request.Context(), externalID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("failed to upgrade connection", "err", err)
		return
	}

	connID := uuid.New().String()
	h.addConnection(user.ID, connID, conn)
	defer h.removeConnection(user.ID, connID)

	if h.events != nil {
		h.consumeOnce.Do(func() {
			go h.consumeEvents(context.Background())
		})
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket error", "err", err)
			}
			break
		}

		var msg map[string]interface{}
		if err := json.Unmarshal(message, &msg); err != nil {
			h.log.Warn("failed to parse message", "err", err)
			continue
		}

		switch msg["type"] {
		case "track_selected":
			var trackMsg TrackSelectedMessage
			if err := json.Unmarshal(message, &trackMsg); err != nil {
				h.log.Warn("failed to parse track message", "err", err)
				continue
			}
			h.handleTrackSelected(user.ID, connID, trackMsg)
		}
	}
}

func (h *Handler) addConnection(userID int, connID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.users[userID]; !exists {
		h.users[userID] = make(map[string]*websocket.Conn)
	}
	h.users[userID][connID] = conn
}

func (h *Handler) removeConnection(userID int, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, exists := h.users[userID]; exists {
		if conn, exists := conns[connID]; exists {
			conn.Close()
			delete(conns, connID)
		}
		if len(conns) == 0 {
			delete(h.users, userID)
		}
	}
}

// broadcastToUser sends the message to all of the user's connections except
// the one it originated from.
func (h *Handler) broadcastToUser(userID int, exceptConnID string, message interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, exists := h.users[userID]
	if !exists {
		return
	}

	messageJSON, err := json.Marshal(message)
	if err != nil {
		h.log.Error("failed to marshal message", "err", err)
		return
	}

	for connID, conn := range conns {
		if connID == exceptConnID {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, messageJSON); err != nil {
			h.log.Warn("failed to send message", "err", err)
		}
	}
}

// consumeEvents keeps the fan-out alive for the process lifetime: a broker
// read error is logged and the loop reconnects after a backoff rather than
// ending cross-session sync.
func (h *Handler) consumeEvents(ctx context.Context) {
	for {
		err := h.events.ConsumeEvents(ctx, func(event events.Event) error {
			h.broadcastToUser(event.UserID, "", event)
			return nil
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			h.log.Warn("event consume failed, retrying", "err", err, "backoff", h.consumeBackoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(h.consumeBackoff):
		}
	}
}

func (h *Handler) handleTrackSelected(userID int, connID string, msg TrackSelectedMessage) {
	// Other tabs get the signal immediately; Kafka carries it to other
	// server instances when configured.
	h.broadcastToUser(userID, connID, map[string]interface{}{
		"type":    string(events.EventTypeTrackSelected),
		"videoId": msg.VideoID,
		"title":   msg.Title,
	})

	if h.events == nil {
		return
	}

	payload := events.TrackSelectedPayload{
		VideoID: msg.VideoID,
		Title:   msg.Title,
	}

	if err := h.events.PublishEvent(context.Background(), events.EventTypeTrackSelected, userID, payload); err != nil {
		h.log.Warn("failed to publish track selection", "err", err)
	}
}
