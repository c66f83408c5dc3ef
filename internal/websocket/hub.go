package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukerupert/chorewheel/internal/model"
)

// Message is a real-time sync notification.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub tracks connected clients by household and fans messages out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With("component", "websocket"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends msg to every client subscribed to householdID. Clients with
// a full buffer miss the message rather than block the sender.
func (h *Hub) Broadcast(householdID int64, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.householdID != householdID {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Debug("client buffer full, dropping message", "household_id", householdID, "type", msg.Type)
		}
	}
}

// InstancesGenerated announces newly created chore instances, one message per
// chore. Its signature matches chore.CreatedFunc.
func (h *Hub) InstancesGenerated(_ context.Context, householdID int64, instances []model.ChoreInstance) {
	byChore := make(map[int64][]int64)
	var order []int64
	for _, inst := range instances {
		if _, ok := byChore[inst.ChoreID]; !ok {
			order = append(order, inst.ChoreID)
		}
		byChore[inst.ChoreID] = append(byChore[inst.ChoreID], inst.ID)
	}

	for _, choreID := range order {
		h.Broadcast(householdID, NewMessage("chore_instance", "generated", choreID, map[string]any{
			"household_id": householdID,
			"instance_ids": byChore[choreID],
		}))
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
