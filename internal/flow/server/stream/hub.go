// Package stream fans out a running workflow's step events to any number
// of subscribed WebSocket clients, adapted from the teacher's
// room-partitioned Hub down to the one thing a run needs: broadcast to
// the clients watching a given run ID.
package stream

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Hub maintains, per run ID, the set of clients subscribed to that run's
// events.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *StepEvent

	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub builds a Hub and starts its event loop in the background.
func NewHub(ctx context.Context, logger *zap.Logger) *Hub {
	hubCtx, cancel := context.WithCancel(ctx)
	h := &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan *StepEvent, 256),
		logger:     logger,
		ctx:        hubCtx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.runID] == nil {
				h.clients[client.runID] = make(map[*Client]bool)
			}
			h.clients[client.runID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.runID]; ok {
				if _, ok := set[client]; ok {
					delete(set, client)
					close(client.send)
					if len(set) == 0 {
						delete(h.clients, client.runID)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.dispatch(event)
		}
	}
}

func (h *Hub) dispatch(event *StepEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal step event", zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := h.clients[event.RunID]
	recipients := make([]*Client, 0, len(clients))
	for c := range clients {
		recipients = append(recipients, c)
	}
	h.mu.RUnlock()

	for _, c := range recipients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping step event, client send buffer full", zap.String("runId", event.RunID))
		}
	}
}

// Publish queues a step event for delivery to that run's subscribers. It
// never blocks the caller (the workflow execution goroutine).
func (h *Hub) Publish(event StepEvent) {
	select {
	case h.broadcast <- &event:
	case <-h.ctx.Done():
	default:
		h.logger.Warn("step event buffer full, dropping event", zap.String("runId", event.RunID))
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for c := range set {
			close(c.send)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
}

// Shutdown stops the hub's event loop and waits for it to exit.
func (h *Hub) Shutdown() {
	h.cancel()
	<-h.done
}
