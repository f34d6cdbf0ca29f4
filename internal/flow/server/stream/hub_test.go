package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestHub() *Hub {
	return NewHub(context.Background(), zap.NewNop())
}

func (h *Hub) clientCount(runID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[runID])
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := newTestHub()
	defer hub.Shutdown()

	client := &Client{runID: "run-1", send: make(chan []byte, 4)}
	hub.register <- client
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, hub.clientCount("run-1"))

	hub.unregister <- client
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, hub.clientCount("run-1"))
}

func TestHub_PublishDeliversOnlyToSameRun(t *testing.T) {
	hub := newTestHub()
	defer hub.Shutdown()

	watchingA := &Client{runID: "run-a", send: make(chan []byte, 4)}
	watchingB := &Client{runID: "run-b", send: make(chan []byte, 4)}
	hub.register <- watchingA
	hub.register <- watchingB
	time.Sleep(20 * time.Millisecond)

	hub.Publish(StepEvent{Type: "log", RunID: "run-a", Message: "hello"})
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, len(watchingA.send))
	assert.Equal(t, 0, len(watchingB.send))
}

func TestHub_ShutdownClosesClientChannels(t *testing.T) {
	hub := newTestHub()

	client := &Client{runID: "run-1", send: make(chan []byte, 4)}
	hub.register <- client
	time.Sleep(20 * time.Millisecond)

	hub.Shutdown()

	_, open := <-client.send
	assert.False(t, open)
}
