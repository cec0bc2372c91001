// Package realtime fans alerts out to connected consoles. It implements a
// hub-and-spoke pattern where clients subscribe to topics and receive events
// broadcast to those topics, over Server-Sent Events or WebSockets.
package realtime

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// WildcardTopic receives every event regardless of its topic.
const WildcardTopic = "*"

// replaySize bounds the history kept for SSE Last-Event-ID resumption.
const replaySize = 256

// Event is a real-time alert sent to subscribers.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Severity   string    `json:"severity"`
	Topic      string    `json:"topic"`
	PatientID  string    `json:"patient_id,omitempty"`
	HospitalID string    `json:"hospital_id,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// HospitalTopic is the topic events about a hospital are published on.
func HospitalTopic(hospitalID string) string {
	return "hospital:" + hospitalID
}

// Publisher is implemented by anything that can accept events for fan-out.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Client is one connected subscriber.
type Client struct {
	ID     string
	Topics []string
	Send   chan Event
}

// NewClient creates a client with a buffered send queue.
func NewClient(id string, topics ...string) *Client {
	return &Client{ID: id, Topics: topics, Send: make(chan Event, 64)}
}

// Hub tracks clients and their topic subscriptions. All operations are
// thread-safe via sync.RWMutex.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // topic -> set of clients
	all     map[*Client]struct{}
	seq     uint64
	history []Event
	logger  zerolog.Logger
	now     func() time.Time
}

// NewHub creates a new Hub ready to manage clients.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
		logger:  logger,
		now:     time.Now,
	}
}

// Register adds a client and subscribes it to its topics.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	for _, topic := range client.Topics {
		if h.clients[topic] == nil {
			h.clients[topic] = make(map[*Client]struct{})
		}
		h.clients[topic][client] = struct{}{}
	}
}

// Unregister removes a client from every topic and closes its Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	for _, topic := range client.Topics {
		if subscribers, ok := h.clients[topic]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.clients, topic)
			}
		}
	}
	delete(h.all, client)
	close(client.Send)
}

// Publish assigns the event a sequence id, records it for replay and
// delivers it to subscribers of its topic and of the wildcard topic.
// Slow clients whose queue is full miss the event rather than block.
func (h *Hub) Publish(_ context.Context, event Event) error {
	h.mu.Lock()
	h.seq++
	event.ID = strconv.FormatUint(h.seq, 10)
	if event.CreatedAt.IsZero() {
		event.CreatedAt = h.now().UTC()
	}
	h.history = append(h.history, event)
	if len(h.history) > replaySize {
		h.history = h.history[len(h.history)-replaySize:]
	}
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Client]struct{})
	for _, topic := range []string{event.Topic, WildcardTopic} {
		for client := range h.clients[topic] {
			if _, dup := seen[client]; dup {
				continue
			}
			seen[client] = struct{}{}
			select {
			case client.Send <- event:
			default:
				h.logger.Warn().Str("client_id", client.ID).Str("event_id", event.ID).Msg("alert dropped for slow client")
			}
		}
	}
	return nil
}

// Since returns recorded events after lastID visible on any of topics.
func (h *Hub) Since(lastID string, topics []string) []Event {
	after, err := strconv.ParseUint(lastID, 10, 64)
	if err != nil {
		return nil
	}
	want := make(map[string]bool, len(topics))
	for _, t := range topics {
		want[t] = true
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []Event
	for _, ev := range h.history {
		id, _ := strconv.ParseUint(ev.ID, 10, 64)
		if id <= after {
			continue
		}
		if want[WildcardTopic] || want[ev.Topic] {
			out = append(out, ev)
		}
	}
	return out
}

// Recent returns up to limit of the newest events visible on topics, newest first.
func (h *Hub) Recent(topics []string, limit int) []Event {
	events := h.Since("0", topics)
	out := make([]Event, 0, limit)
	for i := len(events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, events[i])
	}
	return out
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TopicCount returns the number of clients subscribed to a specific topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

func encodeEvent(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}
