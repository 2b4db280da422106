package app

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"table-service-go/internal/domain"
)

type SSEEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type SSEHub struct {
	log *slog.Logger

	mu   sync.RWMutex
	subs map[string]map[chan SSEEvent]struct{} // topic -> set(ch)
}

func NewSSEHub(logger *slog.Logger) *SSEHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &SSEHub{
		log:  logger,
		subs: map[string]map[chan SSEEvent]struct{}{},
	}
}

func (h *SSEHub) Subscribe(topics []string, buf int) (<-chan SSEEvent, func()) {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan SSEEvent, buf)

	h.mu.Lock()
	for _, t := range topics {
		if h.subs[t] == nil {
			h.subs[t] = map[chan SSEEvent]struct{}{}
		}
		h.subs[t][ch] = struct{}{}
	}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			for _, t := range topics {
				if set, ok := h.subs[t]; ok {
					delete(set, ch)
					if len(set) == 0 {
						delete(h.subs, t)
					}
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Broadcast delivers ev to every subscriber of topic. Slow consumers miss
// events instead of blocking the sender.
func (h *SSEHub) Broadcast(topic string, ev SSEEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[topic] {
		select {
		case ch <- ev:
		default:
			h.log.Debug("sse subscriber too slow, event dropped", "topic", topic, "type", ev.Type)
		}
	}
}

// Notify fans a domain event out to the floor, the table and, for kitchen
// events, the station and the chefs. A subscriber on several of those topics
// receives it once per topic.
func (h *SSEHub) Notify(_ context.Context, ev domain.Event) {
	out := SSEEvent{Type: ev.Type, Data: ev}
	for _, t := range TopicsFor(ev) {
		h.Broadcast(t, out)
	}
}

/* ---- topic helpers ---- */

func TopicFloor() string                    { return "floor" }
func TopicTable(tableID int64) string       { return "table:" + strconv.FormatInt(tableID, 10) }
func TopicStation(st domain.Station) string { return "station:" + string(st) }
func TopicRole(role string) string          { return "role:" + role }

func TopicsFor(ev domain.Event) []string {
	topics := []string{TopicFloor()}
	if ev.TableID > 0 {
		topics = append(topics, TopicTable(ev.TableID))
	}
	if ev.Kitchen() {
		topics = append(topics, TopicStation(ev.Station), TopicRole(RoleChef))
	}
	return topics
}
