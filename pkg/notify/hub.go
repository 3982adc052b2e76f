package notify

import (
	"sync"

	"github.com/rubiojr/prospect/pkg/leads"
)

// Event types sent over the hub.
const (
	EventToast   = "toast"
	EventState   = "state"
	EventConfirm = "confirm"
)

// Event is the envelope delivered to hub listeners. State events carry only
// the engine epoch; listeners fetch the full state themselves. Confirm
// events carry the usage snapshot that triggered them.
type Event struct {
	Type         string               `json:"type"`
	Notification *Notification        `json:"notification,omitempty"`
	Epoch        uint64               `json:"epoch,omitempty"`
	Usage        *leads.UsageSnapshot `json:"usage,omitempty"`
}

// Hub fans events out to registered listeners. Each listener owns a buffered
// channel; when it is full the event is dropped for that listener only.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	bufSize   int
}

// NewHub returns a hub with the given per-listener buffer (default 32).
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Hub{
		listeners: make(map[uint64]chan Event),
		bufSize:   bufSize,
	}
}

// Register adds a listener. Callers must Unregister the returned id.
func (h *Hub) Register() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes a listener and closes its channel. Unknown ids are ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Toast implements Sink by broadcasting a toast event.
func (h *Hub) Toast(n Notification) {
	h.Broadcast(Event{Type: EventToast, Notification: &n})
}

// StateChanged tells listeners the engine state moved to epoch.
func (h *Hub) StateChanged(epoch uint64) {
	h.Broadcast(Event{Type: EventState, Epoch: epoch})
}

// ConfirmRequested asks listeners to confirm a search on low credits.
func (h *Hub) ConfirmRequested(u leads.UsageSnapshot) {
	h.Broadcast(Event{Type: EventConfirm, Usage: &u})
}

func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- ev:
		default:
			// slow listener
		}
	}
}

// Size returns the number of registered listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
