// Package notify carries user-facing notifications (toasts) from the engine
// to whatever surface is attached: the terminal, the web dashboard, or both.
//
// Delivery is best effort. A slow listener drops events instead of blocking
// the engine, and nothing is persisted or replayed.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rubiojr/prospect/pkg/log"
)

// Variant selects how a notification is presented.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
	VariantSuccess     Variant = "success"
)

// Notification is a transient message with a title and a description.
type Notification struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Variant     Variant   `json:"variant"`
	At          time.Time `json:"at"`
}

// New stamps a notification with a fresh ID and the current time.
func New(variant Variant, title, description string) Notification {
	if variant == "" {
		variant = VariantDefault
	}
	return Notification{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Variant:     variant,
		At:          time.Now().UTC(),
	}
}

// Sink receives notifications. Implementations must not block for long.
type Sink interface {
	Toast(Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Notification)

func (f SinkFunc) Toast(n Notification) { f(n) }

// Discard drops every notification.
var Discard Sink = SinkFunc(func(Notification) {})

// Multi fans a notification out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	var live []Sink
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	return SinkFunc(func(n Notification) {
		for _, s := range live {
			s.Toast(n)
		}
	})
}

// LogSink writes notifications to a logger, destructive ones as warnings.
func LogSink(l *log.Logger) Sink {
	return SinkFunc(func(n Notification) {
		if n.Variant == VariantDestructive {
			l.Warnf("%s: %s", n.Title, n.Description)
			return
		}
		l.Infof("%s: %s", n.Title, n.Description)
	})
}

// Recorder keeps every notification it receives. It is safe for concurrent
// use and is mostly useful in tests.
type Recorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *Recorder) Toast(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.notes))
	copy(out, r.notes)
	return out
}

// Last returns the most recent notification, if any.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return Notification{}, false
	}
	return r.notes[len(r.notes)-1], true
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = nil
}
