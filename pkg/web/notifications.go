package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rubiojr/prospect/pkg/notify"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// HandleNotifications streams hub events as JSON text frames. The first
// frame is a state event carrying the current version.
func (s *Server) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debugf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	id, events := s.hub.Register()
	defer s.hub.Unregister(id)
	logger := s.logger.With("listener", id)
	logger.Debugf("notification stream opened")

	// the client never sends anything we act on; reading detects close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	send := func(ev notify.Event) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(ev)
	}
	if err := send(notify.Event{Type: notify.EventState, Epoch: s.dash.Version()}); err != nil {
		return
	}
	if usage, ok := s.confirm.Pending(); ok {
		if err := send(notify.Event{Type: notify.EventConfirm, Usage: &usage}); err != nil {
			return
		}
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			logger.Debugf("notification stream closed")
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := send(ev); err != nil {
				logger.Debugf("writing event: %v", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
