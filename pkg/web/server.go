// Package web serves a local dashboard around one engine.Dashboard: a JSON
// API, a websocket notification stream and an HTML page.
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"

	"github.com/rubiojr/prospect/pkg/engine"
	"github.com/rubiojr/prospect/pkg/log"
	"github.com/rubiojr/prospect/pkg/notify"
)

type Options struct {
	Dashboard *engine.Dashboard
	Hub       *notify.Hub
	// Confirmer must be the one the dashboard was built with for
	// POST /api/confirm to resolve anything.
	Confirmer *Confirmer
	// Metrics is served at /metrics when set.
	Metrics http.Handler
}

type Server struct {
	dash     *engine.Dashboard
	hub      *notify.Hub
	confirm  *Confirmer
	metrics  http.Handler
	upgrader websocket.Upgrader
	logger   *log.Logger
}

func NewServer(opts Options) (*Server, error) {
	if opts.Dashboard == nil {
		return nil, errors.New("web: dashboard is required")
	}
	if opts.Hub == nil {
		opts.Hub = notify.NewHub(0)
	}
	if opts.Confirmer == nil {
		opts.Confirmer = NewConfirmer(nil)
	}
	return &Server{
		dash:    opts.Dashboard,
		hub:     opts.Hub,
		confirm: opts.Confirmer,
		metrics: opts.Metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger: log.ForService("web"),
	}, nil
}

// Handler returns the routed handler. Everything but the websocket stream
// is gzip-compressed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	root := http.NewServeMux()
	root.HandleFunc("GET /api/notifications", s.HandleNotifications)
	root.Handle("/", gzhttp.GzipHandler(mux))
	return root
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warnf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:   error,
		Message: message,
	})
}
