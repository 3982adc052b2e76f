package web

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.HandleIndex)
	mux.HandleFunc("GET /api/state", s.HandleState)
	mux.HandleFunc("PUT /api/filters", s.HandleFilters)
	mux.HandleFunc("POST /api/search", s.HandleSearch)
	mux.HandleFunc("POST /api/search/page/{page}", s.HandleSearchPage)
	mux.HandleFunc("POST /api/confirm", s.HandleConfirm)
	mux.HandleFunc("PUT /api/view/{mode}", s.HandleView)
	mux.HandleFunc("POST /api/export/{format}", s.HandleExport)
	mux.HandleFunc("GET /health", s.HandleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
}
