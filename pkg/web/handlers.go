package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rubiojr/prospect/pkg/engine"
	"github.com/rubiojr/prospect/pkg/leads"
	"github.com/rubiojr/prospect/pkg/version"
)

func (s *Server) state() StateResponse {
	st := s.dash.State()
	_, visible := s.dash.View.Visible()
	resp := StateResponse{State: st, Visible: visible}
	if resp.Visible == nil {
		resp.Visible = []leads.Lead{}
	}
	if usage, ok := s.confirm.Pending(); ok {
		resp.PendingConfirmation = &usage
	}
	return resp
}

func (s *Server) HandleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.state())
}

// HandleFilters replaces the filter selection from query parameters.
func (s *Server) HandleFilters(w http.ResponseWriter, r *http.Request) {
	sel, _, err := leads.ParseFilters(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid filters", err.Error())
		return
	}
	if err := s.dash.Filters.Apply(sel); err != nil {
		if errors.Is(err, engine.ErrUnknownCity) {
			s.writeError(w, http.StatusBadRequest, "Invalid filters",
				fmt.Sprintf("%q is not a known city of %s", sel.City(), sel.Country()))
			return
		}
		s.writeError(w, http.StatusInternalServerError, "Invalid filters", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	_, err := s.dash.Search.Submit(r.Context())
	s.searchDone(w, err)
}

func (s *Server) HandleSearchPage(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil || page < 1 {
		s.writeError(w, http.StatusBadRequest, "Invalid page", "Page must be a positive number")
		return
	}
	_, err = s.dash.Search.GoToPage(r.Context(), page)
	s.searchDone(w, err)
}

// searchDone maps a search outcome to a response. Failures have already been
// reported to the user as notifications.
func (s *Server) searchDone(w http.ResponseWriter, err error) {
	if err == nil {
		s.writeJSON(w, http.StatusOK, s.state())
		return
	}

	var se *engine.SearchError
	switch {
	case errors.Is(err, engine.ErrStale):
		s.writeError(w, http.StatusConflict, "Superseded", "A newer search replaced this one")
	case errors.Is(err, engine.ErrSearchDeclined):
		s.writeError(w, http.StatusConflict, "Declined", "The search was not confirmed")
	case errors.Is(err, engine.ErrNotMounted):
		s.writeError(w, http.StatusServiceUnavailable, "Unavailable", err.Error())
	case errors.As(err, &se):
		n := se.Notification()
		s.writeError(w, searchErrorStatus(se.Kind), n.Title, n.Description)
	default:
		s.writeError(w, http.StatusInternalServerError, "Error", err.Error())
	}
}

func searchErrorStatus(kind engine.ErrorKind) int {
	switch kind {
	case engine.AuthenticationRequired:
		return http.StatusUnauthorized
	case engine.RateLimited:
		return http.StatusTooManyRequests
	case engine.UsageLimitExceeded:
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}

// HandleConfirm answers a pending low-credit confirmation.
func (s *Server) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if !s.confirm.Answer(req.Confirm) {
		s.writeError(w, http.StatusNotFound, "Nothing to confirm", "No search is waiting for confirmation")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"confirm": req.Confirm})
}

// HandleView switches the view mode. Optional viewport and scroll query
// parameters move the visible window.
func (s *Server) HandleView(w http.ResponseWriter, r *http.Request) {
	mode, err := engine.ParseViewMode(r.PathValue("mode"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid view", err.Error())
		return
	}
	s.dash.View.SetMode(mode)

	q := r.URL.Query()
	if v := q.Get("viewport"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid viewport", err.Error())
			return
		}
		s.dash.View.SetViewportHeight(h)
	}
	if v := q.Get("scroll"); v != "" {
		off, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid scroll", err.Error())
			return
		}
		s.dash.View.ScrollTo(off)
	}
	s.writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	format, err := leads.ParseExportFormat(r.PathValue("format"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid format", err.Error())
		return
	}

	jobID, err := s.dash.Exports.Export(r.Context(), format)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusAccepted, ExportResponse{JobID: jobID, Format: format})
	case errors.Is(err, engine.ErrNothingToExport), errors.Is(err, engine.ErrExportInFlight):
		s.writeError(w, http.StatusConflict, "Export unavailable", err.Error())
	case errors.Is(err, engine.ErrNotMounted):
		s.writeError(w, http.StatusServiceUnavailable, "Unavailable", err.Error())
	default:
		n := engine.Classify(err).Notification()
		s.writeError(w, http.StatusBadGateway, n.Title, n.Description)
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
		Mounted:   s.dash.Mounted(),
	})
}
