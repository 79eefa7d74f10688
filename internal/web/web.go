// Package web is the HTTP presenter for the planner: it binds the month
// grid and the event store to a JSON API plus an ICS feed. It owns no
// state of its own; every read goes back to the store.
package web

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"nascal/internal/config"
	"nascal/internal/dategrid"
	"nascal/internal/ics"
	appLog "nascal/internal/log"
	"nascal/internal/store"
)

// maxEventsPerCell caps how many events a grid cell lists; the full day
// list is still available from /api/events?date=.
const maxEventsPerCell = 5

// maxImportBody bounds import payload reads.
const maxImportBody = 4 << 20

// Server provides the planner HTTP API.
type Server struct {
	cfg    *config.Config
	events *store.Store
	mux    *http.ServeMux
}

// NewServer constructs a Server around a loaded store.
func NewServer(cfg *config.Config, st *store.Store) *Server {
	s := &Server{
		cfg:    cfg,
		events: st,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for this server, with basic auth
// applied when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// StartServer builds a Server and serves it on cfg.Listen.
func StartServer(cfg *config.Config, st *store.Store) error {
	s := NewServer(cfg, st)
	appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
	return http.ListenAndServe(cfg.Listen, s.Handler())
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Treat empty username or password as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Nascal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/grid", s.handleGrid)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/events/", s.handleEventByID)
	s.mux.HandleFunc("/api/export", s.handleExport)
	s.mux.HandleFunc("/api/import", s.handleImport)
	s.mux.HandleFunc("/calendar.ics", s.handleICS)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// gridResponse is the JSON shape for /api/grid.
type gridResponse struct {
	Year  int       `json:"year"`
	Month int       `json:"month"`
	Label string    `json:"label"`
	Cells []cellDTO `json:"cells"`
}

// cellDTO is one rendered calendar cell. Events is capped at
// maxEventsPerCell; Total carries the uncapped count.
type cellDTO struct {
	Date       string        `json:"date"`
	OutOfMonth bool          `json:"out_of_month"`
	Events     []store.Event `json:"events"`
	Total      int           `json:"total"`
}

// handleGrid returns the month view.
//
// GET /api/grid?year=2016&month=1
//   - year:  planner year (default from config)
//   - month: 0-based month (default from config); any integer is accepted
//     and normalized by date carry rules
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	q := r.URL.Query()
	year := parseIntDefault(q.Get("year"), s.cfg.Year)
	month := parseIntDefault(q.Get("month"), s.cfg.StartMonth)

	cells := dategrid.MonthGrid(year, month)
	dtos := make([]cellDTO, 0, len(cells))
	for _, cell := range cells {
		day := s.events.FindByDate(cell.DateISO())
		total := len(day)
		if total > maxEventsPerCell {
			day = day[:maxEventsPerCell]
		}
		dtos = append(dtos, cellDTO{
			Date:       cell.DateISO(),
			OutOfMonth: cell.OutOfMonth,
			Events:     day,
			Total:      total,
		})
	}

	writeJSON(w, http.StatusOK, gridResponse{
		Year:  year,
		Month: month,
		Label: dategrid.MonthLabel(year, month),
		Cells: dtos,
	})
}

// createRequest is the POST /api/events body.
type createRequest struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Time  string `json:"time"`
	Desc  string `json:"desc"`
	Type  string `json:"type"`
}

// patchRequest is the PATCH /api/events/{id} body; absent fields keep
// their stored value.
type patchRequest struct {
	Title *string `json:"title"`
	Date  *string `json:"date"`
	Time  *string `json:"time"`
	Desc  *string `json:"desc"`
	Type  *string `json:"type"`
}

// handleEvents serves the day list and event creation.
//
//	GET  /api/events?date=2016-02-10
//	POST /api/events {"title": ..., "date": ...}
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		date := r.URL.Query().Get("date")
		if date == "" {
			writeError(w, http.StatusBadRequest, "missing date query parameter")
			return
		}
		writeJSON(w, http.StatusOK, s.events.FindByDate(date))

	case http.MethodPost:
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		ev, err := s.events.Create(store.Draft{
			Title: req.Title,
			Date:  req.Date,
			Time:  req.Time,
			Desc:  req.Desc,
			Type:  req.Type,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ev)

	default:
		writeError(w, http.StatusMethodNotAllowed, "GET or POST only")
	}
}

// handleEventByID serves single-event lookup, update and delete under
// /api/events/{id}.
func (s *Server) handleEventByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/events/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "unknown event path")
		return
	}

	switch r.Method {
	case http.MethodGet:
		ev, ok := s.events.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("no event with id %q", id))
			return
		}
		writeJSON(w, http.StatusOK, ev)

	case http.MethodPatch:
		var req patchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		ev, err := s.events.Update(id, store.Patch{
			Title: req.Title,
			Date:  req.Date,
			Time:  req.Time,
			Desc:  req.Desc,
			Type:  req.Type,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ev)

	case http.MethodDelete:
		if err := s.events.Delete(id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "GET, PATCH or DELETE only")
	}
}

// handleExport downloads the full store under the fixed export filename.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	data, err := s.events.ExportJSON()
	if err != nil {
		appLog.Error("export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to export events")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", store.ExportFileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleImport merges an uploaded payload into the store. The merge is
// atomic: a malformed payload changes nothing.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxImportBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	n, err := s.events.ImportMerge(payload)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

// handleICS serves the store as an iCalendar subscription feed.
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	feed := ics.Feed(s.events.ExportAll(), fmt.Sprintf("Nascente %d", s.cfg.Year))
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(feed))
}

// writeStoreError maps store error kinds onto HTTP status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	var (
		notFound   *store.NotFoundError
		validation *store.ValidationError
		format     *store.FormatError
	)
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &format):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		appLog.Error("store operation failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
