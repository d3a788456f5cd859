// Package api exposes the dashboard over a local HTTP API: load status,
// item and table queries, and the chart view state machine.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"refine-board/internal/chart"
	"refine-board/internal/config"
	"refine-board/internal/db"
	"refine-board/internal/engine"
	"refine-board/internal/feed"
	"refine-board/internal/logger"
	"refine-board/internal/store"
)

// Server is the HTTP API server that connects the feed loader, record store,
// chart controller, and preferences database.
type Server struct {
	cfg    *config.Config
	db     *db.DB
	loader *feed.Loader

	mu       sync.RWMutex
	store    *store.Store
	ctrl     *chart.Controller
	history  *hashLog
	view     *viewSink
	ready    bool
	loadedAt time.Time
}

// hashLog is the server-side stand-in for browser history: Push appends an
// entry, Replace rewrites the newest one.
type hashLog struct {
	entries []string
}

func (h *hashLog) Push(hash string) {
	h.entries = append(h.entries, hash)
}

func (h *hashLog) Replace(hash string) {
	if len(h.entries) == 0 {
		h.entries = []string{hash}
		return
	}
	h.entries[len(h.entries)-1] = hash
}

func (h *hashLog) current() string {
	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[len(h.entries)-1]
}

// viewSink retains the controller's current view.
type viewSink struct {
	current *chart.View
}

func (v *viewSink) Render(view *chart.View) { v.current = view }
func (v *viewSink) Release()               { v.current = nil }

// NewServer creates a Server with the given config, feed loader, and database.
func NewServer(cfg *config.Config, loader *feed.Loader, database *db.DB) *Server {
	return &Server{
		cfg:     cfg,
		db:      database,
		loader:  loader,
		history: &hashLog{},
		view:    &viewSink{},
	}
}

// SetData is called when a feed load finishes. It replaces the store and
// rebuilds the chart controller over the new snapshot.
func (s *Server) SetData(meta *feed.Meta, records []engine.PriceRecord, lastTimestamp time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store = store.Build(meta, records, lastTimestamp, s.cfg)

	defKey, ok := engine.ParseSeriesKey(s.cfg.DefaultSeriesKey)
	if !ok {
		defKey = engine.SeriesKey{Grade: 0, Refine: 10}
	}
	defGran := engine.NormalizeGranularity(
		s.db.GetPref(db.PrefGranularity, s.cfg.DefaultGranularity),
		engine.Granularity(s.cfg.DefaultGranularity),
	)
	s.ctrl = chart.NewController(s.store, defKey, defGran, s.history, s.view)

	// Re-apply the current hash so the selection survives a reload.
	if hash := s.history.current(); hash != "" {
		s.ctrl.NavigateHash(hash)
	}

	s.ready = true
	s.loadedAt = time.Now()
}

func (s *Server) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Handler returns the HTTP handler with all API routes and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/reload", s.handleReload)
	mux.HandleFunc("GET /api/items", s.handleItems)
	mux.HandleFunc("GET /api/refined", s.handleRefined)
	mux.HandleFunc("GET /api/matrix", s.handleMatrix)
	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("POST /api/view/series", s.handleViewSeries)
	mux.HandleFunc("POST /api/view/granularity", s.handleViewGranularity)
	mux.HandleFunc("POST /api/view/filter", s.handleViewFilter)
	mux.HandleFunc("GET /api/custom-items", s.handleGetCustomItems)
	mux.HandleFunc("POST /api/custom-items", s.handleAddCustomItem)
	mux.HandleFunc("DELETE /api/custom-items/{itemID}", s.handleDeleteCustomItem)
	return corsMiddleware(mux)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := map[string]interface{}{
		"ready": s.ready,
	}
	if s.ready {
		status["records"] = s.store.RecordCount()
		status["items"] = len(s.store.Items())
		status["dates"] = len(s.store.Dates())
		status["loaded_at"] = s.loadedAt.UTC().Format(time.RFC3339)
		if ts := s.store.LastTimestamp(); !ts.IsZero() {
			status["last_trade"] = ts.UTC().Format(time.RFC3339)
		}
	}
	writeJSON(w, status)
}

// handleReload runs a full feed load. A load superseded by a newer one is
// reported as a conflict and changes nothing.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	res, err := s.loader.Load(r.Context())
	if err != nil {
		if errors.Is(err, feed.ErrStale) {
			writeError(w, http.StatusConflict, "superseded by a newer reload")
			return
		}
		logger.Error("FEED", fmt.Sprintf("Reload failed: %v", err))
		writeError(w, http.StatusBadGateway, fmt.Sprintf("reload failed: %v", err))
		return
	}
	s.SetData(res.Meta, res.Records, res.LastTimestamp)
	logger.Success("FEED", fmt.Sprintf("Reloaded %d records", len(res.Records)))
	writeJSON(w, map[string]interface{}{"records": len(res.Records)})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	if !s.isReady() {
		writeError(w, http.StatusServiceUnavailable, "data not loaded yet")
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, map[string]interface{}{"items": s.store.Items()})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
