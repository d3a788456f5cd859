package api

import (
	"encoding/json"
	"net/http"

	"refine-board/internal/db"
	"refine-board/internal/engine"
)

// handleView navigates the chart controller to ?hash= and returns the
// resulting view; the view carries the canonical hash.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	if !s.isReady() {
		writeError(w, http.StatusServiceUnavailable, "data not loaded yet")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.ctrl.NavigateHash(r.URL.Query().Get("hash"))
	if v == nil {
		writeError(w, http.StatusBadRequest, "hash has no item")
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleViewSeries(w http.ResponseWriter, r *http.Request) {
	if !s.isReady() {
		writeError(w, http.StatusServiceUnavailable, "data not loaded yet")
		return
	}
	var req struct {
		Series string `json:"series"`
		User   bool   `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	key, ok := engine.ParseSeriesKey(req.Series)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid series key")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.ctrl.SelectSeries(key, req.User))
}

// handleViewGranularity switches the aggregated chart width and persists it
// as the preferred default.
func (s *Server) handleViewGranularity(w http.ResponseWriter, r *http.Request) {
	if !s.isReady() {
		writeError(w, http.StatusServiceUnavailable, "data not loaded yet")
		return
	}
	var req struct {
		Granularity string `json:"granularity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.ctrl.SetGranularity(req.Granularity)
	s.db.SetPref(db.PrefGranularity, string(v.Granularity))
	writeJSON(w, v)
}

func (s *Server) handleViewFilter(w http.ResponseWriter, r *http.Request) {
	if !s.isReady() {
		writeError(w, http.StatusServiceUnavailable, "data not loaded yet")
		return
	}
	var req struct {
		Facet string `json:"facet"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.ctrl.ToggleFilter(engine.Facet(req.Facet), req.Value))
}

func (s *Server) handleGetCustomItems(w http.ResponseWriter, r *http.Request) {
	items := s.db.CustomItems()
	if items == nil {
		items = []string{}
	}
	writeJSON(w, map[string]interface{}{"items": items})
}

func (s *Server) handleAddCustomItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID string `json:"item_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "item_id required")
		return
	}
	if err := s.db.AddCustomItem(req.ItemID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "added"})
}

func (s *Server) handleDeleteCustomItem(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("itemID")
	if itemID == "" {
		writeError(w, http.StatusBadRequest, "item id required")
		return
	}
	if err := s.db.RemoveCustomItem(itemID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "removed"})
}
