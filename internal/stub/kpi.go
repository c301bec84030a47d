package stub

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/me/romecli/pkg/model"
)

// kpiUpdate is the request body shared by /kpi/visit and /kpi/time.
type kpiUpdate struct {
	PageID  int  `json:"page_id"`
	Seconds *int `json:"seconds"`
}

// handleVisit increments the visit counter for a page.
func (s *Server) handleVisit(w http.ResponseWriter, r *http.Request) {
	var req kpiUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	page, ok := s.pages[req.PageID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Page KPI not found")
		return
	}
	page.Visits++
	writeJSON(w, http.StatusOK, map[string]int{
		"page_id": req.PageID,
		"visits":  page.Visits,
	})
}

// handleTime adds dwell seconds to a page's accumulated time.
func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	var req kpiUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Seconds == nil {
		writeDetail(w, http.StatusBadRequest, "seconds required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	page, ok := s.pages[req.PageID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Page KPI not found")
		return
	}
	page.TotalSeconds += *req.Seconds
	writeJSON(w, http.StatusOK, map[string]int{
		"page_id":            req.PageID,
		"total_time_seconds": page.TotalSeconds,
	})
}

// handleKPI returns counters for every page, ordered by page ID.
func (s *Server) handleKPI(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entries := make([]model.KPIEntry, 0, len(s.pages))
	for id, page := range s.pages {
		entries = append(entries, model.KPIEntry{
			PageID:           id,
			PageName:         page.Name,
			Visits:           page.Visits,
			TotalTimeSeconds: page.TotalSeconds,
		})
	}
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].PageID < entries[j].PageID })
	writeJSON(w, http.StatusOK, entries)
}
