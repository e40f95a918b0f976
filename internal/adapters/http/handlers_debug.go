package web

import (
	"net/http"
	"strconv"
	"time"
)

// handlePerf handles GET /debug/perf?minutes=60&top=10
// Registered only outside production.
func (s *Server) handlePerf(w http.ResponseWriter, r *http.Request) {
	minutes, err := strconv.Atoi(r.URL.Query().Get("minutes"))
	if err != nil || minutes <= 0 {
		minutes = 60
	}
	top, err := strconv.Atoi(r.URL.Query().Get("top"))
	if err != nil || top <= 0 {
		top = 10
	}
	if s.deps.Collector == nil {
		http.Error(w, "perf collector disabled", http.StatusNotFound)
		return
	}
	since := s.deps.Now().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, s.deps.Collector.Snapshot(since, top))
}
