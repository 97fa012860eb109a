package api

import "net/http"

// GET /metrics/summary — JSON rollup of C6's rolling metrics.
func (s *Server) handleMetricsSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.meta.GetMetrics())
}
