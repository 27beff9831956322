package web

import (
	"net/http"
	"strconv"
	"time"

	"bulkmail/internal/adapters/http/perf"
)

const (
	defaultPerfWindow = time.Hour
	defaultPerfTopN   = 10
)

type perfResponse struct {
	Success bool          `json:"success"`
	Data    perf.Snapshot `json:"data"`
}

// handlePerf returns the in-process latency snapshot.
// Query params: minutes (window, default 60), top (default 10).
func (a *api) handlePerf(w http.ResponseWriter, r *http.Request) {
	if a.collector == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Message: "performance collection disabled"})
		return
	}
	window := defaultPerfWindow
	if m, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && m > 0 {
		window = time.Duration(m) * time.Minute
	}
	topN := defaultPerfTopN
	if n, err := strconv.Atoi(r.URL.Query().Get("top")); err == nil && n > 0 {
		topN = n
	}
	writeJSON(w, http.StatusOK, perfResponse{
		Success: true,
		Data:    a.collector.Snapshot(a.now().Add(-window), topN),
	})
}
