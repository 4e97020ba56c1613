package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fooddrive/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether templates are loaded and the database answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := map[string]string{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.ready == nil:
		checks["database"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	default:
		if err := s.ready.Ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			checks["database"] = "failed"
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}

	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s %s\n%s %v\n", name, help, name, kind, name, value)
	}

	t := s.tracer.GetMetrics()
	metric("fooddrive_http_requests_total", "counter", "HTTP requests served.", t.TotalRequests)
	metric("fooddrive_http_server_errors_total", "counter", "HTTP responses with a 5xx status.", t.ServerErrors)
	metric("fooddrive_http_response_time_avg_seconds", "gauge", "Mean response time.", t.AverageResponseTime.Seconds())

	rl := s.limiter.GetMetrics()
	metric("fooddrive_rate_limit_rejected_total", "counter", "Write requests rejected by the rate limiter.", rl.Rejected)
	metric("fooddrive_rate_limit_clients", "gauge", "Clients tracked by the rate limiter.", rl.ClientCount)

	metric("fooddrive_suspicious_requests_total", "counter", "Requests matching probe patterns.", s.detector.SuspiciousCount())

	if s.cacheStat != nil {
		cs := s.cacheStat()
		metric("fooddrive_donor_search_cache_entries", "gauge", "Cached donor search results.", cs.Size)
		metric("fooddrive_donor_search_cache_hits_total", "counter", "Donor search cache hits.", cs.Hits)
		metric("fooddrive_donor_search_cache_misses_total", "counter", "Donor search cache misses.", cs.Misses)
	}

	metric("fooddrive_uptime_seconds", "gauge", "Seconds since the server started.", int64(time.Since(s.started).Seconds()))

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}
