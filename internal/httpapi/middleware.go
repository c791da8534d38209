package httpapi

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// requestStats counts traffic through the API. It is served at /api/stats.
type requestStats struct {
	started time.Time

	requests     atomic.Int64
	inFlight     atomic.Int64
	clientErrors atomic.Int64
	serverErrors atomic.Int64
	totalLatency atomic.Int64 // nanoseconds

	latency *latencyWindow
}

func newRequestStats() *requestStats {
	return &requestStats{started: time.Now(), latency: newLatencyWindow(0)}
}

// Wrap records one request per call to next.
func (m *requestStats) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.inFlight.Add(1)
		defer m.inFlight.Add(-1)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		m.requests.Add(1)
		m.totalLatency.Add(int64(elapsed))
		m.latency.Record(elapsed)
		switch status := ww.Status(); {
		case status >= 500:
			m.serverErrors.Add(1)
		case status >= 400:
			m.clientErrors.Add(1)
		}
	})
}

type statsSnapshot struct {
	Requests     int64           `json:"request_count"`
	InFlight     int64           `json:"in_flight"`
	ClientErrors int64           `json:"client_errors"`
	ServerErrors int64           `json:"server_errors"`
	AvgLatencyMs float64         `json:"avg_latency_ms"`
	UptimeSec    float64         `json:"uptime_seconds"`
	Latency      latencySummary  `json:"latency"`
	Admission    *admissionStats `json:"admission,omitempty"`
}

func (m *requestStats) Snapshot() statsSnapshot {
	s := statsSnapshot{
		Requests:     m.requests.Load(),
		InFlight:     m.inFlight.Load(),
		ClientErrors: m.clientErrors.Load(),
		ServerErrors: m.serverErrors.Load(),
		UptimeSec:    time.Since(m.started).Seconds(),
		Latency:      m.latency.Summary(),
	}
	if s.Requests > 0 {
		s.AvgLatencyMs = float64(m.totalLatency.Load()) / float64(s.Requests) / float64(time.Millisecond)
	}
	return s
}

// accessLog logs one line per request through logger.
func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			if ww.Status() >= 500 {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
