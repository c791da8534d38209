// Package httpapi exposes the queuelaw model catalog over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alexshd/queuelaw"
	"github.com/alexshd/queuelaw/internal/ledger"
	"github.com/alexshd/queuelaw/internal/version"
)

// maxBodyBytes caps POST bodies.
const maxBodyBytes = 1 << 20

// recordTimeout bounds a ledger write made on behalf of a request.
const recordTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Store      ledger.Store // nil disables /api/calculations and recording
	Logger     *slog.Logger
	Precision  int // Fractional digits, queuelaw.DefaultPrecision when 0
	MaxClasses int // Upper bound on len(lamb_list), unlimited when 0

	// MaxInFlight bounds concurrent /api requests; 0 disables load shedding.
	MaxInFlight int
	// ShedHold is the minimum time shedding lasts once triggered.
	ShedHold time.Duration
}

// Server serves the model catalog and calculations.
type Server struct {
	store      ledger.Store
	logger     *slog.Logger
	precision  int
	maxClasses int
	stats      *requestStats
	admission  *admission // nil when shedding is off
}

// New returns a Server for opts.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	precision := opts.Precision
	if precision == 0 {
		precision = queuelaw.DefaultPrecision
	}
	s := &Server{
		store:      opts.Store,
		logger:     logger,
		precision:  precision,
		maxClasses: opts.MaxClasses,
		stats:      newRequestStats(),
	}
	if opts.MaxInFlight > 0 {
		s.admission = newAdmission(opts.MaxInFlight, opts.ShedHold)
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := s.newBaseRouter()

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(api chi.Router) {
		api.Get("/stats", s.handleStats)
		api.Group(func(limited chi.Router) {
			if s.admission != nil {
				limited.Use(s.admission.Wrap)
			}
			limited.Get("/models", s.handleModels)
			limited.Get("/models/{type}", s.handleModel)
			limited.Post("/calculate", s.handleCalculate)
			limited.Get("/calculations", s.handleCalculations)
		})
	})
	return r
}

func (s *Server) newBaseRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(s.stats.Wrap)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Info(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	snap := s.stats.Snapshot()
	if s.admission != nil {
		a := s.admission.Stats()
		snap.Admission = &a
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	types := queuelaw.Models()
	models := make([]queuelaw.ModelInfo, 0, len(types))
	for _, t := range types {
		info, _ := queuelaw.Lookup(t)
		models = append(models, info)
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	t := queuelaw.ModelType(chi.URLParam(r, "type"))
	info, ok := queuelaw.Lookup(t)
	if !ok {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown model %q", t))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var body calculateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	info, ok := queuelaw.Lookup(queuelaw.ModelType(body.ModelType))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("unsupported model %q", body.ModelType))
		return
	}
	if s.maxClasses > 0 && len(body.Rates) > s.maxClasses {
		writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("lamb_list has %d classes, limit is %d", len(body.Rates), s.maxClasses))
		return
	}

	req, err := body.toRequest(info)
	if err != nil {
		s.writeCalcError(w, err)
		return
	}

	precision := s.precision
	if body.Precision != nil {
		precision = min(max(*body.Precision, 0), queuelaw.MaxPrecision)
	}

	rep, err := queuelaw.Evaluate(req, precision)
	if err != nil {
		s.writeCalcError(w, err)
		return
	}

	resp := calculateResponse{
		Success:   true,
		Model:     string(rep.Model),
		ModelName: rep.Name,
		Metrics:   SafeValues(rep.Values),
	}
	resp.ID = s.record(r.Context(), body, rep, resp.Metrics)
	writeJSON(w, http.StatusOK, resp)
}

// record stores a calculation and returns its id. Ledger failures are logged
// and do not fail the request.
func (s *Server) record(ctx context.Context, body calculateRequest, rep queuelaw.Report, metrics map[string]any) string {
	if s.store == nil {
		return ""
	}
	reqJSON, err := json.Marshal(body)
	if err != nil {
		s.logger.Warn("ledger: encode request", "err", err)
		return ""
	}
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		s.logger.Warn("ledger: encode metrics", "err", err)
		return ""
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	e, err := s.store.Record(ctx, ledger.Entry{
		Model:   string(rep.Model),
		Request: reqJSON,
		Metrics: metricsJSON,
		Rho:     rep.Rho,
	})
	if err != nil {
		s.logger.Warn("ledger: record calculation", "model", rep.Model, "err", err)
		return ""
	}
	return e.ID
}

func (s *Server) writeCalcError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, queuelaw.ErrInvalidInput), errors.Is(err, queuelaw.ErrUnstable):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("calculate", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleCalculations(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSONError(w, http.StatusNotFound, "calculation ledger is disabled")
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	model := ""
	if raw := strings.TrimSpace(r.URL.Query().Get("model")); raw != "" {
		info, ok := queuelaw.Lookup(queuelaw.ModelType(raw))
		if !ok {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown model %q", raw))
			return
		}
		model = string(info.Type)
	}

	entries, err := s.store.ListRecent(r.Context(), model, limit)
	if err != nil {
		s.logger.Error("ledger: list calculations", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"calculations": entries})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeJSONError writes {"success": false, "error": message}.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
