// Package httpapi exposes the verification engine over HTTP: a health
// endpoint, a status endpoint with aggregate counters, and a check
// endpoint that verifies one proxy per request. The counters live here,
// in the front end, so the engine itself stays call-scoped and
// stateless.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Amkushu999/Proxych/internal/checker"
	"github.com/Amkushu999/Proxych/internal/model"
	"github.com/Amkushu999/Proxych/internal/parser"
)

type Server struct {
	Logger *zap.Logger
	Opts   checker.Options

	started time.Time

	mu          sync.Mutex
	totalChecks int
	aliveSeen   int
}

func NewServer(l *zap.Logger, opts checker.Options) *Server {
	return &Server{
		Logger:  l,
		Opts:    opts,
		started: time.Now().UTC(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/status", s.handleStatus)
	r.Post("/api/check", s.handleCheck)

	return r
}

type checkPayload struct {
	Proxy string `json:"proxy"`
}

type apiError struct {
	Error string          `json:"error"`
	Kind  model.ErrorKind `json:"kind,omitempty"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var p checkPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Proxy == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "bad payload: expected {\"proxy\": \"host:port[:user:pass]\"}"})
		return
	}

	d, err := parser.Parse(p.Proxy)
	if err != nil {
		// Parser failures are synchronous; no network attempt happened.
		if errors.Is(err, parser.ErrMalformed) {
			writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: err.Error(), Kind: model.KindMalformedDescriptor})
			return
		}
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	report := checker.Verify(r.Context(), d, s.Opts)

	s.mu.Lock()
	s.totalChecks++
	if report.Alive() {
		s.aliveSeen++
	}
	s.mu.Unlock()

	s.Logger.Info("proxy_checked",
		zap.String("proxy", report.Proxy.HostPort()),
		zap.String("overall", string(report.Overall)),
		zap.String("anonymity", string(report.Anonymity)),
		zap.Int64("connect_ms", report.Connectivity.ElapsedMs()),
	)

	writeJSON(w, http.StatusOK, report)
}

type statusResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	TotalChecks   int    `json:"total_checks"`
	AliveSeen     int    `json:"alive_seen"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	total, alive := s.totalChecks, s.aliveSeen
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, statusResponse{
		Status:        "running",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		TotalChecks:   total,
		AliveSeen:     alive,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
