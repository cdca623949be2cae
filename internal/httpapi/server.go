package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	apimw "github.com/hamed0406/sitewatch/internal/httpapi/middleware"
	"github.com/hamed0406/sitewatch/internal/monitor"
	"github.com/hamed0406/sitewatch/internal/repo"
)

// TriggerFunc runs one pass; nil urls means the configured targets.
type TriggerFunc func(ctx context.Context, urls []string) (monitor.Summary, error)

// Server exposes the persisted status snapshot read-only, plus an optional
// admin endpoint that runs a pass on demand.
type Server struct {
	Logger  *zap.Logger
	State   repo.StateRepo
	Trigger TriggerFunc

	passMu sync.Mutex
}

func NewServer(l *zap.Logger, state repo.StateRepo, trigger TriggerFunc) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, State: state, Trigger: trigger}
}

type RouterOptions struct {
	Keys       apimw.Keys
	CheckRPM   int
	CheckBurst int
	TrustProxy bool // honor X-Forwarded-For when rate limiting
}

func (s *Server) Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(apimw.RequireAny(opts.Keys))
			r.Get("/status", s.handleStatus)
			r.Get("/status/target", s.handleTarget)
		})
		if s.Trigger != nil {
			r.Group(func(r chi.Router) {
				r.Use(apimw.RequireAdmin(opts.Keys))
				r.Use(apimw.RateLimit(opts.CheckRPM, opts.CheckBurst, opts.TrustProxy))
				r.Post("/check", s.handleCheck)
			})
		}
	})
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.State.Load(r.Context())
	if err != nil {
		s.Logger.Error("status_load_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "state unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type targetStatus struct {
	Endpoint  string                                   `json:"endpoint"`
	Host      string                                   `json:"host"`
	Checks    map[domain.CheckKind]domain.StatusRecord `json:"checks"`
	LastCheck time.Time                                `json:"last_check"`
}

func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing url")
		return
	}
	t := domain.Normalize(raw)

	snap, err := s.State.Load(r.Context())
	if err != nil {
		s.Logger.Error("status_load_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "state unavailable")
		return
	}
	checks, ok := snap.Targets[t.ID()]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown target")
		return
	}
	writeJSON(w, http.StatusOK, targetStatus{
		Endpoint:  t.Endpoint,
		Host:      t.Host,
		Checks:    checks,
		LastCheck: snap.Meta.LastCheck,
	})
}

type checkPayload struct {
	URLs []string `json:"urls"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var p checkPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}

	// passes share one state store; never run two at once
	s.passMu.Lock()
	sum, err := s.Trigger(r.Context(), p.URLs)
	s.passMu.Unlock()
	if err != nil {
		s.Logger.Error("check_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "check failed")
		return
	}
	s.Logger.Info("check_triggered",
		zap.Int("probed", sum.Probed),
		zap.Int("alerts", sum.Alerts),
		zap.Bool("skipped", sum.Skipped),
	)
	writeJSON(w, http.StatusOK, sum)
}
