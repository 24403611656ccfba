package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/pagewatch/internal/domain"
	apimw "github.com/hamed0406/pagewatch/internal/httpapi/middleware"
	"github.com/hamed0406/pagewatch/internal/repo"
)

// Checker runs every configured check and returns results in target order.
type Checker interface {
	RunAll(ctx context.Context) []domain.CheckResult
}

type Server struct {
	Logger  *zap.Logger
	Targets []string
	States  repo.StateStore
	Checks  Checker
	Metrics http.Handler // nil disables /metrics
}

func NewServer(l *zap.Logger, targets []string, states repo.StateStore, checks Checker, metrics http.Handler) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Targets: targets, States: states, Checks: checks, Metrics: metrics}
}

type RouterOptions struct {
	Keys           apimw.Keys
	AllowedOrigins []string // empty allows any origin
	PublicRPM      int
	PublicBurst    int
	AdminRPM       int
	AdminBurst     int
}

func (s *Server) Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(corsHandler(opts.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(opts.PublicRPM, opts.PublicBurst))
			r.Use(apimw.RequireAny(opts.Keys))
			r.Get("/targets", s.handleListTargets)
			r.Get("/status", s.handleStatus)
		})
		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(opts.AdminRPM, opts.AdminBurst))
			r.Use(apimw.RequireAdmin(opts.Keys))
			r.Post("/check", s.handleCheck)
		})
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	})
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Targets)
}

type stateRow struct {
	Target      string     `json:"target"`
	LastUpdated *time.Time `json:"last_updated"`
}

type checkRow struct {
	Target              string         `json:"target"`
	Outcome             domain.Outcome `json:"outcome"`
	Changed             bool           `json:"changed"`
	Fingerprint         string         `json:"fingerprint,omitempty"`
	PreviousFingerprint string         `json:"previous_fingerprint,omitempty"`
	LastUpdated         *time.Time     `json:"last_updated"`
	Error               string         `json:"error,omitempty"`
}

// handleStatus reports the stored state of every target, or runs a fresh
// batch when called with ?check=1.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("check") == "1" {
		s.handleCheck(w, r)
		return
	}

	rows := make([]stateRow, 0, len(s.Targets))
	for _, t := range s.Targets {
		st, err := s.States.Get(r.Context(), t)
		if err != nil {
			s.Logger.Warn("status_read_error", zap.String("target", t), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "state store unavailable"})
			return
		}
		row := stateRow{Target: t}
		if st != nil {
			ts := st.LastUpdated
			row.LastUpdated = &ts
		}
		rows = append(rows, row)
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	results := s.Checks.RunAll(r.Context())

	rows := make([]checkRow, 0, len(results))
	for _, res := range results {
		row := checkRow{
			Target:              res.Target,
			Outcome:             res.Outcome,
			Changed:             res.Changed(),
			Fingerprint:         res.Fingerprint,
			PreviousFingerprint: res.PreviousFingerprint,
			LastUpdated:         res.LastUpdated,
			Error:               res.Error,
		}
		if row.LastUpdated == nil && res.Outcome == domain.OutcomeUnchanged {
			if st, err := s.States.Get(r.Context(), res.Target); err == nil && st != nil {
				ts := st.LastUpdated
				row.LastUpdated = &ts
			}
		}
		rows = append(rows, row)
	}

	s.Logger.Info("api_check",
		zap.Int("targets", len(rows)),
		zap.Duration("took", time.Since(started)),
	)
	writeJSON(w, http.StatusOK, rows)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
