// Package diag serves the diagnostics HTTP endpoint: plain-text schedule and
// profiling reports, Prometheus metrics and optional pprof.
//
// Security: bind to loopback unless you front this with something that does
// auth. The server is meant for operators, not end users.
package diag

import (
	"context"
	"errors"
	"net"
	"net/http"
	hpprof "net/http/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"ticksched/internal/sched"
	"ticksched/internal/sched/report"
	logx "ticksched/pkg/logx"
)

// Config controls the diagnostics HTTP server.
type Config struct {
	Enabled bool
	Addr    string
	// RatePerSec limits requests to the /api report endpoints; 0 disables
	// the limiter.
	RatePerSec int
	Pprof      bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = "127.0.0.1:6060"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 5 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 30 * time.Second
	}
	return c
}

// Source provides point-in-time scheduler state; satisfied by ticker.Driver.
type Source interface {
	Snapshot() sched.Snapshot
}

type Service struct {
	mu  sync.Mutex
	log logx.Logger
	cfg Config

	src      Source
	gatherer prometheus.Gatherer

	ln   net.Listener
	srv  *http.Server
	done chan struct{}
}

// New builds the service; gatherer may be nil, in which case /metrics is not
// mounted.
func New(cfg Config, src Source, gatherer prometheus.Gatherer, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg.withDefaults(), src: src, gatherer: gatherer, log: log}
}

// Addr returns the bound listen address, or "" when the server is down.
// Useful when the config asks for port 0.
func (s *Service) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Start begins serving. Idempotent while running; no-op when disabled.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx)
}

func (s *Service) startLocked(ctx context.Context) error {
	if !s.cfg.Enabled || s.srv != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.log.Error("diag listen failed", logx.String("addr", s.cfg.Addr), logx.Err(err))
		return err
	}

	srv := &http.Server{
		Handler:      s.router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
	done := make(chan struct{})
	s.ln = ln
	s.srv = srv
	s.done = done

	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("diag server exited", logx.Err(err))
		}
	}()

	s.log.Info("diag server started",
		logx.String("addr", ln.Addr().String()),
		logx.Bool("pprof", s.cfg.Pprof))
	return nil
}

// Stop shuts the server down gracefully, bounded by ctx.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	srv := s.srv
	done := s.done
	s.srv = nil
	s.ln = nil
	s.done = nil
	s.mu.Unlock()

	if srv == nil {
		return
	}
	_ = srv.Shutdown(ctx)
	_ = srv.Close()
	select {
	case <-done:
	case <-ctx.Done():
	}
	s.log.Info("diag server stopped")
}

// Apply reconfigures the server, restarting it when the new config requires a
// different bind or route set. Safe to call during hot reload.
func (s *Service) Apply(ctx context.Context, cfg Config) error {
	cfg = cfg.withDefaults()

	s.mu.Lock()
	prev := s.cfg
	running := s.srv != nil
	s.cfg = cfg
	s.mu.Unlock()

	if !cfg.Enabled {
		if running {
			s.Stop(ctx)
		}
		return nil
	}
	if !running {
		return s.Start(ctx)
	}
	if needsRestart(prev, cfg) {
		s.Stop(ctx)
		return s.Start(ctx)
	}
	return nil
}

func needsRestart(a, b Config) bool {
	return a.Addr != b.Addr ||
		a.Pprof != b.Pprof ||
		a.RatePerSec != b.RatePerSec ||
		a.ReadTimeout != b.ReadTimeout ||
		a.WriteTimeout != b.WriteTimeout ||
		a.IdleTimeout != b.IdleTimeout
}

func (s *Service) router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		if s.cfg.RatePerSec > 0 {
			r.Use(rateLimit(rate.Limit(s.cfg.RatePerSec), s.cfg.RatePerSec))
		}
		r.Get("/schedules", s.handleSchedules)
		r.Get("/schedules/{id}", s.handleSchedule)
		r.Get("/profiling", s.handleProfiling)
		r.Get("/profiling/{id}", s.handleProfiling)
		r.Get("/overhead", s.handleOverhead)
	})

	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	if s.cfg.Pprof {
		r.Route("/debug/pprof", func(r chi.Router) {
			r.Get("/", hpprof.Index)
			r.Get("/cmdline", hpprof.Cmdline)
			r.Get("/profile", hpprof.Profile)
			r.Get("/symbol", hpprof.Symbol)
			r.Get("/trace", hpprof.Trace)
			// Named profiles (heap, goroutine, ...) go through Index.
			r.Get("/{name}", hpprof.Index)
		})
	}

	return r
}

// rateLimit applies a single shared token bucket. Per-client buckets are not
// worth the bookkeeping for an operator endpoint.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	lim := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Service) handleSchedules(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "1"
	writeText(w, report.Schedules(s.src.Snapshot(), activeOnly))
}

func (s *Service) handleSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	writeText(w, report.Schedule(s.src.Snapshot(), id))
}

func (s *Service) handleProfiling(w http.ResponseWriter, r *http.Request) {
	var id sched.ID
	if chi.URLParam(r, "id") != "" {
		var ok bool
		id, ok = parseID(w, r)
		if !ok {
			return
		}
	}
	writeText(w, report.Profiling(s.src.Snapshot(), id))
}

func (s *Service) handleOverhead(w http.ResponseWriter, _ *http.Request) {
	writeText(w, report.Overhead(s.src.Snapshot()))
}

func parseID(w http.ResponseWriter, r *http.Request) (sched.ID, bool) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		http.Error(w, "invalid schedule id", http.StatusBadRequest)
		return 0, false
	}
	return sched.ID(n), true
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(body))
	if !strings.HasSuffix(body, "\n") {
		_, _ = w.Write([]byte("\n"))
	}
}
