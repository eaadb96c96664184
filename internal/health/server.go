package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/speedwagon-io/levelmon/internal/lib/logger/sl"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

type ComponentHealth struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status     Status            `json:"status"`
	Components []ComponentHealth `json:"components"`
	Timestamp  time.Time         `json:"timestamp"`
}

type HealthChecker interface {
	Name() string
	Check(ctx context.Context) (Status, string)
}

type Server struct {
	log      *slog.Logger
	address  string
	server   *http.Server
	metrics  http.Handler
	checkers []HealthChecker
	mu       sync.RWMutex
	ready    atomic.Bool
}

// NewServer builds the health server. metrics may be nil.
func NewServer(log *slog.Logger, address string, metrics http.Handler) *Server {
	return &Server{
		log:      log,
		address:  address,
		metrics:  metrics,
		checkers: make([]HealthChecker, 0),
	}
}

func (s *Server) AddChecker(checker HealthChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers = append(s.checkers, checker)
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/live", s.handleLive)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.address,
		Handler:      s.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.log.Info("starting health server", slog.String("address", s.address))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("health server error", sl.Err(err))
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	checkers := make([]HealthChecker, len(s.checkers))
	copy(checkers, s.checkers)
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:     StatusHealthy,
		Components: make([]ComponentHealth, 0, len(checkers)),
		Timestamp:  time.Now().UTC(),
	}

	for _, checker := range checkers {
		status, message := checker.Check(ctx)
		response.Components = append(response.Components, ComponentHealth{
			Name:    checker.Name(),
			Status:  status,
			Message: message,
		})

		if status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		} else if status == StatusDegraded && response.Status == StatusHealthy {
			response.Status = StatusDegraded
		}
	}

	statusCode := http.StatusOK
	if response.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// MarkReady flips /ready to 200. Until then it answers 503.
func (s *Server) MarkReady() {
	s.ready.Store(true)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("NOT READY"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// SonarHealthChecker degrades after a run of unknown samples and fails
// once the run reaches the unhealthy limit.
type SonarHealthChecker struct {
	missesFunc func() int64
	degraded   int64
	unhealthy  int64
}

func NewSonarHealthChecker(missesFunc func() int64, degraded, unhealthy int64) *SonarHealthChecker {
	return &SonarHealthChecker{
		missesFunc: missesFunc,
		degraded:   degraded,
		unhealthy:  unhealthy,
	}
}

func (c *SonarHealthChecker) Name() string {
	return "sonar"
}

func (c *SonarHealthChecker) Check(ctx context.Context) (Status, string) {
	misses := c.missesFunc()
	switch {
	case c.unhealthy > 0 && misses >= c.unhealthy:
		return StatusUnhealthy, fmt.Sprintf("%d consecutive samples without echo", misses)
	case c.degraded > 0 && misses >= c.degraded:
		return StatusDegraded, fmt.Sprintf("%d consecutive samples without echo", misses)
	default:
		return StatusHealthy, ""
	}
}

type SenderHealthChecker struct {
	healthFunc func(ctx context.Context) error
}

func NewSenderHealthChecker(healthFunc func(ctx context.Context) error) *SenderHealthChecker {
	return &SenderHealthChecker{healthFunc: healthFunc}
}

func (c *SenderHealthChecker) Name() string {
	return "uplink"
}

func (c *SenderHealthChecker) Check(ctx context.Context) (Status, string) {
	if err := c.healthFunc(ctx); err != nil {
		return StatusDegraded, err.Error()
	}
	return StatusHealthy, ""
}

type BufferHealthChecker struct {
	countFunc func(ctx context.Context) (int64, error)
	limit     int64
}

func NewBufferHealthChecker(countFunc func(ctx context.Context) (int64, error), limit int64) *BufferHealthChecker {
	if limit <= 0 {
		limit = 1000
	}
	return &BufferHealthChecker{countFunc: countFunc, limit: limit}
}

func (c *BufferHealthChecker) Name() string {
	return "buffer"
}

func (c *BufferHealthChecker) Check(ctx context.Context) (Status, string) {
	count, err := c.countFunc(ctx)
	if err != nil {
		return StatusUnhealthy, err.Error()
	}

	if count > c.limit {
		return StatusDegraded, "high buffer count"
	}

	return StatusHealthy, ""
}
