package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/speedwagon-io/levelmon/internal/lib/logger/sl"
	"github.com/speedwagon-io/levelmon/internal/lib/rewrite"
	"github.com/speedwagon-io/levelmon/internal/metrics"
	"github.com/speedwagon-io/levelmon/internal/state"
)

// Rewrites maps the parameterised paths onto their query forms.
func Rewrites() []*rewrite.Rule {
	return []*rewrite.Rule{
		rewrite.New("/level/{specified_level}", "/level?l={specified_level}"),
		rewrite.New("/sonar/{command}", "/sonar?c={command}"),
	}
}

func NewRouter(log *slog.Logger, st *state.State, m *metrics.Metrics) http.Handler {
	h := &Handlers{log: log, state: st, metrics: m}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(WithLogging(log))
	r.Use(rewrite.Middleware(Rewrites()...))

	r.Get("/", h.Overview)

	r.Get("/depth", h.Depth)
	r.Post("/depth/check", h.RequestCalibration)

	r.Get("/level", h.GetLevel)
	r.Post("/level", h.SetLevel)

	r.Get("/sonar", h.SonarStatus)
	r.Post("/sonar", h.SetSonar)

	r.Get("/water", h.Water)

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.NotFound)

	return r
}

type Server struct {
	log          *slog.Logger
	address      string
	handler      http.Handler
	server       *http.Server
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewServer(log *slog.Logger, address string, handler http.Handler) *Server {
	return &Server{
		log:          log,
		address:      address,
		handler:      handler,
		readTimeout:  5 * time.Second,
		writeTimeout: 10 * time.Second,
	}
}

// WithTimeouts overrides the read and write timeouts. Zero keeps the default.
func (s *Server) WithTimeouts(read, write time.Duration) *Server {
	if read > 0 {
		s.readTimeout = read
	}
	if write > 0 {
		s.writeTimeout = write
	}
	return s
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.address,
		Handler:      s.handler,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	s.log.Info("starting api server", slog.String("address", s.address))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("api server error", sl.Err(err))
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
