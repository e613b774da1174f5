package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/synthbed/tts-api/internal/auth"
	"github.com/synthbed/tts-api/internal/config"
	"github.com/synthbed/tts-api/internal/engine"
	handlers "github.com/synthbed/tts-api/internal/handlers/v1"
	"github.com/synthbed/tts-api/internal/ratelimit"
	"github.com/synthbed/tts-api/internal/service"
	"github.com/synthbed/tts-api/internal/store"
	"github.com/synthbed/tts-api/internal/worker"
	"github.com/synthbed/tts-api/pkg/metrics"
	"github.com/synthbed/tts-api/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	jobSrv   *service.JobService
	engine   *engine.Manager
	store    store.Store
	worker   *worker.Worker
	listener net.Listener
}

// New returns a new instance of the tts-api server.
func New(
	cfg *config.Config,
	jobSrv *service.JobService,
	eng *engine.Manager,
	s store.Store,
	w *worker.Worker,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:      cfg,
		jobSrv:   jobSrv,
		engine:   eng,
		store:    s,
		worker:   w,
		listener: listener,
	}
}

// Router assembles the full middleware chain and route table. Split from Run
// so tests can drive the handler without a listener.
func (s *Server) Router() (http.Handler, error) {
	authenticator, err := auth.NewAuthenticator(s.cfg.Service.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	limiter := ratelimit.New(s.cfg.RateLimit.RequestsPerMinute, s.cfg.RateLimit.RequestsPerHour)

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.RegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   strings.Split(s.cfg.Service.CorsOrigins, ","),
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		authenticator.Authenticator,
		limiter.Handler,
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	h := handlers.NewServiceHandler(s.jobSrv, s.engine, s.store, s.worker, s.cfg)
	h.RegisterRoutes(router)

	return router, nil
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	router, err := s.Router()
	if err != nil {
		return err
	}

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
