package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Server represents the API server
type Server struct {
	resolver  Resolver
	logger    *zap.Logger
	port      int
	rateLimit RateLimitConfig
}

// NewServer creates a new API server
func NewServer(resolver Resolver, logger *zap.Logger, port int, rateLimit RateLimitConfig) *Server {
	return &Server{
		resolver:  resolver,
		logger:    logger,
		port:      port,
		rateLimit: rateLimit,
	}
}

// Handler builds the routed and wrapped handler. ctx bounds background work
// owned by the middleware.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api", SearchHandler(s.resolver, s.logger))
	mux.HandleFunc("/", StatusHandler)

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return Chain(mux,
		RequestLog(s.logger),
		Recover(s.logger),
		CORS,
		RateLimit(ctx, s.rateLimit.Requests, s.rateLimit.Window),
	)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(s.port),
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", zap.Int("port", s.port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
