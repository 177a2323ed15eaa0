package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	accountapp "github.com/osvaldoandrade/anchoridl/internal/app/account"
	idlapp "github.com/osvaldoandrade/anchoridl/internal/app/idl"
	"github.com/osvaldoandrade/anchoridl/internal/infra/ident"
)

const defaultShutdownTimeout = 10 * time.Second

// Resolver is the slice of the idl service the HTTP surface depends on.
type Resolver interface {
	Fetch(ctx context.Context, req idlapp.FetchRequest) (idlapp.Result, error)
}

// AccountResolver decodes program accounts through their IDL.
type AccountResolver interface {
	Fetch(ctx context.Context, req accountapp.Request) (accountapp.Result, error)
}

type Options struct {
	Addr string
	// RPCURL, when set, replaces the endpoint derived from the cluster query
	// parameter for every request.
	RPCURL          string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	resolver Resolver
	accounts AccountResolver
	opts     Options
	logger   *slog.Logger
	ids      *ident.RequestIDGenerator
	mux      *http.ServeMux
}

func NewServer(resolver Resolver, accounts AccountResolver, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	s := &Server{
		resolver: resolver,
		accounts: accounts,
		opts:     opts,
		logger:   logger.With("component", "httpapi"),
		ids:      ident.NewRequestIDGenerator(),
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /idl", s.handleIDL)
	s.mux.HandleFunc("GET /account", s.handleAccount)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

// Handler returns the routed handler wrapped with request id tagging and
// access logging.
func (s *Server) Handler() http.Handler {
	return s.tracing(s.logging(s.mux))
}

// Serve accepts connections on listener until ctx is done, then drains
// in-flight requests.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	s.logger.Info("server is ready to handle requests", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server is shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	server.SetKeepAlivesEnabled(false)
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, listener)
}

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return "unknown"
}

func (s *Server) tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			generated, err := s.ids.NewRequestID()
			if err != nil {
				s.logger.Warn("request id unavailable", "err", err)
				generated = "unknown"
			}
			id = generated
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		defer func() {
			s.logger.Info("request",
				"request_id", requestID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"bytes", recorder.bytes,
				"duration", time.Since(started),
				"remote_addr", r.RemoteAddr,
			)
		}()
		next.ServeHTTP(recorder, r)
	})
}
