// Package server exposes validation over HTTP.
package server

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/jacoelho/yang"
	"github.com/jacoelho/yang/internal/metrics"
)

const defaultMaxBodyBytes = 4 << 20

// Config configures a Server.
type Config struct {
	// MaxBodyBytes bounds the request body; 0 uses 4 MiB.
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Options are applied to every validation; the server adds its recorder.
	Options yang.Options
}

// Server serves the validation API.
type Server struct {
	cfg      Config
	opts     yang.Options
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	logger   zerolog.Logger
	router   *mux.Router
	handler  http.Handler
	ready    atomic.Bool
	requests atomic.Uint64
}

type validateRequest struct {
	Schema   *string `json:"schema"`
	Document *string `json:"document"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New builds a Server. m must not be nil; it receives validation and request
// metrics. gatherer backs the /metrics endpoint.
func New(cfg Config, m *metrics.Metrics, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	s := &Server{
		cfg:      cfg,
		opts:     cfg.Options.WithRecorder(m).WithLogger(logger),
		metrics:  m,
		gatherer: gatherer,
		logger:   logger,
	}

	router := mux.NewRouter()
	router.Path("/v1/validate").Methods(http.MethodPost).HandlerFunc(s.handleValidate)
	router.Path("/healthz").Methods(http.MethodGet).HandlerFunc(s.handleHealth)
	router.Path("/readyz").Methods(http.MethodGet).HandlerFunc(s.handleReady)
	router.Path("/metrics").Methods(http.MethodGet).Handler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	router.Use(s.recoverPanics)
	s.router = router
	s.handler = s.instrument(router)
	return s
}

// Handler returns the root HTTP handler. Every request, routed or not, is
// logged and counted.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// SetReady flips the readiness probe.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.SetReady(true)
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("server listening")

	select {
	case err := <-errCh:
		s.SetReady(false)
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	s.logger.Info().Msg("server stopped")
	return nil
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "read request body: " + err.Error()})
		return
	}

	var req validateRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.Schema == nil || req.Document == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: `request requires "schema" and "document"`})
		return
	}

	res := yang.ValidateWithOptions(*req.Schema, *req.Document, s.opts)
	status := http.StatusOK
	if res.Outcome == yang.Internal {
		status = http.StatusInternalServerError
		zerolog.Ctx(r.Context()).Error().Err(res.Err).Msg("internal validation error")
	}
	writeJSON(w, status, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready\n"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
