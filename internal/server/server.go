// Package server exposes the converter over HTTP: an upload form with
// previews and a download link, a JSON/xlsx API, health and metrics.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/convert"
)

// Converter runs one conversion; *convert.Converter satisfies it.
type Converter interface {
	Convert(ctx context.Context, req convert.Request) (*convert.Response, error)
}

type Options struct {
	Addr            string
	MaxUploadBytes  int64
	RateLimit       float64 // conversions per second, 0 disables limiting
	RateBurst       int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	DefaultMode     convert.Mode
}

type Server struct {
	conv    Converter
	opts    Options
	logger  *zap.Logger
	limiter *rate.Limiter
	md      goldmark.Markdown
	router  *mux.Router
}

func New(conv Converter, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	if opts.DefaultMode == "" {
		opts.DefaultMode = convert.ModeBordered
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.RateBurst
	if burst < 1 {
		burst = 1
	}
	s := &Server{
		conv:    conv,
		opts:    opts,
		logger:  logger,
		limiter: rate.NewLimiter(limit, burst),
		md:      goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID, s.accessLog)

	r.HandleFunc("/", s.handleForm).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/convert", s.rateLimit(s.handleConvertPage, s.denyPage)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/convert", s.rateLimit(s.handleConvertAPI, denyAPI)).Methods(http.MethodPost)
	return r
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	sctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// renderPreview turns a markdown grid into an HTML table.
func (s *Server) renderPreview(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
