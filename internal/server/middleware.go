package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/convert"
)

type ctxKey int

const requestIDKey ctxKey = iota

const requestIDHeader = "X-Request-ID"

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		s.logger.Info("request",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}

var tooManyRequests = convert.Message{
	Level: convert.LevelError,
	Text:  "too many requests",
	Hint:  "wait a moment and try again",
}

// rateLimit shares one limiter between all conversion routes; deny writes
// the refusal in the route's own format.
func (s *Server) rateLimit(next, deny http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			rateLimited.Inc()
			deny(w, r)
			return
		}
		next(w, r)
	}
}

func (s *Server) denyPage(w http.ResponseWriter, _ *http.Request) {
	msg := tooManyRequests
	s.renderPage(w, http.StatusTooManyRequests, pageView{Form: s.defaultForm(), Message: &msg})
}

func denyAPI(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, tooManyRequests)
}
