// Package httplog logs HTTP traffic with slog, on both sides of the wire.
//
// Transport wraps an outgoing http.RoundTripper and is what the API client
// uses. Middleware wraps an incoming http.Handler and is what the loopback
// OAuth callback listener uses.
//
// Each log line carries method, path, status and duration. Query strings are
// never logged: the OAuth callback carries tokens in its query.
package httplog

import (
	"log/slog"
	"net/http"
	"time"
)

// Transport logs every request made through Base.
type Transport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base().RoundTrip(req)

	attrs := []any{
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		t.Logger.Warn("api request failed", append(attrs, slog.String("error", err.Error()))...)
		return nil, err
	}

	level := slog.LevelDebug
	if resp.StatusCode >= http.StatusBadRequest {
		level = slog.LevelWarn
	}
	t.Logger.Log(req.Context(), level, "api request completed", append(attrs, slog.Int("status", resp.StatusCode))...)
	return resp, nil
}

// statusRecorder captures the status code and byte count a handler writes.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Middleware logs each request served by next.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			logger.Info("request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
			)
		})
	}
}
