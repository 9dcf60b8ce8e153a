package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/heartmarshall/clinic-consent/pkg/ctxutil"
)

// Logger returns middleware that logs each HTTP request with method, path,
// status code, duration, request_id and the claimed actor, if any.
func Logger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)

			next.ServeHTTP(sw, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", RedactPath(r.URL.Path)),
				slog.Int("status", sw.status),
				slog.Int("bytes", sw.bytes),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())),
			}
			if actor := strings.TrimSpace(r.Header.Get(ActorHeader)); actor != "" {
				attrs = append(attrs, slog.String("actor", actor))
			}

			level := slog.LevelInfo
			switch {
			case sw.status >= 500:
				level = slog.LevelError
			case sw.status >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "http.request", attrs...)
		})
	}
}

// tokenPathPrefix precedes an access token in public URLs.
const tokenPathPrefix = "/public/consents/"

// RedactPath masks the access token segment of public consent URLs.
func RedactPath(p string) string {
	i := strings.Index(p, tokenPathPrefix)
	if i < 0 {
		return p
	}
	head, rest := p[:i+len(tokenPathPrefix)], p[i+len(tokenPathPrefix):]
	if rest == "" {
		return p
	}
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		return head + "***" + rest[j:]
	}
	return head + "***"
}

// statusWriter captures the response status code and body size.
type statusWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
