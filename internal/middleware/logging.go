package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/user_agent"

	"github.com/Varun5711/authlocal/internal/logger"
)

const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger tags each request with an ID, stores a logger identified by
// the client address in the request context and logs one line per request.
// trustedHops is passed to ClientIP.
func RequestLogger(base *logger.Logger, trustedHops int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			log := base.WithIdentifier(ClientIP(r, trustedHops))
			ctx := logger.NewContext(r.Context(), log)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			log.Info("%s %s %d %s (%s) req=%s",
				r.Method, r.URL.Path, rec.status,
				time.Since(start).Round(time.Millisecond),
				describeAgent(r.UserAgent()), requestID)
		})
	}
}

func describeAgent(header string) string {
	if header == "" {
		return "unknown agent"
	}

	ua := user_agent.New(header)
	if ua.Bot() {
		return "bot " + header
	}

	browser, version := ua.Browser()
	platform := ua.OS()
	if platform == "" {
		platform = "unknown OS"
	}
	return fmt.Sprintf("%s %s on %s", browser, version, platform)
}

// Recovery turns a panicking handler into a 500 response and logs the panic.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.FromContext(r.Context(), log).Error("Recovered from panic: %v", rec)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"success":false,"error":"ServerError"}` + "\n"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
