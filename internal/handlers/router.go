package handlers

import (
	"net/http"

	"github.com/Varun5711/authlocal/internal/logger"
	"github.com/Varun5711/authlocal/internal/middleware"
)

const (
	LoginPath   = "/auth/api/v1/local"
	ContactPath = "/auth/contact"
	LocalPath   = "/auth/local/"
)

type RouterConfig struct {
	Auth    *AuthHandler
	Contact *ContactHandler
	Log     *logger.Logger

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// RateLimiter guards the login route when set.
	RateLimiter *middleware.RateLimiter
	// StaticDir holds the login page assets served under /auth/local/.
	StaticDir string
	// TrustedProxyHops is the number of reverse proxies appending to
	// X-Forwarded-For in front of the unit.
	TrustedProxyHops int
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	var login http.Handler = http.HandlerFunc(cfg.Auth.Login)
	if cfg.RateLimiter != nil {
		login = cfg.RateLimiter.Middleware(login)
	}

	mux.Handle("POST "+LoginPath, login)
	mux.HandleFunc("GET "+ContactPath, cfg.Contact.GetContact)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, LocalPath, http.StatusFound)
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.StaticDir != "" {
		mux.Handle("GET "+LocalPath, http.StripPrefix(LocalPath, http.FileServer(http.Dir(cfg.StaticDir))))
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	handler := middleware.Recovery(cfg.Log)(mux)
	handler = middleware.RequestLogger(cfg.Log, cfg.TrustedProxyHops)(handler)
	return handler
}
