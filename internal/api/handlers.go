package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"postbox/internal/identity"
	"postbox/internal/repositories"
	"postbox/internal/session"
)

type Options struct {
	JWTSecret      []byte
	SessionCookie  string
	SessionTTL     time.Duration
	CookieSecure   bool
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

type Handlers struct {
	log      *zap.Logger
	hub      *session.Hub
	profiles repositories.ProfileStore
	resolver *identity.Resolver
	opts     Options
	upgrader websocket.Upgrader
}

func NewHandlers(log *zap.Logger, hub *session.Hub, profiles repositories.ProfileStore, opts Options) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.SessionCookie == "" {
		opts.SessionCookie = "session"
	}
	h := &Handlers{
		log:      log,
		hub:      hub,
		profiles: profiles,
		resolver: identity.NewResolver(profiles, opts.JWTSecret, opts.SessionCookie),
		opts:     opts,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

// checkOrigin accepts non-browser clients (no Origin header), same-host
// origins and the configured CORS origins.
func (h *Handlers) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.profiles.Ping(ctx); err != nil {
		h.log.Warn("profile store not ready", zap.Error(err))
		http.Error(w, "profile store unavailable", http.StatusServiceUnavailable)
		return
	}
	_, _ = w.Write([]byte("ready"))
}
