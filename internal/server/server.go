package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"studyhub/internal/app"
	"studyhub/internal/config"
	"studyhub/internal/extract"
	"studyhub/internal/ratelimit"
	"studyhub/internal/util"
	"studyhub/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Extractor      *extract.Extractor
	RateLimits     config.RateLimits
	TrustedProxies []string
	MaxUploadBytes int64

	// Redis-backed rate limiting when set; in-process otherwise.
	RedisAddr     string
	RedisPassword string

	// Injectable for tests; built from RateLimits when nil.
	Limiters map[string]ratelimit.Limiter
}

// Server exposes the HTTP API.
type Server struct {
	app            *app.App
	extractor      *extract.Extractor
	mux            *http.ServeMux
	limiters       map[string]ratelimit.Limiter
	trusted        *util.TrustedProxies
	maxUploadBytes int64
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = extract.New(nil)
	}
	limiters := cfg.Limiters
	if limiters == nil {
		limiters = make(map[string]ratelimit.Limiter, 4)
		for kind, rl := range map[string]config.RateLimit{
			"api":    cfg.RateLimits.API,
			"auth":   cfg.RateLimits.Auth,
			"upload": cfg.RateLimits.Upload,
			"chat":   cfg.RateLimits.Chat,
		} {
			var l ratelimit.Limiter
			var err error
			if strings.TrimSpace(cfg.RedisAddr) != "" {
				// Quotas shared across instances; keys already carry the kind.
				l, err = ratelimit.NewRedisSlidingWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "", rl.Limit, rl.Window)
			} else {
				l, err = ratelimit.NewSlidingWindowLimiter(rl.Limit, rl.Window)
			}
			if err != nil {
				return nil, fmt.Errorf("rate limiter %s: %w", kind, err)
			}
			limiters[kind] = l
		}
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 50 * 1024 * 1024
	}
	s := &Server{
		app:            cfg.App,
		extractor:      extractor,
		mux:            http.NewServeMux(),
		limiters:       limiters,
		trusted:        trusted,
		maxUploadBytes: maxUpload,
	}
	s.routes()
	return s, nil
}

// Router returns the handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(util.WithRequestID(util.WithRequestLog("studyhub", s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.Handle("/api/auth/signup", s.limited("auth", http.HandlerFunc(s.handleSignup)))
	s.mux.Handle("/api/auth/login", s.limited("auth", http.HandlerFunc(s.handleLogin)))
	s.mux.Handle("/api/auth/logout", s.limited("auth", http.HandlerFunc(s.handleLogout)))
	s.mux.Handle("/api/auth/reset-password", s.limited("auth", http.HandlerFunc(s.handlePasswordReset)))
	s.mux.Handle("/api/users/me", s.limited("api", s.authenticated(s.handleMe)))
	s.mux.Handle("/api/users/me/password", s.limited("api", s.authenticated(s.handleChangePassword)))

	// owner-scoped collections
	s.mux.Handle("/api/tasks", s.limited("api", s.authenticated(s.handleTasks)))
	s.mux.Handle("/api/tasks/", s.limited("api", s.authenticated(s.handleTaskByID)))
	s.mux.Handle("/api/notes", s.limited("api", s.authenticated(s.handleNotes)))
	s.mux.Handle("/api/notes/", s.limited("api", s.authenticated(s.handleNoteByID)))
	s.mux.Handle("/api/timetable", s.limited("api", s.authenticated(s.handleTimetable)))
	s.mux.Handle("/api/timetable/", s.limited("api", s.authenticated(s.handleTimetableByID)))
	s.mux.Handle("/api/study-logs", s.limited("api", s.authenticated(s.handleStudyLogs)))
	s.mux.Handle("/api/study-logs/", s.limited("api", s.authenticated(s.handleStudyLogByID)))
	s.mux.Handle("/api/bookmarks", s.limited("api", s.authenticated(s.handleBookmarks)))
	s.mux.Handle("/api/bookmarks/", s.limited("api", s.authenticated(s.handleBookmarkByID)))

	// uploads and extraction
	s.mux.Handle("/api/resources", s.authenticated(s.handleResources))
	s.mux.Handle("/api/resources/", s.limited("api", s.authenticated(s.handleResourceByID)))
	s.mux.Handle("/api/files/process", s.limited("upload", s.authenticated(s.handleFileProcess)))

	// chat
	s.mux.Handle("/api/chat", s.authenticated(s.handleChat))
	s.mux.Handle("/api/conversations", s.limited("api", s.authenticated(s.handleConversations)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// rate limiting

// limited enforces the named quota keyed by client IP before running next.
func (s *Server) limited(kind string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.allowRate(w, r, kind) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, kind string) bool {
	limiter, ok := s.limiters[kind]
	if !ok {
		return true
	}
	ip := util.ClientIP(r, s.trusted)
	res := limiter.Allow(kind + ":" + ip)
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	if !res.Allowed {
		retry := time.Until(res.ResetAt).Seconds()
		if retry < 1 {
			retry = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(int(retry)))
		s.audit(r, "rate_limit", "fail", "kind", kind, "ip", ip)
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return false
	}
	return true
}

// auth wrappers

type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			s.audit(r, "authorize", "fail")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) authorize(r *http.Request) (domain.User, bool) {
	token, ok := sessionToken(r)
	if !ok {
		return domain.User{}, false
	}
	user, ok, err := s.app.UserFromToken(token)
	if err != nil {
		slog.Error("resolve session failed", "error", err)
		return domain.User{}, false
	}
	return user, ok
}

const sessionCookieName = "studyhub_session"

// sessionToken resolves the session token from the Authorization header,
// falling back to the session cookie for browser clients.
func sessionToken(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r); ok {
		return token, true
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trusted),
		"request_id", util.RequestIDFromRequest(r),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}

// response helpers

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// writeAppError maps app sentinel errors onto HTTP statuses. Errors outside
// the sentinel set are downstream failures: the detail is logged, the client
// gets a generic 500.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, app.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrEmailAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case app.IsUserError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// pathID extracts the trailing ID from prefix-routed paths.
func pathID(r *http.Request, prefix string) (string, bool) {
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
