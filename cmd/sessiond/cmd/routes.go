package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/sessionkit/pkg/environment"
	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/requestid"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

var errNotReady = errors.New("session store disconnected")

// newRouter mounts the demo routes behind the session middleware. Health
// endpoints sit outside it so probes never create sessions.
func newRouter(mgr *session.Manager, env environment.Environment, log *slog.Logger, checks ...httpserver.Check) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(environment.Middleware(env))

	checks = append(checks, httpserver.Check{Name: "sessions", Fn: func(_ context.Context) error {
		if !mgr.Ready() {
			return errNotReady
		}
		return nil
	}})
	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, 2*time.Second, checks...))

	r.Group(func(r chi.Router) {
		r.Use(mgr.Middleware)
		h := handlers{mgr: mgr, log: log.With(logger.Component("sessiond"))}
		r.Get("/", h.views)
		r.Get("/me", h.me)
		r.Post("/login", h.login)
		r.Post("/logout", h.logout)
	})
	return r
}

type handlers struct {
	mgr *session.Manager
	log *slog.Logger
}

// views counts page views per session.
func (h handlers) views(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"views": 0, "session": false})
		return
	}
	n, _ := sess.GetInt("views")
	n++
	sess.Set("views", n)
	writeJSON(w, http.StatusOK, map[string]any{"views": n, "session": true})
}

func (h handlers) me(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok || !sess.Active() {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "no session"})
		return
	}
	user, ok := sess.GetString("user")
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "not logged in"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "session_id": sess.ID()})
}

// login issues a fresh session id before storing the user, so a fixated
// pre-login id is never authenticated.
func (h handlers) login(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "sessions unavailable"})
		return
	}
	user := r.FormValue("user")
	if user == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "user is required"})
		return
	}
	if err := sess.Regenerate(r.Context()); err != nil {
		h.log.ErrorContext(r.Context(), "regenerate failed", logger.Handler("login"), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "login failed"})
		return
	}
	sess.Set("user", user)
	sess.Set("login_at", time.Now().UTC().Format(time.RFC3339))
	h.log.InfoContext(r.Context(), "user logged in", logger.Handler("login"), logger.SessionID(sess.ID()), slog.String("user", user))
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h handlers) logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if ok {
		id := sess.ID()
		if err := sess.Destroy(r.Context()); err != nil {
			h.log.ErrorContext(r.Context(), "destroy failed", logger.Handler("logout"), logger.SessionID(id), logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "logout failed"})
			return
		}
		h.log.InfoContext(r.Context(), "user logged out", logger.Handler("logout"), logger.SessionID(id))
	}
	h.mgr.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
