package session

import (
	"net/http"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// Middleware provides session handling for HTTP requests.
//
// A panic in next skips post-processing and propagates. Store failures at the
// end of the request go to the ErrorHandler while nothing has been written
// yet; afterwards they are only logged.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw, err := m.serve(w, r, func(w http.ResponseWriter, r *http.Request) error {
			next.ServeHTTP(w, r)
			return nil
		})
		m.finish(w, r, rw, err)
	})
}

// HandlerFunc adapts an error-returning handler. Handler errors skip
// post-processing and are passed to the ErrorHandler like store failures.
func (m *Manager) HandlerFunc(next func(http.ResponseWriter, *http.Request) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw, err := m.serve(w, r, next)
		m.finish(w, r, rw, err)
	})
}

func (m *Manager) finish(w http.ResponseWriter, r *http.Request, rw *responseWriter, err error) {
	if err == nil {
		return
	}
	if rw.Written() {
		m.logger.ErrorContext(r.Context(), "session error after response was sent",
			logger.Component("session"), logger.Error(err))
		return
	}
	m.handleError(w, r, err)
}

func (m *Manager) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if m.errorHandler != nil {
		m.errorHandler(w, r, err)
		return
	}
	m.logger.ErrorContext(r.Context(), "session error", logger.Component("session"), logger.Error(err))
	http.Error(w, "Session error", http.StatusInternalServerError)
}
