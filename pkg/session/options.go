package session

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// ErrorHandler receives post-processing failures from Middleware.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// WithStore sets a custom session store
func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithSecrets sets the cookie signing secrets. The first secret signs new
// cookies; every secret is accepted when verifying.
func WithSecrets(secrets ...string) Option {
	return func(m *Manager) {
		m.secrets = secrets
		m.secretsSet = true
	}
}

// WithCookieManager uses a preconfigured signer instead of WithSecrets
func WithCookieManager(cookieMgr *cookie.Manager) Option {
	return func(m *Manager) {
		m.signer = cookieMgr
	}
}

// WithGenID sets the session id generator
func WithGenID(gen IDGenerator) Option {
	return func(m *Manager) {
		m.genID = gen
	}
}

// WithName sets the session cookie name
func WithName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.name = name
		}
	}
}

// WithProxy trusts the X-Forwarded-Proto header for secure detection
func WithProxy(trust bool) Option {
	return func(m *Manager) {
		m.proxy = trust
	}
}

// WithResave forces a store write on every request
func WithResave(resave bool) Option {
	return func(m *Manager) {
		m.resave = resave
	}
}

// WithRolling re-issues the cookie on every response
func WithRolling(rolling bool) Option {
	return func(m *Manager) {
		m.rolling = rolling
	}
}

// WithSaveUninitialized persists sessions that were never modified
func WithSaveUninitialized(save bool) Option {
	return func(m *Manager) {
		m.saveUninitialized = save
	}
}

// WithUnset selects the behaviour for unset sessions
func WithUnset(mode UnsetMode) Option {
	return func(m *Manager) {
		m.unset = mode
	}
}

// WithCookie sets the cookie attribute defaults of new sessions
func WithCookie(opts CookieOptions) Option {
	return func(m *Manager) {
		m.cookie = opts
	}
}

// WithLogger sets the logger. Sessions log nothing by default.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithErrorHandler replaces the default post-processing error response
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Manager) {
		if h != nil {
			m.errorHandler = h
		}
	}
}

// WithEnvironment tells the manager which environment it runs in; the
// in-memory store triggers a warning in production.
func WithEnvironment(env string) Option {
	return func(m *Manager) {
		m.env = env
	}
}
