package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/environment"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// Manager drives the session lifecycle of every request: it resolves or
// creates the session before the handler runs and decides afterwards whether
// to save, touch or destroy it and whether to (re)issue the cookie.
type Manager struct {
	store  Store
	signer *cookie.Manager
	genID  IDGenerator
	name   string
	cookie CookieOptions
	unset  UnsetMode
	env    string

	proxy             bool
	resave            bool
	rolling           bool
	saveUninitialized bool

	secrets    []string
	secretsSet bool

	logger       *slog.Logger
	errorHandler ErrorHandler

	ready atomic.Bool
}

// New creates a new session manager with the given options.
// It fails with ErrConfiguration on an invalid setup.
func New(opts ...Option) (*Manager, error) {
	m := &Manager{
		genID:             UUIDGenerator,
		name:              "connect.sid",
		cookie:            DefaultCookieOptions(),
		unset:             UnsetKeep,
		saveUninitialized: true,
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.genID == nil {
		return nil, fmt.Errorf("%w: id generator is required", ErrConfiguration)
	}

	switch m.unset {
	case UnsetKeep, UnsetDestroy:
	default:
		return nil, fmt.Errorf("%w: unset must be %q or %q, got %q", ErrConfiguration, UnsetKeep, UnsetDestroy, m.unset)
	}

	if m.secretsSet {
		if len(m.secrets) == 0 {
			return nil, fmt.Errorf("%w: secret list is empty", ErrConfiguration)
		}
		signer, err := cookie.New(m.secrets,
			cookie.WithPath(m.cookiePath()),
			cookie.WithDomain(m.cookie.Domain),
		)
		if err != nil {
			return nil, errors.Join(ErrConfiguration, err)
		}
		m.signer = signer
	}

	if m.store == nil {
		m.store = NewMemoryStore()
	}
	if _, ok := m.store.(*MemoryStore); ok && environment.Normalize(m.env) == environment.Production {
		m.logger.Warn("in-memory session store is not designed for production, it leaks memory and does not scale past a single process",
			logger.Component("session"))
	}

	m.ready.Store(true)
	if src, ok := m.store.(EventSource); ok {
		src.Subscribe(m.onStoreEvent)
	}

	return m, nil
}

// Store returns the backing store.
func (m *Manager) Store() Store {
	return m.store
}

// Name returns the session cookie name.
func (m *Manager) Name() string {
	return m.name
}

// ClearCookie expires the session cookie in the client. The stored session
// is not touched, call Session.Destroy for that.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	if m.signer != nil {
		m.signer.Delete(w, m.name)
	}
}

// Ready reports whether the store is connected. While it is not, requests
// are served without a session.
func (m *Manager) Ready() bool {
	return m.ready.Load()
}

func (m *Manager) onStoreEvent(e Event) {
	switch e {
	case EventConnect:
		m.ready.Store(true)
	case EventDisconnect:
		m.ready.Store(false)
	}
	m.logger.Debug("session store "+e.String(), logger.Component("session"), logger.Event(e.String()))
}

// Generate builds a fresh record with a new id and the default cookie.
func (m *Manager) Generate() *Record {
	return NewRecord(m.genID(), NewCookie(m.cookie))
}

// Handle runs next with a session attached to the request context.
//
// Errors returned by next propagate unchanged and skip post-processing, so a
// failed request never persists its session. Store write failures during
// post-processing are returned wrapped in ErrStoreIO.
func (m *Manager) Handle(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
	_, err := m.serve(w, r, next)
	return err
}

// serve is Handle returning the wrapped writer.
func (m *Manager) serve(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) (*responseWriter, error) {
	st := m.begin(r)
	if st == nil {
		rw := newResponseWriter(w, nil)
		return rw, next(rw, r)
	}

	rw := newResponseWriter(w, func(w http.ResponseWriter) { m.writeCookie(w, st) })
	r = r.WithContext(WithSession(r.Context(), &Session{st: st}))
	st.r = r

	if err := next(rw, r); err != nil {
		return rw, err
	}

	if err := m.commit(r.Context(), st); err != nil {
		return rw, err
	}
	rw.finish()
	return rw, nil
}

// begin runs pre-processing. A nil state means the request passes through
// without session handling.
func (m *Manager) begin(r *http.Request) *requestState {
	ctx := r.Context()

	if _, ok := FromContext(ctx); ok {
		return nil
	}
	if !m.ready.Load() {
		m.logger.DebugContext(ctx, "session store disconnected, skipping session", logger.Component("session"))
		return nil
	}
	if !strings.HasPrefix(r.URL.Path, m.cookiePath()) {
		m.logger.DebugContext(ctx, "cookie path does not match request path", logger.Component("session"),
			slog.String("path", r.URL.Path))
		return nil
	}
	if m.signer == nil {
		m.logger.ErrorContext(ctx, "session secret is not configured, skipping session", logger.Component("session"))
		return nil
	}

	st := &requestState{m: m, r: r}

	// any verification failure is an anonymous request
	st.cookieID, _ = m.signer.GetSigned(r, m.name)

	if st.cookieID == "" {
		st.generate()
		return st
	}

	snap, err := m.store.Get(ctx, st.cookieID)
	if err != nil && !IsNotFound(err) {
		m.logger.ErrorContext(ctx, "failed to load session, generating a new one", logger.Component("session"),
			logger.Error(err))
		snap = nil
	}
	if snap == nil {
		st.generate()
		return st
	}

	st.inflate(Restore(st.cookieID, snap))
	return st
}

// commit runs the post-processing actions in order: destroy, save or touch.
func (m *Manager) commit(ctx context.Context, st *requestState) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.shouldDestroy() {
		if err := m.destroy(ctx, st.sessionID); err != nil {
			m.logger.ErrorContext(ctx, "failed to destroy session", logger.Component("session"), logger.Error(err))
			return err
		}
		return nil
	}

	if st.record == nil {
		return nil
	}

	if !st.touched {
		st.record.Touch()
		st.touched = true
	}

	switch {
	case st.shouldSave():
		st.savedHash = st.record.Hash()
		if err := m.store.Set(ctx, st.sessionID, st.record.Snapshot()); err != nil {
			m.logger.ErrorContext(ctx, "failed to save session", logger.Component("session"), logger.Error(err))
			return storeErr(err)
		}
	case st.shouldTouch():
		toucher, ok := m.store.(Toucher)
		if !ok {
			return nil
		}
		if err := toucher.Touch(ctx, st.sessionID, st.record.Snapshot()); err != nil && !IsNotFound(err) {
			m.logger.ErrorContext(ctx, "failed to touch session", logger.Component("session"), logger.Error(err))
			return storeErr(err)
		}
	}
	return nil
}

// writeCookie runs right before the response header is sent.
func (m *Manager) writeCookie(w http.ResponseWriter, st *requestState) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.record == nil || !st.shouldSetCookie() {
		return
	}

	ctx := st.r.Context()
	c := st.record.Cookie
	secureConn := isSecure(st.r, m.proxy)

	var secure bool
	switch c.Secure {
	case SecureOn:
		if !secureConn {
			m.logger.DebugContext(ctx, "not sending secure session cookie over insecure connection", logger.Component("session"))
			return
		}
		secure = true
	case SecureAuto:
		secure = secureConn
	}

	if !st.touched {
		st.record.Touch()
		st.touched = true
	}

	if err := m.signer.SetSigned(w, m.name, st.sessionID, c.options(secure)...); err != nil {
		m.logger.ErrorContext(ctx, "failed to write session cookie", logger.Component("session"), logger.Error(err))
	}
}

func (m *Manager) destroy(ctx context.Context, id string) error {
	if err := m.store.Destroy(ctx, id); err != nil && !IsNotFound(err) {
		return storeErr(err)
	}
	return nil
}

func (m *Manager) cookiePath() string {
	if m.cookie.Path == "" {
		return "/"
	}
	return m.cookie.Path
}

// isSecure reports whether the request arrived over TLS. Behind a trusted
// proxy the first X-Forwarded-Proto value decides.
func isSecure(r *http.Request, proxy bool) bool {
	if r.TLS != nil {
		return true
	}
	if !proxy {
		return false
	}
	proto, _, _ := strings.Cut(r.Header.Get("X-Forwarded-Proto"), ",")
	return strings.EqualFold(strings.TrimSpace(proto), "https")
}
