package session_test

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

const (
	testSecret    = "test-secret-key-that-is-long-enough"
	oldTestSecret = "old-secret-key-that-is-also-long-enough"
	cookieName    = "connect.sid"
)

// countingStore records every store call on top of a MemoryStore.
type countingStore struct {
	*session.MemoryStore

	gets, sets, touches, destroys int
	lastSetID                     string

	getErr, setErr error
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: session.NewMemoryStore()}
}

func (s *countingStore) Get(ctx context.Context, id string) (*session.Snapshot, error) {
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.MemoryStore.Get(ctx, id)
}

func (s *countingStore) Set(ctx context.Context, id string, snap *session.Snapshot) error {
	s.sets++
	s.lastSetID = id
	if s.setErr != nil {
		return s.setErr
	}
	return s.MemoryStore.Set(ctx, id, snap)
}

func (s *countingStore) Touch(ctx context.Context, id string, snap *session.Snapshot) error {
	s.touches++
	return s.MemoryStore.Touch(ctx, id, snap)
}

func (s *countingStore) Destroy(ctx context.Context, id string) error {
	s.destroys++
	return s.MemoryStore.Destroy(ctx, id)
}

// seed stores a session directly, bypassing the counters.
func (s *countingStore) seed(t *testing.T, rec *session.Record) {
	t.Helper()
	require.NoError(t, s.MemoryStore.Set(context.Background(), rec.ID(), rec.Snapshot()))
}

func newManager(t *testing.T, store session.Store, opts ...session.Option) *session.Manager {
	t.Helper()
	base := []session.Option{session.WithSecrets(testSecret), session.WithStore(store)}
	m, err := session.New(append(base, opts...)...)
	require.NoError(t, err)
	return m
}

func signedCookie(t *testing.T, id string, secrets ...string) *http.Cookie {
	t.Helper()
	if len(secrets) == 0 {
		secrets = []string{testSecret}
	}
	signer, err := cookie.New(secrets)
	require.NoError(t, err)
	return &http.Cookie{Name: cookieName, Value: signer.Sign(id)}
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	return nil
}

func cookieID(t *testing.T, c *http.Cookie) string {
	t.Helper()
	require.NotNil(t, c, "session cookie expected")
	signer, err := cookie.New([]string{testSecret})
	require.NoError(t, err)
	id, err := signer.Verify(c.Value)
	require.NoError(t, err)
	return id
}

func serve(m *session.Manager, r *http.Request, h func(w http.ResponseWriter, r *http.Request) error) (*httptest.ResponseRecorder, error) {
	w := httptest.NewRecorder()
	err := m.Handle(w, r, h)
	return w, err
}

func noop(http.ResponseWriter, *http.Request) error { return nil }

func TestNew_Configuration(t *testing.T) {
	t.Run("empty secret list", func(t *testing.T) {
		_, err := session.New(session.WithSecrets())
		assert.ErrorIs(t, err, session.ErrConfiguration)
	})

	t.Run("short secret", func(t *testing.T) {
		_, err := session.New(session.WithSecrets("short"))
		assert.ErrorIs(t, err, session.ErrConfiguration)
		assert.ErrorIs(t, err, cookie.ErrSecretTooShort)
	})

	t.Run("invalid unset", func(t *testing.T) {
		_, err := session.New(session.WithSecrets(testSecret), session.WithUnset("drop"))
		assert.ErrorIs(t, err, session.ErrConfiguration)
	})

	t.Run("nil generator", func(t *testing.T) {
		_, err := session.New(session.WithSecrets(testSecret), session.WithGenID(nil))
		assert.ErrorIs(t, err, session.ErrConfiguration)
	})

	t.Run("defaults", func(t *testing.T) {
		m, err := session.New(session.WithSecrets(testSecret))
		require.NoError(t, err)
		assert.Equal(t, cookieName, m.Name())
		assert.IsType(t, &session.MemoryStore{}, m.Store())
		assert.True(t, m.Ready())
	})
}

// New visitor with saveUninitialized on.
func TestManager_NewSessionIsSaved(t *testing.T) {
	store := newCountingStore()
	m := newManager(t, store)

	var seen string
	w, err := serve(m, httptest.NewRequest(http.MethodGet, "/", nil), func(w http.ResponseWriter, r *http.Request) error {
		seen = session.MustFromContext(r.Context()).ID()
		return nil
	})
	require.NoError(t, err)

	assert.NotEmpty(t, seen)
	assert.Equal(t, 0, store.gets, "no cookie, no lookup")
	assert.Equal(t, 1, store.sets)
	assert.Equal(t, seen, store.lastSetID)
	assert.Equal(t, 0, store.touches)

	c := sessionCookie(t, w)
	assert.Equal(t, seen, cookieID(t, c))
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.False(t, c.Secure)
}

// Returning visitor, nothing changed.
func TestManager_UnmodifiedSessionIsTouched(t *testing.T) {
	store := newCountingStore()
	store.seed(t, newRecord("sid", 0, "user", "alice"))
	m := newManager(t, store)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(signedCookie(t, "sid"))

	w, err := serve(m, r, func(w http.ResponseWriter, r *http.Request) error {
		sess := session.MustFromContext(r.Context())
		assert.Equal(t, "sid", sess.ID())
		user, _ := sess.GetString("user")
		assert.Equal(t, "alice", user)
		assert.False(t, sess.IsModified())
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, store.gets)
	assert.Equal(t, 0, store.sets)
	assert.Equal(t, 1, store.touches)
	assert.Nil(t, sessionCookie(t, w), "browser-session cookie is not re-issued")
}

func TestManager_ModifiedSessionIsSaved(t *testing.T) {
	t.Run("session cookie", func(t *testing.T) {
		store := newCountingStore()
		store.seed(t, newRecord("sid", 0, "views", 1))
		m := newManager(t, store)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(signedCookie(t, "sid"))

		w, err := serve(m, r, func(w http.ResponseWriter, r *http.Request) error {
			sess := session.MustFromContext(r.Context())
			views, _ := sess.GetInt("views")
			sess.Set("views", views+1)
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, 1, store.sets)
		assert.Equal(t, 0, store.touches)
		assert.Nil(t, sessionCookie(t, w))

		snap, err := store.MemoryStore.Get(context.Background(), "sid")
		require.NoError(t, err)
		assert.Equal(t, float64(2), snap.Values["views"])
	})

	t.Run("persistent cookie is re-issued", func(t *testing.T) {
		store := newCountingStore()
		store.seed(t, newRecord("sid", time.Hour, "views", 1))
		m := newManager(t, store)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(signedCookie(t, "sid"))

		w, err := serve(m, r, func(w http.ResponseWriter, r *http.Request) error {
			session.MustFromContext(r.Context()).Set("views", 2)
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, 1, store.sets)
		c := sessionCookie(t, w)
		assert.Equal(t, "sid", cookieID(t, c))
		assert.True(t, c.Expires.After(time.Now().Add(59*time.Minute)))
	})
}

func TestManager_Resave(t *testing.T) {
	store := newCountingStore()
	store.seed(t, newRecord("sid", 0))
	m := newManager(t, store, session.WithResave(true))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(signedCookie(t, "sid"))

	_, err := serve(m, r, noop)
	require.NoError(t, err)

	assert.Equal(t, 1, store.sets)
	assert.Equal(t, 0, store.touches)
}

func TestManager_Rolling(t *testing.T) {
	store := newCountingStore()
	store.seed(t, newRecord("sid", time.Hour))
	m := newManager(t, store, session.WithRolling(true))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(signedCookie(t, "sid"))

	w, err := serve(m, r, noop)
	require.NoError(t, err)

	assert.Equal(t, 0, store.sets)
	assert.Equal(t, 1, store.touches)
	assert.Equal(t, "sid", cookieID(t, sessionCookie(t, w)))
}

func TestManager_SaveUninitializedOff(t *testing.T) {
	t.Run("untouched session is not stored", func(t *testing.T) {
		store := newCountingStore()
		m := newManager(t, store, session.WithSaveUninitialized(false))

		w, err := serve(m, httptest.NewRequest(http.MethodGet, "/", nil), noop)
		require.NoError(t, err)

		assert.Equal(t, 0, store.sets)
		assert.Nil(t, sessionCookie(t, w))
	})

	t.Run("modified session is stored", func(t *testing.T) {
		store := newCountingStore()
		m := newManager(t, store, session.WithSaveUninitialized(false))

		var id string
		w, err := serve(m, httptest.NewRequest(http.MethodGet, "/", nil), func(w http.ResponseWriter, r *http.Request) error {
			sess := session.MustFromContext(r.Context())
			sess.Set("cart", []string{"apple"})
			id = sess.ID()
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, 1, store.sets)
		assert.Equal(t, id, cookieID(t, sessionCookie(t, w)))
	})
}

// A failed request never persists its session.
func TestManager_HandlerErrorSkipsSave(t *testing.T) {
	store := newCountingStore()
	store.seed(t, newRecord("sid", time.Hour, "views", 1))
	m := newManager(t, store)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(signedCookie(t, "sid"))

	boom := errors.New("boom")
	w, err := serve(m, r, func(w http.ResponseWriter, r *http.Request) error {
		session.MustFromContext(r.Context()).Set("views", 99)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.sets)
	assert.Equal(t, 0, store.touches)
	assert.Nil(t, sessionCookie(t, w))
}

// Unset with the destroy policy.
func TestManager_UnsetDestroy(t *testing.T) {
	store := newCountingStore()
	store.seed(t, newRecord("sid", 0, "user", "alice"))
	m := newManager(t, store, session.WithUnset(session.UnsetDestroy))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(signedCookie(t, "sid"))

	w, err := serve(m, r, func(w http.ResponseWriter, r *http.Request) error {
		sess := session.MustFromContext(r.Context())
		sess.Unset()
		assert.False(t, sess.Active())
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, store.destroys)
	assert.Equal(t, 0, store.sets)
	assert.Equal(t, 0, store.touches)
	assert.Nil(t, sessionCookie(t, w))

	snap, err := store.MemoryStore.Get(context.Background(), "sid")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestManager_UnsetKeep(t *testing.T) {
	store := newCountingStore()
	store.seed(t, newRecord("sid", 0, "user", "alice"))
	m := newManager(t, store)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(signedCookie(t, "sid"))

	_, err := serve(m, r, func(w http.ResponseWriter, r *http.Request) error {
		session.MustFromContext(r.Context()).Unset()
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 0, store.destroys)
	assert.Equal(t, 0, store.sets)
	assert.Equal(t, 0, store.touches)

	snap, err := store.MemoryStore.Get(context.Background(), "sid")
	require.NoError(t, err)
	assert.NotNil(t, snap)
}

func TestManager_InvalidGeneratedID(t *testing.T) {
	store := newCountingStore()
	m := newManager(t, store, session.WithGenID(func() string { return "" }))

	w, err := serve(m, httptest.NewRequest(http.MethodGet, "/", nil), func(w http.ResponseWriter, r *http.Request) error {
		sess := session.MustFromContext(r.Context())
		sess.Set("k", "v")
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 0, store.sets)
	assert.Equal(t, 0, store.touches)
	assert.Equal(t, 0, store.destroys)
	assert.Nil(t, sessionCookie(t, w))
}

func TestManager_ExplicitSave(t *testing.T) {
	store := newCountingStore()
	m := newManager(t, store)

	_, err := serve(m, httptest.NewRequest(http.MethodGet, "/", nil), func(w http.ResponseWriter, r *http.Request) error {
		sess := session.MustFromContext(r.Context())
		sess.Set("user", "alice")
		assert.False(t, sess.IsSaved())

		require.NoError(t, sess.Save(r.Context()))
		assert.True(t, sess.IsSaved())

		sess.Set("user", "bob")
		assert.False(t, sess.IsSaved())

		require.NoError(t, sess.Save(r.Context()))
		assert.True(t, sess.IsSaved())
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 2, store.sets, "no extra end-of-request save")
}

func TestManager_Destroy(t *testing.T) {
	store := newCountingStore()
	store.seed(t, newRecord("sid", 0, "user", "alice"))
	m := newManager(t, store)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(signedCookie(t, "sid"))

	_, err := serve(m, r, func(w http.ResponseWriter, r *http.Request) error {
		sess := session.MustFromContext(r.Context())
		require.NoError(t, sess.Destroy(r.Context()))
		require.NoError(t, sess.Destroy(r.Context()), "second destroy is a no-op")
		assert.ErrorIs(t, sess.Save(r.Context()), session.ErrNoSession)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, store.destroys)
	assert.Equal(t, 0, store.sets)
}

func TestManager_Regenerate(t *testing.T) {
	store := newCountingStore()
	store.seed(t, newRecord("sid", 0, "user", "alice"))
	m := newManager(t, store)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(signedCookie(t, "sid"))

	var newID string
	w, err := serve(m, r, func(w http.ResponseWriter, r *http.Request) error {
		sess := session.MustFromContext(r.Context())
		require.NoError(t, sess.Regenerate(r.Context()))
		newID = sess.ID()
		_, ok := sess.Get("user")
		assert.False(t, ok, "regenerated session starts empty")
		sess.Set("user", "alice")
		return nil
	})
	require.NoError(t, err)

	assert.NotEqual(t, "sid", newID)
	assert.Equal(t, 1, store.destroys)
	assert.Equal(t, 1, store.sets)
	assert.Equal(t, newID, store.lastSetID)
	assert.Equal(t, newID, cookieID(t, sessionCookie(t, w)))

	old, err := store.MemoryStore.Get(context.Background(), "sid")
	require.NoError(t, err)
	assert.Nil(t, old)
}

func TestManager_Reload(t *testing.T) {
	t.Run("missing session", func(t *testing.T) {
		m := newManager(t, newCountingStore())

		_, err := serve(m, httptest.NewRequest(http.MethodGet, "/", nil), func(w http.ResponseWriter, r *http.Request) error {
			err := session.MustFromContext(r.Context()).Reload(r.Context())
			assert.ErrorIs(t, err, session.ErrSessionMissing)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("picks up stored changes", func(t *testing.T) {
		store := newCountingStore()
		store.seed(t, newRecord("sid", 0, "user", "alice"))
		m := newManager(t, store)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(signedCookie(t, "sid"))

		_, err := serve(m, r, func(w http.ResponseWriter, r *http.Request) error {
			store.seed(t, newRecord("sid", 0, "user", "bob"))

			sess := session.MustFromContext(r.Context())
			require.NoError(t, sess.Reload(r.Context()))
			user, _ := sess.GetString("user")
			assert.Equal(t, "bob", user)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, store.sets, "reloaded state differs from the request's original state")
	})
}

func TestManager_FailOpen(t *testing.T) {
	t.Run("store disconnected", func(t *testing.T) {
		store := newCountingStore()
		m := newManager(t, store)

		store.Notify(session.EventDisconnect)
		assert.False(t, m.Ready())

		_, err := serve(m, httptest.NewRequest(http.MethodGet, "/", nil), func(w http.ResponseWriter, r *http.Request) error {
			_, ok := session.FromContext(r.Context())
			assert.False(t, ok)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 0, store.sets)

		store.Notify(session.EventConnect)
		assert.True(t, m.Ready())

		_, err = serve(m, httptest.NewRequest(http.MethodGet, "/", nil), func(w http.ResponseWriter, r *http.Request) error {
			_, ok := session.FromContext(r.Context())
			assert.True(t, ok)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, store.sets)
	})

	t.Run("no secret configured", func(t *testing.T) {
		store := newCountingStore()
		m, err := session.New(session.WithStore(store))
		require.NoError(t, err)

		w, err := serve(m, httptest.NewRequest(http.MethodGet, "/", nil), func(w http.ResponseWriter, r *http.Request) error {
			_, ok := session.FromContext(r.Context())
			assert.False(t, ok)
			return nil
		})
		require.NoError(t, err)
		assert.Nil(t, sessionCookie(t, w))
		assert.Equal(t, 0, store.sets)
	})

	t.Run("lookup error generates a new session", func(t *testing.T) {
		store := newCountingStore()
		store.getErr = errors.New("connection refused")
		m := newManager(t, store)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(signedCookie(t, "sid"))

		var id string
		w, err := serve(m, r, func(w http.ResponseWriter, r *http.Request) error {
			id = session.MustFromContext(r.Context()).ID()
			return nil
		})
		require.NoError(t, err)

		assert.NotEqual(t, "sid", id)
		assert.Equal(t, 1, store.sets)
		assert.Equal(t, id, cookieID(t, sessionCookie(t, w)))
	})

	t.Run("not found error generates a new session", func(t *testing.T) {
		store := newCountingStore()
		store.getErr = session.ErrNotFound
		m := newManager(t, store)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(signedCookie(t, "sid"))

		_, err := serve(m, r, noop)
		require.NoError(t, err)
		assert.Equal(t, 1, store.sets)
		assert.NotEqual(t, "sid", store.lastSetID)
	})
}

func TestManager_PathMismatch(t *testing.T) {
	store := newCountingStore()
	opts := session.DefaultCookieOptions()
	opts.Path = "/app"
	m := newManager(t, store, session.WithCookie(opts))

	_, err := serve(m, httptest.NewRequest(http.MethodGet, "/public/style.css", nil), func(w http.ResponseWriter, r *http.Request) error {
		_, ok := session.FromContext(r.Context())
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)

	w, err := serve(m, httptest.NewRequest(http.MethodGet, "/app/dashboard", nil), noop)
	require.NoError(t, err)
	assert.Equal(t, "/app", sessionCookie(t, w).Path)
	assert.Equal(t, 1, store.sets)
}

func TestManager_SignedCookie(t *testing.T) {
	t.Run("rotated secret still verifies", func(t *testing.T) {
		store := newCountingStore()
		store.seed(t, newRecord("sid", 0))
		m := newManager(t, store, session.WithSecrets(testSecret, oldTestSecret), session.WithRolling(true))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(signedCookie(t, "sid", oldTestSecret))

		w, err := serve(m, r, noop)
		require.NoError(t, err)

		assert.Equal(t, 1, store.touches)
		assert.Equal(t, 0, store.sets)
		// re-issued cookie is signed with the current secret
		assert.Equal(t, "sid", cookieID(t, sessionCookie(t, w)))
	})

	t.Run("tampered cookie is ignored", func(t *testing.T) {
		store := newCountingStore()
		store.seed(t, newRecord("sid", 0))
		m := newManager(t, store)

		c := signedCookie(t, "sid")
		c.Value = strings.Replace(c.Value, "|", "|x", 1)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(c)

		_, err := serve(m, r, noop)
		require.NoError(t, err)

		assert.Equal(t, 0, store.gets)
		assert.Equal(t, 1, store.sets)
		assert.NotEqual(t, "sid", store.lastSetID)
	})

	t.Run("unknown secret is ignored", func(t *testing.T) {
		store := newCountingStore()
		m := newManager(t, store)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(signedCookie(t, "sid", oldTestSecret))

		_, err := serve(m, r, noop)
		require.NoError(t, err)
		assert.Equal(t, 0, store.gets)
	})
}

func TestManager_SecureCookie(t *testing.T) {
	secureOpts := func(mode session.SecureMode) session.Option {
		opts := session.DefaultCookieOptions()
		opts.Secure = mode
		return session.WithCookie(opts)
	}

	t.Run("secure cookie is not sent over plain http", func(t *testing.T) {
		store := newCountingStore()
		m := newManager(t, store, secureOpts(session.SecureOn))

		w, err := serve(m, httptest.NewRequest(http.MethodGet, "/", nil), noop)
		require.NoError(t, err)
		assert.Nil(t, sessionCookie(t, w))
		assert.Equal(t, 1, store.sets)
	})

	t.Run("secure cookie over tls", func(t *testing.T) {
		m := newManager(t, newCountingStore(), secureOpts(session.SecureOn))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.TLS = &tls.ConnectionState{}
		w, err := serve(m, r, noop)
		require.NoError(t, err)
		c := sessionCookie(t, w)
		require.NotNil(t, c)
		assert.True(t, c.Secure)
	})

	tests := []struct {
		name   string
		proxy  bool
		header string
		want   bool
	}{
		{name: "auto without proxy ignores header", proxy: false, header: "https", want: false},
		{name: "auto behind proxy", proxy: true, header: "https", want: true},
		{name: "auto uses first proxy value", proxy: true, header: "https, http", want: true},
		{name: "auto plain behind proxy", proxy: true, header: "http,https", want: false},
		{name: "auto no header", proxy: true, header: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newManager(t, newCountingStore(), secureOpts(session.SecureAuto), session.WithProxy(tt.proxy))

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("X-Forwarded-Proto", tt.header)
			}
			w, err := serve(m, r, noop)
			require.NoError(t, err)
			c := sessionCookie(t, w)
			require.NotNil(t, c)
			assert.Equal(t, tt.want, c.Secure)
		})
	}
}

func TestManager_CookieWrittenBeforeBody(t *testing.T) {
	store := newCountingStore()
	m := newManager(t, store)

	w, err := serve(m, httptest.NewRequest(http.MethodGet, "/", nil), func(w http.ResponseWriter, r *http.Request) error {
		session.MustFromContext(r.Context()).Set("k", "v")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotNil(t, sessionCookie(t, w))
	assert.Len(t, w.Result().Header.Values("Set-Cookie"), 1)
	assert.Equal(t, 1, store.sets)
}

func TestManager_CookieAttributes(t *testing.T) {
	m := newManager(t, newCountingStore(), session.WithName("sess"), session.WithCookie(session.CookieOptions{
		Path:        "/",
		Domain:      "example.com",
		HTTPOnly:    true,
		SameSite:    http.SameSiteStrictMode,
		Priority:    cookie.PriorityHigh,
		Partitioned: true,
		MaxAge:      time.Hour,
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.TLS = &tls.ConnectionState{}
	w, err := serve(m, r, noop)
	require.NoError(t, err)

	header := w.Result().Header.Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(header, "sess="))
	assert.Contains(t, header, "Domain=example.com")
	assert.Contains(t, header, "Expires=")
	assert.Contains(t, header, "HttpOnly")
	assert.Contains(t, header, "SameSite=Strict")
	assert.Contains(t, header, "Partitioned")
	assert.Contains(t, header, "Priority=High")
}

func TestManager_ClearCookie(t *testing.T) {
	m := newManager(t, newCountingStore(), session.WithName("sess"), session.WithCookie(session.CookieOptions{
		Path:     "/app",
		Domain:   "example.com",
		HTTPOnly: true,
	}))

	w := httptest.NewRecorder()
	m.ClearCookie(w)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sess", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.Equal(t, "/app", cookies[0].Path)
	assert.Equal(t, "example.com", cookies[0].Domain)
}
