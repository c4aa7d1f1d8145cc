package cookie_test

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

const testSecret = "this-is-a-very-long-secret-key-32-chars-long"

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		secrets []string
		wantErr error
	}{
		{
			name:    "no secrets",
			secrets: []string{},
			wantErr: cookie.ErrNoSecret,
		},
		{
			name:    "empty secrets",
			secrets: []string{"", ""},
			wantErr: cookie.ErrNoSecret,
		},
		{
			name:    "secret too short",
			secrets: []string{"short"},
			wantErr: cookie.ErrSecretTooShort,
		},
		{
			name:    "valid secret",
			secrets: []string{testSecret},
			wantErr: nil,
		},
		{
			name: "multiple secrets with rotation",
			secrets: []string{
				testSecret,
				"this-is-old-very-long-secret-key-32-chars-ok",
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := cookie.New(tt.secrets)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_DoesNotMutateSecrets(t *testing.T) {
	t.Parallel()
	secrets := []string{"", testSecret}
	_, err := cookie.New(secrets)
	require.NoError(t, err)
	assert.Equal(t, []string{"", testSecret}, secrets)
}

func TestManager_SetGet(t *testing.T) {
	t.Parallel()
	m, _ := cookie.New([]string{testSecret})

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"simple", "test", "value"},
		{"empty value", "empty", ""},
		{"special chars", "special", "hello=world&foo=bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			r := &http.Request{Header: http.Header{}}

			err := m.Set(w, tt.key, tt.value)
			if err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			r.Header.Set("Cookie", w.Header().Get("Set-Cookie"))

			got, err := m.Get(r, tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}

			if got != tt.value {
				t.Errorf("Get() = %v, want %v", got, tt.value)
			}
		})
	}
}

func TestManager_GetMissing(t *testing.T) {
	t.Parallel()
	m, _ := cookie.New([]string{testSecret})

	r := &http.Request{Header: http.Header{}}
	_, err := m.GetSigned(r, "missing")
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
}

func TestManager_SetGetSigned(t *testing.T) {
	t.Parallel()
	m, _ := cookie.New([]string{testSecret})

	w := httptest.NewRecorder()
	r := &http.Request{Header: http.Header{}}

	value := "test-value"
	err := m.SetSigned(w, "signed", value)
	if err != nil {
		t.Fatalf("SetSigned() error = %v", err)
	}

	r.Header.Set("Cookie", w.Header().Get("Set-Cookie"))

	got, err := m.GetSigned(r, "signed")
	if err != nil {
		t.Fatalf("GetSigned() error = %v", err)
	}

	if got != value {
		t.Errorf("GetSigned() = %v, want %v", got, value)
	}
}

func TestManager_SignedTamperDetection(t *testing.T) {
	t.Parallel()
	m, _ := cookie.New([]string{testSecret})

	w := httptest.NewRecorder()

	err := m.SetSigned(w, "signed", "original-value")
	if err != nil {
		t.Fatalf("SetSigned() error = %v", err)
	}

	r := &http.Request{Header: http.Header{}}
	r.Header.Set("Cookie", w.Header().Get("Set-Cookie"))

	signedValue, _ := m.Get(r, "signed")
	parts := strings.Split(signedValue, "|")
	if len(parts) == 2 {
		tamperedValue := base64.URLEncoding.EncodeToString([]byte("tampered-value")) + "|" + parts[1]
		r = &http.Request{Header: http.Header{}}
		r.AddCookie(&http.Cookie{Name: "signed", Value: tamperedValue})

		_, err = m.GetSigned(r, "signed")
		if !errors.Is(err, cookie.ErrInvalidSignature) {
			t.Errorf("GetSigned() with tampered cookie error = %v, want %v", err, cookie.ErrInvalidSignature)
		}
	} else {
		t.Errorf("Invalid signed cookie format")
	}
}

func TestManager_SecretRotation(t *testing.T) {
	t.Parallel()
	oldSecret := "old-secret-that-is-32-characters-long-exactly"
	newSecret := "new-secret-that-is-32-characters-long-exactly"

	m1, _ := cookie.New([]string{oldSecret})
	signedWithOld := m1.Sign("value")

	m2, _ := cookie.New([]string{newSecret, oldSecret})

	got, err := m2.Verify(signedWithOld)
	require.NoError(t, err, "verification must accept any configured secret")
	assert.Equal(t, "value", got)

	t.Run("signs with first secret only", func(t *testing.T) {
		signedWithNew := m2.Sign("value")
		assert.NotEqual(t, signedWithOld, signedWithNew)

		_, err := m1.Verify(signedWithNew)
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})
}

func TestManager_InvalidFormats(t *testing.T) {
	t.Parallel()
	m, _ := cookie.New([]string{testSecret})

	tests := []struct {
		name    string
		value   string
		wantErr error
	}{
		{"no separator", "abcdef", cookie.ErrInvalidFormat},
		{"bad base64", "!!!|sig", cookie.ErrInvalidFormat},
		{"wrong signature", base64.URLEncoding.EncodeToString([]byte("v")) + "|nope", cookie.ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.value)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestManager_Delete(t *testing.T) {
	t.Parallel()
	m, _ := cookie.New([]string{testSecret})

	w := httptest.NewRecorder()

	m.Delete(w, "test")

	cookieStr := w.Header().Get("Set-Cookie")
	if cookieStr == "" {
		t.Error("Delete() did not set any cookie")
		return
	}

	if !strings.Contains(cookieStr, "Max-Age=-1") && !strings.Contains(cookieStr, "Max-Age=0") {
		t.Errorf("Delete() did not set Max-Age=-1 or Max-Age=0, got: %s", cookieStr)
	}
	if !strings.Contains(cookieStr, "test=") {
		t.Errorf("Delete() did not set correct cookie name, got: %s", cookieStr)
	}
}

func TestManager_Options(t *testing.T) {
	t.Parallel()
	m, _ := cookie.New(
		[]string{testSecret},
		cookie.WithDomain(".example.com"),
		cookie.WithPath("/app"),
		cookie.WithSecure(true),
		cookie.WithHTTPOnly(false),
		cookie.WithSameSite(http.SameSiteStrictMode),
	)

	w := httptest.NewRecorder()

	err := m.Set(w, "test", "value", cookie.WithMaxAge(3600))
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	cookieStr := w.Header().Get("Set-Cookie")

	checks := []string{
		"Domain=example.com", // Go's http package strips leading dot
		"Path=/app",
		"Max-Age=3600",
		"Secure",
		"SameSite=Strict",
	}

	for _, check := range checks {
		if !strings.Contains(cookieStr, check) {
			t.Errorf("Cookie missing %s, got: %s", check, cookieStr)
		}
	}

	if strings.Contains(cookieStr, "HttpOnly") {
		t.Error("Cookie should not have HttpOnly")
	}
}

func TestManager_ExtendedAttributes(t *testing.T) {
	t.Parallel()
	m, err := cookie.New([]string{testSecret})
	require.NoError(t, err)

	expires := time.Date(2030, time.January, 2, 3, 4, 5, 0, time.UTC)

	w := httptest.NewRecorder()
	err = m.SetSigned(w, "sid", "abc",
		cookie.WithExpires(expires),
		cookie.WithSecure(true),
		cookie.WithPartitioned(true),
		cookie.WithPriority(cookie.PriorityHigh),
	)
	require.NoError(t, err)

	cookieStr := w.Header().Get("Set-Cookie")
	assert.Contains(t, cookieStr, "Expires=Wed, 02 Jan 2030 03:04:05 GMT")
	assert.Contains(t, cookieStr, "Partitioned")
	assert.Contains(t, cookieStr, "Priority=High")
	assert.True(t, strings.HasSuffix(cookieStr, "; Priority=High"))

	t.Run("session cookie has no expiry", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(w, "sid", "abc"))
		cookieStr := w.Header().Get("Set-Cookie")
		assert.NotContains(t, cookieStr, "Expires=")
		assert.NotContains(t, cookieStr, "Max-Age=")
		assert.NotContains(t, cookieStr, "Priority=")
	})
}

func TestManager_InvalidName(t *testing.T) {
	t.Parallel()
	m, _ := cookie.New([]string{testSecret})

	err := m.Set(httptest.NewRecorder(), "bad name;", "v")
	assert.ErrorIs(t, err, cookie.ErrInvalidFormat)
}

func BenchmarkManager_SetSigned(b *testing.B) {
	m, _ := cookie.New([]string{testSecret})
	w := httptest.NewRecorder()

	b.ResetTimer()
	for b.Loop() {
		m.SetSigned(w, "bench", "benchmark-value")
	}
}

func BenchmarkManager_Verify(b *testing.B) {
	m, _ := cookie.New([]string{testSecret})
	signed := m.Sign("benchmark-value")

	b.ResetTimer()
	for b.Loop() {
		_, _ = m.Verify(signed)
	}
}
