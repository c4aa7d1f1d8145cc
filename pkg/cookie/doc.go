// Package cookie provides a signed HTTP cookie manager for Go applications.
//
// It wraps Go's net/http `http.Cookie` type with higher-level helpers for creating, reading,
// deleting and signing cookies. It is the signing capability consumed by the session package.
//
// # Overview
//
// The `Manager` type is the entry point. It is initialised with one or more secret keys and
// a set of default cookie `Options`. Secrets are used for HMAC-SHA256 signatures.
//
// Once created you can:
//
//   - Set(), Get(), Delete() – plain cookies
//   - SetSigned(), GetSigned() – signed cookies (integrity only)
//   - Sign(), Verify() – the raw signing primitives
//
// # Architecture
//
// Signing uses `crypto/hmac` with SHA-256 over the raw value; the cookie carries the base64
// encoded value and the signature separated by "|". Multiple secrets are supported to enable
// key rotation – the first is used for signing, every secret is tried when verifying.
//
// Besides the attributes net/http knows about, the manager emits `Partitioned` and the
// Chromium `Priority` attribute.
//
// # Usage
//
//	import "github.com/dmitrymomot/sessionkit/pkg/cookie"
//
//	// secrets must be at least 32 bytes
//	man, err := cookie.New([]string{os.Getenv("COOKIE_SECRET")})
//	if err != nil { log.Fatal(err) }
//
//	http.HandleFunc("/set", func(w http.ResponseWriter, r *http.Request) {
//	    _ = man.SetSigned(w, "session", "user-id", cookie.WithPriority(cookie.PriorityHigh))
//	})
//
//	http.HandleFunc("/get", func(w http.ResponseWriter, r *http.Request) {
//	    id, err := man.GetSigned(r, "session")
//	    _ = id
//	    _ = err
//	})
//
// # Error Handling
//
// Package-level sentinel errors are returned for common failure scenarios such as
// `ErrCookieNotFound`, `ErrInvalidSignature` and `ErrInvalidFormat` so callers can use
// `errors.Is`.
//
// # See Also
//
//   - net/http – underlying cookie implementation.
package cookie
