package session

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

// now is the clock used for every expiry computation.
var now = time.Now

// SecureMode controls the Secure attribute of the session cookie.
type SecureMode uint8

const (
	SecureOff SecureMode = iota
	SecureOn
	// SecureAuto sets Secure only when the request arrived over a secure connection.
	SecureAuto
)

// ParseSecureMode accepts "true", "false" and "auto".
func ParseSecureMode(s string) (SecureMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "0", "off":
		return SecureOff, nil
	case "true", "1", "on":
		return SecureOn, nil
	case "auto":
		return SecureAuto, nil
	}
	return SecureOff, fmt.Errorf("%w: secure must be true, false or auto, got %q", ErrInvalidArgument, s)
}

// ParseSameSite accepts "lax", "strict", "none", plus "true" (strict) and "false" (lax).
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return http.SameSiteDefaultMode, nil
	case "lax", "false":
		return http.SameSiteLaxMode, nil
	case "strict", "true":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	}
	return http.SameSiteDefaultMode, fmt.Errorf("%w: unknown sameSite %q", ErrInvalidArgument, s)
}

// ParsePriority accepts "low", "medium" and "high" in any case.
func ParsePriority(s string) (cookie.Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "low":
		return cookie.PriorityLow, nil
	case "medium":
		return cookie.PriorityMedium, nil
	case "high":
		return cookie.PriorityHigh, nil
	}
	return "", fmt.Errorf("%w: unknown priority %q", ErrInvalidArgument, s)
}

func sameSiteName(s http.SameSite) string {
	switch s {
	case http.SameSiteLaxMode:
		return "lax"
	case http.SameSiteStrictMode:
		return "strict"
	case http.SameSiteNoneMode:
		return "none"
	}
	return ""
}

// CookieOptions are the cookie attribute defaults every new session starts from.
type CookieOptions struct {
	Path        string
	Domain      string
	HTTPOnly    bool
	Secure      SecureMode
	SameSite    http.SameSite
	Priority    cookie.Priority
	Partitioned bool

	// MaxAge makes the cookie persistent. Zero means a browser-session cookie,
	// unless Expires is set.
	MaxAge  time.Duration
	Expires time.Time
}

// DefaultCookieOptions returns a root-path, HttpOnly, SameSite=Lax session cookie.
func DefaultCookieOptions() CookieOptions {
	return CookieOptions{
		Path:     "/",
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Cookie holds the cookie policy of a single session.
//
// Expiry is tracked twice: as an absolute instant and as the duration it was
// originally set for. Both setters recompute the other field from the current
// time, reads clamp the remaining lifetime at zero. Durations are kept at
// millisecond resolution, the resolution of the persisted snapshot, and
// instants are normalized to UTC without a monotonic reading.
type Cookie struct {
	Path        string
	Domain      string
	HTTPOnly    bool
	Secure      SecureMode
	SameSite    http.SameSite
	Priority    cookie.Priority
	Partitioned bool

	expires        *time.Time
	originalMaxAge *time.Duration
}

// NewCookie builds the cookie of a freshly generated session.
func NewCookie(opts CookieOptions) *Cookie {
	c := &Cookie{
		Path:        opts.Path,
		Domain:      opts.Domain,
		HTTPOnly:    opts.HTTPOnly,
		Secure:      opts.Secure,
		SameSite:    opts.SameSite,
		Priority:    opts.Priority,
		Partitioned: opts.Partitioned,
	}
	switch {
	case opts.MaxAge > 0:
		c.SetMaxAge(opts.MaxAge)
	case !opts.Expires.IsZero():
		c.SetExpires(opts.Expires)
	}
	return c
}

// SetMaxAge sets expires to now+d and records d as the original max-age.
func (c *Cookie) SetMaxAge(d time.Duration) {
	d = d.Truncate(time.Millisecond)
	exp := now().Add(d).Round(0).UTC()
	c.expires = &exp
	c.originalMaxAge = &d
}

// SetMaxAgeValue is the loosely typed max-age setter used for decoded option
// values. It accepts nil (session cookie), time.Duration, integer or float
// milliseconds and time.Time (absolute expiry).
func (c *Cookie) SetMaxAgeValue(v any) error {
	switch val := v.(type) {
	case nil:
		c.ClearExpiry()
	case time.Duration:
		c.SetMaxAge(val)
	case int:
		c.SetMaxAge(time.Duration(val) * time.Millisecond)
	case int64:
		c.SetMaxAge(time.Duration(val) * time.Millisecond)
	case float64:
		c.SetMaxAge(time.Duration(val * float64(time.Millisecond)))
	case time.Time:
		c.SetExpires(val)
	default:
		return fmt.Errorf("%w: maxAge must be a number or time, got %T", ErrInvalidArgument, v)
	}
	return nil
}

// SetExpires sets an absolute expiry; the zero time clears it.
// The original max-age becomes the lifetime remaining at assignment time.
func (c *Cookie) SetExpires(t time.Time) {
	if t.IsZero() {
		c.ClearExpiry()
		return
	}
	exp := t.Round(0).UTC()
	c.expires = &exp
	d := remaining(t, now()).Truncate(time.Millisecond)
	c.originalMaxAge = &d
}

// ClearExpiry turns the cookie into a browser-session cookie.
func (c *Cookie) ClearExpiry() {
	c.expires = nil
	c.originalMaxAge = nil
}

// Expires returns the absolute expiry, if any.
func (c *Cookie) Expires() (time.Time, bool) {
	if c.expires == nil {
		return time.Time{}, false
	}
	return *c.expires, true
}

// MaxAge returns the lifetime left before expiry, never negative.
func (c *Cookie) MaxAge() (time.Duration, bool) {
	return c.MaxAgeAt(now())
}

// MaxAgeAt is MaxAge evaluated at the given instant.
func (c *Cookie) MaxAgeAt(t time.Time) (time.Duration, bool) {
	if c.expires == nil {
		return 0, false
	}
	return remaining(*c.expires, t), true
}

// OriginalMaxAge returns the max-age the expiry was last computed from.
func (c *Cookie) OriginalMaxAge() (time.Duration, bool) {
	if c.originalMaxAge == nil {
		return 0, false
	}
	return *c.originalMaxAge, true
}

// ResetMaxAge restarts the expiry countdown from the original max-age.
func (c *Cookie) ResetMaxAge() {
	if c.originalMaxAge == nil {
		c.ClearExpiry()
		return
	}
	c.SetMaxAge(*c.originalMaxAge)
}

// Clone returns a deep copy.
func (c *Cookie) Clone() *Cookie {
	out := *c
	if c.expires != nil {
		exp := *c.expires
		out.expires = &exp
	}
	if c.originalMaxAge != nil {
		d := *c.originalMaxAge
		out.originalMaxAge = &d
	}
	return &out
}

// Data exports the attribute set. An "auto" Secure flag is left unset until
// the Manager resolves it against the request.
func (c *Cookie) Data() CookieData {
	d := CookieData{
		Path:        c.Path,
		Domain:      c.Domain,
		HTTPOnly:    c.HTTPOnly,
		SameSite:    SameSiteValue(sameSiteName(c.SameSite)),
		Priority:    strings.ToLower(string(c.Priority)),
		Partitioned: c.Partitioned,
	}
	if c.expires != nil {
		exp := *c.expires
		d.Expires = &exp
	}
	if c.originalMaxAge != nil {
		ms := c.originalMaxAge.Milliseconds()
		d.OriginalMaxAge = &ms
	}
	if c.Secure != SecureAuto {
		secure := c.Secure == SecureOn
		d.Secure = &secure
	}
	return d
}

// options converts the policy into write options for the signed cookie.
func (c *Cookie) options(secure bool) []cookie.Option {
	opts := []cookie.Option{
		cookie.WithPath(c.Path),
		cookie.WithDomain(c.Domain),
		cookie.WithHTTPOnly(c.HTTPOnly),
		cookie.WithSecure(secure),
		cookie.WithSameSite(c.SameSite),
		cookie.WithPartitioned(c.Partitioned),
		cookie.WithPriority(c.Priority),
		cookie.WithMaxAge(0),
	}
	if c.expires != nil {
		opts = append(opts, cookie.WithExpires(*c.expires))
	} else {
		opts = append(opts, cookie.WithExpires(time.Time{}))
	}
	return opts
}

func remaining(exp, at time.Time) time.Duration {
	if d := exp.Sub(at); d > 0 {
		return d
	}
	return 0
}
