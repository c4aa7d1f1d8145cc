package session

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"time"
)

// CookieData is the exported attribute set of a session cookie, also its
// persisted form. Expires is written as an RFC 3339 string, OriginalMaxAge as
// milliseconds. A nil Secure means "auto".
type CookieData struct {
	Expires        *time.Time    `json:"expires"`
	OriginalMaxAge *int64        `json:"originalMaxAge"`
	Path           string        `json:"path,omitempty"`
	Domain         string        `json:"domain,omitempty"`
	Secure         *bool         `json:"secure,omitempty"`
	HTTPOnly       bool          `json:"httpOnly"`
	SameSite       SameSiteValue `json:"sameSite,omitempty"`
	Priority       string        `json:"priority,omitempty"`
	Partitioned    bool          `json:"partitioned,omitempty"`
}

// SameSiteValue is the persisted sameSite attribute. Besides "lax", "strict"
// and "none" it decodes the boolean form: true means strict, false means lax.
type SameSiteValue string

func (v *SameSiteValue) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = SameSiteValue(sameSiteName(sameSiteFromBool(b)))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: sameSite must be a boolean or a string", ErrInvalidArgument)
	}
	mode, err := ParseSameSite(s)
	if err != nil {
		return err
	}
	*v = SameSiteValue(sameSiteName(mode))
	return nil
}

func sameSiteFromBool(b bool) http.SameSite {
	if b {
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}

// Snapshot is the store representation of a session: the payload plus the
// cookie under the "cookie" key.
type Snapshot struct {
	Cookie CookieData
	Values map[string]any
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Values)+1)
	for k, v := range s.Values {
		out[k] = v
	}
	out[cookieKey] = s.Cookie
	return json.Marshal(out)
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Cookie = CookieData{}
	if c, ok := raw[cookieKey]; ok {
		if err := json.Unmarshal(c, &s.Cookie); err != nil {
			return fmt.Errorf("decode session cookie: %w", err)
		}
		delete(raw, cookieKey)
	}
	s.Values = make(map[string]any, len(raw))
	for k, v := range raw {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("decode session value %q: %w", k, err)
		}
		s.Values[k] = val
	}
	return nil
}

// ExpiresAt returns the cookie expiry, used by stores for TTLs and lazy expiration.
func (s *Snapshot) ExpiresAt() (time.Time, bool) {
	if s == nil || s.Cookie.Expires == nil {
		return time.Time{}, false
	}
	return *s.Cookie.Expires, true
}

// Expired reports whether the snapshot's cookie expiry is at or before t.
func (s *Snapshot) Expired(t time.Time) bool {
	exp, ok := s.ExpiresAt()
	return ok && !exp.After(t)
}

// Encode serializes the snapshot to its JSON wire form.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot parses the JSON wire form.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	snap := &Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Restore rebuilds a Record from a stored snapshot. The cookie is rebuilt
// through its setters and the persisted original max-age is put back
// verbatim afterwards, since SetExpires would recompute it.
func Restore(id string, snap *Snapshot) *Record {
	d := snap.Cookie
	c := &Cookie{
		Path:        d.Path,
		Domain:      d.Domain,
		HTTPOnly:    d.HTTPOnly,
		Partitioned: d.Partitioned,
		Secure:      SecureAuto,
	}
	if d.Secure != nil {
		c.Secure = SecureOff
		if *d.Secure {
			c.Secure = SecureOn
		}
	}
	c.SameSite, _ = ParseSameSite(string(d.SameSite))
	c.Priority, _ = ParsePriority(d.Priority)

	if d.Expires != nil {
		c.SetExpires(*d.Expires)
	}
	if d.OriginalMaxAge != nil {
		orig := time.Duration(*d.OriginalMaxAge) * time.Millisecond
		c.originalMaxAge = &orig
	} else {
		c.originalMaxAge = nil
	}

	values := maps.Clone(snap.Values)
	if values == nil {
		values = make(map[string]any)
	}
	delete(values, cookieKey)

	return &Record{id: id, Cookie: c, Values: values}
}

// Load fetches and restores the session id from store.
// It returns ErrSessionMissing when the store has no such session.
func Load(ctx context.Context, store Store, id string) (*Record, error) {
	snap, err := store.Get(ctx, id)
	if err != nil && !IsNotFound(err) {
		return nil, storeErr(err)
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionMissing, id)
	}
	return Restore(id, snap), nil
}
