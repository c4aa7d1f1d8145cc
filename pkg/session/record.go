package session

import (
	"encoding/json"
	"maps"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// cookieKey is reserved for the cookie snapshot in the persisted form.
const cookieKey = "cookie"

// Record is the plain data of a session: its id, its cookie policy and the
// application payload. Values must be JSON serializable.
type Record struct {
	id     string
	Cookie *Cookie
	Values map[string]any
}

// NewRecord creates an empty record owning c.
func NewRecord(id string, c *Cookie) *Record {
	if c == nil {
		c = NewCookie(DefaultCookieOptions())
	}
	return &Record{
		id:     id,
		Cookie: c,
		Values: make(map[string]any),
	}
}

// ID returns the session identifier. It never changes for a given record.
func (s *Record) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Get retrieves a value from session data
func (s *Record) Get(key string) (any, bool) {
	if s == nil || s.Values == nil {
		return nil, false
	}
	val, ok := s.Values[key]
	return val, ok
}

// GetString retrieves a string value from session data
func (s *Record) GetString(key string) (string, bool) {
	val, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// GetInt retrieves an int value from session data.
// Numbers restored from a snapshot come back as float64 and are converted.
func (s *Record) GetInt(key string) (int, bool) {
	val, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}

// GetBool retrieves a bool value from session data
func (s *Record) GetBool(key string) (bool, bool) {
	val, ok := s.Get(key)
	if !ok {
		return false, false
	}
	b, ok := val.(bool)
	return b, ok
}

// Set stores a value in session data. The "cookie" key is reserved and ignored.
func (s *Record) Set(key string, value any) {
	if s == nil || key == cookieKey {
		return
	}
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[key] = value
}

// Delete removes a value from session data
func (s *Record) Delete(key string) {
	if s == nil || s.Values == nil {
		return
	}
	delete(s.Values, key)
}

// Clear removes all data from the session
func (s *Record) Clear() {
	if s == nil {
		return
	}
	s.Values = make(map[string]any)
}

// Touch restarts the cookie expiry countdown.
func (s *Record) Touch() {
	s.ResetMaxAge()
}

// ResetMaxAge sets the cookie max-age back to its original max-age, or
// clears the expiry when there is none.
func (s *Record) ResetMaxAge() {
	if s == nil || s.Cookie == nil {
		return
	}
	s.Cookie.ResetMaxAge()
}

// Hash is a content hash of the payload, ignoring the cookie. It is only
// used to detect modifications.
func (s *Record) Hash() string {
	if s == nil {
		return ""
	}
	return Hash(s.Values)
}

// Snapshot returns the serialized form handed to stores.
func (s *Record) Snapshot() *Snapshot {
	snap := &Snapshot{Values: make(map[string]any, len(s.Values))}
	for k, v := range s.Values {
		if k != cookieKey {
			snap.Values[k] = v
		}
	}
	if s.Cookie != nil {
		snap.Cookie = s.Cookie.Data()
	}
	return snap
}

// Hash returns a canonical content hash of values. encoding/json sorts map
// keys, so equal payloads hash equally regardless of insertion order.
func Hash(values map[string]any) string {
	if _, ok := values[cookieKey]; ok {
		values = maps.Clone(values)
		delete(values, cookieKey)
	}
	if values == nil {
		values = map[string]any{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		// unserializable payloads never compare equal to a saved state
		data = []byte("!" + err.Error())
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}
