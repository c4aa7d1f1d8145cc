package session

import (
	"context"
	"fmt"
	"maps"
)

// Session is the request-scoped handle to the current session. It is stored
// in the request context by the Manager and wraps a Record; all mutations go
// through the handle so the Manager can track them.
//
// A Session is safe for concurrent use but only lives as long as its request.
type Session struct {
	st *requestState
}

// ID returns the current session id, empty once the session was unset.
func (s *Session) ID() string {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.record.ID()
}

// Active reports whether a record is attached to the request.
func (s *Session) Active() bool {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.record != nil
}

// Cookie returns a copy of the session cookie policy.
func (s *Session) Cookie() *Cookie {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if s.st.record == nil {
		return nil
	}
	return s.st.record.Cookie.Clone()
}

// UpdateCookie lets fn change the cookie policy in place, e.g. to extend the
// max-age of a "remember me" session.
func (s *Session) UpdateCookie(fn func(c *Cookie)) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if s.st.record == nil {
		return ErrNoSession
	}
	fn(s.st.record.Cookie)
	return nil
}

// Get retrieves a value from session data
func (s *Session) Get(key string) (any, bool) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.record.Get(key)
}

// GetString retrieves a string value from session data
func (s *Session) GetString(key string) (string, bool) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.record.GetString(key)
}

// GetInt retrieves an int value from session data
func (s *Session) GetInt(key string) (int, bool) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.record.GetInt(key)
}

// GetBool retrieves a bool value from session data
func (s *Session) GetBool(key string) (bool, bool) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.record.GetBool(key)
}

// Values returns a copy of the session data.
func (s *Session) Values() map[string]any {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if s.st.record == nil {
		return nil
	}
	return maps.Clone(s.st.record.Values)
}

// Set stores a value in session data
func (s *Session) Set(key string, value any) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.record.Set(key, value)
}

// Delete removes a value from session data
func (s *Session) Delete(key string) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.record.Delete(key)
}

// Clear removes all data from the session
func (s *Session) Clear() {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.record.Clear()
}

// Touch restarts the cookie expiry countdown.
func (s *Session) Touch() {
	s.ResetMaxAge()
}

// ResetMaxAge sets the cookie max-age back to its original max-age.
func (s *Session) ResetMaxAge() {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.record.ResetMaxAge()
}

// IsModified reports whether the session differs from the state it had when
// the request started.
func (s *Session) IsModified() bool {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.record != nil && s.st.isModified()
}

// IsSaved reports whether the current state has already been persisted.
func (s *Session) IsSaved() bool {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.record != nil && s.st.isSaved()
}

// Save writes the session to the store now. The end-of-request save is
// skipped when nothing changed afterwards.
func (s *Session) Save(ctx context.Context) error {
	s.st.mu.Lock()
	rec := s.st.record
	if rec == nil {
		s.st.mu.Unlock()
		return ErrNoSession
	}
	id := rec.ID()
	s.st.savedHash = rec.Hash()
	snap := rec.Snapshot()
	s.st.mu.Unlock()

	return storeErr(s.st.m.store.Set(ctx, id, snap))
}

// Reload replaces the session data with the stored state.
// It fails with ErrSessionMissing when the store no longer has the session.
func (s *Session) Reload(ctx context.Context) error {
	s.st.mu.Lock()
	rec := s.st.record
	s.st.mu.Unlock()
	if rec == nil {
		return ErrNoSession
	}

	fresh, err := Load(ctx, s.st.m.store, rec.ID())
	if err != nil {
		return err
	}

	s.st.mu.Lock()
	s.st.attach(fresh)
	s.st.mu.Unlock()
	return nil
}

// Destroy detaches the session from the request and removes it from the store.
// Destroying an already destroyed session is a no-op.
func (s *Session) Destroy(ctx context.Context) error {
	s.st.mu.Lock()
	id := s.st.record.ID()
	s.st.record = nil
	s.st.mu.Unlock()

	if id == "" {
		return nil
	}
	return s.st.m.destroy(ctx, id)
}

// Regenerate replaces the session with a fresh one under a new id, e.g.
// after login. The old session is removed from the store first; its error,
// if any, is returned but the new session is attached regardless.
func (s *Session) Regenerate(ctx context.Context) error {
	s.st.mu.Lock()
	old := s.st.sessionID
	s.st.mu.Unlock()

	var err error
	if old != "" {
		if err = s.st.m.destroy(ctx, old); err != nil {
			err = fmt.Errorf("destroy session before regenerate: %w", err)
		}
	}

	rec := s.st.m.Generate()
	s.st.mu.Lock()
	s.st.attach(rec)
	s.st.mu.Unlock()
	return err
}

// Unset detaches the session from the request without touching the store.
// With UnsetDestroy the stored session is removed at the end of the request.
func (s *Session) Unset() {
	s.st.mu.Lock()
	s.st.record = nil
	s.st.mu.Unlock()
}
