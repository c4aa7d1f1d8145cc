package session

import (
	"net/http"
	"sync"
)

// requestState is the per-request bookkeeping of the controller. It wraps a
// plain Record for the duration of one request.
type requestState struct {
	m *Manager
	r *http.Request

	mu     sync.Mutex
	record *Record

	// sessionID is the id of the current record. It survives Unset and
	// Destroy so the unset policy can still act on it.
	sessionID string
	// cookieID is the id that arrived with the request cookie.
	cookieID string

	originalID   string
	originalHash string
	savedHash    string
	touched      bool
}

func (st *requestState) generate() {
	st.attach(st.m.Generate())
	st.originalID = st.sessionID
	st.originalHash = st.record.Hash()
}

func (st *requestState) inflate(rec *Record) {
	st.attach(rec)
	st.originalID = st.sessionID
	st.originalHash = rec.Hash()
	if !st.m.resave {
		st.savedHash = st.originalHash
	}
}

func (st *requestState) attach(rec *Record) {
	st.record = rec
	st.sessionID = rec.ID()
}

func (st *requestState) isModified() bool {
	return st.originalID != st.record.ID() || st.originalHash != st.record.Hash()
}

func (st *requestState) isSaved() bool {
	return st.originalID == st.record.ID() && st.savedHash == st.record.Hash()
}

func (st *requestState) shouldDestroy() bool {
	return st.sessionID != "" && st.m.unset == UnsetDestroy && st.record == nil
}

func (st *requestState) shouldSave() bool {
	if st.sessionID == "" || st.record == nil {
		return false
	}
	if !st.m.saveUninitialized && st.savedHash == "" && st.cookieID != st.record.ID() {
		return st.isModified()
	}
	return !st.isSaved()
}

func (st *requestState) shouldTouch() bool {
	if st.sessionID == "" || st.record == nil {
		return false
	}
	return st.cookieID == st.record.ID() && !st.shouldSave()
}

func (st *requestState) shouldSetCookie() bool {
	if st.sessionID == "" || st.record == nil {
		return false
	}
	if st.cookieID != st.record.ID() {
		return st.m.saveUninitialized || st.isModified()
	}
	_, hasExpiry := st.record.Cookie.Expires()
	return st.m.rolling || (hasExpiry && st.isModified())
}
