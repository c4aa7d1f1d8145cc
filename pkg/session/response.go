package session

import (
	"net/http"
)

// responseWriter runs a hook once, right before the response header is sent,
// so the session cookie can still be added.
type responseWriter struct {
	http.ResponseWriter
	beforeSend func(http.ResponseWriter)
	wrote      bool
}

func newResponseWriter(w http.ResponseWriter, beforeSend func(http.ResponseWriter)) *responseWriter {
	return &responseWriter{ResponseWriter: w, beforeSend: beforeSend}
}

func (w *responseWriter) WriteHeader(status int) {
	w.runBeforeSend()
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.runBeforeSend()
	return w.ResponseWriter.Write(b)
}

// Flush implements http.Flusher when the wrapped writer does.
func (w *responseWriter) Flush() {
	w.runBeforeSend()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Written reports whether the header has been sent.
func (w *responseWriter) Written() bool {
	return w.wrote
}

// finish runs the hook if the handler never wrote anything.
func (w *responseWriter) finish() {
	w.runBeforeSend()
}

func (w *responseWriter) runBeforeSend() {
	if w.wrote {
		return
	}
	w.wrote = true
	if w.beforeSend != nil {
		w.beforeSend(w.ResponseWriter)
	}
}
