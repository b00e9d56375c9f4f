package response

import (
	"net/http"
	"sync"
)

// responseWriter tracks what reached the client. After detach every write
// is refused and Header returns a scratch map, so a goroutine that outlived
// its request can no longer touch the connection.
type responseWriter struct {
	http.ResponseWriter

	mu       sync.Mutex
	status   int
	size     int
	written  bool
	detached bool
	scratch  http.Header
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w}
}

func (w *responseWriter) Header() http.Header {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.detached {
		if w.scratch == nil {
			w.scratch = make(http.Header)
		}
		return w.scratch
	}
	return w.ResponseWriter.Header()
}

func (w *responseWriter) WriteHeader(status int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writeHeader(status)
}

func (w *responseWriter) writeHeader(status int) {
	if w.written || w.detached {
		return
	}
	w.status = status
	w.written = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.detached {
		return 0, ErrDetached
	}
	w.writeHeader(http.StatusOK)
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it.
func (w *responseWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.detached {
		return
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *responseWriter) detach() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.detached = true
}

func (w *responseWriter) isDetached() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.detached
}

func (w *responseWriter) state() (status, size int, written bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status, w.size, w.written
}
