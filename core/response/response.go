package response

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// Response accumulates status, headers and body for one request
// and writes them once through Send or End.
type Response struct {
	w      *responseWriter
	ctx    context.Context
	header http.Header
	status int
	body   any

	once sync.Once
	err  error
}

// New creates a response bound to w. A nil writer is allowed;
// sending such a response reports ErrNoWriter.
func New(w http.ResponseWriter) *Response {
	r := &Response{ctx: context.Background()}
	if w != nil {
		r.w = newResponseWriter(w)
	} else {
		r.header = make(http.Header)
	}
	return r
}

// WithContext sets the context passed to templ components on Send,
// normally the request's. A nil ctx is ignored.
func (r *Response) WithContext(ctx context.Context) *Response {
	if ctx != nil {
		r.ctx = ctx
	}
	return r
}

// Detach cuts the response off from the connection. Later writes through
// Writer fail with ErrDetached, and Send, End and header changes no longer
// reach the client. It is used when a request is abandoned while a handler
// may still be running.
func (r *Response) Detach() {
	if r.w != nil {
		r.w.detach()
	}
}

// Writer returns the underlying writer for handlers that stream directly.
// Once anything is written through it, Send and End leave the response alone.
func (r *Response) Writer() http.ResponseWriter {
	if r.w == nil {
		return nil
	}
	return r.w
}

// Header returns the response header map.
func (r *Response) Header() http.Header {
	if r.w != nil {
		return r.w.Header()
	}
	return r.header
}

// Status returns the status already written, the explicit status, or the
// status Send would use, in that order.
func (r *Response) Status() int {
	if r.w != nil {
		if status, _, written := r.w.state(); written {
			return status
		}
	}
	if r.status != 0 {
		return r.status
	}
	if r.body != nil {
		return http.StatusOK
	}
	return http.StatusNoContent
}

// SetStatus sets the status code. It panics when code is outside 100-999.
func (r *Response) SetStatus(code int) *Response {
	if code < 100 || code > 999 {
		panic(fmt.Errorf("%w: %d", ErrInvalidStatus, code))
	}
	r.status = code
	return r
}

// Body returns the current body.
func (r *Response) Body() any {
	return r.body
}

// HasBody reports whether a body has been assigned.
func (r *Response) HasBody() bool {
	return r.body != nil
}

// SetBody assigns the body. A nil value clears it.
func (r *Response) SetBody(v any) *Response {
	r.body = v
	return r
}

// Written reports whether status and headers have reached the client.
func (r *Response) Written() bool {
	if r.w == nil {
		return false
	}
	_, _, written := r.w.state()
	return written
}

// Size returns the number of body bytes written so far.
func (r *Response) Size() int {
	if r.w == nil {
		return 0
	}
	_, size, _ := r.w.state()
	return size
}

// Send writes status, headers and body. Only the first call (of Send or End) writes;
// later calls return the first result.
func (r *Response) Send() error {
	r.once.Do(func() {
		r.err = r.write(true)
	})
	return r.err
}

// End writes status and headers without a body. Like Send it is idempotent.
func (r *Response) End() error {
	r.once.Do(func() {
		r.err = r.write(false)
	})
	return r.err
}

func (r *Response) write(withBody bool) error {
	if r.w == nil {
		return ErrNoWriter
	}
	if r.Written() {
		return nil
	}
	if r.w.isDetached() {
		return ErrDetached
	}

	status := r.Status()
	if !withBody || bodyless(status) {
		r.w.WriteHeader(status)
		return nil
	}

	body := r.body
	if body == nil {
		body = http.StatusText(status)
	}
	return render(r.ctx, r.w, status, body)
}

// bodyless reports statuses that must not carry a body.
func bodyless(status int) bool {
	switch status {
	case http.StatusNoContent, http.StatusResetContent, http.StatusNotModified:
		return true
	}
	return status >= 100 && status < 200
}
