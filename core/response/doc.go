// Package response provides the Response value carried by every request context.
//
// Handlers assign a status and a body; the finalizer calls Send exactly once:
//
//	res := response.New(w)
//	res.SetStatus(http.StatusCreated).SetBody(map[string]string{"id": "42"})
//	err := res.Send() // application/json
//
// The body's Go type selects the encoding: string (text/plain), []byte and
// io.Reader (application/octet-stream), templ.Component (text/html) and
// anything else as JSON. An explicit Content-Type header always wins.
// Send and End are idempotent; only the first call writes.
package response
