package response

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"
)

// render writes body with a content type derived from its Go type:
// strings as text, byte slices as binary, readers as streams,
// templ components as HTML and anything else as JSON.
func render(ctx context.Context, w *responseWriter, status int, body any) error {
	h := w.Header()

	switch v := body.(type) {
	case string:
		setDefault(h, "Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, err := io.WriteString(w, v)
		return err

	case []byte:
		setDefault(h, "Content-Type", "application/octet-stream")
		w.WriteHeader(status)
		_, err := w.Write(v)
		return err

	case templ.Component:
		setDefault(h, "Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		return v.Render(ctx, w)

	case io.Reader:
		setDefault(h, "Content-Type", "application/octet-stream")
		w.WriteHeader(status)
		_, err := io.Copy(w, v)
		if c, ok := v.(io.Closer); ok {
			c.Close()
		}
		return err

	default:
		// Encode before writing the header so encoding failures can still become a 500.
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrEncode, err)
		}
		setDefault(h, "Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_, err = w.Write(data)
		return err
	}
}

func setDefault(h http.Header, key, value string) {
	if h.Get(key) == "" {
		h.Set(key, value)
	}
}
