package response

import "errors"

var (
	ErrInvalidStatus = errors.New("invalid status code")
	ErrNoWriter      = errors.New("response has no writer")
	ErrEncode        = errors.New("failed to encode response body")

	// ErrDetached is returned by writes made after the response was detached.
	ErrDetached = errors.New("response is detached from the connection")
)
