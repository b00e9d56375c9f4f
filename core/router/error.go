package router

import "errors"

var (
	// Registration errors
	ErrInvalidMethod   = errors.New("invalid http method")
	ErrInvalidPattern  = errors.New("invalid route path pattern")
	ErrNoHandler       = errors.New("route handler is required")
	ErrNilMiddleware   = errors.New("middleware must be a function")
	ErrDuplicateMethod = errors.New("method already defined for route")
	ErrDuplicateRoute  = errors.New("route already registered")
	ErrFrozen          = errors.New("router is compiled")

	// Tree errors
	ErrInvalidRegexp    = errors.New("invalid route path pattern regexp")
	ErrMissingChild     = errors.New("replacing missing child")
	ErrWildcardPosition = errors.New("wildcard position must be last")
	ErrParamDelimiter   = errors.New("route param closing delimiter '}' is missing")
	ErrDuplicateParam   = errors.New("duplicate parameter name")
)
