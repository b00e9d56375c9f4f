package relay

import "errors"

var (
	ErrNilLogger  = errors.New("logger cannot be nil")
	ErrNilServer  = errors.New("server cannot be nil")
	ErrNilStore   = errors.New("store cannot be nil")
	ErrInvalidEnv = errors.New("invalid application environment")
)
