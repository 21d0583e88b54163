package errors

import "errors"

var (
	ErrSessionNotFound   = errors.New("explorer session was not found")
	ErrInvalidSession    = errors.New("invalid explorer session parameters")
	ErrPositionNotFound  = errors.New("position is not in the explorer database")
	ErrAmbiguousResponse = errors.New("explorer response must be either opening or tablebase")
	ErrIllegalMove       = errors.New("move is not legal in the current position")
	ErrRowNotFound       = errors.New("no table row under the pointer")
	ErrUnknownEvent      = errors.New("unknown explorer event")
	ErrInternal          = errors.New("internal error")
)
