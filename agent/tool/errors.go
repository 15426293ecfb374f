package tool

import "errors"

var (
	// ErrToolAlreadyRegistered is returned when registering a duplicate name.
	ErrToolAlreadyRegistered = errors.New("tool already registered")

	// ErrInvalidTool is returned when a tool definition is malformed.
	ErrInvalidTool = errors.New("invalid tool definition")

	ErrMissingRequiredArg = errors.New("missing required argument")
	ErrInvalidArgType     = errors.New("invalid argument type")
	ErrUnknownArg         = errors.New("unknown argument")
)
