package wasm

import "fmt"

// Kind classifies why an invocation failed, so the HTTP layer
// (internal/gate) can pick the right failure counter without parsing
// strings.
type Kind string

const (
	KindInvalidPath        Kind = "invalid_path"
	KindModuleTooLarge     Kind = "module_too_large"
	KindModuleParseError   Kind = "module_parse_error"
	KindUnauthorizedImport Kind = "unauthorized_import"
	KindFunctionNotFound   Kind = "function_not_found"
	KindBadParams          Kind = "bad_params"
	KindBadResult          Kind = "bad_result"
	KindFuelExhausted      Kind = "fuel_exhausted"
	KindInterrupted        Kind = "interrupted"
	KindTrap               Kind = "trap"
	KindInstantiateFailed  Kind = "instantiate_failed"
	KindExecutionError     Kind = "execution_error"
)

// Error carries a stable failure Kind alongside the human-readable message:
// every failure path in this package returns one, so internal/gate can
// classify without string-matching the message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
