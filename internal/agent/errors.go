package agent

import (
	"errors"
	"strings"
)

// ErrIterationLimit is returned by engines that stop before the model
// produced a final answer.
var ErrIterationLimit = errors.New("iteration limit reached")

// EngineInitError means the engine cannot be built from the given settings.
type EngineInitError struct {
	Missing []string
}

func (e *EngineInitError) Error() string {
	return "engine not initialized: missing " + strings.Join(e.Missing, ", ")
}

// InvalidRequestError is a client mistake; the engine was not called.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid request: " + e.Reason
}

// EngineError wraps a failure reported by the reasoning engine.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string {
	return "engine error: " + e.Err.Error()
}

func (e *EngineError) Unwrap() error { return e.Err }

// EngineTimeoutError means the run exhausted its iteration or time budget.
type EngineTimeoutError struct {
	Budget string
	Err    error
}

func (e *EngineTimeoutError) Error() string {
	return "engine exceeded " + e.Budget + " budget: " + e.Err.Error()
}

func (e *EngineTimeoutError) Unwrap() error { return e.Err }

const (
	KindInvalidRequest = "invalid_request"
	KindEngineError    = "engine_error"
	KindEngineTimeout  = "engine_timeout"
	KindEngineInit     = "engine_init"
)

// Kind classifies err into one of the Kind constants. Unknown errors are
// reported as engine errors.
func Kind(err error) string {
	var (
		invalid *InvalidRequestError
		timeout *EngineTimeoutError
		initErr *EngineInitError
	)
	switch {
	case errors.As(err, &invalid):
		return KindInvalidRequest
	case errors.As(err, &timeout):
		return KindEngineTimeout
	case errors.As(err, &initErr):
		return KindEngineInit
	default:
		return KindEngineError
	}
}
