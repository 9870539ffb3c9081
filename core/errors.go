package core

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocolMismatch is what a ProtocolMismatch Is().
	ErrProtocolMismatch = errors.New("not a script request/response")

	// ErrAlreadyCleaned is returned by an ExecutionContext's
	// Clean() when called more than once.
	ErrAlreadyCleaned = errors.New("execution context already cleaned")

	// ErrNoContext occurs when a ContextProvider returns neither
	// an ExecutionContext nor an error.
	ErrNoContext = errors.New("no execution context")

	// ErrIncompleteDispatcher occurs when a Dispatcher has no
	// ContextProvider or no Executable.
	ErrIncompleteDispatcher = errors.New("dispatcher needs a provider and an executable")
)

// ProtocolMismatch occurs when Dispatch() is given a request or
// response that isn't a ScriptRequest or ScriptResponse.
//
// This is a wiring error.  Don't retry.
type ProtocolMismatch struct {
	Request  string
	Response string
}

func (e *ProtocolMismatch) Error() string {
	return fmt.Sprintf("%s (request %s, response %s)", ErrProtocolMismatch, e.Request, e.Response)
}

func (e *ProtocolMismatch) Is(target error) bool {
	return target == ErrProtocolMismatch
}

// ScriptError is an evaluation failure reported by an interpreter.
//
// Cause is optional.
type ScriptError struct {
	Msg   string
	Cause error
}

func (e *ScriptError) Error() string {
	return e.Msg
}

func (e *ScriptError) Unwrap() error {
	return e.Cause
}

// ExecutionFailed is what Dispatch() returns when the Executable's
// evaluation failed.
type ExecutionFailed struct {
	// Executable is the name of the Executable.
	Executable string

	// Msg is the message of the original failure.
	Msg string

	// Cause is never nil.
	Cause error
}

// NewExecutionFailed translates a ScriptError.  The cause is the
// ScriptError's Cause if there is one; otherwise it's the ScriptError
// itself.
func NewExecutionFailed(name string, se *ScriptError) *ExecutionFailed {
	var cause error = se
	if se.Cause != nil {
		cause = se.Cause
	}
	return &ExecutionFailed{
		Executable: name,
		Msg:        se.Msg,
		Cause:      cause,
	}
}

func (e *ExecutionFailed) Error() string {
	return "Failed executing script " + e.Executable + ": " + e.Msg
}

func (e *ExecutionFailed) Unwrap() error {
	return e.Cause
}

// CleanupFailure occurs when an ExecutionContext's Clean() fails after
// a successful evaluation.
//
// A CleanupFailure after a failed evaluation is only logged.
type CleanupFailure struct {
	Executable string
	Err        error
}

func (e *CleanupFailure) Error() string {
	return `cleaning script "` + e.Executable + `": ` + e.Err.Error()
}

func (e *CleanupFailure) Unwrap() error {
	return e.Err
}
