package core

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInterpreterNotFound occurs when an Executable names an
	// interpreter that isn't in the given map of interpreters.
	ErrInterpreterNotFound = errors.New("interpreter not found")

	// DefaultInterpreters will be used by Compile when given nil
	// interpreters.
	DefaultInterpreters = NewInterpretersMap()
)

// Executable is a resolved, nameable unit of script logic.
//
// An Executable is built (and optionally Compile()ed) before it is
// handed to a Dispatcher.  After that, treat it as read-only.
type Executable struct {
	// Name identifies the Executable in diagnostics.
	Name string `json:"name"`

	// Interpreter is the name of the interpreter that can run
	// Source.
	Interpreter string `json:"interpreter,omitempty" yaml:",omitempty"`

	// Source is interpreter-specific.
	Source interface{} `json:"source"`

	Doc string `json:"doc,omitempty" yaml:",omitempty"`

	// Compiled is the result of the interpreter's Compile(), if
	// any.
	Compiled interface{} `json:"-" yaml:"-"`
}

// Interpreter can compile and prepare Executables.
type Interpreter interface {
	// Compile can make something that helps when Prepare()ing
	// the code later.
	Compile(ctx context.Context, src interface{}) (interface{}, error)

	// Prepare binds the Executable to the given request and
	// response.  The Executable's Compiled might be nil.
	Prepare(ctx context.Context, req ScriptRequest, res ScriptResponse, exe *Executable) (ExecutionContext, error)
}

// InterpretersMap maps interpreter names to Interpreters.
//
// An InterpretersMap is a ContextProvider.
type InterpretersMap map[string]Interpreter

func NewInterpretersMap() InterpretersMap {
	return make(InterpretersMap, 8)
}

// Find returns the named Interpreter.
func (m InterpretersMap) Find(name string) (Interpreter, error) {
	i, have := m[name]
	if !have {
		return nil, fmt.Errorf("%w: %q", ErrInterpreterNotFound, name)
	}
	return i, nil
}

// Prepare uses the Executable's interpreter to make an
// ExecutionContext.
func (m InterpretersMap) Prepare(ctx context.Context, req ScriptRequest, res ScriptResponse, exe *Executable) (ExecutionContext, error) {
	i, err := m.Find(exe.Interpreter)
	if err != nil {
		return nil, err
	}
	return i.Prepare(ctx, req, res, exe)
}

// Compile compiles the Executable's Source using the given
// interpreters, which defaults to DefaultInterpreters.  The result is
// stored in the Executable's Compiled.
func Compile(ctx context.Context, interpreters InterpretersMap, exe *Executable) error {
	if interpreters == nil {
		interpreters = DefaultInterpreters
	}

	i, err := interpreters.Find(exe.Interpreter)
	if err != nil {
		return err
	}

	x, err := i.Compile(ctx, exe.Source)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", exe.Name, err)
	}
	exe.Compiled = x

	return nil
}
