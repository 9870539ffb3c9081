package core

import (
	"context"
	"log"
)

// ExecutionContext binds an Executable to one request and response.
//
// An ExecutionContext is never shared across requests and never
// reused.
type ExecutionContext interface {
	// Eval runs the Executable.
	Eval(ctx context.Context) error

	// Clean releases whatever the context holds.
	Clean() error
}

// ContextProvider makes ExecutionContexts.
type ContextProvider interface {
	Prepare(ctx context.Context, req ScriptRequest, res ScriptResponse, exe *Executable) (ExecutionContext, error)
}

// ContextProviderFunc lets a function be a ContextProvider.
type ContextProviderFunc func(ctx context.Context, req ScriptRequest, res ScriptResponse, exe *Executable) (ExecutionContext, error)

func (f ContextProviderFunc) Prepare(ctx context.Context, req ScriptRequest, res ScriptResponse, exe *Executable) (ExecutionContext, error) {
	return f(ctx, req, res, exe)
}

// State is a step in the life of one Run().
type State int

const (
	Created State = iota
	Prepared
	Evaluated
	Failed
	Cleaned
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Prepared:
		return "prepared"
	case Evaluated:
		return "evaluated"
	case Failed:
		return "failed"
	case Cleaned:
		return "cleaned"
	default:
		return "unknown"
	}
}

// RunObserver hears about each State a Run() enters.
type RunObserver func(exe *Executable, s State)

// Run prepares an ExecutionContext for the given triple, evaluates it,
// and then cleans it.
//
// Clean happens on every path after a successful Prepare.  An
// evaluation error is returned after Clean.  A Clean error is logged
// if there's already an evaluation error; otherwise it is returned as
// a CleanupFailure.
func Run(ctx context.Context, p ContextProvider, req ScriptRequest, res ScriptResponse, exe *Executable) error {
	return run(ctx, p, req, res, exe, nil)
}

func run(ctx context.Context, p ContextProvider, req ScriptRequest, res ScriptResponse, exe *Executable, obs RunObserver) (err error) {
	note := func(s State) {
		if obs != nil {
			obs(exe, s)
		}
	}

	note(Created)

	ec, err := p.Prepare(ctx, req, res, exe)
	if err != nil {
		return err
	}
	if ec == nil {
		return ErrNoContext
	}

	note(Prepared)

	defer func() {
		if cerr := ec.Clean(); cerr != nil {
			if err == nil {
				err = &CleanupFailure{
					Executable: exe.Name,
					Err:        cerr,
				}
			} else {
				log.Printf("warning: cleaning %s after evaluation error: %s", exe.Name, cerr)
			}
		}
		note(Cleaned)
	}()

	if err = ec.Eval(ctx); err != nil {
		note(Failed)
		return err
	}

	note(Evaluated)

	return nil
}
