package noop

import (
	"context"
	"log"

	"github.com/Comcast/bundled/core"
)

// Interpreter is a core.Interpreter whose executions render nothing.
type Interpreter struct {
	// Silent, if false, will enable warning log messages.
	Silent bool
}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func (i *Interpreter) Compile(ctx context.Context, code interface{}) (interface{}, error) {
	if !i.Silent {
		log.Printf("warning: Using noop Interpreter for compilation")
	}
	return nil, nil
}

func (i *Interpreter) Prepare(ctx context.Context, req core.ScriptRequest, res core.ScriptResponse, exe *core.Executable) (core.ExecutionContext, error) {
	if !i.Silent {
		log.Printf("warning: Using noop Interpreter for %s", exe.Name)
	}
	return &execContext{}, nil
}

type execContext struct {
	cleaned bool
}

func (ec *execContext) Eval(ctx context.Context) error {
	if ec.cleaned {
		return core.ErrAlreadyCleaned
	}
	return nil
}

func (ec *execContext) Clean() error {
	if ec.cleaned {
		return core.ErrAlreadyCleaned
	}
	ec.cleaned = true
	return nil
}
