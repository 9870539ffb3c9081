// Package markdown is an interpreter that renders Markdown sources as
// HTML.
package markdown

import (
	"context"
	"fmt"

	"github.com/Comcast/bundled/core"

	md "github.com/russross/blackfriday/v2"
)

func init() {
	core.DefaultInterpreters["markdown"] = NewInterpreter()
}

// Interpreter renders with blackfriday.  Rendering happens at
// Compile(), so Eval just writes bytes.
type Interpreter struct {
	// Extensions are the blackfriday extensions.  Zero means
	// md.CommonExtensions.
	Extensions md.Extensions
}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func (i *Interpreter) Compile(ctx context.Context, src interface{}) (interface{}, error) {
	var bs []byte
	switch vv := src.(type) {
	case string:
		bs = []byte(vv)
	case []byte:
		bs = vv
	default:
		return nil, fmt.Errorf("bad Markdown source (%T)", src)
	}

	exts := i.Extensions
	if exts == 0 {
		exts = md.CommonExtensions
	}

	return md.Run(bs, md.WithExtensions(exts)), nil
}

func (i *Interpreter) Prepare(ctx context.Context, req core.ScriptRequest, res core.ScriptResponse, exe *core.Executable) (core.ExecutionContext, error) {
	compiled := exe.Compiled
	if compiled == nil {
		var err error
		if compiled, err = i.Compile(ctx, exe.Source); err != nil {
			return nil, err
		}
	}
	html, is := compiled.([]byte)
	if !is {
		return nil, fmt.Errorf("Markdown bad compilation: %T", compiled)
	}
	return &execContext{
		res:  res,
		html: html,
	}, nil
}

type execContext struct {
	res     core.ScriptResponse
	html    []byte
	cleaned bool
}

func (ec *execContext) Eval(ctx context.Context) error {
	if ec.cleaned {
		return core.ErrAlreadyCleaned
	}
	if _, err := ec.res.Write(ec.html); err != nil {
		return &core.ScriptError{
			Msg:   err.Error(),
			Cause: err,
		}
	}
	return nil
}

func (ec *execContext) Clean() error {
	if ec.cleaned {
		return core.ErrAlreadyCleaned
	}
	ec.cleaned = true
	ec.res = nil
	ec.html = nil
	return nil
}
