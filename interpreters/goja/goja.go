package goja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Comcast/bundled/core"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is the cause of the ScriptError returned by Eval
	// if the execution is interrupted.
	Interrupted = errors.New(InterruptedMessage)
)

// init adds an Interpreter as one of the DefaultInterpreters
func init() {
	core.DefaultInterpreters["goja"] = NewInterpreter()
}

// Interpreter implements core.Interpreter using Goja, which is a Go
// implementation of ECMAScript 5.1+.
//
// See https://github.com/dop251/goja.
type Interpreter struct {

	// Testing is used to expose or hide some runtime
	// capabilities.
	Testing bool

	// LibraryProvider is a pluggable library provider, which is
	// used instead of DefaultLibraryProvider if not nil.
	LibraryProvider func(ctx context.Context, i *Interpreter, libraryName string) (string, error)
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// ProvideLibrary resolves the library name into a library.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider(ctx, i, name)
	}
	return DefaultLibraryProvider(ctx, i, name)
}

var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider makes a library provider that supports
// (barely) names that are URLs with protocols of "file", "http", and
// "https".  File names are relative to the given directory.
func MakeFileLibraryProvider(dir string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		switch parts[0] {
		case "file":
			filename := parts[1]
			if strings.Contains(filename, "..") {
				return "", fmt.Errorf("bad library file '%s'", filename)
			}
			bs, err := os.ReadFile(dir + "/" + filename)
			if err != nil {
				return "", err
			}
			return string(bs), nil
		case "http", "https":
			req, err := http.NewRequestWithContext(ctx, "GET", name, nil)
			if err != nil {
				return "", err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusOK:
				bs, err := io.ReadAll(resp.Body)
				if err != nil {
					return "", err
				}
				return string(bs), nil
			default:
				return "", fmt.Errorf("library fetch status %s %d",
					resp.Status, resp.StatusCode)
			}
		default:
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
	}
}

func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

const (
	wrapPrefix = "(function() {\n"
	wrapSuffix = "\n}());\n"
)

func wrapSrc(src string) string {
	return wrapPrefix + src + wrapSuffix
}

// parseSource looks into the given map to try to find "code" and
// "requires" properties.
func parseSource(vv map[string]interface{}) (code string, libs []string, err error) {
	x, have := vv["code"]
	if !have {
		err = errors.New("no Goja code")
		return
	}
	s, is := x.(string)
	if !is {
		err = errors.New("bad Goja code")
		return
	}
	code = s

	switch vv := vv["requires"].(type) {
	case nil:
	case string:
		libs = []string{vv}
	case []string:
		libs = vv
	case []interface{}:
		libs = make([]string, 0, len(vv))
		for _, x := range vv {
			s, is := x.(string)
			if !is {
				err = errors.New("bad library")
				return
			}
			libs = append(libs, s)
		}
	default:
		err = fmt.Errorf("bad requires (%T)", vv)
	}

	return
}

// AsSource accepts either a string (the code) or a map with "code"
// and optional "requires".
//
// Maps with interface{} keys (what some YAML parsers make) are
// supported.
func AsSource(src interface{}) (code string, libs []string, err error) {
	switch vv := src.(type) {
	case string:
		code = vv
		return
	case map[interface{}]interface{}:
		m := make(map[string]interface{})
		for k, v := range vv {
			str, ok := k.(string)
			if !ok {
				err = fmt.Errorf("bad src key (%T)", k)
				return
			}
			m[str] = v
		}
		return parseSource(m)
	case map[string]interface{}:
		return parseSource(vv)
	default:
		err = fmt.Errorf("bad Goja source (%T)", src)
		return
	}
}

// Compile inlines top-level require()s, prepends any explicitly
// required libraries, and then calls goja.Compile.
//
// This method can block if the interpreter's library provider blocks
// in order to obtain external libraries.
func (i *Interpreter) Compile(ctx context.Context, src interface{}) (interface{}, error) {
	code, libs, err := AsSource(src)
	if err != nil {
		return nil, err
	}

	if code, err = InlineRequires(ctx, code, i.ProvideLibrary); err != nil {
		return nil, err
	}

	code = wrapSrc(code)

	var libsSrc string
	for _, lib := range libs {
		libSrc, err := i.ProvideLibrary(ctx, lib)
		if err != nil {
			return nil, err
		}
		libsSrc += libSrc + "\n"
	}

	code = libsSrc + code

	obj, err := goja.Compile("", code, true)
	if err != nil {
		return nil, errors.New(err.Error() + ": " + code)
	}

	return obj, nil
}

// Prepare makes a fresh runtime and binds the request, response, and
// executable into it.
//
// The following properties are available from the runtime at _.
//
//	request: path, method, contentType, resourceTypes, and the
//	  functions attribute(name), param(name), header(name).
//	response: write(x), setHeader(name, value), setStatus(code),
//	  setContentType(ct).
//	executable: name.
//	include(path): render the resource at path into the response.
//
// Some useful utilities:
//
//	log(x): log the given value as JSON.
//	gensym(): generate a random string.
//	esc(s): URL query-escape the given string.
//	cronNext(expr): the next time (RFC3339Nano) for a cron expression.
//
// For testing only:
//
//	sleep(ms): sleep for the given number of milliseconds.
//
// The Testing flag must be set to see sleep().
func (i *Interpreter) Prepare(ctx context.Context, req core.ScriptRequest, res core.ScriptResponse, exe *core.Executable) (core.ExecutionContext, error) {
	compiled := exe.Compiled
	if compiled == nil {
		var err error
		if compiled, err = i.Compile(ctx, exe.Source); err != nil {
			return nil, err
		}
	}
	p, is := compiled.(*goja.Program)
	if !is {
		return nil, fmt.Errorf("Goja bad compilation: %T", compiled)
	}

	ec := &execContext{
		exe:     exe,
		program: p,
		o:       goja.New(),
	}
	ec.bind(i, req, res)

	return ec, nil
}

// execContext is one goja runtime bound to one request.
type execContext struct {
	exe     *core.Executable
	program *goja.Program
	o       *goja.Runtime

	// ctx is the context given to Eval, which include() uses.
	ctx context.Context

	cleaned bool
}

func (ec *execContext) protest(x interface{}) {
	panic(ec.o.ToValue(x))
}

func (ec *execContext) throw(err error) {
	panic(ec.o.NewGoError(err))
}

func export(x interface{}) interface{} {
	if v, is := x.(goja.Value); is {
		return v.Export()
	}
	return x
}

func (ec *execContext) bind(i *Interpreter, req core.ScriptRequest, res core.ScriptResponse) {
	o := ec.o

	request := map[string]interface{}{
		"path":          req.Path(),
		"method":        req.Method(),
		"contentType":   req.ResponseContentType(),
		"resourceTypes": asArray(req.ResourceTypes()),
		"attribute": func(name string) interface{} {
			return req.Attribute(name)
		},
		"param": func(name string) string {
			return req.Param(name)
		},
		"header": func(name string) string {
			return req.Header(name)
		},
	}

	response := map[string]interface{}{
		"write": func(x interface{}) {
			var s string
			switch vv := export(x).(type) {
			case string:
				s = vv
			default:
				js, err := json.Marshal(vv)
				if err != nil {
					ec.throw(err)
				}
				s = string(js)
			}
			if _, err := io.WriteString(res, s); err != nil {
				ec.throw(err)
			}
		},
		"setHeader": func(name, value string) {
			res.Header().Set(name, value)
		},
		"setStatus": func(code int) {
			res.WriteHeader(code)
		},
		"setContentType": func(ct string) {
			res.SetContentType(ct)
		},
	}

	env := map[string]interface{}{
		"request":  request,
		"response": response,
		"executable": map[string]interface{}{
			"name": ec.exe.Name,
		},
	}

	env["include"] = func(path string) {
		inc, is := core.FindIncluder(req)
		if !is {
			ec.protest("include not supported")
		}
		ctx := ec.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		if err := inc.Include(ctx, path); err != nil {
			ec.throw(err)
		}
	}

	env["gensym"] = func() interface{} {
		return gensym(32)
	}

	env["cronNext"] = func(x interface{}) interface{} {
		cronExpr, is := export(x).(string)
		if !is {
			ec.protest("not a string")
		}

		c, err := cronexpr.Parse(cronExpr)
		if err != nil {
			ec.protest(err.Error())
		}
		return c.Next(time.Now()).UTC().Format(time.RFC3339Nano)
	}

	env["esc"] = func(x interface{}) interface{} {
		s, is := export(x).(string)
		if !is {
			ec.protest("not a string")
		}
		return url.QueryEscape(s)
	}

	env["log"] = func(x interface{}) interface{} {
		x = export(x)
		js, err := json.Marshal(&x)
		if err != nil {
			log.Println("goja.log (can't marshal: " + err.Error() + ")")
		} else {
			log.Printf("%s: %s", ec.exe.Name, js)
		}
		return x
	}

	if i.Testing {
		env["sleep"] = func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		}
	}

	o.Set("_", env)
}

// Eval runs the program.  Cancelling the given context interrupts
// the runtime.
func (ec *execContext) Eval(ctx context.Context) error {
	if ec.cleaned {
		return core.ErrAlreadyCleaned
	}

	ec.ctx = ctx

	// We want to make sure that the following goroutine is
	// terminated as soon as possible.
	o := ec.o
	ictx, cancel := context.WithCancel(ctx)
	go func() {
		<-ictx.Done()
		// If Eval calls cancel() after RunProgram returns,
		// then we'll never see this InterruptedMessage, which
		// is actually the behavior we want.  In this case, we
		// weren't actually interrupted.
		o.Interrupt(InterruptedMessage)
	}()

	_, err := o.RunProgram(ec.program)
	cancel()

	if err == nil {
		return nil
	}

	return asScriptError(err)
}

// asScriptError turns what RunProgram returned into a
// core.ScriptError.
func asScriptError(err error) *core.ScriptError {
	switch vv := err.(type) {
	case *goja.InterruptedError:
		return &core.ScriptError{
			Msg:   InterruptedMessage,
			Cause: Interrupted,
		}
	case *goja.Exception:
		// A thrown Go error (see throw()) is the cause.
		return &core.ScriptError{
			Msg:   vv.Error(),
			Cause: errors.Unwrap(vv),
		}
	default:
		return &core.ScriptError{
			Msg:   err.Error(),
			Cause: err,
		}
	}
}

// Clean drops the runtime.
func (ec *execContext) Clean() error {
	if ec.cleaned {
		return core.ErrAlreadyCleaned
	}
	ec.cleaned = true
	ec.o.ClearInterrupt()
	ec.o = nil
	ec.program = nil
	ec.ctx = nil
	return nil
}

// alphabet is used by gensym.
var alphabet = []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// gensym makes a random string of the given length.
func gensym(n int) string {
	bs := make([]byte, n)
	for i := 0; i < len(bs); i++ {
		bs[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(bs)
}

// asArray makes a []interface{} so that scripts see a plain array.
func asArray(ss []string) []interface{} {
	acc := make([]interface{}, len(ss))
	for i, s := range ss {
		acc[i] = s
	}
	return acc
}
