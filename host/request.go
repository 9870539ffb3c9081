package host

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/Comcast/bundled/core"
)

// MaxIncludeDepth bounds nested includes.
var MaxIncludeDepth = 16

var (
	// ErrNotFound occurs when no Route matches a path.
	ErrNotFound = errors.New("no route")

	// ErrIncludeDepth occurs when includes nest more than
	// MaxIncludeDepth deep.
	ErrIncludeDepth = errors.New("includes nested too deeply")
)

// Request is a core.ScriptRequest (and core.Includer) over an
// *http.Request.
type Request struct {
	r      *http.Request
	path   string
	route  *Route
	router *Router
	res    *Response
	depth  int

	sync.RWMutex
	attrs map[string]interface{}
}

func newRequest(r *http.Request, path string, route *Route, router *Router, res *Response) *Request {
	return &Request{
		r:      r,
		path:   path,
		route:  route,
		router: router,
		res:    res,
		attrs:  make(map[string]interface{}, 4),
	}
}

// HTTP returns the underlying HTTP request.
func (r *Request) HTTP() *http.Request {
	return r.r
}

func (r *Request) Attribute(name string) interface{} {
	r.RLock()
	x := r.attrs[name]
	r.RUnlock()
	return x
}

// SetAttribute sets (or, given nil, removes) an attribute.
func (r *Request) SetAttribute(name string, x interface{}) {
	r.Lock()
	if x == nil {
		delete(r.attrs, name)
	} else {
		r.attrs[name] = x
	}
	r.Unlock()
}

func (r *Request) Path() string {
	return r.path
}

func (r *Request) Method() string {
	return r.r.Method
}

func (r *Request) Param(name string) string {
	return r.r.FormValue(name)
}

func (r *Request) Header(name string) string {
	return r.r.Header.Get(name)
}

// ResponseContentType is based on the path's extension, falling back
// to the Route's ContentType.
func (r *Request) ResponseContentType() string {
	return ContentTypeFor(r.path, r.route.ContentType)
}

// ResourceTypes gives the Route's ResourceType, if any.
func (r *Request) ResourceTypes() []string {
	if r.route.ResourceType == "" {
		return []string{}
	}
	return []string{r.route.ResourceType}
}

// Include dispatches the Route for the given path with a child
// request that carries core.AttrIncludeServletPath.  The child shares
// this request's response.
func (r *Request) Include(ctx context.Context, path string) error {
	if MaxIncludeDepth <= r.depth {
		return ErrIncludeDepth
	}
	route, have := r.router.Find(path)
	if !have {
		return fmt.Errorf("%w for include %s", ErrNotFound, path)
	}

	child := newRequest(r.r, path, route, r.router, r.res)
	child.depth = r.depth + 1
	r.RLock()
	for k, v := range r.attrs {
		child.attrs[k] = v
	}
	r.RUnlock()
	child.attrs[core.AttrIncludeServletPath] = path

	r.router.logf("include %s from %s (depth %d)", path, r.path, child.depth)

	return r.router.dispatcher(route).Dispatch(ctx, child, r.res)
}
