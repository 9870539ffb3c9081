package host

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Comcast/bundled/core"
)

// Route binds a path to a Dispatcher.
type Route struct {
	Path       string
	Dispatcher *core.Dispatcher

	// ContentType is the response content type for paths without
	// a known extension.  Optional.
	ContentType string

	// ResourceType is the resource type of the request itself.
	// Optional.
	ResourceType string
}

// Router is an http.Handler that dispatches exact path matches.
type Router struct {
	// Timeout, if positive, bounds each top-level dispatch.
	Timeout time.Duration

	Debug bool

	sync.RWMutex
	routes map[string]*Route
}

func NewRouter() *Router {
	return &Router{
		routes: make(map[string]*Route, 32),
	}
}

func (rr *Router) logf(format string, args ...interface{}) {
	if rr.Debug {
		log.Printf("Router."+format, args...)
	}
}

// Add adds (or replaces) a Route.
func (rr *Router) Add(route *Route) error {
	if route.Path == "" {
		return fmt.Errorf("route for %v has no path", route.Dispatcher)
	}
	if route.Dispatcher == nil {
		return fmt.Errorf("route %s has no dispatcher", route.Path)
	}
	rr.Lock()
	rr.routes[route.Path] = route
	rr.Unlock()
	return nil
}

// Find returns the Route for the given path.
func (rr *Router) Find(path string) (*Route, bool) {
	rr.RLock()
	route, have := rr.routes[path]
	rr.RUnlock()
	return route, have
}

// Paths lists the paths of all Routes.
func (rr *Router) Paths() []string {
	rr.RLock()
	acc := make([]string, 0, len(rr.routes))
	for p := range rr.routes {
		acc = append(acc, p)
	}
	rr.RUnlock()
	return acc
}

func (rr *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	route, have := rr.Find(path)
	if !have {
		rr.punt(w, nil, http.StatusNotFound, fmt.Sprintf("%s: %s", ErrNotFound, path))
		return
	}

	ctx := r.Context()
	if 0 < rr.Timeout {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rr.Timeout)
		defer cancel()
	}

	res := NewResponse(w)
	req := newRequest(r, path, route, rr, res)

	then := time.Now()
	err := rr.dispatcher(route).Dispatch(ctx, req, res)
	rr.logf("ServeHTTP %s %s %v", r.Method, path, time.Since(then))

	if err != nil {
		rr.punt(w, res, http.StatusInternalServerError, err.Error())
	}
}

// dispatcher returns the Route's Dispatcher or, when debugging, a
// copy that logs each lifecycle state.
func (rr *Router) dispatcher(route *Route) *core.Dispatcher {
	d := route.Dispatcher
	if !rr.Debug || d.Observer != nil {
		return d
	}
	traced := *d
	traced.Observer = func(exe *core.Executable, s core.State) {
		rr.logf("lifecycle %s %s %s", route.Path, exe.Name, s)
	}
	return &traced
}

// punt logs the problem and, if nothing has been sent yet, writes it
// as a JSON error.
func (rr *Router) punt(w http.ResponseWriter, res *Response, status int, msg string) {
	log.Printf("Router %d %s", status, msg)

	if res != nil && res.Written() {
		return
	}

	js, err := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	if err != nil {
		// Better than nothing?
		js = []byte(msg)
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "%s\n", js)
}
