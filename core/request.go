package core

import (
	"context"
	"io"
	"net/http"
)

const (
	// AttrIncludeServletPath is the request attribute that marks a
	// render nested inside another render.  When present (non-nil),
	// Dispatch leaves the response content type alone.
	AttrIncludeServletPath = "include.servlet_path"

	// TextPrefix is the content type prefix for textual responses.
	TextPrefix = "text/"

	// DefaultCharset is forced on textual responses.
	DefaultCharset = "UTF-8"
)

// Request is the most general request a Dispatcher will accept.
//
// Only a ScriptRequest can actually be dispatched.
type Request interface {
	Attribute(name string) interface{}
}

// Response is the most general response a Dispatcher will accept.
//
// Only a ScriptResponse can actually be dispatched.
type Response interface {
	io.Writer
}

// ScriptRequest is the request family that scripts run against.
type ScriptRequest interface {
	Request

	Path() string
	Method() string
	Param(name string) string
	Header(name string) string

	// ResponseContentType is the content type that upstream
	// resolution computed for the response.  Might be empty.
	ResponseContentType() string

	// ResourceTypes gives the resource types in scope for this
	// request.
	ResourceTypes() []string
}

// ScriptResponse is the response family that scripts render into.
type ScriptResponse interface {
	Response

	Header() http.Header
	WriteHeader(status int)
	SetContentType(contentType string)
	SetCharacterEncoding(charset string)
}

// Includer is an optional ScriptRequest capability: render the
// resource at the given path into the current response.
type Includer interface {
	Include(ctx context.Context, path string) error
}

// Unwrapper is implemented by requests that decorate another request.
type Unwrapper interface {
	Unwrap() ScriptRequest
}

// FindIncluder walks the Unwrap() chain of the given request looking
// for an Includer.
func FindIncluder(req Request) (Includer, bool) {
	for req != nil {
		if i, is := req.(Includer); is {
			return i, true
		}
		u, is := req.(Unwrapper)
		if !is {
			return nil, false
		}
		next := u.Unwrap()
		if next == nil {
			return nil, false
		}
		req = next
	}
	return nil, false
}

// AugmentedRequest decorates a ScriptRequest.  ResourceTypes() answers
// with a precomputed set.  Everything else goes to the wrapped
// request.
type AugmentedRequest struct {
	ScriptRequest

	resourceTypes []string
}

// Augment wraps the request so that ResourceTypes() gives the union of
// the resource types declared by the wired providers.
//
// The union is computed on every call.
func Augment(req ScriptRequest, wired *WiredProviders) *AugmentedRequest {
	return &AugmentedRequest{
		ScriptRequest: req,
		resourceTypes: wired.ResourceTypes(),
	}
}

// ResourceTypes returns a copy of the union.
func (r *AugmentedRequest) ResourceTypes() []string {
	acc := make([]string, len(r.resourceTypes))
	copy(acc, r.resourceTypes)
	return acc
}

// Unwrap returns the decorated request.
func (r *AugmentedRequest) Unwrap() ScriptRequest {
	return r.ScriptRequest
}
