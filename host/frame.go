package host

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// FrameRequest is a request that arrives as a JSON message (over a
// WebSocket or MQTT) rather than as an HTTP request.
type FrameRequest struct {
	// Id, if given, is echoed in the FrameResponse.
	Id string `json:"id,omitempty"`

	Path    string            `json:"path"`
	Method  string            `json:"method,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`

	// ReplyTo is an optional MQTT topic for the FrameResponse.
	ReplyTo string `json:"replyTo,omitempty"`
}

// FrameResponse is the result of serving a FrameRequest.
type FrameResponse struct {
	Id          string            `json:"id,omitempty"`
	Status      int               `json:"status"`
	ContentType string            `json:"contentType,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        string            `json:"body"`
}

// ParseFrame parses a JSON FrameRequest.
func ParseFrame(bs []byte) (*FrameRequest, error) {
	var f FrameRequest
	if err := json.Unmarshal(bs, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ServeFrame serves the FrameRequest just as ServeHTTP would serve
// the equivalent HTTP request.
func (rr *Router) ServeFrame(ctx context.Context, f *FrameRequest) (*FrameResponse, error) {
	method := f.Method
	if method == "" {
		method = http.MethodGet
	}

	vals := make(url.Values, len(f.Params))
	for k, v := range f.Params {
		vals.Set(k, v)
	}
	u := &url.URL{
		Path:     f.Path,
		RawQuery: vals.Encode(),
	}

	r, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	for k, v := range f.Headers {
		r.Header.Set(k, v)
	}

	w := newFrameWriter()
	rr.ServeHTTP(w, r)

	res := &FrameResponse{
		Id:          f.Id,
		Status:      w.status,
		ContentType: w.header.Get("Content-Type"),
		Body:        w.buf.String(),
	}
	if res.Status == 0 {
		res.Status = http.StatusOK
	}
	for k := range w.header {
		if k == "Content-Type" {
			continue
		}
		if res.Headers == nil {
			res.Headers = make(map[string]string, len(w.header))
		}
		res.Headers[k] = w.header.Get(k)
	}

	return res, nil
}

// frameWriter is an http.ResponseWriter that accumulates.
type frameWriter struct {
	header http.Header
	status int
	buf    bytes.Buffer
}

func newFrameWriter() *frameWriter {
	return &frameWriter{
		header: make(http.Header, 4),
	}
}

func (w *frameWriter) Header() http.Header {
	return w.header
}

func (w *frameWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *frameWriter) Write(bs []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.buf.Write(bs)
}
