package host

import (
	"net/http"
)

// Response is a core.ScriptResponse writing to an
// http.ResponseWriter.
type Response struct {
	w http.ResponseWriter

	contentType string
	charset     string

	status  int
	written bool
}

func NewResponse(w http.ResponseWriter) *Response {
	return &Response{
		w: w,
	}
}

func (r *Response) Header() http.Header {
	return r.w.Header()
}

// WriteHeader is ignored after the first call or after a Write.
func (r *Response) WriteHeader(status int) {
	if r.written {
		return
	}
	r.written = true
	r.status = status
	r.w.WriteHeader(status)
}

func (r *Response) Write(bs []byte) (int, error) {
	if !r.written {
		r.written = true
		r.status = http.StatusOK
	}
	return r.w.Write(bs)
}

// SetContentType sets the Content-Type header.  A charset parameter
// in the given type becomes the character encoding.
func (r *Response) SetContentType(ct string) {
	if r.written {
		return
	}
	r.contentType, r.charset = splitCharset(ct, r.charset)
	r.update()
}

// SetCharacterEncoding sets the charset parameter of the Content-Type
// header.
func (r *Response) SetCharacterEncoding(charset string) {
	if r.written {
		return
	}
	r.charset = charset
	r.update()
}

func (r *Response) ContentType() string {
	return r.contentType
}

func (r *Response) CharacterEncoding() string {
	return r.charset
}

// Written reports whether the status (and headers) have been sent.
func (r *Response) Written() bool {
	return r.written
}

// Status is the status sent, if any.
func (r *Response) Status() int {
	return r.status
}

func (r *Response) update() {
	if r.contentType == "" {
		return
	}
	v := r.contentType
	if r.charset != "" {
		v += "; charset=" + r.charset
	}
	r.w.Header().Set("Content-Type", v)
}
