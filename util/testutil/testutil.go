/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package testutil has fakes for the request and response families
// and a few JSON conveniences for tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// JS renders its argument as JSON or as a string indicating an error.
func JS(x interface{}) string {
	bs, err := json.Marshal(&x)
	if err != nil {
		log.Printf("warning: testutil.JS error %s for %#v", err, x)
		return fmt.Sprintf("%#v", x)
	}
	return string(bs)
}

// FakeRequest is a fake script request.
type FakeRequest struct {
	URLPath     string
	HTTPMethod  string
	Attrs       map[string]interface{}
	Params      map[string]string
	Headers     map[string]string
	ContentType string
	Types       []string
}

// NewFakeRequest makes a GET FakeRequest for the given path.
func NewFakeRequest(path string) *FakeRequest {
	return &FakeRequest{
		URLPath:    path,
		HTTPMethod: "GET",
		Attrs:      make(map[string]interface{}),
		Params:     make(map[string]string),
		Headers:    make(map[string]string),
	}
}

func (r *FakeRequest) Attribute(name string) interface{} {
	return r.Attrs[name]
}

func (r *FakeRequest) Path() string {
	return r.URLPath
}

func (r *FakeRequest) Method() string {
	return r.HTTPMethod
}

func (r *FakeRequest) Param(name string) string {
	return r.Params[name]
}

func (r *FakeRequest) Header(name string) string {
	return r.Headers[name]
}

func (r *FakeRequest) ResponseContentType() string {
	return r.ContentType
}

func (r *FakeRequest) ResourceTypes() []string {
	return r.Types
}

// Recorder is a fake script response that records what happens to
// it.
type Recorder struct {
	bytes.Buffer

	Headers http.Header
	Status  int

	ContentType string
	Charset     string

	// SetContentTypes counts calls to SetContentType.
	SetContentTypes int

	// SetCharsets counts calls to SetCharacterEncoding.
	SetCharsets int
}

func NewRecorder() *Recorder {
	return &Recorder{
		Headers: make(http.Header),
	}
}

func (r *Recorder) Header() http.Header {
	return r.Headers
}

func (r *Recorder) WriteHeader(status int) {
	r.Status = status
}

func (r *Recorder) SetContentType(ct string) {
	r.SetContentTypes++
	r.ContentType = ct
}

func (r *Recorder) SetCharacterEncoding(charset string) {
	r.SetCharsets++
	r.Charset = charset
}

// FakeContext is a fake execution context.
type FakeContext struct {
	// Err, if not nil, is returned by Eval.
	Err error

	// CleanErr, if not nil, is returned by Clean.
	CleanErr error

	// Panic, if not nil, is what Eval panics with.
	Panic interface{}

	// F, if not nil, is called by Eval.
	F func() error

	Evals  int
	Cleans int

	// Order records "eval" and "clean" in the order they
	// happened.
	Order []string
}

func (c *FakeContext) Eval(ctx context.Context) error {
	c.Evals++
	c.Order = append(c.Order, "eval")
	if c.Panic != nil {
		panic(c.Panic)
	}
	if c.F != nil {
		if err := c.F(); err != nil {
			return err
		}
	}
	return c.Err
}

func (c *FakeContext) Clean() error {
	c.Cleans++
	c.Order = append(c.Order, "clean")
	return c.CleanErr
}
