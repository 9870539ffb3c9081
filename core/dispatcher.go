/* Copyright 2019 Comcast Cable Communications Management, LLC
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

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Dispatcher runs one Executable against requests.
//
// All fields are set when the Dispatcher is built and are read-only
// after that, so one Dispatcher can serve concurrent requests.
type Dispatcher struct {
	Provider   ContextProvider
	Wired      *WiredProviders
	Executable *Executable

	// Observer, if not nil, hears about lifecycle transitions.
	Observer RunObserver
}

// NewDispatcher makes a Dispatcher.  The ContextProvider and the
// Executable are required; a nil WiredProviders means no providers.
// Dispatch reports ErrIncompleteDispatcher if either is missing.
func NewDispatcher(p ContextProvider, wired *WiredProviders, exe *Executable) *Dispatcher {
	if wired == nil {
		wired = NewWiredProviders()
	}
	return &Dispatcher{
		Provider:   p,
		Wired:      wired,
		Executable: exe,
	}
}

// Dispatch runs the Executable against the given request and
// response.
//
// The request and response must be a ScriptRequest and a
// ScriptResponse; otherwise the result is a ProtocolMismatch and
// nothing else happens.  An evaluation failure is returned as an
// ExecutionFailed.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request, res Response) error {
	if d.Provider == nil || d.Executable == nil {
		return ErrIncompleteDispatcher
	}

	request, is := req.(ScriptRequest)
	if !is {
		return d.mismatch(req, res)
	}
	response, is := res.(ScriptResponse)
	if !is {
		return d.mismatch(req, res)
	}

	if request.Attribute(AttrIncludeServletPath) == nil {
		if ct := request.ResponseContentType(); ct != "" {
			response.SetContentType(ct)
			if strings.HasPrefix(ct, TextPrefix) {
				response.SetCharacterEncoding(DefaultCharset)
			}
		}
	}

	augmented := Augment(request, d.Wired)

	err := run(ctx, d.Provider, augmented, response, d.Executable, d.Observer)
	if err == nil {
		return nil
	}

	// Only a top-level CleanupFailure comes from this run.  One
	// deeper in the chain (say, from an include) is just a cause.
	if _, is := err.(*CleanupFailure); is {
		return err
	}

	var se *ScriptError
	if errors.As(err, &se) {
		return NewExecutionFailed(d.Executable.Name, se)
	}

	return fmt.Errorf("script %s: %w", d.Executable.Name, err)
}

func (d *Dispatcher) mismatch(req Request, res Response) error {
	return &ProtocolMismatch{
		Request:  fmt.Sprintf("%T", req),
		Response: fmt.Sprintf("%T", res),
	}
}
