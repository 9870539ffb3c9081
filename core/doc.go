/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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

// Package core provides the gear that runs one resolved script
// against one request.
//
// The primary type is Dispatcher, and the primary method is
// Dispatch().  A Dispatcher is built once for an Executable together
// with the WiredProviders (capability providers) that apply to that
// Executable and a ContextProvider that knows how to prepare an
// ExecutionContext for it.
//
// Dispatch() checks that the request and response belong to the
// script request family (ScriptRequest and ScriptResponse), negotiates
// the response content type (unless the request is an include),
// decorates the request with the union of the resource types declared
// by the wired providers, and then runs the Executable.  Running means
// prepare, evaluate, and clean.  Clean always happens.
//
// An evaluation failure is reported as an ExecutionFailed, which names
// the Executable and carries the deepest available cause.
//
// Which Executable to run is not decided here.  See package bundle
// for one way to wire Dispatchers and package host for an HTTP
// adapter.
package core
