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

// Package host adapts net/http to the script request family.
//
// A Router maps request paths to Dispatchers.  For each HTTP request,
// the Router builds a Request (a core.ScriptRequest) and a Response (a
// core.ScriptResponse) and calls Dispatch().  A Request is also a
// core.Includer, so scripts can include other routes.
package host
