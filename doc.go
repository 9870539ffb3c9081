// Package bundled serves bundled scripts.
//
// The dispatch machinery is in package 'core': a core.Dispatcher
// checks that a request belongs to the script protocol family,
// negotiates the response content type, augments the request with the
// resource types of the script's wired capabilities, and runs the
// script through an interpreter.
//
// Interpreters are in 'interpreters', bundle manifests and their
// storage are in 'bundle', and 'host' adapts net/http (and WebSockets
// and MQTT) to the core.  The server is cmd/bundled.
package bundled
