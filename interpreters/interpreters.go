package interpreters

import (
	"github.com/Comcast/bundled/core"
	"github.com/Comcast/bundled/interpreters/goja"
	"github.com/Comcast/bundled/interpreters/markdown"
	"github.com/Comcast/bundled/interpreters/noop"
)

// Standard returns a fresh map of the standard interpreters.
//
// "ecmascript" is an alias for "goja".
func Standard() core.InterpretersMap {
	is := core.NewInterpretersMap()

	g := goja.NewInterpreter()
	is["goja"] = g
	is["ecmascript"] = g

	is["markdown"] = markdown.NewInterpreter()

	is["noop"] = noop.NewInterpreter()

	return is
}

// Goja returns the goja interpreter in the given map, if any.
func Goja(is core.InterpretersMap) (*goja.Interpreter, bool) {
	g, ok := is["goja"].(*goja.Interpreter)
	return g, ok
}
