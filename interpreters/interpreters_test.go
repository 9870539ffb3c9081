package interpreters

import (
	"context"
	"testing"

	"github.com/Comcast/bundled/core"
	. "github.com/Comcast/bundled/util/testutil"
)

func TestStandard(t *testing.T) {
	is := Standard()
	for _, name := range []string{"goja", "ecmascript", "markdown", "noop"} {
		if _, err := is.Find(name); err != nil {
			t.Fatal(err)
		}
	}
	if _, have := Goja(is); !have {
		t.Fatal("no goja")
	}
}

func TestStandardRuns(t *testing.T) {
	tests := []struct {
		interpreter string
		source      string
		want        string
	}{
		{"goja", `_.response.write("js");`, "js"},
		{"ecmascript", `_.response.write("es");`, "es"},
		{"markdown", "*md*", "<p><em>md</em></p>\n"},
		{"noop", "", ""},
	}

	is := Standard()
	for _, tc := range tests {
		t.Run(tc.interpreter, func(t *testing.T) {
			exe := &core.Executable{
				Name:        tc.interpreter,
				Interpreter: tc.interpreter,
				Source:      tc.source,
			}
			if err := core.Compile(context.Background(), is, exe); err != nil {
				t.Fatal(err)
			}
			res := NewRecorder()
			if err := core.Run(context.Background(), is, NewFakeRequest("/"), res, exe); err != nil {
				t.Fatal(err)
			}
			if got := res.String(); got != tc.want {
				t.Fatalf("got %q", got)
			}
		})
	}
}
