package bundle

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Comcast/bundled/core"
	"github.com/Comcast/bundled/interpreters"
	"github.com/Comcast/bundled/interpreters/goja"
	. "github.com/Comcast/bundled/util/testutil"
)

var siteManifest = `
name: site
doc: A tiny site.
scripts:
  - name: page.js
    path: /page.html
    file: page.js
    provides:
      - capability: page
        resourceTypes: [app/page]
    requires: [fragment, page]
  - name: fragment.js
    path: /fragment.html
    interpreter: goja
    source:
      code: '_.response.write(twice("frag"));'
      requires: ["lib://twice"]
    provides:
      - capability: fragment
        resourceTypes: [app/page, app/fragment]
  - name: readme.md
    path: /readme.html
    interpreter: markdown
    source: "# Readme"
`

func writeSite(t *testing.T) string {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "site.yaml"), []byte(siteManifest), 0644); err != nil {
		t.Fatal(err)
	}
	page := `_.response.write(_.request.resourceTypes.join(","));`
	if err := os.WriteFile(filepath.Join(dir, "page.js"), []byte(page), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestReadDir(t *testing.T) {
	bs, err := ReadDir(writeSite(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(bs) != 1 {
		t.Fatalf("got %d bundles", len(bs))
	}
	b := bs[0]
	if b.Name != "site" || len(b.Scripts) != 3 {
		t.Fatalf("got %s", JS(b))
	}
	page := b.Scripts[0]
	if src, is := page.Source.(string); !is || !strings.Contains(src, "resourceTypes") {
		t.Fatalf("page source %#v", page.Source)
	}
	if JS(page.Provides) != `[{"capability":"page","resourceTypes":["app/page"]}]` {
		t.Fatalf("provides %s", JS(page.Provides))
	}
	if JS(page.Requires) != `["fragment","page"]` {
		t.Fatalf("requires %s", JS(page.Requires))
	}
}

func TestWire(t *testing.T) {
	bs, err := ReadDir(writeSite(t))
	if err != nil {
		t.Fatal(err)
	}

	is := interpreters.Standard()
	g, _ := interpreters.Goja(is)
	g.LibraryProvider = goja.MakeMapLibraryProvider(map[string]string{
		"lib://twice": `function twice(s) { return s + s; }`,
	})

	ctx := context.Background()
	ws, err := Wire(ctx, is, bs...)
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 3 {
		t.Fatalf("got %d wirings", len(ws))
	}

	want := map[string]string{
		"page.js":     "app/page,app/fragment",
		"fragment.js": "fragfrag",
		"readme.md":   "<h1>Readme</h1>",
	}
	for _, w := range ws {
		res := NewRecorder()
		req := NewFakeRequest(w.Script.Path)
		req.ContentType = "text/html"
		if err := w.Dispatcher.Dispatch(ctx, req, res); err != nil {
			t.Fatal(err)
		}
		if got := strings.TrimSpace(res.String()); got != want[w.Script.Name] {
			t.Fatalf("%s: got %q", w.Script.Name, got)
		}
		if w.Bundle != "site" {
			t.Fatalf("bundle %q", w.Bundle)
		}
	}

	// page.js requires its own capability, which mustn't be wired
	// twice.
	if n := ws[0].Dispatcher.Wired.Len(); n != 2 {
		t.Fatalf("page.js has %d providers", n)
	}
}

func TestWireUnknownCapability(t *testing.T) {
	b, err := Parse([]byte(`
name: broken
scripts:
  - name: a.js
    interpreter: noop
    requires: [nothing]
`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err = Wire(context.Background(), interpreters.Standard(), b); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestWireDuplicateCapability(t *testing.T) {
	b, err := Parse([]byte(`
name: broken
scripts:
  - name: a.js
    interpreter: noop
    provides: [{capability: x}]
  - name: b.js
    interpreter: noop
    provides: [{capability: x}]
`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err = Wire(context.Background(), interpreters.Standard(), b); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestWireCompileError(t *testing.T) {
	b, err := Parse([]byte(`
name: broken
scripts:
  - name: a.js
    source: "this is not javascript ("
`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err = Wire(context.Background(), interpreters.Standard(), b); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestParseInvalid(t *testing.T) {
	for _, src := range []string{
		`scripts: []`,
		"name: x\nscripts:\n  - name: a\n  - name: a\n",
		"name: x\nscripts:\n  - source: y\n",
	} {
		if _, err := Parse([]byte(src)); err == nil {
			t.Fatalf("didn't protest about %q", src)
		}
	}
}

func TestWireDefaults(t *testing.T) {
	b := &Bundle{
		Name: "defaults",
		Scripts: []*Script{
			{Name: "x.js", Source: `_.response.write("x");`},
		},
	}
	ws, err := Wire(context.Background(), nil, b)
	if err != nil {
		t.Fatal(err)
	}
	exe := ws[0].Dispatcher.Executable
	if exe.Interpreter != "goja" {
		t.Fatalf("interpreter %q", exe.Interpreter)
	}
	if _, is := ws[0].Dispatcher.Provider.(core.InterpretersMap); !is {
		t.Fatalf("provider %T", ws[0].Dispatcher.Provider)
	}
}
