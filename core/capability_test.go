package core

import (
	"context"
	"errors"
	"testing"

	. "github.com/Comcast/bundled/util/testutil"
)

// valueProvider is an incomparable CapabilityProvider.
type valueProvider struct {
	types []string
}

func (p valueProvider) Capability() Capability {
	return Capability{Name: "value", Types: p.types}
}

func TestWiredProvidersIdentity(t *testing.T) {
	var (
		p1 = NewStaticProvider("page", "app/page")
		p2 = NewStaticProvider("page", "app/page")
	)

	w := NewWiredProviders(p1, p2, p1, nil)
	if w.Len() != 2 {
		t.Fatalf("len %d", w.Len())
	}
	ps := w.Providers()
	if ps[0] != CapabilityProvider(p1) || ps[1] != CapabilityProvider(p2) {
		t.Fatal("wrong order")
	}

	// Can't hurt the WiredProviders via the copy.
	ps[0] = nil
	if w.Providers()[0] == nil {
		t.Fatal("shared slice")
	}
}

func TestWiredProvidersIncomparable(t *testing.T) {
	v := valueProvider{types: []string{"app/value"}}
	w := NewWiredProviders(v, v)
	if w.Len() != 2 {
		t.Fatalf("len %d", w.Len())
	}
	if JS(w.ResourceTypes()) != `["app/value"]` {
		t.Fatalf("types %s", JS(w.ResourceTypes()))
	}
}

func TestWiredProvidersUnion(t *testing.T) {
	w := NewWiredProviders(
		NewStaticProvider("a", "app/page"),
		NewStaticProvider("b", "app/page"),
		NewStaticProvider("c", "app/page", "app/fragment"),
	)
	got := w.ResourceTypes()
	if JS(got) != `["app/page","app/fragment"]` {
		t.Fatalf("got %s", JS(got))
	}

	// Again, to make sure nothing was cached badly.
	if JS(w.ResourceTypes()) != JS(got) {
		t.Fatal("union changed")
	}
}

func TestWiredProvidersEmpty(t *testing.T) {
	var w *WiredProviders
	if w.Len() != 0 || len(w.ResourceTypes()) != 0 || w.Providers() != nil {
		t.Fatal("nil WiredProviders isn't empty")
	}
	if n := len(NewWiredProviders().ResourceTypes()); n != 0 {
		t.Fatalf("len %d", n)
	}
}

func TestStaticProviderImmutable(t *testing.T) {
	ts := []string{"app/page"}
	p := NewStaticProvider("page", ts...)
	ts[0] = "app/other"
	c := p.Capability()
	c.Types[0] = "app/mutated"
	if got := p.Capability().ResourceTypes(); got[0] != "app/page" {
		t.Fatalf("got %s", JS(got))
	}
}

func TestAugmentedRequestCopies(t *testing.T) {
	a := Augment(NewFakeRequest("/"), NewWiredProviders(NewStaticProvider("a", "app/page")))
	ts := a.ResourceTypes()
	ts[0] = "app/mutated"
	if a.ResourceTypes()[0] != "app/page" {
		t.Fatal("shared slice")
	}
}

type includingRequest struct {
	*FakeRequest
	included []string
}

func (r *includingRequest) Include(ctx context.Context, path string) error {
	r.included = append(r.included, path)
	return nil
}

func TestFindIncluder(t *testing.T) {
	req := &includingRequest{
		FakeRequest: NewFakeRequest("/"),
	}
	a := Augment(req, nil)
	i, is := FindIncluder(a)
	if !is {
		t.Fatal("didn't find the includer")
	}
	if err := i.Include(context.Background(), "/fragment.html"); err != nil {
		t.Fatal(err)
	}
	if JS(req.included) != `["/fragment.html"]` {
		t.Fatalf("included %s", JS(req.included))
	}

	if _, is = FindIncluder(Augment(NewFakeRequest("/"), nil)); is {
		t.Fatal("found an includer that isn't there")
	}
}

func TestInterpretersMap(t *testing.T) {
	ec := &FakeContext{}
	m := NewInterpretersMap()
	m["fake"] = &fakeInterpreter{ec: ec}

	exe := &Executable{
		Name:        "x",
		Interpreter: "fake",
		Source:      "src",
	}
	if err := Compile(context.Background(), m, exe); err != nil {
		t.Fatal(err)
	}
	if exe.Compiled != "compiled src" {
		t.Fatalf("compiled %#v", exe.Compiled)
	}

	if err := Run(context.Background(), m, NewFakeRequest("/"), NewRecorder(), exe); err != nil {
		t.Fatal(err)
	}
	if ec.Evals != 1 || ec.Cleans != 1 {
		t.Fatalf("evals %d cleans %d", ec.Evals, ec.Cleans)
	}

	exe = &Executable{
		Name:        "y",
		Interpreter: "missing",
	}
	if err := Compile(context.Background(), m, exe); !errors.Is(err, ErrInterpreterNotFound) {
		t.Fatalf("got %v", err)
	}
	if err := Run(context.Background(), m, NewFakeRequest("/"), NewRecorder(), exe); !errors.Is(err, ErrInterpreterNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestRunNoContext(t *testing.T) {
	p := ContextProviderFunc(func(ctx context.Context, req ScriptRequest, res ScriptResponse, exe *Executable) (ExecutionContext, error) {
		return nil, nil
	})
	err := Run(context.Background(), p, NewFakeRequest("/"), NewRecorder(), &Executable{Name: "x"})
	if err != ErrNoContext {
		t.Fatalf("got %v", err)
	}
}

type fakeInterpreter struct {
	ec *FakeContext
}

func (i *fakeInterpreter) Compile(ctx context.Context, src interface{}) (interface{}, error) {
	return "compiled " + src.(string), nil
}

func (i *fakeInterpreter) Prepare(ctx context.Context, req ScriptRequest, res ScriptResponse, exe *Executable) (ExecutionContext, error) {
	return i.ec, nil
}

// taggedProvider is a comparable type whose values can still make ==
// panic.
type taggedProvider struct {
	meta interface{}
}

func (p taggedProvider) Capability() Capability {
	return Capability{Name: "tagged", Types: []string{"app/tagged"}}
}

func TestWiredProvidersInterfaceField(t *testing.T) {
	w := NewWiredProviders(
		taggedProvider{meta: []string{"a"}},
		taggedProvider{meta: []string{"b"}},
	)
	if w.Len() != 2 {
		t.Fatalf("len %d", w.Len())
	}

	// Equal values are still distinct providers.
	w = NewWiredProviders(taggedProvider{meta: "x"}, taggedProvider{meta: "x"})
	if w.Len() != 2 {
		t.Fatalf("len %d", w.Len())
	}
	if JS(w.ResourceTypes()) != `["app/tagged"]` {
		t.Fatalf("types %s", JS(w.ResourceTypes()))
	}
}
