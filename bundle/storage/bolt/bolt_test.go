package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Comcast/bundled/bundle"
	"github.com/Comcast/bundled/bundle/storage"
	. "github.com/Comcast/bundled/util/testutil"
)

var _ storage.Storage = &Storage{}

func openStorage(t *testing.T, filename string) *Storage {
	s, err := NewStorage(filename)
	if err != nil {
		t.Fatal(err)
	}
	if err = s.Open(); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStorage(t *testing.T) {
	var (
		ctx      = context.Background()
		filename = filepath.Join(t.TempDir(), "bundles.db")
		s        = openStorage(t, filename)
	)

	b := &bundle.Bundle{
		Name: "site",
		Scripts: []*bundle.Script{
			{
				Name:     "page.js",
				Path:     "/page.html",
				Source:   `_.response.write("page");`,
				Requires: []string{"fragment"},
			},
		},
	}
	if err := s.Put(ctx, b); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, &bundle.Bundle{Name: "other"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "site")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || JS(got) != JS(b) {
		t.Fatalf("got %s", JS(got))
	}

	if got, err = s.Get(ctx, "missing"); err != nil || got != nil {
		t.Fatalf("got %s, %v", JS(got), err)
	}

	names, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if JS(names) != `["other","site"]` {
		t.Fatalf("names %s", JS(names))
	}

	if err = s.Remove(ctx, "other"); err != nil {
		t.Fatal(err)
	}
	if err = s.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopen to see what survived.
	s = openStorage(t, filename)
	defer s.Close()

	bs, err := storage.Load(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if len(bs) != 1 || bs[0].Name != "site" {
		t.Fatalf("loaded %s", JS(bs))
	}
}

func TestStorageInvalid(t *testing.T) {
	s := openStorage(t, filepath.Join(t.TempDir(), "bundles.db"))
	defer s.Close()

	if err := s.Put(context.Background(), &bundle.Bundle{}); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestNotOpen(t *testing.T) {
	s, err := NewStorage(filepath.Join(t.TempDir(), "bundles.db"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err = s.Put(ctx, &bundle.Bundle{Name: "x"}); err != NotOpen {
		t.Fatalf("got %v", err)
	}
	if _, err = s.Get(ctx, "x"); err != NotOpen {
		t.Fatalf("got %v", err)
	}
	if _, err = s.List(ctx); err != NotOpen {
		t.Fatalf("got %v", err)
	}
	if err = s.Remove(ctx, "x"); err != NotOpen {
		t.Fatalf("got %v", err)
	}
	if err = s.Close(); err != NotOpen {
		t.Fatalf("got %v", err)
	}
}
