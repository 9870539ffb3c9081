// Package bundle reads bundle manifests and wires their scripts into
// Dispatchers.
//
// A manifest is YAML:
//
//	name: site
//	scripts:
//	  - name: page.js
//	    path: /page.html
//	    interpreter: goja
//	    file: page.js
//	    provides:
//	      - capability: page
//	        resourceTypes: [app/page]
//	    requires: [fragment]
//
// Each script's Dispatcher is wired with the providers the script
// declares followed by the providers of the capabilities it requires.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Comcast/bundled/core"

	"github.com/jsccast/yaml"
)

// DefaultInterpreter is used for scripts that don't name one.
var DefaultInterpreter = "goja"

// Bundle is a named set of scripts.
type Bundle struct {
	Name    string    `json:"name" yaml:"name"`
	Doc     string    `json:"doc,omitempty" yaml:"doc,omitempty"`
	Scripts []*Script `json:"scripts" yaml:"scripts"`
}

// Script is the manifest entry for one Executable.
type Script struct {
	Name        string      `json:"name" yaml:"name"`
	Doc         string      `json:"doc,omitempty" yaml:"doc,omitempty"`
	Path        string      `json:"path,omitempty" yaml:"path,omitempty"`
	Interpreter string      `json:"interpreter,omitempty" yaml:"interpreter,omitempty"`
	Source      interface{} `json:"source,omitempty" yaml:"source,omitempty"`

	// File, if Source is nil, names a file (relative to the
	// manifest) that has the source.
	File string `json:"file,omitempty" yaml:"file,omitempty"`

	ContentType  string `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	ResourceType string `json:"resourceType,omitempty" yaml:"resourceType,omitempty"`

	Provides []core.Capability `json:"provides,omitempty" yaml:"provides,omitempty"`
	Requires []string          `json:"requires,omitempty" yaml:"requires,omitempty"`
}

// Parse parses a manifest.  File references are not resolved.
func Parse(bs []byte) (*Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(bs, &b); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate checks names.
func (b *Bundle) Validate() error {
	if b.Name == "" {
		return errors.New("bundle has no name")
	}
	seen := make(map[string]bool, len(b.Scripts))
	for i, s := range b.Scripts {
		if s == nil || s.Name == "" {
			return fmt.Errorf("bundle %s script %d has no name", b.Name, i)
		}
		if seen[s.Name] {
			return fmt.Errorf("bundle %s has duplicate script %s", b.Name, s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// ReadFile reads a manifest and resolves the scripts' File
// references.
func ReadFile(filename string) (*Bundle, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	b, err := Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	dir := filepath.Dir(filename)
	for _, s := range b.Scripts {
		if s.Source != nil || s.File == "" {
			continue
		}
		src, err := os.ReadFile(filepath.Join(dir, s.File))
		if err != nil {
			return nil, fmt.Errorf("bundle %s script %s: %w", b.Name, s.Name, err)
		}
		s.Source = string(src)
	}

	return b, nil
}

// ReadDir reads all the ".yaml" manifests in the given directory.
func ReadDir(dir string) ([]*Bundle, error) {
	log.Printf("ReadDir %s", dir)

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	acc := make([]*Bundle, 0, len(files))
	for _, fi := range files {
		name := fi.Name()
		if fi.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		b, err := ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		acc = append(acc, b)
	}

	return acc, nil
}

// Wiring is a script with its Dispatcher.
type Wiring struct {
	Bundle     string
	Script     *Script
	Dispatcher *core.Dispatcher
}

// Wire compiles every script in the given bundles and makes a
// Dispatcher for each.
//
// Capability names are global across the given bundles.  Requiring a
// capability that no script provides is an error.
func Wire(ctx context.Context, interpreters core.InterpretersMap, bs ...*Bundle) ([]*Wiring, error) {
	if interpreters == nil {
		interpreters = core.DefaultInterpreters
	}

	providers := make(map[string]*core.StaticProvider, 16)
	for _, b := range bs {
		for _, s := range b.Scripts {
			for _, c := range s.Provides {
				if c.Name == "" {
					return nil, fmt.Errorf("bundle %s script %s provides an unnamed capability", b.Name, s.Name)
				}
				if _, have := providers[c.Name]; have {
					return nil, fmt.Errorf("capability %s provided more than once", c.Name)
				}
				providers[c.Name] = core.NewStaticProvider(c.Name, c.Types...)
			}
		}
	}

	acc := make([]*Wiring, 0, 16)
	for _, b := range bs {
		for _, s := range b.Scripts {
			ps := make([]core.CapabilityProvider, 0, len(s.Provides)+len(s.Requires))
			for _, c := range s.Provides {
				ps = append(ps, providers[c.Name])
			}
			for _, name := range s.Requires {
				p, have := providers[name]
				if !have {
					return nil, fmt.Errorf("bundle %s script %s requires unknown capability %s", b.Name, s.Name, name)
				}
				ps = append(ps, p)
			}

			exe := &core.Executable{
				Name:        s.Name,
				Interpreter: s.Interpreter,
				Source:      s.Source,
				Doc:         s.Doc,
			}
			if exe.Interpreter == "" {
				exe.Interpreter = DefaultInterpreter
			}
			if err := core.Compile(ctx, interpreters, exe); err != nil {
				return nil, fmt.Errorf("bundle %s: %w", b.Name, err)
			}

			acc = append(acc, &Wiring{
				Bundle:     b.Name,
				Script:     s,
				Dispatcher: core.NewDispatcher(interpreters, core.NewWiredProviders(ps...), exe),
			})
		}
	}

	return acc, nil
}
