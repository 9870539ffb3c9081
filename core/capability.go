package core

import (
	"reflect"
)

// Capability declares a named capability and the resource types it
// serves.
type Capability struct {
	Name  string   `json:"capability" yaml:"capability"`
	Types []string `json:"resourceTypes,omitempty" yaml:"resourceTypes,omitempty"`
}

// ResourceTypes returns a copy of the declared resource types.
func (c Capability) ResourceTypes() []string {
	acc := make([]string, len(c.Types))
	copy(acc, c.Types)
	return acc
}

// CapabilityProvider is a declared source of resource types for an
// Executable.
type CapabilityProvider interface {
	Capability() Capability
}

// StaticProvider is a CapabilityProvider that just returns a fixed
// Capability.
//
// Identity matters: two distinct StaticProviders with equal
// Capabilities are still two providers.
type StaticProvider struct {
	c Capability
}

// NewStaticProvider makes a StaticProvider.  The given types are
// copied.
func NewStaticProvider(name string, types ...string) *StaticProvider {
	ts := make([]string, len(types))
	copy(ts, types)
	return &StaticProvider{
		c: Capability{
			Name:  name,
			Types: ts,
		},
	}
}

func (p *StaticProvider) Capability() Capability {
	return Capability{
		Name:  p.c.Name,
		Types: p.c.ResourceTypes(),
	}
}

// WiredProviders is the ordered set of CapabilityProviders wired to
// one Executable.
//
// A WiredProviders is never modified after NewWiredProviders returns,
// so concurrent reads need no locking.
type WiredProviders struct {
	ps []CapabilityProvider
}

// NewWiredProviders makes a WiredProviders that keeps the given
// providers in order, skipping nils and any provider that's already
// present.
//
// Only pointer providers have an identity, so only they are
// de-duplicated.  Other providers are always kept.
func NewWiredProviders(ps ...CapabilityProvider) *WiredProviders {
	acc := make([]CapabilityProvider, 0, len(ps))
LOOP:
	for _, p := range ps {
		if p == nil {
			continue
		}
		if isPointer(p) {
			for _, have := range acc {
				if isPointer(have) && have == p {
					continue LOOP
				}
			}
		}
		acc = append(acc, p)
	}
	return &WiredProviders{
		ps: acc,
	}
}

// isPointer reports whether == on p compares identities.  Comparing
// other kinds can panic (an interface field holding a slice) or merge
// distinct but equal values.
func isPointer(p CapabilityProvider) bool {
	return reflect.ValueOf(p).Kind() == reflect.Ptr
}

// Len returns the number of providers.
func (w *WiredProviders) Len() int {
	if w == nil {
		return 0
	}
	return len(w.ps)
}

// Providers returns a copy of the providers in order.
func (w *WiredProviders) Providers() []CapabilityProvider {
	if w == nil {
		return nil
	}
	acc := make([]CapabilityProvider, len(w.ps))
	copy(acc, w.ps)
	return acc
}

// ResourceTypes computes the union of all resource types declared by
// the providers.  Each type appears once, in first-seen order.
func (w *WiredProviders) ResourceTypes() []string {
	if w == nil {
		return []string{}
	}
	var (
		seen = make(map[string]bool, 4*len(w.ps))
		acc  = make([]string, 0, 4*len(w.ps))
	)
	for _, p := range w.ps {
		for _, t := range p.Capability().ResourceTypes() {
			if seen[t] {
				continue
			}
			seen[t] = true
			acc = append(acc, t)
		}
	}
	return acc
}
