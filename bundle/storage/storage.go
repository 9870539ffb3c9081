package storage

import (
	"context"

	"github.com/Comcast/bundled/bundle"
)

// Storage is a persistence interface for Bundles.
type Storage interface {
	// Put adds or replaces the Bundle with the Bundle's name.
	Put(ctx context.Context, b *bundle.Bundle) error

	// Get returns nil (and no error) if there's no such Bundle.
	Get(ctx context.Context, name string) (*bundle.Bundle, error)

	List(ctx context.Context) ([]string, error)

	Remove(ctx context.Context, name string) error
}

// Load gets all stored Bundles.
func Load(ctx context.Context, s Storage) ([]*bundle.Bundle, error) {
	names, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	acc := make([]*bundle.Bundle, 0, len(names))
	for _, name := range names {
		b, err := s.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		if b != nil {
			acc = append(acc, b)
		}
	}
	return acc, nil
}
